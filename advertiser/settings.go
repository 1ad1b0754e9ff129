package advertiser

import "time"

// Settings is one advertiser's configuration document. Every behavioral
// field is optional; an empty value means the advertiser never set it.
type Settings struct {
	CustomVocab        string `firestore:"ADV_custom_vocab,omitempty"`
	LanguageStyle      string `firestore:"ADV_language_style,omitempty"`
	BannedPhrases      string `firestore:"ADV_banned_phrases,omitempty"`
	TriggerCondition   string `firestore:"ADV_trigger_condition,omitempty"`
	TriggerDelayMS     int64  `firestore:"ADV_trigger_delay,omitempty"`
	TriggerMessage     string `firestore:"ADV_trigger_message,omitempty"`
	IdleTimeoutMessage string `firestore:"ADV_idle_timeout_msg,omitempty"`
	FallbackMessage    string `firestore:"ADV_fallback_message,omitempty"`
	AIInstructions     string `firestore:"ADV_ai_instructions,omitempty"`

	// Last synthesized prompt written back by a forced refresh.
	Prompt            string    `firestore:"Prompt,omitempty"`
	PromptLastUpdated time.Time `firestore:"Prompt_last_updated,omitempty"`
}
