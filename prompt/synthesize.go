package prompt

import (
	"fmt"

	"github.com/advergate/advergate/advertiser"
)

// Defaults substituted for behavioral fields the advertiser never set.
// The wording is part of the synthesized prompt contract: the result is
// sent verbatim to the NLU agent, so these literals must not drift.
const (
	DefaultAIInstructions     = "You are a customer support assistant."
	DefaultTone               = "friendly and professional"
	DefaultBannedPhrases      = "[none specified]"
	DefaultTriggerCondition   = "user_idle_for_30s"
	DefaultTriggerDelayMS     = int64(5000)
	DefaultTriggerMessage     = "Hi there! Need help with anything?"
	DefaultIdleTimeoutMessage = "Still there? Let me know if you need anything!"
	DefaultFallbackMessage    = "I’m here to help, but I might need a bit more info to assist you."
)

const promptTemplate = `%s
Always follow the brand's support style. Be conversational, clear, and helpful. Never mention that you are an AI.

Custom Vocabulary: Use brand-specific terms when applicable.
Example: %s

Behavior Rules:
Tone: %s

❗ Banned Phrases:
Never use or repeat the following: %s

🔁 Unclear Input:
If the user’s message is confusing or unclear, reply with:
"I didn’t quite catch that. Could you try rephrasing?"

🕒 Idle Timeout Trigger:
If no user input is received and the condition %s is met after %dms, initiate:
"%s"

⌛ Idle Timeout Message:
If the user has been inactive for an extended period, send:
"%s"

⚠️ Fallback Handling:
If no suitable response or intent is found, use the fallback message:
"%s"

Style Guide:
Apply custom vocabulary and adhere to tone and language style across all replies.`

// Synthesize builds the system prompt for one advertiser. The second
// return value reports whether any of the nine behavioral fields was
// absent, no matter which defaults filled the gaps. Deterministic: the
// same settings always produce byte-identical output.
func Synthesize(s *advertiser.Settings) (string, bool) {
	missing := s.CustomVocab == "" ||
		s.LanguageStyle == "" ||
		s.BannedPhrases == "" ||
		s.TriggerCondition == "" ||
		s.TriggerDelayMS == 0 ||
		s.TriggerMessage == "" ||
		s.IdleTimeoutMessage == "" ||
		s.FallbackMessage == "" ||
		s.AIInstructions == ""

	text := fmt.Sprintf(promptTemplate,
		orDefault(s.AIInstructions, DefaultAIInstructions),
		s.CustomVocab,
		orDefault(s.LanguageStyle, DefaultTone),
		orDefault(s.BannedPhrases, DefaultBannedPhrases),
		orDefault(s.TriggerCondition, DefaultTriggerCondition),
		orDefaultInt(s.TriggerDelayMS, DefaultTriggerDelayMS),
		orDefault(s.TriggerMessage, DefaultTriggerMessage),
		orDefault(s.IdleTimeoutMessage, DefaultIdleTimeoutMessage),
		orDefault(s.FallbackMessage, DefaultFallbackMessage),
	)

	return text, missing
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int64) int64 {
	if value == 0 {
		return fallback
	}
	return value
}
