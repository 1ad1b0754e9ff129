package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advergate/advergate/advertiser"
)

func fullSettings() *advertiser.Settings {
	return &advertiser.Settings{
		CustomVocab:        "say 'order' not 'purchase'",
		LanguageStyle:      "casual and upbeat",
		BannedPhrases:      "cheap, refund guaranteed",
		TriggerCondition:   "user_idle_for_60s",
		TriggerDelayMS:     10000,
		TriggerMessage:     "Anything I can help with?",
		IdleTimeoutMessage: "Looks like you stepped away.",
		FallbackMessage:    "Could you tell me a bit more?",
		AIInstructions:     "You are the Acme support assistant.",
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	settings := fullSettings()

	first, firstMissing := Synthesize(settings)
	second, secondMissing := Synthesize(settings)

	assert.Equal(t, first, second)
	assert.Equal(t, firstMissing, secondMissing)
}

func TestSynthesizeAllFieldsPresent(t *testing.T) {
	text, missing := Synthesize(fullSettings())

	assert.False(t, missing)
	assert.True(t, strings.HasPrefix(text, "You are the Acme support assistant.\n"))
	assert.Contains(t, text, "Example: say 'order' not 'purchase'")
	assert.Contains(t, text, "Tone: casual and upbeat")
	assert.Contains(t, text, "Never use or repeat the following: cheap, refund guaranteed")
	assert.Contains(t, text, "the condition user_idle_for_60s is met after 10000ms")
	assert.Contains(t, text, `"Anything I can help with?"`)
	assert.Contains(t, text, `"Looks like you stepped away."`)
	assert.Contains(t, text, `"Could you tell me a bit more?"`)
}

func TestSynthesizeEmptySettingsUsesDefaults(t *testing.T) {
	text, missing := Synthesize(&advertiser.Settings{})

	assert.True(t, missing)
	assert.True(t, strings.HasPrefix(text, DefaultAIInstructions+"\n"))
	assert.Contains(t, text, "Tone: "+DefaultTone)
	assert.Contains(t, text, "Never use or repeat the following: "+DefaultBannedPhrases)
	assert.Contains(t, text, "the condition "+DefaultTriggerCondition+" is met after 5000ms")
	assert.Contains(t, text, `"`+DefaultTriggerMessage+`"`)
	assert.Contains(t, text, `"`+DefaultIdleTimeoutMessage+`"`)
	assert.Contains(t, text, `"`+DefaultFallbackMessage+`"`)
	// The custom vocabulary example line stays empty rather than defaulted.
	assert.Contains(t, text, "Example: \n")
}

func TestSynthesizeSectionOrder(t *testing.T) {
	text, _ := Synthesize(&advertiser.Settings{})

	sections := []string{
		"Custom Vocabulary:",
		"Behavior Rules:",
		"❗ Banned Phrases:",
		"🔁 Unclear Input:",
		"🕒 Idle Timeout Trigger:",
		"⌛ Idle Timeout Message:",
		"⚠️ Fallback Handling:",
		"Style Guide:",
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(text, section)
		require.GreaterOrEqual(t, idx, 0, "section %q missing", section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}

func TestSynthesizeMissingFieldsFlag(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*advertiser.Settings)
		missing bool
	}{
		{"all present", func(*advertiser.Settings) {}, false},
		{"no custom vocab", func(s *advertiser.Settings) { s.CustomVocab = "" }, true},
		{"no tone", func(s *advertiser.Settings) { s.LanguageStyle = "" }, true},
		{"no banned phrases", func(s *advertiser.Settings) { s.BannedPhrases = "" }, true},
		{"no trigger condition", func(s *advertiser.Settings) { s.TriggerCondition = "" }, true},
		{"zero trigger delay", func(s *advertiser.Settings) { s.TriggerDelayMS = 0 }, true},
		{"no trigger message", func(s *advertiser.Settings) { s.TriggerMessage = "" }, true},
		{"no idle timeout message", func(s *advertiser.Settings) { s.IdleTimeoutMessage = "" }, true},
		{"no fallback message", func(s *advertiser.Settings) { s.FallbackMessage = "" }, true},
		{"no ai instructions", func(s *advertiser.Settings) { s.AIInstructions = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := fullSettings()
			tt.mutate(settings)
			_, missing := Synthesize(settings)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestSynthesizeDelaySubstitution(t *testing.T) {
	settings := fullSettings()
	settings.TriggerDelayMS = 0
	text, missing := Synthesize(settings)

	assert.True(t, missing)
	assert.Contains(t, text, "after 5000ms")
	assert.NotContains(t, text, "after 0ms")
}
