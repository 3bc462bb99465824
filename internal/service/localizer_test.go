package service

import (
	"testing"

	"github.com/muratoffalex/ytscribe/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizer_Hint(t *testing.T) {
	l, err := NewLocalizer("en")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"en", "ru"}, l.Languages())

	en := l.Hint("", transcript.HintStaleCredentials)
	assert.Contains(t, en, "fresher cookies")

	ru := l.Hint("ru-RU,ru;q=0.9,en;q=0.8", transcript.HintStaleCredentials)
	assert.Contains(t, ru, "cookies")
	assert.NotEqual(t, en, ru)

	assert.Equal(t, en, l.Hint("fr-FR", transcript.HintStaleCredentials))

	for _, hint := range []transcript.Hint{
		transcript.HintInvalidInput,
		transcript.HintConfiguration,
		transcript.HintTranscription,
		transcript.HintNoMedia,
	} {
		assert.NotEqual(t, "hint_"+string(hint), l.Hint("en", hint), hint)
		assert.NotEqual(t, "hint_"+string(hint), l.Hint("ru", hint), hint)
	}
}

func TestLocalizer_FallbackLanguage(t *testing.T) {
	l, err := NewLocalizer("ru")
	require.NoError(t, err)

	assert.Equal(t, l.Hint("ru", transcript.HintNoMedia), l.Hint("", transcript.HintNoMedia))
	assert.Equal(t, "Too many requests, retry in 3s.", l.Localize("en", "error_throttled", map[string]any{"RetryAfter": 3}))
	assert.Equal(t, "missing_message", l.Localize("en", "missing_message", nil))
}

func TestNewLocalizer_InvalidLanguage(t *testing.T) {
	_, err := NewLocalizer("not a language tag")
	require.Error(t, err)
}
