package transcript

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"wrapped sentinel", fmt.Errorf("fetch: %w", ErrCaptionsUnavailable), KindCaptionsUnavailable},
		{"joined", errors.Join(ErrDownloadFailed, errors.New("connection reset")), KindDownloadFailed},
		{"timeout wins over download", errors.Join(ErrDownloadFailed, &TimeoutError{URL: "u", Timeout: time.Second}), KindTimeout},
		{"configuration", errors.Join(ErrConfiguration, errors.New("missing key")), KindConfiguration},
		{"canceled", context.Canceled, KindCanceled},
		{"unclassified", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(errors.Join(ErrConfiguration, errors.New("x"))))
	assert.True(t, IsFatal(ErrTranscriptionFailed))
	assert.True(t, IsFatal(fmt.Errorf("stt: %w", ErrInsufficientContent)))
	assert.False(t, IsFatal(ErrCaptionsUnavailable))
	assert.False(t, IsFatal(&TimeoutError{}))
	assert.False(t, IsFatal(errors.New("boom")))
}

func TestStepsError(t *testing.T) {
	err := &StepsError{Steps: []Attempt{
		FailedAttempt("android", &HTTPError{StatusCode: 403, URL: "p"}, time.Millisecond),
		FailedAttempt("web", ErrNoAudioAvailable, time.Millisecond),
	}}

	assert.ErrorIs(t, err, ErrNoAudioAvailable)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, httpErr.Blocked())
	assert.Contains(t, err.Error(), "android: HTTP 403 from p")

	attempt := FailedAttempt("audio-innertube", err, time.Second)
	assert.Len(t, attempt.Steps, 2)
	assert.Equal(t, KindNoAudioAvailable, attempt.Kind)
}

func TestExhaustedError(t *testing.T) {
	err := &ExhaustedError{Attempts: []Attempt{
		FailedAttempt("captions-ytdlp", ErrCaptionsUnavailable, 0),
		FailedAttempt("audio-piped", ErrNoAudioAvailable, 0),
	}}

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, KindExhausted, KindOf(err))
	assert.Equal(t, "all acquisition strategies exhausted: captions-ytdlp: captions unavailable; audio-piped: no audio available", err.Error())
	assert.Len(t, AttemptsOf(err), 2)
}

func TestHintFor(t *testing.T) {
	t.Run("no media", func(t *testing.T) {
		err := &ExhaustedError{Attempts: []Attempt{
			FailedAttempt("captions-scrape", ErrParse, 0),
			FailedAttempt("audio-piped", ErrNoAudioAvailable, 0),
		}}
		assert.Equal(t, HintNoMedia, HintFor(err))
	})

	t.Run("blocked status in a step", func(t *testing.T) {
		steps := &StepsError{Steps: []Attempt{
			FailedAttempt("web", &HTTPError{StatusCode: 429, URL: "p"}, 0),
		}}
		err := &ExhaustedError{Attempts: []Attempt{FailedAttempt("audio-innertube", steps, 0)}}
		assert.Equal(t, HintStaleCredentials, HintFor(err))
	})

	t.Run("timeout", func(t *testing.T) {
		err := &ExhaustedError{Attempts: []Attempt{
			FailedAttempt("audio-piped", &TimeoutError{URL: "m", Timeout: time.Second}, 0),
		}}
		assert.Equal(t, HintStaleCredentials, HintFor(err))
	})

	t.Run("bot check message", func(t *testing.T) {
		err := &ExhaustedError{Attempts: []Attempt{
			FailedAttempt("audio-ytdlp", errors.New("ERROR: Sign in to confirm you're not a bot"), 0),
		}}
		assert.Equal(t, HintStaleCredentials, HintFor(err))
	})

	t.Run("fatal kinds", func(t *testing.T) {
		assert.Equal(t, HintConfiguration, HintFor(&FatalError{Strategy: "audio-piped", Err: ErrConfiguration}))
		assert.Equal(t, HintTranscription, HintFor(&FatalError{Strategy: "audio-piped", Err: ErrInsufficientContent}))
		assert.Equal(t, HintInvalidInput, HintFor(ErrInvalidInput))
	})
}
