package transcript

import (
	"errors"
	"strings"
)

// Hint identifies the human-readable advice attached to a failed request.
type Hint string

const (
	HintInvalidInput     Hint = "invalid_input"
	HintConfiguration    Hint = "configuration"
	HintTranscription    Hint = "transcription"
	HintStaleCredentials Hint = "stale_credentials"
	HintNoMedia          Hint = "no_media"
)

var botCheckMarkers = []string{
	"sign in to confirm",
	"not a bot",
	"login_required",
	"too many requests",
	"http error 403",
	"http error 429",
}

func HintFor(err error) Hint {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return HintInvalidInput
	case errors.Is(err, ErrConfiguration):
		return HintConfiguration
	case errors.Is(err, ErrTranscriptionFailed), errors.Is(err, ErrInsufficientContent):
		return HintTranscription
	}
	for _, a := range AttemptsOf(err) {
		if attemptBlocked(a) {
			return HintStaleCredentials
		}
	}
	if looksBlocked(err) {
		return HintStaleCredentials
	}
	return HintNoMedia
}

func attemptBlocked(a Attempt) bool {
	if a.Succeeded {
		return false
	}
	if a.Kind == KindTimeout || looksBlocked(a.Err) || containsBotCheck(a.Error) {
		return true
	}
	for _, step := range a.Steps {
		if attemptBlocked(step) {
			return true
		}
	}
	return false
}

func looksBlocked(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Blocked() {
		return true
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	return containsBotCheck(err.Error())
}

func containsBotCheck(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range botCheckMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
