package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrConfiguration       = errors.New("configuration error")
	ErrCaptionsUnavailable = errors.New("captions unavailable")
	ErrNoAudioAvailable    = errors.New("no audio available")
	ErrDownloadFailed      = errors.New("download failed")
	ErrParse               = errors.New("parse error")
	ErrTimeout             = errors.New("timeout")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrInsufficientContent = errors.New("insufficient content")
	ErrExhausted           = errors.New("all acquisition strategies exhausted")
)

const (
	KindInvalidInput        = "invalid_input"
	KindConfiguration       = "configuration"
	KindCaptionsUnavailable = "captions_unavailable"
	KindNoAudioAvailable    = "no_audio_available"
	KindDownloadFailed      = "download_failed"
	KindParse               = "parse_error"
	KindTimeout             = "timeout"
	KindTranscriptionFailed = "transcription_failed"
	KindInsufficientContent = "insufficient_content"
	KindExhausted           = "exhausted"
	KindCanceled            = "canceled"
	KindUnknown             = "unknown"
)

// Ordered from most to least specific: a joined error is reported under the first match.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrConfiguration, KindConfiguration},
	{ErrInsufficientContent, KindInsufficientContent},
	{ErrTranscriptionFailed, KindTranscriptionFailed},
	{ErrTimeout, KindTimeout},
	{ErrParse, KindParse},
	{ErrCaptionsUnavailable, KindCaptionsUnavailable},
	{ErrNoAudioAvailable, KindNoAudioAvailable},
	{ErrDownloadFailed, KindDownloadFailed},
	{ErrExhausted, KindExhausted},
	{context.Canceled, KindCanceled},
	{context.DeadlineExceeded, KindTimeout},
}

func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// IsFatal reports whether err must stop the pipeline instead of falling through.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrTranscriptionFailed) ||
		errors.Is(err, ErrInsufficientContent)
}

type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Blocked reports a status the platform uses to reject clients it considers automated.
func (e *HTTPError) Blocked() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

// StepsError is returned by strategies that try several identities and all of them failed.
type StepsError struct {
	Steps []Attempt
}

func (e *StepsError) Error() string {
	parts := make([]string, 0, len(e.Steps))
	for _, step := range e.Steps {
		parts = append(parts, step.Strategy+": "+step.Error)
	}
	return fmt.Sprintf("all %d steps failed: %s", len(e.Steps), strings.Join(parts, "; "))
}

func (e *StepsError) Unwrap() []error {
	errs := make([]error, 0, len(e.Steps))
	for _, step := range e.Steps {
		if step.Err != nil {
			errs = append(errs, step.Err)
		}
	}
	return errs
}

type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Strategy+": "+a.Error)
	}
	return fmt.Sprintf("%s: %s", ErrExhausted, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// FatalError stops the pipeline at Strategy. Attempts includes the failing one.
type FatalError struct {
	Strategy string
	Attempts []Attempt
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// AttemptsOf returns the attempts carried by a pipeline error.
func AttemptsOf(err error) []Attempt {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Attempts
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return fatal.Attempts
	}
	return nil
}
