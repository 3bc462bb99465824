package transcript

import (
	"errors"
	"math"
	"time"
)

// Segment is one timed piece of transcript text, in source order.
type Segment struct {
	Text       string `json:"text"`
	StartMs    int64  `json:"startMs"`
	DurationMs int64  `json:"durationMs"`
}

// NewSegment converts second offsets to milliseconds. Negative values are clamped to zero.
func NewSegment(text string, start, dur float64) Segment {
	return Segment{
		Text:       text,
		StartMs:    toMillis(start),
		DurationMs: toMillis(dur),
	}
}

func (s Segment) EndMs() int64 {
	return s.StartMs + s.DurationMs
}

func toMillis(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}

// Attempt records one strategy (or one step inside a strategy) of a pipeline run.
type Attempt struct {
	Strategy   string    `json:"strategy"`
	Succeeded  bool      `json:"succeeded"`
	Error      string    `json:"error,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Steps      []Attempt `json:"steps,omitempty"`

	Err error `json:"-"`
}

func SucceededAttempt(name string, elapsed time.Duration, steps []Attempt) Attempt {
	return Attempt{
		Strategy:   name,
		Succeeded:  true,
		DurationMs: elapsed.Milliseconds(),
		Steps:      steps,
	}
}

func FailedAttempt(name string, err error, elapsed time.Duration) Attempt {
	return Attempt{
		Strategy:   name,
		Error:      err.Error(),
		Kind:       KindOf(err),
		DurationMs: elapsed.Milliseconds(),
		Steps:      StepsOf(err),
		Err:        err,
	}
}

// StepsOf returns the inner steps carried by a *StepsError, if any.
func StepsOf(err error) []Attempt {
	var stepsErr *StepsError
	if errors.As(err, &stepsErr) {
		return stepsErr.Steps
	}
	return nil
}

// Result is the outcome of one successful pipeline run. It lives only for the request.
type Result struct {
	VideoID  string    `json:"videoId"`
	Segments []Segment `json:"segments"`
	Source   string    `json:"source"`
	Language string    `json:"language,omitempty"`
	Attempts []Attempt `json:"attempts"`
}

// Audio is a downloaded audio file inside a request's temporary directory.
type Audio struct {
	Path string
	Ext  string
	Size int64
	// Steps lists the profiles or mirrors tried before the file was obtained.
	Steps []Attempt
}
