package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/muratoffalex/ytscribe/internal/transcript"
)

var testRef = transcript.VideoRef{ID: "dQw4w9WgXcQ"}

type stubStrategy struct {
	name  string
	calls int
	run   func(ctx context.Context, req Request) (Outcome, error)
}

func (s *stubStrategy) Name() string {
	return s.name
}

func (s *stubStrategy) Run(ctx context.Context, req Request) (Outcome, error) {
	s.calls++
	return s.run(ctx, req)
}

func failing(name string, err error) *stubStrategy {
	return &stubStrategy{name: name, run: func(context.Context, Request) (Outcome, error) {
		return Outcome{}, err
	}}
}

func succeeding(name string, segments ...transcript.Segment) *stubStrategy {
	return &stubStrategy{name: name, run: func(context.Context, Request) (Outcome, error) {
		return Outcome{Segments: segments, Language: "en"}, nil
	}}
}

type captionSourceFunc struct {
	name  string
	fetch func(ctx context.Context, ref transcript.VideoRef, lang string) ([]transcript.Segment, string, error)
}

func (c captionSourceFunc) Name() string {
	return c.name
}

func (c captionSourceFunc) FetchCaptions(ctx context.Context, ref transcript.VideoRef, lang string) ([]transcript.Segment, string, error) {
	return c.fetch(ctx, ref, lang)
}

type recordedRun struct {
	requestID string
	videoID   string
	attempts  []transcript.Attempt
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs []recordedRun
	err  error
}

func (r *memoryRecorder) RecordAttempts(ctx context.Context, requestID, videoID string, attempts []transcript.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, recordedRun{requestID, videoID, attempts})
	return r.err
}

var errBoom = errors.New("boom")
