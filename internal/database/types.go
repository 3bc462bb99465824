package database

import (
	"context"
	"time"

	"github.com/muratoffalex/ytscribe/internal/transcript"
)

// Database keeps the attempt history. Transcripts themselves are never stored.
type Database interface {
	Close() error
	ExecWithRetry(ctx context.Context, query string, args ...any) (int64, error)

	RecordAttempts(ctx context.Context, requestID, videoID string, attempts []transcript.Attempt) error
	RecentAttempts(ctx context.Context, videoID string, limit int) ([]AttemptRecord, error)
	PurgeOldAttempts(ctx context.Context, retentionDays int) (int64, error)
}

// AttemptRecord is one stored row. Step is empty for a strategy and set for
// the profiles or mirrors tried inside it.
type AttemptRecord struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"requestId"`
	VideoID    string    `json:"videoId"`
	Strategy   string    `json:"strategy"`
	Step       string    `json:"step,omitempty"`
	Succeeded  bool      `json:"succeeded"`
	Kind       string    `json:"kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

func recordsFor(requestID, videoID string, attempts []transcript.Attempt) []AttemptRecord {
	records := make([]AttemptRecord, 0, len(attempts))
	for _, a := range attempts {
		records = append(records, AttemptRecord{
			RequestID:  requestID,
			VideoID:    videoID,
			Strategy:   a.Strategy,
			Succeeded:  a.Succeeded,
			Kind:       a.Kind,
			Error:      a.Error,
			DurationMs: a.DurationMs,
		})
		for _, step := range a.Steps {
			records = append(records, AttemptRecord{
				RequestID:  requestID,
				VideoID:    videoID,
				Strategy:   a.Strategy,
				Step:       step.Strategy,
				Succeeded:  step.Succeeded,
				Kind:       step.Kind,
				Error:      step.Error,
				DurationMs: step.DurationMs,
			})
		}
	}
	return records
}
