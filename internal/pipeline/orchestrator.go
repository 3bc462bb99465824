package pipeline

import (
	"context"
	"time"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

// Recorder receives the attempts of every finished run, successful or not.
type Recorder interface {
	RecordAttempts(ctx context.Context, requestID, videoID string, attempts []transcript.Attempt) error
}

// Orchestrator tries strategies one at a time in a fixed order and stops at
// the first success, the first fatal error or cancellation of the caller.
type Orchestrator struct {
	strategies []Strategy
	recorders  []Recorder
	logger     logger.Logger
}

func NewOrchestrator(strategies []Strategy, l logger.Logger, recorders ...Recorder) *Orchestrator {
	return &Orchestrator{
		strategies: strategies,
		recorders:  recorders,
		logger:     l,
	}
}

func (o *Orchestrator) Strategies() []string {
	names := make([]string, len(o.strategies))
	for i, s := range o.strategies {
		names[i] = s.Name()
	}
	return names
}

func (o *Orchestrator) Run(ctx context.Context, req Request) (transcript.Result, error) {
	log := o.logger.WithFields(logger.Fields{
		"request_id": req.ID,
		"video_id":   req.Ref.ID,
	})
	attempts := make([]transcript.Attempt, 0, len(o.strategies))
	defer func() {
		o.record(ctx, req, attempts, log)
	}()

	for _, strategy := range o.strategies {
		if err := ctx.Err(); err != nil {
			return transcript.Result{}, err
		}

		strategyLog := log.WithField("strategy", strategy.Name())
		strategyLog.Debug("Trying strategy")

		started := time.Now()
		out, err := strategy.Run(ctx, req)
		elapsed := time.Since(started)

		if err == nil {
			attempts = append(attempts, transcript.SucceededAttempt(strategy.Name(), elapsed, out.Steps))
			strategyLog.WithFields(logger.Fields{
				"duration": elapsed.String(),
				"segments": len(out.Segments),
			}).Info("Transcript acquired")

			language := out.Language
			if language == "" {
				language = req.Language
			}
			return transcript.Result{
				VideoID:  req.Ref.ID,
				Segments: out.Segments,
				Source:   strategy.Name(),
				Language: language,
				Attempts: attempts,
			}, nil
		}

		attempt := transcript.FailedAttempt(strategy.Name(), err, elapsed)
		if len(attempt.Steps) == 0 {
			attempt.Steps = out.Steps
		}
		attempts = append(attempts, attempt)

		if ctx.Err() != nil {
			strategyLog.WithError(err).Info("Request cancelled")
			return transcript.Result{}, ctx.Err()
		}

		strategyLog.WithFields(logger.Fields{
			"duration": elapsed.String(),
			"kind":     attempt.Kind,
		}).WithError(err).Warn("Strategy failed")

		if transcript.IsFatal(err) {
			return transcript.Result{}, &transcript.FatalError{
				Strategy: strategy.Name(),
				Attempts: attempts,
				Err:      err,
			}
		}
	}

	log.WithField("attempts", len(attempts)).Warn("All strategies exhausted")
	return transcript.Result{}, &transcript.ExhaustedError{Attempts: attempts}
}

func (o *Orchestrator) record(ctx context.Context, req Request, attempts []transcript.Attempt, log logger.Logger) {
	if len(attempts) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, r := range o.recorders {
		if err := r.RecordAttempts(ctx, req.ID, req.Ref.ID, attempts); err != nil {
			log.WithError(err).Warn("Failed to record attempts")
		}
	}
}
