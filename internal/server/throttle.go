package server

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"golang.org/x/time/rate"
)

var ErrThrottled = errors.New("too many requests")

// ThrottledError tells the caller how long to wait before retrying.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return ErrThrottled.Error()
}

func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// RetryAfterSeconds rounds up, never below one second.
func (e *ThrottledError) RetryAfterSeconds() int {
	return max(1, int(math.Ceil(e.RetryAfter.Seconds())))
}

// Throttle admits transcript requests at a steady rate and bounds how many
// run at once. Admitted requests beyond the concurrency limit wait for a slot.
type Throttle struct {
	limiter *rate.Limiter
	sem     chan struct{}
	logger  logger.Logger
}

func NewThrottle(cfg config.ThrottleConfig, l logger.Logger) *Throttle {
	interval := cfg.Period / time.Duration(cfg.Requests)
	l.WithFields(logger.Fields{
		"period":      cfg.Period.String(),
		"requests":    cfg.Requests,
		"interval":    interval.String(),
		"concurrency": cfg.Concurrency,
	}).Info("Configured rate limiter")

	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(interval), cfg.Requests),
		sem:     make(chan struct{}, cfg.Concurrency),
		logger:  l,
	}
}

// Acquire returns a release func, a *ThrottledError when the rate is exceeded,
// or the context error when the caller gave up waiting for a slot.
func (t *Throttle) Acquire(ctx context.Context) (func(), error) {
	reserve := t.limiter.Reserve()
	if delay := reserve.Delay(); delay > 0 {
		reserve.Cancel()
		t.logger.WithFields(logger.Fields{
			"wait_for":  delay.String(),
			"in_flight": t.InFlight(),
		}).Debug("Rate limiting - rejecting request")
		return nil, &ThrottledError{RetryAfter: delay}
	}

	select {
	case t.sem <- struct{}{}:
		return func() { <-t.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InFlight counts requests holding a concurrency slot.
func (t *Throttle) InFlight() int {
	return len(t.sem)
}
