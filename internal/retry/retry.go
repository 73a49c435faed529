// Package retry repeats an operation that failed with a transient error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// Config bounds the attempts made for one operation
type Config struct {
	MaxAttempts    int // including the first one
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	RetryStatuses  []int // HTTP statuses worth another attempt
}

// DefaultConfig allows one extra attempt after a short pause
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		RetryStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// StatusCoder is implemented by errors carrying an HTTP status; 0 means no
// response was received
type StatusCoder interface {
	GetStatusCode() int
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so WithRetry returns it without further attempts
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithRetry calls fn until it succeeds, fails with an error that is not
// transient, runs out of attempts or ctx is done. The pause between attempts
// grows by Multiplier up to MaxBackoff.
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Debug().Int("attempt", attempt).Msg("Succeeded after retry")
			}
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil || !cfg.transient(err) {
			return err
		}
		if attempt == attempts {
			if attempts == 1 {
				return err
			}
			return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}

		pause := calculateBackoff(attempt-1, cfg)
		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", pause).
			Msg("Transient failure, retrying")

		if !sleep(ctx, pause) {
			return err
		}
	}
}

// transient reports whether another attempt could succeed: a listed status,
// a timeout or a temporary network failure
func (c Config) transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) && sc.GetStatusCode() > 0 {
		return slices.Contains(c.RetryStatuses, sc.GetStatusCode())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var to interface{ Timeout() bool }
	if errors.As(err, &to) && to.Timeout() {
		return true
	}
	var tmp interface{ Temporary() bool }
	return errors.As(err, &tmp) && tmp.Temporary()
}

// calculateBackoff returns the pause before retry number n (0-based)
func calculateBackoff(n int, cfg Config) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(n))
	if cfg.MaxBackoff > 0 && d > float64(cfg.MaxBackoff) {
		return cfg.MaxBackoff
	}
	return time.Duration(d)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
