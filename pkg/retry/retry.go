package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrNoAttempts is returned when a Config allows zero attempts.
var ErrNoAttempts = errors.New("retry: no attempts configured")

// maxShift bounds the exponent so 2^attempt*BaseDelay cannot overflow.
const maxShift = 30

// Config defines retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first one)
	MaxAttempts int
	// BaseDelay is the delay unit doubled on every attempt
	BaseDelay time.Duration
	// MaxJitter is the exclusive upper bound of the random delay added to each wait
	MaxJitter time.Duration
	// MaxDelay caps a single wait (0 = no cap)
	MaxDelay time.Duration
	// Rand is the random source for jitter (optional)
	Rand *rand.Rand
	// OnRetry is called before each wait for observability
	OnRetry func(attempt int, err error, nextDelay time.Duration)
	// After creates a timer channel (for testing, defaults to time.After)
	After func(d time.Duration) <-chan time.Time
}

// DefaultConfig returns five attempts waiting 2^i seconds plus up to one second of jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxJitter:   time.Second,
	}
}

// Normalize validates the configuration and fills optional fields.
func (c *Config) Normalize() error {
	if c.MaxAttempts <= 0 {
		return ErrNoAttempts
	}
	if c.BaseDelay < 0 {
		return errors.New("retry: BaseDelay cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("retry: MaxJitter cannot be negative")
	}
	if c.MaxDelay < 0 {
		return errors.New("retry: MaxDelay cannot be negative")
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if c.After == nil {
		c.After = time.After
	}
	return nil
}

// Backoff returns the wait after the attempt with the given 0-based index:
// 2^attempt*BaseDelay plus a random value in [0, MaxJitter).
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	delay := c.BaseDelay << uint(attempt)
	if c.MaxJitter > 0 {
		r := c.Rand
		if r == nil {
			delay += time.Duration(rand.Int64N(int64(c.MaxJitter)))
		} else {
			delay += time.Duration(r.Int64N(int64(c.MaxJitter)))
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// RetryableFunc is a function that can be retried
type RetryableFunc func(ctx context.Context) error

// IsRetryableFunc determines if an error should trigger a retry
type IsRetryableFunc func(err error) bool

// RetriesExceededError is returned when retries are exhausted
type RetriesExceededError struct {
	LastError     error
	Attempts      int
	TotalDuration time.Duration
}

func (e *RetriesExceededError) Error() string {
	return fmt.Sprintf("retry: max attempts exceeded after %s (%d attempts): %v",
		e.TotalDuration, e.Attempts, e.LastError)
}

func (e *RetriesExceededError) Unwrap() error {
	return e.LastError
}

// Always retries every non-nil error.
func Always(err error) bool { return err != nil }

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. Non-retryable errors are returned as is; exhaustion yields a
// *RetriesExceededError wrapping the last error.
func Do(ctx context.Context, config Config, fn RetryableFunc, isRetryable IsRetryableFunc) error {
	cfg := config
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if isRetryable == nil {
		isRetryable = Always
	}

	var lastErr error
	start := time.Now()

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cfg.After(delay):
		}
	}

	return &RetriesExceededError{
		LastError:     lastErr,
		Attempts:      cfg.MaxAttempts,
		TotalDuration: time.Since(start),
	}
}
