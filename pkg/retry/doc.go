// Package retry provides a bounded retry loop with exponential backoff and jitter.
//
// The wait after the attempt with 0-based index i is
//
//	2^i * BaseDelay + rand[0, MaxJitter)
//
// optionally capped by MaxDelay. With DefaultConfig this is 1s, 2s, 4s, 8s
// (each plus up to one second) across five attempts.
//
// Basic Usage:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
//	    return someNetworkOperation(ctx)
//	}, isTransient)
//
// The classifier decides which errors are worth another attempt; anything it
// rejects is returned immediately without waiting. When the budget runs out the
// result is a *RetriesExceededError that unwraps to the last error, so
// errors.As and errors.Is keep working on it.
//
// Tests can replace Config.After with a channel that fires immediately and
// Config.Rand with a seeded source:
//
//	cfg := retry.DefaultConfig()
//	cfg.After = func(time.Duration) <-chan time.Time {
//	    ch := make(chan time.Time, 1)
//	    ch <- time.Time{}
//	    return ch
//	}
//
// For HTTP-specific retry logic use internal/platform/httpclient, which maps
// 429 responses and transport failures onto this loop.
package retry
