package resolver

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff is exponential growth with additive jitter and a ceiling.
type Backoff struct {
	Base   float64 // seconds, raised to the attempt number
	Cap    time.Duration
	Jitter func() float64 // in [0,1) seconds
}

// Delay returns min(Cap, Base^attempt + jitter).
func (b Backoff) Delay(attempt int) time.Duration {
	jitter := rand.Float64
	if b.Jitter != nil {
		jitter = b.Jitter
	}
	secs := math.Pow(b.Base, float64(attempt)) + jitter()
	// Compare in seconds: large attempts overflow time.Duration.
	if b.Cap > 0 && (math.IsNaN(secs) || secs >= b.Cap.Seconds()) {
		return b.Cap
	}
	if math.IsNaN(secs) || secs >= maxDelaySeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Round(secs * float64(time.Second)))
}

var maxDelaySeconds = time.Duration(math.MaxInt64).Seconds()

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
