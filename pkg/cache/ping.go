package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when a Redis or MongoDB backend does not answer.
var ErrUnavailable = errors.New("backend unavailable")

// PingAttempts is how often [Ping] tries before giving up.
const PingAttempts = 3

// PingDelay is the wait after the first failed attempt; it doubles after
// each further failure.
var PingDelay = time.Second

// Ping calls ping until it succeeds, PingAttempts are used up or ctx ends.
// Failures are wrapped with ErrUnavailable and the backend name, so a server
// that is still starting gets a few seconds before scenemap gives up.
func Ping(ctx context.Context, backend string, ping func(context.Context) error) error {
	delay := PingDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if attempt == PingAttempts {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, ctx.Err())
		case <-t.C:
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, err)
}
