package notifier

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces consecutive sends of one channel by a minimum interval.
type Throttle struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastSent    time.Time
}

func NewThrottle(minInterval time.Duration) *Throttle {
	return &Throttle{minInterval: minInterval}
}

// Wait blocks until the interval since the previous send has elapsed.
// Callers must call Done once they have sent.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	wait := time.Until(t.lastSent.Add(t.minInterval))
	t.mu.Unlock()
	return Sleep(ctx, wait)
}

func (t *Throttle) Done() {
	t.mu.Lock()
	t.lastSent = time.Now()
	t.mu.Unlock()
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
