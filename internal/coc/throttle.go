package coc

import (
	"context"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Throttle caps requests inside a sliding window.
type Throttle struct {
	mu     sync.Mutex
	clock  Clock
	limit  int
	window time.Duration
	hits   []time.Time
}

func NewThrottle(limit int, window time.Duration) *Throttle {
	return &Throttle{clock: realClock{}, limit: limit, window: window}
}

func (t *Throttle) WithClock(clock Clock) {
	t.clock = clock
}

// Reserve records a hit if the window has room and otherwise returns how long to wait.
func (t *Throttle) Reserve() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.limit <= 0 || t.window <= 0 {
		return 0, true
	}
	now := t.clock.Now()
	t.trim(now)
	if len(t.hits) < t.limit {
		t.hits = append(t.hits, now)
		return 0, true
	}
	return t.hits[0].Add(t.window).Sub(now), false
}

// Count returns the hits inside the current window.
func (t *Throttle) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trim(t.clock.Now())
	return len(t.hits)
}

// Wait blocks until a request may be sent.
func (t *Throttle) Wait(ctx context.Context) error {
	for {
		wait, ok := t.Reserve()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *Throttle) trim(now time.Time) {
	cutoff := now.Add(-t.window)
	idx := 0
	for _, hit := range t.hits {
		if hit.After(cutoff) {
			break
		}
		idx++
	}
	t.hits = t.hits[idx:]
}
