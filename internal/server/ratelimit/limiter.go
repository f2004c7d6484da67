// Package ratelimit implements a per-client sliding-window request limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow allows at most Max requests per client within Window,
// counting the exact timestamps of accepted requests.
type SlidingWindow struct {
	max     int
	window  time.Duration
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[string][]time.Time
}

// New returns a limiter. Entries of clients that made no accepted request
// for idleTTL are dropped by Sweep; an idleTTL shorter than window is raised
// to window so that sweeping never forgets an active window.
func New(max int, window, idleTTL time.Duration) *SlidingWindow {
	if idleTTL < window {
		idleTTL = window
	}
	return &SlidingWindow{
		max:     max,
		window:  window,
		idleTTL: idleTTL,
		now:     time.Now,
		clients: make(map[string][]time.Time),
	}
}

// Allow records a request from key and reports whether it is within the
// limit. Rejected requests are not recorded. A non-positive max disables
// limiting.
func (l *SlidingWindow) Allow(key string) bool {
	if l.max <= 0 {
		return true
	}
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.clients[key], cutoff)
	if len(ts) >= l.max {
		l.clients[key] = ts
		return false
	}
	l.clients[key] = append(ts, now)
	return true
}

// prune drops timestamps at or before cutoff. ts is ordered.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

// Sweep evicts clients whose newest request is older than the idle TTL and
// returns how many were removed.
func (l *SlidingWindow) Sweep() int64 {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for key, ts := range l.clients {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (l *SlidingWindow) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// Len returns the number of tracked clients.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
