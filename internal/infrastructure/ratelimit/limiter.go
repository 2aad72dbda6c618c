// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	Count   int
	ResetAt time.Time
}

// Limiter admits at most limit hits per key within each window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) Decision
	Close() error
}

// Memory is a process-local limiter.
type Memory struct {
	mu      sync.Mutex
	entries map[string]window
	nowFunc func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

type window struct {
	count int
	end   time.Time
}

// NewMemory starts a limiter with a background sweeper; call Close to stop it.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]window),
		nowFunc: time.Now,
		stopCh:  make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

var _ Limiter = (*Memory)(nil)

// Allow records a hit for key.
func (m *Memory) Allow(_ context.Context, key string, limit int, span time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if span <= 0 {
		span = time.Minute
	}
	now := m.nowFunc()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.entries[key]
	if !ok || !now.Before(w.end) {
		w = window{count: 1, end: now.Add(span)}
		m.entries[key] = w
		return Decision{Allowed: true, Count: w.count, ResetAt: w.end}
	}
	if w.count >= limit {
		return Decision{Allowed: false, Count: w.count, ResetAt: w.end}
	}
	w.count++
	m.entries[key] = w
	return Decision{Allowed: true, Count: w.count, ResetAt: w.end}
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep(m.nowFunc())
		case <-m.stopCh:
			return
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, w := range m.entries {
		if !now.Before(w.end) {
			delete(m.entries, key)
		}
	}
}

// Close stops the sweeper.
func (m *Memory) Close() error {
	m.once.Do(func() {
		close(m.stopCh)
	})
	return nil
}
