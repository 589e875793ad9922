package core

// request_limiter.go serializes backend round-trips (extract and export).
//
// A user can re-trigger an extract or export while a previous one is still
// waiting on the backend. The limiter holds a fixed number of slots
// (one by default); a caller that cannot get a slot within maxWait fails
// with ErrTooManyRequests instead of racing the in-flight request to
// TableState. WaitForDrain lets shutdown wait for in-flight requests.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrTooManyRequests is returned when no slot frees up within the wait time.
var ErrTooManyRequests = errors.New("too many requests in flight, please try again later")

// DefaultMaxConcurrentRequests is the default number of slots.
const DefaultMaxConcurrentRequests = 1

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 5 * time.Second

// RequestLimiter bounds concurrent backend requests using a semaphore.
type RequestLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewRequestLimiter creates a limiter with maxConcurrent slots.
// Non-positive arguments fall back to the defaults.
func NewRequestLimiter(maxConcurrent int, maxWait time.Duration) *RequestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRequests
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &RequestLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. The caller must Release it afterwards.
// Returns ErrTooManyRequests on wait timeout, or ctx's error if ctx ends first.
func (l *RequestLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRequests
	}
}

// Release returns a slot taken by Acquire.
func (l *RequestLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// Do runs fn while holding a slot.
func (l *RequestLimiter) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	if err := l.Acquire(ctx); err != nil {
		slog.Warn("backend request rejected", "op", op, "error", err)
		return err
	}
	defer l.Release()

	if waited := time.Since(start); waited > 100*time.Millisecond {
		slog.Debug("waited for backend slot", "op", op, "waited_ms", waited.Milliseconds())
	}
	return fn(ctx)
}

// ActiveCount returns the number of requests holding a slot.
func (l *RequestLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the number of slots.
func (l *RequestLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *RequestLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no request holds a slot or ctx is done.
func (l *RequestLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RequestLimiterStatus is a snapshot of the limiter for health output.
type RequestLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *RequestLimiter) Status() RequestLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return RequestLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
