// Package ratelimit suppresses replies to chats whose deliveries keep failing,
// typically because the user blocked the bot or deleted the chat.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	maxFailures     = 3
	failureWindow   = 10 * time.Minute
	lockoutDuration = 30 * time.Minute
)

type record struct {
	failures []time.Time
	lockedAt time.Time
}

// Limiter tracks delivery failures per chat ID and pauses sends to chats
// that exceed the failure threshold.
type Limiter struct {
	mu      sync.Mutex
	records map[int64]*record
	now     func() time.Time
}

// New creates a limiter.
func New() *Limiter {
	return &Limiter{
		records: make(map[int64]*record),
		now:     time.Now,
	}
}

// Check returns an error while sends to the chat are paused.
func (l *Limiter) Check(chatID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.records[chatID]
	if r == nil || r.lockedAt.IsZero() {
		return nil
	}

	elapsed := l.now().Sub(r.lockedAt)
	if elapsed < lockoutDuration {
		return fmt.Errorf("chat %d paused for %s after repeated delivery failures",
			chatID, (lockoutDuration - elapsed).Truncate(time.Second))
	}
	delete(l.records, chatID)
	return nil
}

// RecordFailure notes a failed delivery. Reaching maxFailures inside the
// window pauses the chat.
func (l *Limiter) RecordFailure(chatID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	r := l.records[chatID]
	if r == nil {
		r = &record{}
		l.records[chatID] = r
	}

	cutoff := now.Add(-failureWindow)
	fresh := r.failures[:0]
	for _, t := range r.failures {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	r.failures = append(fresh, now)

	if len(r.failures) >= maxFailures {
		r.lockedAt = now
	}
}

// Reset clears failure state for a chat after a successful delivery.
func (l *Limiter) Reset(chatID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, chatID)
}

// Paused reports how many chats are currently paused.
func (l *Limiter) Paused() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	now := l.now()
	for _, r := range l.records {
		if !r.lockedAt.IsZero() && now.Sub(r.lockedAt) < lockoutDuration {
			n++
		}
	}
	return n
}
