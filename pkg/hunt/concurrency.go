package hunt

import (
	"errors"
	"sync"
)

// ErrBusy is returned by Limiter.Acquire when sessionID is already at its
// concurrency cap (spec §4.4: "per-session concurrency cap (default 1);
// exceeding the cap returns Busy").
var ErrBusy = errors.New("hunt: session is at its concurrency cap")

// Limiter enforces a per-session cap on simultaneously running hunts.
// Unlike a single shared semaphore, each session gets its own counter so
// one session's hunts never block another's.
type Limiter struct {
	mu  sync.Mutex
	cap int
	inFlight map[string]int
}

// NewLimiter constructs a Limiter allowing up to cap concurrent hunts per
// session.
func NewLimiter(cap int) *Limiter {
	if cap < 1 {
		cap = 1
	}
	return &Limiter{cap: cap, inFlight: make(map[string]int)}
}

// Acquire reserves a slot for sessionID, or returns ErrBusy if the session
// is already at capacity.
func (l *Limiter) Acquire(sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight[sessionID] >= l.cap {
		return ErrBusy
	}
	l.inFlight[sessionID]++
	return nil
}

// Release frees sessionID's slot. Safe to call even if Acquire was never
// called for sessionID (a no-op on an already-zero counter).
func (l *Limiter) Release(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight[sessionID] > 0 {
		l.inFlight[sessionID]--
		if l.inFlight[sessionID] == 0 {
			delete(l.inFlight, sessionID)
		}
	}
}
