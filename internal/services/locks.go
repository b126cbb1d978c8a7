package services

import "sync"

// RequestLocker serializes all mutations of a single review request. The
// review engine and the escalation sweep share one locker so a decision and
// an escalation on the same request never interleave. Different requests
// proceed concurrently.
type RequestLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRequestLocker() *RequestLocker {
	return &RequestLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for requestID and returns the unlock function.
func (l *RequestLocker) Lock(requestID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[requestID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[requestID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
