package poller

import (
	"sync"
	"time"
)

// Slot holds the latest value of one fetch target. Each request takes a
// sequence number from Begin; Apply drops any response older than the one
// already applied, so a slow early response cannot overwrite a newer one.
type Slot[T any] struct {
	mu        sync.RWMutex
	next      uint64
	applied   uint64
	value     T
	loaded    bool
	updatedAt time.Time
}

func (s *Slot[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

func (s *Slot[T]) Apply(seq uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied || seq > s.next {
		return false
	}
	s.applied = seq
	s.value = v
	s.loaded = true
	s.updatedAt = time.Now()
	return true
}

// Get returns the current value and whether anything was applied yet.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.loaded
}

func (s *Slot[T]) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Reset clears the value and invalidates every request begun so far.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.applied = s.next
	s.value = zero
	s.loaded = false
	s.updatedAt = time.Time{}
}
