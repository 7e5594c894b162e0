package memory

import (
	"testing"
	"time"

	"stickygoals/internal/store"
	"stickygoals/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (store.Store, func()) {
		return New(), func() {}
	})
}

func TestStampStrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewWithClock(func() time.Time { return frozen })
	s.mu.Lock()
	a := s.stamp()
	b := s.stamp()
	s.mu.Unlock()
	if !b.After(a) {
		t.Fatalf("stamps not increasing: %v then %v", a, b)
	}
}
