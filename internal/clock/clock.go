// Package clock provides the time source used by services that stamp,
// number or version records.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// Real reads the wall clock in UTC, truncated to the microsecond precision
// postgres stores.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Stub is a settable clock for tests.
type Stub struct {
	mu  sync.Mutex
	now time.Time
}

// NewStub creates a stub clock frozen at t.
func NewStub(t time.Time) *Stub {
	return &Stub{now: t.UTC()}
}

func (s *Stub) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Set moves the clock to t.
func (s *Stub) Set(t time.Time) {
	s.mu.Lock()
	s.now = t.UTC()
	s.mu.Unlock()
}

// Advance moves the clock forward by d.
func (s *Stub) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}
