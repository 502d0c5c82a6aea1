package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// StaticClocker is a test clock frozen at a point in time. Advance moves it
// forward so expiry windows can be crossed deterministically.
type StaticClocker struct {
	now time.Time
}

// NewStatic returns a StaticClocker frozen at t.
func NewStatic(t time.Time) *StaticClocker {
	return &StaticClocker{now: t}
}

// Now returns the frozen time.
func (s *StaticClocker) Now() time.Time {
	return s.now
}

// Advance moves the frozen time forward by d.
func (s *StaticClocker) Advance(d time.Duration) {
	s.now = s.now.Add(d)
}
