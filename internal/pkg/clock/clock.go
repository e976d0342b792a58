package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. Services take one instead of calling time.Now.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// New returns a Clock backed by the system time, in UTC.
func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock frozen at a settable instant, used by tests.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.UTC()
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
