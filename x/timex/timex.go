package timex

import (
	"sync"
	"time"
)

// Clock is the time source every bounded wait in the firmware goes through.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time        { return time.Now() }
func (Real) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a manual clock. Sleep advances time instantly.
type Fake struct {
	mu  sync.Mutex
	now time.Time
	// OnSleep, when set, runs after every Sleep with the new time.
	OnSleep func(now time.Time)
}

// NewFake returns a fake clock starting at a fixed instant.
func NewFake() *Fake {
	return &Fake{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(d time.Duration) {
	f.Advance(d)
	if f.OnSleep != nil {
		f.OnSleep(f.Now())
	}
}

// Advance moves the clock forward without invoking OnSleep.
func (f *Fake) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
