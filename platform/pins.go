// platform/pins.go
package platform

import (
	"sync"

	"alertbadge-go/services/hal"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements hal.GPIOPin for host builds and tests. Inputs
// configured with a pull-up idle high, which is "released" for the
// badge's active-low buttons.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    hal.Pull
}

func (p *FakePin) ConfigureInput(pull hal.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	switch pull {
	case hal.PullUp:
		p.level = true
	case hal.PullDown:
		p.level = false
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

// IsOutput reports whether the pin was last configured as an output.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// Press drives an active-low button line low; Release lets the pull-up
// bring it back high.
func (p *FakePin) Press()   { p.Set(false) }
func (p *FakePin) Release() { p.Set(true) }

// HostPins returns stable *FakePin instances per number.
type HostPins struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func NewHostPins() *HostPins { return &HostPins{pins: make(map[int]*FakePin)} }

func (f *HostPins) ByNumber(n int) (hal.GPIOPin, bool) {
	return f.Pin(n), true
}

// Pin exposes the underlying *FakePin, creating it on first use.
func (f *HostPins) Pin(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p
}
