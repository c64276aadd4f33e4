package indicator

import (
	"time"

	"alertbadge-go/x/timex"
)

// Button is a logical input; Active is true while pressed.
type Button interface {
	Active() bool
}

// Debouncer accepts a press edge only when enabled and only after more
// than window has passed since the last accepted press.
type Debouncer struct {
	window time.Duration
	prev   bool
	seen   bool
	last   time.Time
}

func NewDebouncer(window time.Duration) *Debouncer { return &Debouncer{window: window} }

func (d *Debouncer) Accept(active bool, now time.Time, enabled bool) bool {
	edge := active && !d.prev
	d.prev = active
	if !edge || !enabled {
		return false
	}
	if d.seen && now.Sub(d.last) <= d.window {
		return false
	}
	d.seen, d.last = true, now
	return true
}

// HoldDetector fires once per continuous hold longer than threshold.
type HoldDetector struct {
	threshold time.Duration
	holding   bool
	fired     bool
	start     time.Time
}

func NewHoldDetector(threshold time.Duration) *HoldDetector {
	return &HoldDetector{threshold: threshold}
}

func (h *HoldDetector) Update(active bool, now time.Time) bool {
	if !active {
		h.holding, h.fired = false, false
		return false
	}
	if !h.holding {
		h.holding, h.start = true, now
		return false
	}
	if !h.fired && now.Sub(h.start) > h.threshold {
		h.fired = true
		return true
	}
	return false
}

// Holding reports whether a hold is in progress and when it started.
func (h *HoldDetector) Holding() (bool, time.Time) { return h.holding, h.start }

// HeldAtBoot reports whether btn is held past threshold before the
// application starts. It returns as soon as the button is released or the
// threshold passes.
func HeldAtBoot(btn Button, clock timex.Clock, settle, threshold, poll time.Duration) bool {
	if !btn.Active() {
		return false
	}
	clock.Sleep(settle)
	start := clock.Now()
	for btn.Active() {
		if clock.Now().Sub(start) > threshold {
			return true
		}
		clock.Sleep(poll)
	}
	return false
}
