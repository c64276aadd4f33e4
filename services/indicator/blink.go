// services/indicator/blink.go
package indicator

import (
	"time"

	"alertbadge-go/types"
	"alertbadge-go/x/timex"
)

// LED is a logical on/off indicator.
type LED interface {
	Set(on bool)
	On() bool
}

// Blinker drives the LED cadence from the current mode.
type Blinker struct {
	led        LED
	clock      timex.Clock
	fast, slow time.Duration

	blinking bool
	last     time.Time
}

func NewBlinker(led LED, clock timex.Clock, fast, slow time.Duration) *Blinker {
	return &Blinker{led: led, clock: clock, fast: fast, slow: slow}
}

// Interval returns the blink period for m, or 0 for a solid LED.
func (b *Blinker) Interval(m types.Mode) time.Duration {
	switch m {
	case types.ModeUnconfigured, types.ModeAssociating:
		return b.fast
	case types.ModeServerAbsent:
		return b.slow
	default:
		return 0
	}
}

// Update advances the cadence by one tick. Leaving a blinking mode snaps
// the LED to alert in the same call.
func (b *Blinker) Update(m types.Mode, alert bool) {
	iv := b.Interval(m)
	if iv == 0 {
		b.blinking = false
		want := alert
		if m == types.ModeResetting {
			want = true
		}
		if b.led.On() != want {
			b.led.Set(want)
		}
		return
	}
	now := b.clock.Now()
	if !b.blinking {
		b.blinking, b.last = true, now
		return
	}
	if now.Sub(b.last) > iv {
		b.last = now
		b.led.Set(!b.led.On())
	}
}

func (b *Blinker) Blinking() bool { return b.blinking }
