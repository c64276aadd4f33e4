// services/hal/types.go
package hal

import "errors"

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// GPIOPin is the physical pin surface the firmware needs. Levels are
// electrical; polarity is applied by Input and Output.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// PinFactory supplies GPIO pins by the board's number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// GPIOParams config shape.
type GPIOParams struct {
	Pin       int    `json:"pin"`
	Pull      string `json:"pull,omitempty"`       // "up" | "down" | "none"
	ActiveLow bool   `json:"active_low,omitempty"` // true if asserted == low
}

var ErrUnknownPin = errors.New("unknown_pin")
