// services/hal/gpio.go
package hal

// Input is a polarity-aware digital input (a button).
type Input struct {
	pin       GPIOPin
	activeLow bool
}

// NewInput claims p.Pin from f and configures it as an input.
func NewInput(f PinFactory, p GPIOParams) (*Input, error) {
	pin, ok := f.ByNumber(p.Pin)
	if !ok {
		return nil, ErrUnknownPin
	}
	if err := pin.ConfigureInput(ParsePull(p.Pull)); err != nil {
		return nil, err
	}
	return &Input{pin: pin, activeLow: p.ActiveLow}, nil
}

// Active reports the logical level: true while the button is held.
func (i *Input) Active() bool {
	lvl := i.pin.Get()
	if i.activeLow {
		return !lvl
	}
	return lvl
}

func (i *Input) Pin() int { return i.pin.Number() }

// Output is a polarity-aware digital output (the status LED).
type Output struct {
	pin       GPIOPin
	activeLow bool
}

// NewOutput claims p.Pin from f and drives it to the logical initial level.
func NewOutput(f PinFactory, p GPIOParams, initial bool) (*Output, error) {
	pin, ok := f.ByNumber(p.Pin)
	if !ok {
		return nil, ErrUnknownPin
	}
	o := &Output{pin: pin, activeLow: p.ActiveLow}
	if err := pin.ConfigureOutput(o.physical(initial)); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Output) Set(on bool) { o.pin.Set(o.physical(on)) }

// On reads back the logical level.
func (o *Output) On() bool { return o.physical(o.pin.Get()) }

func (o *Output) Toggle() { o.Set(!o.On()) }

func (o *Output) Pin() int { return o.pin.Number() }

func (o *Output) physical(on bool) bool {
	if o.activeLow {
		return !on
	}
	return on
}
