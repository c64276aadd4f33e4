// services/badge/app.go
package badge

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"alertbadge-go/bus"
	"alertbadge-go/errcode"
	"alertbadge-go/services/alert"
	"alertbadge-go/services/config"
	"alertbadge-go/services/diag"
	"alertbadge-go/services/discovery"
	"alertbadge-go/services/hal"
	"alertbadge-go/services/indicator"
	"alertbadge-go/services/profile"
	"alertbadge-go/services/provision"
	"alertbadge-go/services/wifi"
	"alertbadge-go/types"
	"alertbadge-go/x/timex"
)

const (
	resetSettle = time.Second
	bootPoll    = 10 * time.Millisecond
)

// Deps are the board-specific collaborators.
type Deps struct {
	Config    config.Config
	Pins      hal.PinFactory
	Radio     wifi.Radio
	NV        profile.NVStore
	Discovery discovery.Transport
	HTTP      http.RoundTripper // alert transport; nil for the default
	Clock     timex.Clock
	Log       *zap.Logger
	Bus       *bus.Bus
}

// App is the cooperative scheduler. It alone owns State.
type App struct {
	cfg   config.Config
	clock timex.Clock
	log   *zap.Logger

	st    types.State
	store *profile.Store
	wifi  *wifi.Manager
	prov  *provision.Service
	tx    *alert.Transmitter

	led      *hal.Output
	alertBtn *hal.Input
	resetBtn *hal.Input
	blink    *indicator.Blinker
	debounce *indicator.Debouncer
	hold     *indicator.HoldDetector

	conn *bus.Connection
	diag *diag.Service
	pub  published

	provisioning bool
	resetting    bool
	lastCheck    time.Time
}

func New(d Deps) (*App, error) {
	if d.Clock == nil {
		d.Clock = timex.Real{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Bus == nil {
		d.Bus = bus.NewBus(16)
	}
	c := d.Config
	t := c.Timing

	led, err := hal.NewOutput(d.Pins, c.Pins.LED, false)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "badge.led", err)
	}
	alertBtn, err := hal.NewInput(d.Pins, c.Pins.Alert)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "badge.alert_button", err)
	}
	resetBtn, err := hal.NewInput(d.Pins, c.Pins.Reset)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "badge.reset_button", err)
	}

	store := profile.NewStore(d.NV, d.Log)
	disc := discovery.New(d.Discovery, d.Clock, d.Log, discovery.Options{
		Token:    c.Discovery.Token,
		Attempts: c.Discovery.Attempts,
		Listen:   config.Ms(c.Discovery.ListenMs),
		Poll:     config.Ms(c.Discovery.PollMs),
	})
	mgr := wifi.NewManager(d.Radio, store, disc, d.Clock, d.Log, wifi.Options{})
	conn := d.Bus.NewConnection("badge")

	return &App{
		cfg:   c,
		clock: d.Clock,
		log:   d.Log.Named("badge"),
		store: store,
		wifi:  mgr,
		prov: provision.New(store, mgr, d.Clock, d.Log, provision.Options{
			APName:       c.Provision.APName,
			APAddr:       c.Provision.APAddr,
			HTTPAddr:     c.Provision.HTTPAddr,
			DNSAddr:      c.Provision.DNSAddr,
			RestartDelay: config.Ms(c.Provision.RestartDelayMs),
		}),
		tx: alert.New(mgr, disc, d.Log, alert.Options{
			Port:      c.Alert.Port,
			Path:      c.Alert.Path,
			Timeout:   config.Ms(c.Alert.TimeoutMs),
			Transport: d.HTTP,
		}),
		led:      led,
		alertBtn: alertBtn,
		resetBtn: resetBtn,
		blink:    indicator.NewBlinker(led, d.Clock, config.Ms(t.FastBlinkMs), config.Ms(t.SlowBlinkMs)),
		debounce: indicator.NewDebouncer(config.Ms(t.DebounceMs)),
		hold:     indicator.NewHoldDetector(config.Ms(t.ResetHoldMs)),
		conn:     conn,
		diag:     diag.New(d.Bus.NewConnection("diag"), d.Log),
	}, nil
}

// State returns a copy of the application state.
func (a *App) State() types.State { return a.st }

// Mode is the current indicator mode.
func (a *App) Mode() types.Mode {
	if a.resetting {
		return types.ModeResetting
	}
	return types.ModeOf(&a.st)
}

func (a *App) Provisioning() bool { return a.provisioning }

// ProvisionAddr is the bound provisioning HTTP address, if serving.
func (a *App) ProvisionAddr() string { return a.prov.HTTPAddr() }

// Boot loads the profile, runs the held-at-boot reset check, then either
// starts provisioning or makes the first connection attempt.
func (a *App) Boot(ctx context.Context) error {
	p, err := a.store.Load()
	if err != nil {
		a.log.Warn("boot_profile_unreadable", zap.Error(err))
	}
	a.st = types.State{Profile: p}
	config.Publish(a.conn, a.cfg)
	a.publish()

	t := a.cfg.Timing
	held := indicator.HeldAtBoot(a.resetBtn, a.clock, config.Ms(t.BootSettleMs), config.Ms(t.ResetHoldMs), bootPoll)
	switch {
	case held:
		a.log.Warn("reset_held_at_boot")
		if err := a.factoryReset(); err != nil {
			return err
		}
	case !a.st.Profile.Configured:
		a.log.Info("boot_unconfigured")
		if err := a.enterProvisioning(); err != nil {
			return err
		}
	default:
		err := a.wifi.Connect(&a.st)
		switch {
		case errcode.Is(err, errcode.ProvisioningFallback):
			if err := a.enterProvisioning(); err != nil {
				return err
			}
		case err != nil:
			a.log.Warn("boot_connect_failed", zap.Error(err))
		}
	}
	a.lastCheck = a.clock.Now()

	diag.BootReport(a.log, &a.st)
	a.publish()
	a.diag.Pump()
	return nil
}

// Tick runs one scheduler pass: indicator, reset button, connectivity and
// alert, then provisioning. It returns errcode.Restart when the badge must
// restart.
func (a *App) Tick(ctx context.Context) error {
	now := a.clock.Now()

	a.blink.Update(a.Mode(), a.st.Alert)

	if a.hold.Update(a.resetBtn.Active(), now) {
		if err := a.factoryReset(); err != nil {
			return err
		}
	}

	a.serviceNetwork(ctx, now)

	if a.provisioning {
		if err := a.prov.Poll(&a.st); err != nil {
			a.publish()
			return err
		}
	}

	a.publish()
	a.diag.Pump()
	return nil
}

func (a *App) serviceNetwork(ctx context.Context, now time.Time) {
	pressed := a.alertBtn.Active()
	if a.provisioning || !a.st.Profile.Configured {
		a.debounce.Accept(pressed, now, false)
		return
	}

	a.wifi.Observe(&a.st)
	due := now.Sub(a.lastCheck) > config.Ms(a.cfg.Timing.ServerCheckMs)

	if a.st.Link != types.LinkAssociated {
		a.debounce.Accept(pressed, now, false)
		if due {
			a.lastCheck = now
			_ = a.wifi.Reconnect(&a.st)
		}
		return
	}

	if due {
		a.lastCheck = now
		a.wifi.Refresh(&a.st)
	}
	if a.debounce.Accept(pressed, now, a.Mode() == types.ModeConnected) {
		a.st.Alert = !a.st.Alert
		a.led.Set(a.st.Alert)
		a.log.Info("alert_button", zap.Bool("alert", a.st.Alert))
		if err := a.tx.Send(ctx, &a.st, a.st.Alert); err != nil {
			a.log.Debug("alert_not_delivered", zap.Error(err))
		}
	}
}

// Run boots and ticks until a restart is requested or ctx ends.
func (a *App) Run(ctx context.Context) error {
	if err := a.Boot(ctx); err != nil {
		return err
	}
	tick := config.Ms(a.cfg.Timing.TickMs)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := a.Tick(ctx); err != nil {
			return err
		}
		a.clock.Sleep(tick)
	}
}

// Close releases the provisioning listeners and bus subscriptions.
func (a *App) Close() {
	a.prov.Stop()
	a.diag.Stop()
	a.conn.Disconnect()
}

func (a *App) enterProvisioning() error {
	a.provisioning = true
	a.st.Profile.Configured = false
	if err := a.prov.Start(&a.st); err != nil {
		a.log.Error("provisioning_unavailable", zap.Error(err))
		return err
	}
	return nil
}

// factoryReset wipes the profile and requests a restart. If the wipe cannot
// be committed the badge drops its credentials in memory and stays in
// provisioning instead of restarting into the old profile.
func (a *App) factoryReset() error {
	a.resetting = true
	a.publish()
	a.diag.Pump()
	err := indicator.FactoryReset(a.led, a.store, a.clock, resetSettle, a.log)
	a.resetting = false
	a.st = types.State{}
	if errcode.Is(err, errcode.Restart) {
		return err
	}
	a.log.Error("factory_reset_not_persisted", zap.Error(err))
	if a.provisioning {
		return nil
	}
	return a.enterProvisioning()
}
