// services/wifi/manager.go
package wifi

import (
	"time"

	"go.uber.org/zap"

	"alertbadge-go/errcode"
	"alertbadge-go/types"
	"alertbadge-go/x/timex"
)

// ProfileSaver persists the profile on the un-brick path.
type ProfileSaver interface {
	Save(p types.DeviceProfile) error
}

// Discoverer refreshes dashboard reachability after a join.
type Discoverer interface {
	Discover() (string, bool)
}

type Options struct {
	Settle         time.Duration
	PollEvery      time.Duration
	ConnectPolls   int
	ReconnectPolls int
}

func (o *Options) defaults() {
	if o.Settle <= 0 {
		o.Settle = 100 * time.Millisecond
	}
	if o.PollEvery <= 0 {
		o.PollEvery = 500 * time.Millisecond
	}
	if o.ConnectPolls <= 0 {
		o.ConnectPolls = 20
	}
	if o.ReconnectPolls <= 0 {
		o.ReconnectPolls = 5
	}
}

// Manager owns State.Link and shares State.Reachable with the alert path.
type Manager struct {
	radio Radio
	store ProfileSaver
	disc  Discoverer
	clock timex.Clock
	log   *zap.Logger
	opt   Options

	attempted bool // a Connect has run since boot
}

func NewManager(radio Radio, store ProfileSaver, disc Discoverer, clock timex.Clock, log *zap.Logger, o Options) *Manager {
	o.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{radio: radio, store: store, disc: disc, clock: clock, log: log.Named("wifi"), opt: o}
}

// Connect joins the profile's network. On failure of the first attempt
// since boot the profile is persisted as unconfigured and
// errcode.ProvisioningFallback is returned.
func (m *Manager) Connect(st *types.State) error {
	if !st.Profile.Configured {
		return errcode.NotConfigured
	}
	first := !m.attempted
	m.attempted = true

	p := st.Profile
	st.Link, st.Reachable = types.LinkAssociating, false
	m.log.Info("wifi_connecting", zap.String("ssid", p.SSID), zap.Bool("first_attempt", first))

	m.radio.Disassociate()
	m.clock.Sleep(m.opt.Settle)
	if err := m.radio.Associate(p.SSID, p.Passphrase); err != nil {
		m.log.Warn("wifi_associate_error", zap.Error(err))
	} else if m.waitAssociated(m.opt.ConnectPolls) {
		st.Link = types.LinkAssociated
		m.log.Info("wifi_connected", zap.String("ssid", p.SSID))
		m.Refresh(st)
		return nil
	}

	st.Link = types.LinkFailed
	if !first {
		m.log.Warn("wifi_connect_failed", zap.String("ssid", p.SSID))
		return errcode.AssociationTimeout
	}

	st.Profile.Configured = false
	m.log.Warn("wifi_first_connect_failed", zap.String("ssid", p.SSID), zap.String("next", "provisioning"))
	if err := m.store.Save(st.Profile); err != nil {
		return &errcode.E{C: errcode.ProvisioningFallback, Op: "wifi.connect", Msg: "profile not persisted", Err: err}
	}
	return errcode.ProvisioningFallback
}

// Reconnect makes one reassociation attempt. It never falls back to
// provisioning.
func (m *Manager) Reconnect(st *types.State) error {
	if !st.Profile.Configured {
		return errcode.NotConfigured
	}
	st.Link = types.LinkAssociating
	m.log.Info("wifi_reconnecting", zap.String("ssid", st.Profile.SSID))

	if err := m.radio.Reassociate(); err != nil {
		m.log.Warn("wifi_reassociate_error", zap.Error(err))
	} else if m.waitAssociated(m.opt.ReconnectPolls) {
		st.Link = types.LinkAssociated
		m.log.Info("wifi_reconnected")
		m.Refresh(st)
		return nil
	}
	st.Link, st.Reachable = types.LinkUnassociated, false
	m.log.Warn("wifi_reconnect_failed")
	return errcode.AssociationTimeout
}

// Refresh re-runs discovery and records reachability.
func (m *Manager) Refresh(st *types.State) (string, bool) {
	addr, ok := m.disc.Discover()
	st.Reachable = ok
	return addr, ok
}

// Observe folds a dropped link into st. It reports whether st changed.
func (m *Manager) Observe(st *types.State) bool {
	if st.Link == types.LinkAssociated && !m.radio.Associated() {
		st.Link, st.Reachable = types.LinkUnassociated, false
		m.log.Warn("wifi_link_lost")
		return true
	}
	return false
}

// StartAccessPoint hands the radio to provisioning.
func (m *Manager) StartAccessPoint(st *types.State, ssid string) error {
	st.Link, st.Reachable = types.LinkUnassociated, false
	if err := m.radio.StartAccessPoint(ssid); err != nil {
		m.log.Error("wifi_ap_failed", zap.String("ssid", ssid), zap.Error(err))
		return err
	}
	m.log.Info("wifi_ap_started", zap.String("ssid", ssid))
	return nil
}

func (m *Manager) waitAssociated(polls int) bool {
	for i := 0; i < polls && !m.radio.Associated(); i++ {
		m.clock.Sleep(m.opt.PollEvery)
	}
	return m.radio.Associated()
}
