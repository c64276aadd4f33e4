package diag

import (
	"go.uber.org/zap"

	"alertbadge-go/bus"
	"alertbadge-go/types"
)

var (
	topicState  = bus.T("state", "#")
	topicConfig = bus.T("config", "#")
)

// Service logs state announcements from the bus. It is pumped from the
// scheduler; nothing runs in the background.
type Service struct {
	log   *zap.Logger
	conn  *bus.Connection
	state *bus.Subscription
	cfg   *bus.Subscription
	last  map[string]any
}

func New(conn *bus.Connection, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:   log.Named("diag"),
		conn:  conn,
		state: conn.Subscribe(topicState),
		cfg:   conn.Subscribe(topicConfig),
		last:  map[string]any{},
	}
}

// Pump logs every queued announcement and returns how many changed.
func (s *Service) Pump() int {
	changed := 0
	for _, m := range s.state.Drain() {
		k := m.Topic.String()
		if prev, ok := s.last[k]; ok && prev == m.Payload {
			continue
		}
		s.last[k] = m.Payload
		changed++
		s.log.Info("state_changed", zap.String("topic", k), zap.Any("value", m.Payload))
	}
	for _, m := range s.cfg.Drain() {
		s.log.Debug("config", zap.String("topic", m.Topic.String()), zap.Any("value", m.Payload))
	}
	return changed
}

func (s *Service) Stop() {
	s.conn.Unsubscribe(s.state)
	s.conn.Unsubscribe(s.cfg)
}

// BootReport logs the boot diagnostics dump. The passphrase is never logged.
func BootReport(log *zap.Logger, st *types.State) {
	p := st.Profile.Trusted()
	name := p.DeviceName
	if !p.Configured {
		name = "not configured"
	}
	log.Info("boot_diagnostics",
		zap.String("device_name", name),
		zap.String("ssid", p.SSID),
		zap.Bool("has_passphrase", p.Passphrase != ""),
		zap.Stringer("link", st.Link),
		zap.Bool("server_connected", st.Reachable),
		zap.Stringer("mode", types.ModeOf(st)),
	)
}
