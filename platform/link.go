// platform/link.go
package platform

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers/netlink"
)

// HostLink is a netlink-style link for host builds: the host's own
// network plays the radio. Station joins succeed for any non-empty SSID
// unless Refuse is set; access-point mode always comes up.
type HostLink struct {
	mu     sync.Mutex
	notify func(netlink.Event)
	up     bool
	params netlink.ConnectParams

	// Refuse makes station joins fail, for exercising the
	// provisioning fallback on a desk.
	Refuse bool
}

var (
	ErrNoSSID  = errors.New("host link: empty ssid")
	ErrRefused = errors.New("host link: join refused")
)

func (l *HostLink) NetConnect(p *netlink.ConnectParams) error {
	if p == nil || p.Ssid == "" {
		return ErrNoSSID
	}
	l.mu.Lock()
	if p.ConnectMode == netlink.ConnectModeSTA && l.Refuse {
		l.mu.Unlock()
		return ErrRefused
	}
	l.params = *p
	l.up = true
	cb := l.notify
	l.mu.Unlock()
	if cb != nil {
		cb(netlink.EventNetUp)
	}
	return nil
}

func (l *HostLink) NetDisconnect() {
	l.mu.Lock()
	was := l.up
	l.up = false
	cb := l.notify
	l.mu.Unlock()
	if was && cb != nil {
		cb(netlink.EventNetDown)
	}
}

func (l *HostLink) NetNotify(cb func(netlink.Event)) {
	l.mu.Lock()
	l.notify = cb
	l.mu.Unlock()
}

// Drop simulates the access point going away.
func (l *HostLink) Drop() { l.NetDisconnect() }

// Params returns the parameters of the last successful connect.
func (l *HostLink) Params() netlink.ConnectParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}
