// services/wifi/radio.go
package wifi

import (
	"sync"
	"time"

	"tinygo.org/x/drivers/netlink"

	"alertbadge-go/errcode"
)

// Radio is the association surface the manager drives.
type Radio interface {
	Associate(ssid, passphrase string) error
	Disassociate()
	Reassociate() error
	Associated() bool
	StartAccessPoint(ssid string) error
}

// netLinker is the subset of netlink.Netlinker the badge uses.
type netLinker interface {
	NetConnect(params *netlink.ConnectParams) error
	NetDisconnect()
	NetNotify(cb func(netlink.Event))
}

// NetlinkRadio adapts a netlink device. Link state follows the driver's
// up/down notifications.
type NetlinkRadio struct {
	link    netLinker
	timeout time.Duration

	mu   sync.Mutex
	up   bool
	last netlink.ConnectParams
}

func NewNetlinkRadio(link netLinker, joinTimeout time.Duration) *NetlinkRadio {
	r := &NetlinkRadio{link: link, timeout: joinTimeout}
	link.NetNotify(r.onEvent)
	return r
}

func (r *NetlinkRadio) onEvent(e netlink.Event) {
	r.mu.Lock()
	switch e {
	case netlink.EventNetUp:
		r.up = true
	case netlink.EventNetDown:
		r.up = false
	}
	r.mu.Unlock()
}

func (r *NetlinkRadio) Associate(ssid, passphrase string) error {
	p := netlink.ConnectParams{
		ConnectMode:    netlink.ConnectModeSTA,
		Ssid:           ssid,
		Passphrase:     passphrase,
		AuthType:       netlink.AuthTypeWPA2,
		ConnectTimeout: r.timeout,
	}
	if passphrase == "" {
		p.AuthType = netlink.AuthTypeOpen
	}
	r.mu.Lock()
	r.last, r.up = p, false
	r.mu.Unlock()
	return r.link.NetConnect(&p)
}

func (r *NetlinkRadio) Disassociate() {
	r.link.NetDisconnect()
	r.mu.Lock()
	r.up = false
	r.mu.Unlock()
}

// Reassociate rejoins with the last station credentials.
func (r *NetlinkRadio) Reassociate() error {
	r.mu.Lock()
	p := r.last
	r.mu.Unlock()
	if p.Ssid == "" || p.ConnectMode != netlink.ConnectModeSTA {
		return errcode.NotConfigured
	}
	return r.link.NetConnect(&p)
}

// Associated is true only for a station link that is up.
func (r *NetlinkRadio) Associated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.up && r.last.Ssid != "" && r.last.ConnectMode == netlink.ConnectModeSTA
}

func (r *NetlinkRadio) StartAccessPoint(ssid string) error {
	p := netlink.ConnectParams{
		ConnectMode: netlink.ConnectModeAP,
		Ssid:        ssid,
		AuthType:    netlink.AuthTypeOpen,
	}
	r.mu.Lock()
	r.last, r.up = p, false
	r.mu.Unlock()
	if err := r.link.NetConnect(&p); err != nil {
		return errcode.Wrap(errcode.AccessPointFailed, "wifi.ap", err)
	}
	return nil
}
