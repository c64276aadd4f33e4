// services/discovery/discovery.go
package discovery

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"alertbadge-go/x/strx"
	"alertbadge-go/x/timex"
)

// MaxReply is the longest reply payload consumed as an address.
const MaxReply = 15

// maxDrain bounds how many stale datagrams are discarded before a probe.
const maxDrain = 16

// Transport is a non-blocking datagram endpoint. Poll returns 0, nil when
// nothing is waiting.
type Transport interface {
	Send(b []byte) error
	Poll(buf []byte) (int, error)
}

type Options struct {
	Token    string
	Attempts int
	Listen   time.Duration // per attempt
	Poll     time.Duration // cadence inside a listen window
}

// Client locates the dashboard. Results are never cached.
type Client struct {
	tr    Transport
	clock timex.Clock
	log   *zap.Logger
	opt   Options
	buf   []byte
}

func New(tr Transport, clock timex.Clock, log *zap.Logger, o Options) *Client {
	if o.Token == "" {
		o.Token = "WHERE_IS_SERVER"
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.Listen <= 0 {
		o.Listen = time.Second
	}
	if o.Poll <= 0 {
		o.Poll = 50 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{tr: tr, clock: clock, log: log.Named("discovery"), opt: o, buf: make([]byte, 64)}
}

// Discover probes up to Attempts times and returns the first non-empty
// reply. It takes at most Attempts × Listen (plus one poll step).
func (c *Client) Discover() (string, bool) {
	probe := []byte(c.opt.Token)
	for attempt := 1; attempt <= c.opt.Attempts; attempt++ {
		c.drain()
		if err := c.tr.Send(probe); err != nil {
			c.log.Warn("discovery_send_failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		deadline := c.clock.Now().Add(c.opt.Listen)
		for c.clock.Now().Before(deadline) {
			n, err := c.tr.Poll(c.buf)
			if err != nil {
				c.log.Debug("discovery_poll_error", zap.Error(err))
			}
			if n > 0 {
				if addr := ParseReply(c.buf[:n]); addr != "" {
					c.log.Info("server_found", zap.String("addr", addr), zap.Int("attempt", attempt))
					return addr, true
				}
			}
			c.clock.Sleep(c.opt.Poll)
		}
		c.log.Debug("discovery_no_response", zap.Int("attempt", attempt))
	}
	c.log.Info("server_not_found", zap.Int("attempts", c.opt.Attempts))
	return "", false
}

// drain discards replies that arrived after an earlier listen window closed,
// so an answer is only ever taken from the probe that asked for it.
func (c *Client) drain() {
	for i := 0; i < maxDrain; i++ {
		n, err := c.tr.Poll(c.buf)
		if err != nil || n == 0 {
			return
		}
		c.log.Debug("discovery_stale_reply", zap.String("reply", ParseReply(c.buf[:n])))
	}
}

// ParseReply truncates to MaxReply bytes, cuts at the first NUL and trims.
func ParseReply(b []byte) string {
	if len(b) > MaxReply {
		b = b[:MaxReply]
	}
	return strings.TrimSpace(strx.CString(b))
}
