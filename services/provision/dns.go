// services/provision/dns.go
package provision

import (
	"errors"
	"net"
	"os"
	"time"

	"golang.org/x/net/dns/dnsmessage"
)

const captiveTTL = 60

// DNSResponder answers every A query with the access point address.
// It is polled from the scheduler and never blocks.
type DNSResponder struct {
	conn net.PacketConn
	ip   [4]byte
	buf  []byte
}

func ListenDNS(addr, apAddr string) (*DNSResponder, error) {
	ip := net.ParseIP(apAddr).To4()
	if ip == nil {
		return nil, errors.New("dns: access point address is not IPv4: " + apAddr)
	}
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, err
	}
	d := &DNSResponder{conn: conn, buf: make([]byte, 512)}
	copy(d.ip[:], ip)
	return d, nil
}

// Poll services at most one waiting query. It reports whether a
// datagram was read.
func (d *DNSResponder) Poll() (bool, error) {
	if err := d.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false, err
	}
	n, from, err := d.conn.ReadFrom(d.buf)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	reply, err := Answer(d.buf[:n], d.ip)
	if err != nil {
		return true, err
	}
	_, err = d.conn.WriteTo(reply, from)
	return true, err
}

func (d *DNSResponder) LocalAddr() net.Addr { return d.conn.LocalAddr() }

func (d *DNSResponder) Close() error { return d.conn.Close() }

var errNotQuery = errors.New("dns: not a query")

// Answer builds the captive reply to query. A and ANY questions get one
// A record for ip; other types get an empty successful answer.
func Answer(query []byte, ip [4]byte) ([]byte, error) {
	var p dnsmessage.Parser
	h, err := p.Start(query)
	if err != nil {
		return nil, err
	}
	if h.Response {
		return nil, errNotQuery
	}
	q, err := p.Question()
	if err != nil {
		return nil, err
	}

	b := dnsmessage.NewBuilder(make([]byte, 0, 512), dnsmessage.Header{
		ID:                 h.ID,
		Response:           true,
		Authoritative:      true,
		RecursionDesired:   h.RecursionDesired,
		RecursionAvailable: false,
		RCode:              dnsmessage.RCodeSuccess,
	})
	b.EnableCompression()
	if err := b.StartQuestions(); err != nil {
		return nil, err
	}
	if err := b.Question(q); err != nil {
		return nil, err
	}
	if q.Type == dnsmessage.TypeA || q.Type == dnsmessage.TypeALL {
		if err := b.StartAnswers(); err != nil {
			return nil, err
		}
		rh := dnsmessage.ResourceHeader{Name: q.Name, Class: dnsmessage.ClassINET, TTL: captiveTTL}
		if err := b.AResource(rh, dnsmessage.AResource{A: ip}); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
