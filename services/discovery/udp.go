package discovery

import (
	"errors"
	"net"
	"os"
	"strconv"
	"time"
)

// UDPTransport sends probes to a broadcast (or unicast) target from an
// ephemeral local port and reads replies with a near-zero deadline.
type UDPTransport struct {
	conn   *net.UDPConn
	target *net.UDPAddr
}

// DialBroadcast opens a socket targeting 255.255.255.255:port.
func DialBroadcast(port int) (*UDPTransport, error) {
	return Dial(net.JoinHostPort("255.255.255.255", strconv.Itoa(port)))
}

// Dial opens a socket whose probes go to target ("host:port").
func Dial(target string) (*UDPTransport, error) {
	raddr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}
	return &UDPTransport{conn: conn, target: raddr}, nil
}

func (u *UDPTransport) Send(b []byte) error {
	_, err := u.conn.WriteToUDP(b, u.target)
	return err
}

func (u *UDPTransport) Poll(buf []byte) (int, error) {
	if err := u.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, _, err := u.conn.ReadFromUDP(buf)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, nil
	}
	return n, err
}

func (u *UDPTransport) LocalAddr() net.Addr { return u.conn.LocalAddr() }

func (u *UDPTransport) Close() error { return u.conn.Close() }
