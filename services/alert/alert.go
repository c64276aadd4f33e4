// services/alert/alert.go
package alert

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"alertbadge-go/errcode"
	"alertbadge-go/types"
)

// Connector is the slice of the connectivity manager the alert path needs.
type Connector interface {
	Observe(st *types.State) bool
	Reconnect(st *types.State) error
}

type Discoverer interface {
	Discover() (string, bool)
}

type Options struct {
	Port      int
	Path      string
	Timeout   time.Duration
	Transport http.RoundTripper // nil uses resty's default
}

// Transmitter owns State.Alert. A flipped alert is either confirmed by a
// delivered POST or reverted before Send returns.
type Transmitter struct {
	client *resty.Client
	conn   Connector
	disc   Discoverer
	log    *zap.Logger
	opt    Options
}

func New(conn Connector, disc Discoverer, log *zap.Logger, o Options) *Transmitter {
	if o.Port <= 0 {
		o.Port = 5000
	}
	if o.Path == "" {
		o.Path = "/alert"
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(o.Timeout).
		SetHeader("Accept", "*/*")
	if o.Transport != nil {
		client.SetTransport(o.Transport)
	}
	return &Transmitter{client: client, conn: conn, disc: disc, log: log.Named("alert"), opt: o}
}

// Send delivers newState, which the caller has already applied to st.Alert.
func (t *Transmitter) Send(ctx context.Context, st *types.State, newState bool) error {
	if st.Alert != newState {
		return &errcode.E{C: errcode.InvalidParams, Op: "alert.send", Msg: "alert not flipped before send"}
	}

	t.conn.Observe(st)
	if st.Link != types.LinkAssociated {
		if err := t.conn.Reconnect(st); err != nil {
			return t.revert(st, newState, errcode.LinkDown, err)
		}
	}

	addr, ok := t.disc.Discover()
	if !ok {
		st.Reachable = false
		return t.revert(st, newState, errcode.ServerNotFound, nil)
	}
	st.Reachable = true

	url := "http://" + net.JoinHostPort(addr, strconv.Itoa(t.opt.Port)) + t.opt.Path
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"name": st.Profile.DeviceName}).
		Post(url)
	if err != nil {
		return t.revert(st, newState, errcode.DeliveryFailed, err)
	}
	if resp.StatusCode() <= 0 {
		return t.revert(st, newState, errcode.DeliveryFailed, nil)
	}

	t.log.Info("alert_delivered",
		zap.Bool("alert", newState),
		zap.String("url", url),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}

func (t *Transmitter) revert(st *types.State, attempted bool, c errcode.Code, cause error) error {
	st.Alert = !attempted
	t.log.Warn("alert_reverted",
		zap.Bool("attempted", attempted),
		zap.Bool("alert", st.Alert),
		zap.Bool("reverted", true),
		zap.String("reason", string(c)),
		zap.Error(cause),
	)
	if cause == nil {
		return c
	}
	return errcode.Wrap(c, "alert.send", cause)
}
