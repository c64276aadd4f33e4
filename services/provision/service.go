// services/provision/service.go
package provision

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"alertbadge-go/errcode"
	"alertbadge-go/types"
	"alertbadge-go/x/timex"
)

type Saver interface {
	Save(p types.DeviceProfile) error
}

// AccessPoint hands the radio over to the setup network.
type AccessPoint interface {
	StartAccessPoint(st *types.State, ssid string) error
}

type Options struct {
	APName       string
	APAddr       string
	HTTPAddr     string
	DNSAddr      string // empty disables the captive DNS responder
	RestartDelay time.Duration
	SaveWait     time.Duration // how long /save waits for the scheduler
}

// Service owns the setup access point, captive DNS and HTTP form while the
// badge is unconfigured.
type Service struct {
	opt   Options
	store Saver
	ap    AccessPoint
	clock timex.Clock
	log   *zap.Logger

	saves chan saveRequest
	srv   *http.Server
	ln    net.Listener
	dns   *DNSResponder
}

func New(store Saver, ap AccessPoint, clock timex.Clock, log *zap.Logger, o Options) *Service {
	if o.APName == "" {
		o.APName = "EMERGENCY ALERT SETUP"
	}
	if o.APAddr == "" {
		o.APAddr = "192.168.4.1"
	}
	if o.RestartDelay <= 0 {
		o.RestartDelay = 2 * time.Second
	}
	if o.SaveWait <= 0 {
		o.SaveWait = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		opt:   o,
		store: store,
		ap:    ap,
		clock: clock,
		log:   log.Named("provision"),
		saves: make(chan saveRequest, 1),
	}
}

// Start brings up the access point, captive DNS and the HTTP server.
func (s *Service) Start(st *types.State) error {
	if err := s.ap.StartAccessPoint(st, s.opt.APName); err != nil {
		return err
	}
	if s.opt.DNSAddr != "" {
		dns, err := ListenDNS(s.opt.DNSAddr, s.opt.APAddr)
		if err != nil {
			s.log.Error("provisioning_dns_failed", zap.String("addr", s.opt.DNSAddr), zap.Error(err))
			return errcode.Wrap(errcode.AccessPointFailed, "provision.dns", err)
		}
		s.dns = dns
	}
	ln, err := net.Listen("tcp", s.opt.HTTPAddr)
	if err != nil {
		s.closeDNS()
		s.log.Error("provisioning_http_failed", zap.String("addr", s.opt.HTTPAddr), zap.Error(err))
		return errcode.Wrap(errcode.AccessPointFailed, "provision.http", err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.Router(), ReadHeaderTimeout: 5 * time.Second}
	go func(srv *http.Server, ln net.Listener) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("provisioning_http_stopped", zap.Error(err))
		}
	}(s.srv, ln)

	s.log.Info("provisioning_started",
		zap.String("ap", s.opt.APName),
		zap.String("ap_addr", s.opt.APAddr),
		zap.String("http", ln.Addr().String()),
	)
	return nil
}

// Poll services captive DNS and commits a pending save. After a committed
// save it waits RestartDelay and returns errcode.Restart. A failed commit
// is reported to the client and the badge stays in provisioning.
func (s *Service) Poll(st *types.State) error {
	if s.dns != nil {
		for i := 0; i < 4; i++ {
			got, err := s.dns.Poll()
			if err != nil {
				s.log.Debug("captive_dns_error", zap.Error(err))
			}
			if !got {
				break
			}
		}
	}

	select {
	case req := <-s.saves:
		if err := s.store.Save(req.profile); err != nil {
			s.log.Error("provisioning_save_failed", zap.Error(err))
			req.reply <- err
			return nil
		}
		st.Profile = req.profile
		req.reply <- nil
		s.log.Info("provisioning_saved",
			zap.String("ssid", req.profile.SSID),
			zap.String("device_name", req.profile.DeviceName),
		)
		s.clock.Sleep(s.opt.RestartDelay)
		return errcode.Restart
	default:
		return nil
	}
}

// HTTPAddr is the bound HTTP address once started.
func (s *Service) HTTPAddr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// DNSAddr is the bound DNS address once started.
func (s *Service) DNSAddr() string {
	if s.dns == nil {
		return ""
	}
	return s.dns.LocalAddr().String()
}

// Stop shuts the HTTP server down, letting in-flight replies finish.
func (s *Service) Stop() {
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = s.srv.Shutdown(ctx)
		cancel()
		s.srv, s.ln = nil, nil
	}
	s.closeDNS()
}

func (s *Service) closeDNS() {
	if s.dns != nil {
		_ = s.dns.Close()
		s.dns = nil
	}
}
