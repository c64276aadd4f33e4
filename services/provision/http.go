// services/provision/http.go
package provision

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"alertbadge-go/types"
)

// CaptivePaths are served the setup form. Client OSes probe these to
// detect a captive portal.
var CaptivePaths = []string{
	"/",
	"/generate_204",        // Android
	"/favicon.ico",         // browsers
	"/hotspot-detect.html", // iOS/macOS
	"/ncsi.txt",            // Windows
	"/connecttest.txt",     // Windows
}

type saveRequest struct {
	profile types.DeviceProfile
	reply   chan error
}

// Router is the provisioning routing table.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	for _, p := range CaptivePaths {
		r.HandleFunc(p, handleForm)
	}
	r.Post("/save", s.handleSave)

	redirect := s.handleRedirect
	r.NotFound(redirect)
	r.MethodNotAllowed(redirect)
	return r
}

func handleForm(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, http.StatusOK, formPage)
}

func (s *Service) handleRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Location", s.portalURL())
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusFound)
}

// portalURL is the form's address on the AP, carrying the HTTP port when
// the server does not listen on 80.
func (s *Service) portalURL() string {
	addr := s.opt.HTTPAddr
	if s.ln != nil {
		addr = s.ln.Addr().String()
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" || port == "0" || port == "80" {
		return "http://" + s.opt.APAddr + "/"
	}
	return "http://" + net.JoinHostPort(s.opt.APAddr, port) + "/"
}

// handleSave hands the profile to the scheduler and reports its outcome.
// The handler itself never touches the store.
func (s *Service) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	p := ProfileFromForm(r.PostFormValue("ssid"), r.PostFormValue("password"), r.PostFormValue("deviceName"))

	req := saveRequest{profile: p, reply: make(chan error, 1)}
	select {
	case s.saves <- req:
	default:
		writeHTML(w, http.StatusServiceUnavailable, busyPage)
		return
	}

	timer := time.NewTimer(s.opt.SaveWait)
	defer timer.Stop()
	select {
	case err := <-req.reply:
		if err != nil {
			writeHTML(w, http.StatusInternalServerError, failedPage)
			return
		}
		writeHTML(w, http.StatusOK, savedPage)
	case <-timer.C:
		s.log.Warn("provisioning_save_unanswered", zap.Duration("waited", s.opt.SaveWait))
		writeHTML(w, http.StatusServiceUnavailable, busyPage)
	case <-r.Context().Done():
	}
}

// ProfileFromForm builds a configured profile, truncating each field to
// types.FieldWidth.
func ProfileFromForm(ssid, password, deviceName string) types.DeviceProfile {
	return types.DeviceProfile{
		SSID:       ssid,
		Passphrase: password,
		DeviceName: deviceName,
		Configured: true,
	}.Clamp()
}

func writeHTML(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
