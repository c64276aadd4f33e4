package wifi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"tinygo.org/x/drivers/netlink"

	"alertbadge-go/errcode"
	"alertbadge-go/platform"
	"alertbadge-go/types"
	"alertbadge-go/x/timex"
)

// ---- fakes ----

type fakeRadio struct {
	calls      []string
	upAfter    int // Associated() reports true from this call onwards; 0 = never
	checks     int
	up         bool
	associateE error
}

func (r *fakeRadio) Associate(ssid, pass string) error {
	r.calls = append(r.calls, "associate:"+ssid+":"+pass)
	return r.associateE
}
func (r *fakeRadio) Disassociate() { r.calls = append(r.calls, "disassociate"); r.up = false }
func (r *fakeRadio) Reassociate() error {
	r.calls = append(r.calls, "reassociate")
	return nil
}
func (r *fakeRadio) Associated() bool {
	r.checks++
	if r.upAfter > 0 && r.checks >= r.upAfter {
		r.up = true
	}
	return r.up
}
func (r *fakeRadio) StartAccessPoint(ssid string) error {
	r.calls = append(r.calls, "ap:"+ssid)
	return nil
}

type fakeSaver struct {
	saved []types.DeviceProfile
	err   error
}

func (s *fakeSaver) Save(p types.DeviceProfile) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, p)
	return nil
}

type fakeDisc struct {
	addr  string
	calls int
}

func (d *fakeDisc) Discover() (string, bool) {
	d.calls++
	return d.addr, d.addr != ""
}

var home = types.DeviceProfile{SSID: "Home", Passphrase: "secret123", DeviceName: "Alice", Configured: true}

func newManager(r Radio, s ProfileSaver, d Discoverer, clk timex.Clock) *Manager {
	return NewManager(r, s, d, clk, zap.NewNop(), Options{})
}

// ---- tests ----

func TestConnect_UnconfiguredNeverTouchesRadio(t *testing.T) {
	r := &fakeRadio{upAfter: 1}
	st := &types.State{Profile: types.DeviceProfile{SSID: "stale", Passphrase: "garbage"}}

	err := newManager(r, &fakeSaver{}, &fakeDisc{}, timex.NewFake()).Connect(st)
	require.True(t, errcode.Is(err, errcode.NotConfigured))
	require.Empty(t, r.calls)
	require.Zero(t, r.checks)
}

func TestConnect_SuccessRunsDiscovery(t *testing.T) {
	clk := timex.NewFake()
	start := clk.Now()
	r := &fakeRadio{upAfter: 3}
	d := &fakeDisc{addr: "192.168.1.50"}
	st := &types.State{Profile: home}

	require.NoError(t, newManager(r, &fakeSaver{}, d, clk).Connect(st))
	require.Equal(t, []string{"disassociate", "associate:Home:secret123"}, r.calls)
	require.Equal(t, types.LinkAssociated, st.Link)
	require.True(t, st.Reachable)
	require.Equal(t, 1, d.calls)
	require.Equal(t, 100*time.Millisecond+2*500*time.Millisecond, clk.Now().Sub(start))
	require.Equal(t, types.ModeConnected, types.ModeOf(st))
}

func TestConnect_FirstFailurePersistsUnconfigured(t *testing.T) {
	clk := timex.NewFake()
	start := clk.Now()
	s := &fakeSaver{}
	d := &fakeDisc{addr: "10.0.0.1"}
	st := &types.State{Profile: home}

	err := newManager(&fakeRadio{}, s, d, clk).Connect(st)
	require.True(t, errcode.Is(err, errcode.ProvisioningFallback))
	require.Len(t, s.saved, 1)
	require.False(t, s.saved[0].Configured)
	require.False(t, st.Profile.Configured)
	require.Equal(t, types.LinkFailed, st.Link)
	require.Zero(t, d.calls)
	require.Equal(t, 100*time.Millisecond+20*500*time.Millisecond, clk.Now().Sub(start))
	require.Equal(t, types.ModeUnconfigured, types.ModeOf(st))
}

func TestConnect_LaterFailureKeepsProfile(t *testing.T) {
	clk := timex.NewFake()
	s := &fakeSaver{}
	r := &fakeRadio{upAfter: 1}
	m := newManager(r, s, &fakeDisc{}, clk)
	st := &types.State{Profile: home}
	require.NoError(t, m.Connect(st))

	r.upAfter, r.up = 0, false
	err := m.Connect(st)
	require.True(t, errcode.Is(err, errcode.AssociationTimeout))
	require.Empty(t, s.saved)
	require.True(t, st.Profile.Configured)
}

func TestConnect_AssociateErrorFailsFast(t *testing.T) {
	clk := timex.NewFake()
	start := clk.Now()
	r := &fakeRadio{associateE: errors.New("auth rejected")}
	st := &types.State{Profile: home}

	err := newManager(r, &fakeSaver{}, &fakeDisc{}, clk).Connect(st)
	require.True(t, errcode.Is(err, errcode.ProvisioningFallback))
	require.Equal(t, 100*time.Millisecond, clk.Now().Sub(start))
}

func TestConnect_SaveFailureStillFallsBack(t *testing.T) {
	st := &types.State{Profile: home}
	err := newManager(&fakeRadio{}, &fakeSaver{err: errors.New("flash")}, &fakeDisc{}, timex.NewFake()).Connect(st)
	require.True(t, errcode.Is(err, errcode.ProvisioningFallback))
	require.False(t, st.Profile.Configured)
}

func TestReconnect_BoundedAndNoFallback(t *testing.T) {
	clk := timex.NewFake()
	start := clk.Now()
	s := &fakeSaver{}
	d := &fakeDisc{}
	st := &types.State{Profile: home, Link: types.LinkUnassociated}

	err := newManager(&fakeRadio{}, s, d, clk).Reconnect(st)
	require.True(t, errcode.Is(err, errcode.AssociationTimeout))
	require.Equal(t, 5*500*time.Millisecond, clk.Now().Sub(start))
	require.Empty(t, s.saved)
	require.True(t, st.Profile.Configured)
	require.Equal(t, types.ModeAssociating, types.ModeOf(st))
}

func TestReconnect_SuccessRefreshesReachability(t *testing.T) {
	r := &fakeRadio{upAfter: 2}
	st := &types.State{Profile: home}

	require.NoError(t, newManager(r, &fakeSaver{}, &fakeDisc{}, timex.NewFake()).Reconnect(st))
	require.Equal(t, []string{"reassociate"}, r.calls)
	require.Equal(t, types.LinkAssociated, st.Link)
	require.False(t, st.Reachable)
	require.Equal(t, types.ModeServerAbsent, types.ModeOf(st))
}

func TestObserve_LinkDrop(t *testing.T) {
	r := &fakeRadio{up: true}
	m := newManager(r, &fakeSaver{}, &fakeDisc{}, timex.NewFake())
	st := &types.State{Profile: home, Link: types.LinkAssociated, Reachable: true}

	require.False(t, m.Observe(st))
	r.up = false
	require.True(t, m.Observe(st))
	require.Equal(t, types.LinkUnassociated, st.Link)
	require.False(t, st.Reachable)
}

func TestNetlinkRadio_HostLink(t *testing.T) {
	link := &platform.HostLink{}
	r := NewNetlinkRadio(link, 10*time.Second)

	require.False(t, r.Associated())
	require.True(t, errcode.Is(r.Reassociate(), errcode.NotConfigured))

	require.NoError(t, r.Associate("Home", "secret123"))
	require.True(t, r.Associated())
	p := link.Params()
	require.Equal(t, "Home", p.Ssid)
	require.EqualValues(t, netlink.AuthTypeWPA2, p.AuthType)
	require.Equal(t, 10*time.Second, p.ConnectTimeout)

	link.Drop()
	require.False(t, r.Associated())
	require.NoError(t, r.Reassociate())
	require.True(t, r.Associated())

	r.Disassociate()
	require.False(t, r.Associated())

	require.NoError(t, r.Associate("Cafe", ""))
	require.EqualValues(t, netlink.AuthTypeOpen, link.Params().AuthType)

	require.NoError(t, r.StartAccessPoint("EMERGENCY ALERT SETUP"))
	require.False(t, r.Associated(), "access point mode is not a station association")
	require.EqualValues(t, netlink.ConnectModeAP, link.Params().ConnectMode)

	link.Refuse = true
	require.ErrorIs(t, r.Associate("Home", "x"), platform.ErrRefused)
	require.False(t, r.Associated())
}
