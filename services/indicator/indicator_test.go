package indicator

import (
	"errors"
	"testing"
	"time"

	"alertbadge-go/errcode"
	"alertbadge-go/types"
	"alertbadge-go/x/timex"
)

// ---- fakes ----

type fakeLED struct {
	on      bool
	history []bool
}

func (l *fakeLED) Set(on bool) { l.on = on; l.history = append(l.history, on) }
func (l *fakeLED) On() bool    { return l.on }

type scriptButton struct {
	clock   *timex.Fake
	release time.Time // zero = never pressed
}

func (b *scriptButton) Active() bool {
	return !b.release.IsZero() && b.clock.Now().Before(b.release)
}

type fakeWiper struct {
	wiped int
	err   error
	led   *fakeLED
	ledOn bool
}

func (w *fakeWiper) Wipe() error {
	w.wiped++
	w.ledOn = w.led.On()
	return w.err
}

// ---- blinker ----

func TestBlinker_FastSlowAndSnap(t *testing.T) {
	clk := timex.NewFake()
	led := &fakeLED{}
	b := NewBlinker(led, clk, 300*time.Millisecond, time.Second)

	b.Update(types.ModeUnconfigured, false) // starts the cadence
	clk.Advance(300 * time.Millisecond)
	b.Update(types.ModeUnconfigured, false)
	if led.on {
		t.Fatal("must not toggle at exactly the interval")
	}
	clk.Advance(time.Millisecond)
	b.Update(types.ModeUnconfigured, false)
	if !led.on {
		t.Fatal("fast blink should toggle after 300 ms")
	}

	clk.Advance(500 * time.Millisecond)
	b.Update(types.ModeServerAbsent, false)
	if !led.on {
		t.Fatal("slow blink must not toggle after 500 ms")
	}
	clk.Advance(600 * time.Millisecond)
	b.Update(types.ModeServerAbsent, false)
	if led.on {
		t.Fatal("slow blink should toggle after more than 1 s")
	}

	b.Update(types.ModeConnected, true)
	if !led.on || b.Blinking() {
		t.Fatal("leaving blink mode must snap the LED to the alert state")
	}
	b.Update(types.ModeConnected, false)
	if led.on {
		t.Fatal("solid LED must follow alert state")
	}
	b.Update(types.ModeResetting, false)
	if !led.on {
		t.Fatal("resetting is solid on")
	}
}

func TestBlinker_Intervals(t *testing.T) {
	b := NewBlinker(&fakeLED{}, timex.NewFake(), 300*time.Millisecond, time.Second)
	want := map[types.Mode]time.Duration{
		types.ModeUnconfigured: 300 * time.Millisecond,
		types.ModeAssociating:  300 * time.Millisecond,
		types.ModeServerAbsent: time.Second,
		types.ModeConnected:    0,
		types.ModeResetting:    0,
	}
	for m, iv := range want {
		if got := b.Interval(m); got != iv {
			t.Fatalf("%s: interval %v, want %v", m, got, iv)
		}
	}
}

// ---- debounce ----

func TestDebouncer_Window(t *testing.T) {
	clk := timex.NewFake()
	d := NewDebouncer(500 * time.Millisecond)
	press := func(after time.Duration) bool {
		clk.Advance(after)
		ok := d.Accept(true, clk.Now(), true)
		clk.Advance(20 * time.Millisecond)
		d.Accept(false, clk.Now(), true)
		return ok
	}

	if !press(0) {
		t.Fatal("first press should be accepted")
	}
	if press(300 * time.Millisecond) {
		t.Fatal("press inside the window must be suppressed")
	}
	if press(600 * time.Millisecond) != true {
		t.Fatal("press after the window should be accepted")
	}
}

func TestDebouncer_HeldCountsOnceAndDisabledIgnored(t *testing.T) {
	clk := timex.NewFake()
	d := NewDebouncer(500 * time.Millisecond)

	if d.Accept(true, clk.Now(), false) {
		t.Fatal("disabled input must not be accepted")
	}
	d.Accept(false, clk.Now(), false)

	accepted := 0
	for i := 0; i < 200; i++ { // 2 s held
		if d.Accept(true, clk.Now(), true) {
			accepted++
		}
		clk.Advance(10 * time.Millisecond)
	}
	if accepted != 1 {
		t.Fatalf("held button accepted %d times, want 1", accepted)
	}
}

// ---- hold / reset ----

func TestHoldDetector_FiresOncePerHold(t *testing.T) {
	clk := timex.NewFake()
	h := NewHoldDetector(3 * time.Second)
	fired := 0
	for i := 0; i <= 500; i++ { // 5 s held
		if h.Update(true, clk.Now()) {
			fired++
			if held, start := h.Holding(); !held || clk.Now().Sub(start) <= 3*time.Second {
				t.Fatal("fired before the threshold")
			}
		}
		clk.Advance(10 * time.Millisecond)
	}
	if fired != 1 {
		t.Fatalf("fired %d times, want 1", fired)
	}

	h.Update(false, clk.Now())
	for i := 0; i < 100; i++ { // 1 s hold
		if h.Update(true, clk.Now()) {
			t.Fatal("short hold must not fire")
		}
		clk.Advance(10 * time.Millisecond)
	}
}

func TestHeldAtBoot(t *testing.T) {
	clk := timex.NewFake()
	btn := &scriptButton{clock: clk}
	if HeldAtBoot(btn, clk, 100*time.Millisecond, 3*time.Second, 10*time.Millisecond) {
		t.Fatal("released button must not trigger")
	}

	start := clk.Now()
	btn.release = start.Add(time.Hour)
	if !HeldAtBoot(btn, clk, 100*time.Millisecond, 3*time.Second, 10*time.Millisecond) {
		t.Fatal("held button should trigger")
	}
	if el := clk.Now().Sub(start); el > 3200*time.Millisecond {
		t.Fatalf("boot check not bounded: %v", el)
	}

	btn.release = clk.Now().Add(time.Second)
	if HeldAtBoot(btn, clk, 100*time.Millisecond, 3*time.Second, 10*time.Millisecond) {
		t.Fatal("button released early must not trigger")
	}
}

func TestFactoryReset_Sequence(t *testing.T) {
	clk := timex.NewFake()
	start := clk.Now()
	led := &fakeLED{}
	w := &fakeWiper{led: led}

	err := FactoryReset(led, w, clk, time.Second, nil)
	if !errcode.Is(err, errcode.Restart) {
		t.Fatalf("want restart, got %v", err)
	}
	if w.wiped != 1 || !w.ledOn {
		t.Fatalf("wipe must run once with the LED lit: %+v", w)
	}
	if led.on || clk.Now().Sub(start) != time.Second {
		t.Fatal("LED must go off after the settle delay")
	}

	w.err = errcode.Wrap(errcode.StoreCommit, "profile.save", errors.New("flash"))
	err = FactoryReset(led, w, clk, time.Second, nil)
	if errcode.Is(err, errcode.Restart) {
		t.Fatalf("failed wipe must not request a restart: %v", err)
	}
	if !errcode.Is(err, errcode.StoreCommit) || !errors.Is(err, w.err) {
		t.Fatalf("wipe failure should surface the store error: %v", err)
	}
	if led.on {
		t.Fatal("LED must go off after a failed wipe too")
	}
}
