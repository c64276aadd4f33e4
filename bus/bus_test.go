// bus/bus_test.go
package bus

import (
	"sort"
	"testing"
)

const (
	TopicState = "state"
	TopicMode  = "mode"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(Topic{TopicState, TopicMode})
	conn.Publish(conn.NewMessage(Topic{TopicState, TopicMode}, "hello", false))

	expectOneOf(t, sub, "hello")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(Topic{TopicState, TopicMode}, "persist", true))

	sub := conn.Subscribe(Topic{TopicState, TopicMode})
	expectOneOf(t, sub, "persist")

	m, ok := b.Retained(Topic{TopicState, TopicMode})
	if !ok || m.Payload.(string) != "persist" {
		t.Fatalf("Retained lookup = %v, %v", m, ok)
	}
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(Topic{"a", "+", "c"})
	s2 := c.Subscribe(Topic{"a", "+", "+"})
	sNo := c.Subscribe(Topic{"a", "+", "d"})

	c.Publish(b.NewMessage(Topic{"a", "b", "c"}, "m1", false))
	expectOneOf(t, s1, "m1")
	expectOneOf(t, s2, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(Topic{"a", "c"}, "m2", false))
	expectNoMessage(t, s1)
	expectNoMessage(t, s2)
	expectNoMessage(t, sNo)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sAHash := c.Subscribe(Topic{"a", "#"})
	sHash := c.Subscribe(Topic{"#"})
	sAExact := c.Subscribe(Topic{"a"})

	c.Publish(b.NewMessage(Topic{"a"}, "p1", false))
	expectOneOf(t, sAHash, "p1")
	expectOneOf(t, sHash, "p1")
	expectOneOf(t, sAExact, "p1")

	c.Publish(b.NewMessage(Topic{"a", "b", "c"}, "p2", false))
	expectOneOf(t, sAHash, "p2")
	expectOneOf(t, sHash, "p2")
	expectNoMessage(t, sAExact)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(Topic{"a"}, "r0", true))
	c.Publish(b.NewMessage(Topic{"a", "b"}, "r1", true))
	c.Publish(b.NewMessage(Topic{"a", "x"}, "r2", true))

	sAll := c.Subscribe(Topic{"a", "#"})
	assertUnorderedEqual(t, drainPayloads(t, sAll), []string{"r0", "r1", "r2"})

	sPlus := c.Subscribe(Topic{"a", "+"})
	assertUnorderedEqual(t, drainPayloads(t, sPlus), []string{"r1", "r2"})
}

func TestWildcard_RetainedClear(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(Topic{"a", "b"}, "keep", true))
	c.Publish(b.NewMessage(Topic{"a", "y"}, "other", true))
	c.Publish(b.NewMessage(Topic{"a", "b"}, nil, true))

	s := c.Subscribe(Topic{"a", "#"})
	got := drainPayloads(t, s)
	if len(got) != 1 || got[0] != "other" {
		t.Fatalf("expected only 'other' after clear, got %v", got)
	}
}

func TestQueueFull_DropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(Topic{"q"})

	for _, p := range []string{"1", "2", "3"} {
		c.Publish(b.NewMessage(Topic{"q"}, p, false))
	}
	got := drainPayloads(t, s)
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Fatalf("expected [2 3], got %v", got)
	}
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	s1 := c.Subscribe(Topic{"x"})
	s2 := c.Subscribe(Topic{"y"})

	s1.Unsubscribe()
	if _, ok := <-s1.Channel(); ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
	s1.Unsubscribe() // second call is a no-op

	c.Disconnect()
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("channel should be closed after Disconnect")
	}

	// Publishing with no subscribers must not panic.
	c.Publish(b.NewMessage(Topic{"x"}, "late", false))
}

func TestTopicString(t *testing.T) {
	if got := T("state", "mode").String(); got != "state/mode" {
		t.Fatalf("got %q", got)
	}
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	got := sub.Drain()
	if len(got) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(got))
	}
	if s, _ := got[0].Payload.(string); s != want {
		t.Fatalf("payload = %#v, want %q", got[0].Payload, want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	if got := sub.Drain(); len(got) != 0 {
		t.Fatalf("unexpected message: %#v", got[0])
	}
}

func drainPayloads(t *testing.T, sub *Subscription) []string {
	t.Helper()
	var out []string
	for _, m := range sub.Drain() {
		s, ok := m.Payload.(string)
		if !ok {
			t.Fatalf("non-string payload in drain: %#v", m.Payload)
		}
		out = append(out, s)
	}
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d (%v vs %v)", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %q, want %q (got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}
