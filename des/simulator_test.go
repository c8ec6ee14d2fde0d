package des

import (
	"testing"
	"time"
)

type recorder struct {
	delivered []string
	times     []time.Duration
}

func (r *recorder) HandleMessage(payload any, from Module, timestamp time.Duration) []OutgoingMessage {
	r.delivered = append(r.delivered, payload.(string))
	r.times = append(r.times, timestamp)
	if payload.(string) == "ping" {
		return []OutgoingMessage{{"pong", from, 2 * time.Second}}
	}
	return nil
}

func TestDeliveryOrder(t *testing.T) {
	s := &Simulator{}
	a := &recorder{}
	b := &recorder{}
	s.ScheduleMessage(OutgoingMessage{"ping", b, 3 * time.Second}, a)
	s.ScheduleMessage(OutgoingMessage{"late", b, 10 * time.Second}, a)
	s.ScheduleMessage(OutgoingMessage{"early", b, 1 * time.Second}, a)
	s.Run()

	want := []string{"early", "ping", "late"}
	if len(b.delivered) != len(want) {
		t.Fatalf("b received %d messages, want %d", len(b.delivered), len(want))
	}
	for i := range want {
		if b.delivered[i] != want[i] {
			t.Errorf("b message %d is %q, want %q", i, b.delivered[i], want[i])
		}
	}
	if len(a.delivered) != 1 || a.delivered[0] != "pong" {
		t.Fatalf("a received %v, want the pong reply", a.delivered)
	}
	if a.times[0] != 5*time.Second {
		t.Errorf("pong arrived at %v, want 5s", a.times[0])
	}
	for i := 1; i < len(b.times); i++ {
		if b.times[i] < b.times[i-1] {
			t.Error("time went backwards")
		}
	}
	if !s.Drained() || s.EventsDelivered() != 4 {
		t.Errorf("drained=%v delivered=%d", s.Drained(), s.EventsDelivered())
	}
}

// Messages scheduled for the same instant arrive in scheduling order.
func TestEqualTimeTiebreak(t *testing.T) {
	s := &Simulator{}
	b := &recorder{}
	for _, m := range []string{"one", "two", "three"} {
		s.ScheduleMessage(OutgoingMessage{m, b, time.Second}, nil)
	}
	s.Run()
	want := []string{"one", "two", "three"}
	for i := range want {
		if b.delivered[i] != want[i] {
			t.Fatalf("message %d is %q, want %q", i, b.delivered[i], want[i])
		}
	}
}
