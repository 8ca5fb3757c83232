// internal/delivery/registry_test.go
package delivery

import (
	"errors"
	"testing"
)

// recorder captures deliveries for one registered prefix.
type recorder struct {
	keys, msgs []string
	err        error
}

func (r *recorder) deliver(sessionKey, message string) error {
	r.keys = append(r.keys, sessionKey)
	r.msgs = append(r.msgs, message)
	return r.err
}

func TestRegistryRoutesByPrefix(t *testing.T) {
	reg := NewRegistry()
	tg, ui := &recorder{}, &recorder{}
	reg.Register("telegram:", tg.deliver)
	reg.Register("tui:", ui.deliver)

	deliveries := []struct {
		key, msg string
		want     *recorder
	}{
		{"telegram:42:100", "time for bed", tg},
		{"tui:default", "story time", ui},
		{"telegram:7:7", "again", tg},
	}
	for _, d := range deliveries {
		if err := reg.Deliver(d.key, d.msg); err != nil {
			t.Fatalf("Deliver(%q): %v", d.key, err)
		}
	}

	if len(tg.keys) != 2 || tg.keys[0] != "telegram:42:100" || tg.msgs[0] != "time for bed" {
		t.Errorf("telegram recorder got %v / %v", tg.keys, tg.msgs)
	}
	if len(ui.keys) != 1 || ui.msgs[0] != "story time" {
		t.Errorf("tui recorder got %v / %v", ui.keys, ui.msgs)
	}
}

func TestRegistryUnknownPrefix(t *testing.T) {
	reg := NewRegistry()
	reg.Register("telegram:", (&recorder{}).deliver)

	if err := reg.Deliver("discord:123", "hello"); err == nil {
		t.Fatal("expected error for unregistered prefix")
	}
}

func TestRegistryPropagatesHandlerError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("chat gone")
	reg.Register("telegram:", (&recorder{err: boom}).deliver)

	if err := reg.Deliver("telegram:1:2", "hi"); !errors.Is(err, boom) {
		t.Errorf("expected handler error back, got %v", err)
	}
}

func TestRegistryFirstMatchWins(t *testing.T) {
	reg := NewRegistry()
	first, second := &recorder{}, &recorder{}
	reg.Register("tele", first.deliver)
	reg.Register("telegram:", second.deliver)

	if err := reg.Deliver("telegram:1:2", "hi"); err != nil {
		t.Fatal(err)
	}
	if len(first.keys) != 1 || len(second.keys) != 0 {
		t.Errorf("registration order must decide the match: first=%d second=%d",
			len(first.keys), len(second.keys))
	}
}
