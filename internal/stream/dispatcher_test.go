package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDispatcherRegister(t *testing.T) {
	d := NewDispatcher()
	noop := func(context.Context, json.RawMessage) error { return nil }

	if err := d.Register("updateHighchart", noop); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := d.Register("updateHighchart", noop); err == nil {
		t.Error("duplicate Register() succeeded")
	}
	if err := d.Register("", noop); err == nil {
		t.Error("Register() with empty type succeeded")
	}
	if err := d.Register("other", nil); err == nil {
		t.Error("Register() with nil handler succeeded")
	}
	if types := d.Types(); len(types) != 1 || types[0] != "updateHighchart" {
		t.Errorf("Types() = %v", types)
	}
}

func TestDispatchToController(t *testing.T) {
	c, r := newTestController(t)
	if _, err := c.InitializeChart("live_highchart"); err != nil {
		t.Fatal(err)
	}

	d := NewDispatcher()
	if err := d.Register("updateHighchart", c.Handler()); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	env := Envelope{
		Type:    "updateHighchart",
		Message: json.RawMessage(`{"name":"live_highchart","x":"1700000060000","y0":"42.5","y1":"40.1"}`),
	}
	if err := d.Dispatch(ctx, env); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if r.count("redraw") != 1 {
		t.Errorf("redraw count = %d, want 1", r.count("redraw"))
	}

	err := d.Dispatch(ctx, Envelope{Type: "somethingElse", Message: env.Message})
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("Dispatch(unknown type) error = %v", err)
	}

	err = d.Dispatch(ctx, Envelope{Type: "updateHighchart", Message: json.RawMessage(`[1,2]`)})
	if !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("Dispatch(array payload) error = %v", err)
	}

	err = d.Dispatch(ctx, Envelope{Type: "updateHighchart", Message: json.RawMessage(`{"name":"nonexistent","x":1,"y0":1,"y1":1}`)})
	if !errors.Is(err, ErrUnknownChart) {
		t.Errorf("Dispatch(nonexistent) error = %v", err)
	}
	rej := NewRejection(env, err)
	if rej.Kind != KindUnknownChart || rej.Chart != "nonexistent" {
		t.Errorf("NewRejection() = %+v", rej)
	}

	if r.count("redraw") != 1 {
		t.Errorf("redraw count after rejections = %d, want 1", r.count("redraw"))
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := NewDispatcher()
	if err := d.Register("boom", func(context.Context, json.RawMessage) error {
		panic("broken handler")
	}); err != nil {
		t.Fatal(err)
	}

	err := d.Dispatch(context.Background(), Envelope{Type: "boom"})
	if err == nil {
		t.Fatal("Dispatch() returned nil after handler panic")
	}
	if KindOf(err) != KindInternal {
		t.Errorf("KindOf() = %s, want internal", KindOf(err))
	}
}

func TestNewControllerDefaultsClock(t *testing.T) {
	opts := DefaultOptions()
	opts.Now = nil
	before := time.Now()
	c := NewController(&fakeRenderer{}, opts)
	if c.createdAt.Before(before) {
		t.Errorf("createdAt = %v, want >= %v", c.createdAt, before)
	}
}
