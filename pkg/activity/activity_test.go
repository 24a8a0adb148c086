package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func modalEvent() Event {
	return Event{
		Verb:       " insights.modal.open ",
		ActorID:    " session-1 ",
		ObjectType: "modal",
		ObjectID:   " seller ",
		Metadata:   map[string]any{"entity": "seller", "id": "7"},
	}
}

func TestEmitterStampsChannel(t *testing.T) {
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if !em.Enabled() {
		t.Fatalf("expected emitter enabled")
	}
	if err := em.Emit(context.Background(), modalEvent()); err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	events := capture.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Channel != DefaultChannel {
		t.Fatalf("expected channel %q, got %q", DefaultChannel, events[0].Channel)
	}
	if events[0].Verb != "insights.modal.open" || events[0].ObjectID != "seller" || events[0].ActorID != "session-1" {
		t.Fatalf("expected trimmed identifiers, got %+v", events[0])
	}

	custom := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "ops"})
	evt := modalEvent()
	evt.Channel = "navigation"
	_ = custom.Emit(context.Background(), evt)
	_ = custom.Emit(context.Background(), modalEvent())
	events = capture.Snapshot()
	if events[1].Channel != "navigation" || events[2].Channel != "ops" {
		t.Fatalf("unexpected channels %q %q", events[1].Channel, events[2].Channel)
	}
}

func TestEmitterDisabled(t *testing.T) {
	if NewEmitter(nil, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{})
	if err := em.Emit(context.Background(), modalEvent()); err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	if len(capture.Snapshot()) != 0 {
		t.Fatalf("expected disabled emitter to drop events")
	}
	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("expected nil emitter to be disabled")
	}
}

func TestHooksSkipInvalidAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom := errors.New("sink down")
	hooks := Hooks{
		capture,
		nil,
		HookFunc(func(context.Context, Event) error { return boom }),
	}

	if err := hooks.Notify(context.Background(), Event{Verb: "insights.layout.save", ObjectType: "layout"}); err != nil {
		t.Fatalf("expected invalid events to be dropped silently, got %v", err)
	}
	if len(capture.Snapshot()) != 0 {
		t.Fatalf("expected no delivery for an event without object id")
	}

	err := hooks.Notify(context.Background(), modalEvent())
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error to be returned, got %v", err)
	}
	if len(capture.Snapshot()) != 1 {
		t.Fatalf("expected healthy hooks to still receive the event")
	}
}

func TestNormalizeEventClones(t *testing.T) {
	evt := modalEvent()
	evt.Recipients = []string{"ops@example.com"}
	n := NormalizeEvent(evt)

	n.Metadata["id"] = "8"
	if evt.Metadata["id"] != "7" {
		t.Fatalf("original metadata mutated")
	}
	n.Recipients[0] = "other@example.com"
	if evt.Recipients[0] != "ops@example.com" {
		t.Fatalf("original recipients mutated")
	}
	if n.OccurredAt.IsZero() || n.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected OccurredAt stamped in UTC, got %v", n.OccurredAt)
	}

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	evt.OccurredAt = at
	if got := NormalizeEvent(evt).OccurredAt; !got.Equal(at) {
		t.Fatalf("expected OccurredAt preserved, got %v", got)
	}
}
