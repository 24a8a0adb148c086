package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-insights/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []types.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookMapsDrillDownEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}
	session := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := hook.Notify(context.Background(), activity.Event{
		Verb:           "insights.modal.open",
		ActorID:        session.String(),
		UserID:         "not-a-uuid",
		ObjectType:     "modal",
		ObjectID:       "city",
		Channel:        activity.DefaultChannel,
		DefinitionCode: "drilldown",
		Metadata:       map[string]any{"entity": "city", "name": "Natal", "type": "cancelado"},
		OccurredAt:     at,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != session {
		t.Fatalf("expected actor %s, got %s", session, record.ActorID)
	}
	if record.UserID != uuid.Nil || record.TenantID != uuid.Nil {
		t.Fatalf("expected unparsable ids to map to uuid.Nil, got %s %s", record.UserID, record.TenantID)
	}
	if record.Verb != "insights.modal.open" || record.ObjectType != "modal" || record.ObjectID != "city" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Channel != "insights" || !record.OccurredAt.Equal(at) {
		t.Fatalf("unexpected channel or time: %q %v", record.Channel, record.OccurredAt)
	}
	if record.Data["name"] != "Natal" || record.Data["definition_code"] != "drilldown" {
		t.Fatalf("unexpected data: %v", record.Data)
	}
	if _, ok := record.Data["recipients"]; ok {
		t.Fatalf("expected no recipients key without recipients")
	}
}

func TestHookErrors(t *testing.T) {
	if err := (Hook{}).Notify(context.Background(), activity.Event{Verb: "insights.layout.save"}); err == nil {
		t.Fatalf("expected error without sink")
	}

	down := errors.New("activity store down")
	sink := &recordingSink{err: down}
	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: "insights.layout.save", ObjectType: "layout", ObjectID: "layout_Clientes"})
	if !errors.Is(err, down) {
		t.Fatalf("expected sink error, got %v", err)
	}

	sink = &recordingSink{}
	_ = Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: "  "})
	if len(sink.records) != 0 {
		t.Fatalf("expected blank verb to be skipped, got %d records", len(sink.records))
	}
}
