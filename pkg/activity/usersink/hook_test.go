package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-optstore/pkg/activity"
	"github.com/goliatone/go-optstore/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookMapsOptionEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildOptionUpdatedEvent(activity.OptionsEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "settings",
		Key:        "feature.flag",
		OldValue:   false,
		NewValue:   true,
		Store:      activity.StoreContext{Identifier: "flags"},
		OccurredAt: now,
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected empty user id to map to uuid.Nil, got %s", record.UserID)
	}
	if record.Verb != activity.VerbUpdated || record.ObjectType != activity.ObjectKey || record.ObjectID != "flags" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "settings" || record.OccurredAt != now {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["key"] != "feature.flag" || record.Data["store"] != "flags" {
		t.Fatalf("expected key and store in data, got %v", record.Data)
	}
	if record.Data["old_value"] != false || record.Data["new_value"] != true {
		t.Fatalf("expected value change in data, got %v", record.Data)
	}
}

func TestHookSkipsInvalidEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: activity.VerbCreated}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for incomplete event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookDefaultsTimestampAndData(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(nil, activity.Event{
		Verb:       activity.VerbCreated,
		ObjectType: activity.ObjectKey,
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
	if sink.records[0].Data != nil {
		t.Fatalf("expected nil data for bare event, got %v", sink.records[0].Data)
	}
}

func TestHookAppliesObjectPrefix(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, ObjectPrefix: "billing."}

	err := hook.Notify(context.Background(), activity.BuildOptionsResetEvent(activity.OptionsEventInput{
		ActorID: "not-a-uuid",
		Store:   activity.StoreContext{Identifier: "prefs"},
		Removed: 2,
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ObjectType != "billing.options.store" {
		t.Fatalf("expected prefixed object type, got %q", record.ObjectType)
	}
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected invalid actor id to map to uuid.Nil, got %s", record.ActorID)
	}
	if record.Data["removed"] != 2 {
		t.Fatalf("expected removed count, got %v", record.Data["removed"])
	}
}

func TestHookReturnsSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbDeleted,
		ObjectType: activity.ObjectStore,
		ObjectID:   "prefs",
	})
	if err == nil || err.Error() != "db down" {
		t.Fatalf("expected sink error, got %v", err)
	}
}
