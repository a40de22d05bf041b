package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-optstore/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards option store events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// ObjectPrefix, when set, namespaces record object types
	// ("<prefix>.options.key").
	ObjectPrefix string
}

// Notify converts event into an ActivityRecord. The option key and store
// identifier travel in the record data.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, h.record(event))
}

func (h Hook) record(event activity.Event) usertypes.ActivityRecord {
	data := make(map[string]any, len(event.Metadata)+2)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.Key != "" {
		data["key"] = event.Key
	}
	if event.Store != "" {
		data["store"] = event.Store
	}
	if len(data) == 0 {
		data = nil
	}

	return usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: h.objectType(event.ObjectType),
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
}

func (h Hook) objectType(objectType string) string {
	prefix := strings.Trim(strings.TrimSpace(h.ObjectPrefix), ".")
	if prefix == "" {
		return objectType
	}
	return prefix + "." + objectType
}

// parseUUID maps anything that is not a UUID to uuid.Nil.
func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
