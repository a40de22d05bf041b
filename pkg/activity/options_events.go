package activity

import (
	"strings"
	"time"
)

// Verbs and object types emitted by option stores.
const (
	VerbCreated = "options.created"
	VerbUpdated = "options.updated"
	VerbDeleted = "options.deleted"

	ObjectKey   = "options.key"
	ObjectStore = "options.store"
)

// StoreContext identifies the store an event originated from.
type StoreContext struct {
	Identifier string
	InstanceID string
}

// OptionsEventInput carries the caller supplied identity fields plus the
// details of a single mutation.
type OptionsEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	Key        string
	OldValue   any
	NewValue   any
	Removed    int
	Store      StoreContext
	OccurredAt time.Time
}

// BuildOptionCreatedEvent builds the event for a key stored for the first time.
func BuildOptionCreatedEvent(input OptionsEventInput) Event {
	event := newOptionsEvent(VerbCreated, ObjectKey, input)
	event.Metadata = withValue(event.Metadata, "new_value", input.NewValue)
	return event
}

// BuildOptionUpdatedEvent builds the event for an overwritten key.
func BuildOptionUpdatedEvent(input OptionsEventInput) Event {
	event := newOptionsEvent(VerbUpdated, ObjectKey, input)
	event.Metadata = withValue(event.Metadata, "old_value", input.OldValue)
	event.Metadata = withValue(event.Metadata, "new_value", input.NewValue)
	return event
}

// BuildOptionsResetEvent builds the event for a cleared store. The removed
// count is always recorded, zero included.
func BuildOptionsResetEvent(input OptionsEventInput) Event {
	input.Key = ""
	event := newOptionsEvent(VerbDeleted, ObjectStore, input)
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	event.Metadata["removed"] = input.Removed
	return event
}

func newOptionsEvent(verb, objectType string, input OptionsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if id := strings.TrimSpace(input.Store.InstanceID); id != "" {
		metadata = withValue(metadata, "instance_id", id)
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID(objectType, input),
		Channel:    strings.TrimSpace(input.Channel),
		Store:      strings.TrimSpace(input.Store.Identifier),
		Key:        input.Key,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// objectID prefers an explicit id, then the store identifier, then the
// instance id, and finally the object type itself.
func objectID(objectType string, input OptionsEventInput) string {
	for _, candidate := range []string{input.ObjectID, input.Store.Identifier, input.Store.InstanceID} {
		if id := strings.TrimSpace(candidate); id != "" {
			return id
		}
	}
	return objectType
}

func withValue(meta map[string]any, key string, value any) map[string]any {
	if value == nil {
		return meta
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta[key] = value
	return meta
}
