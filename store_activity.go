package optstore

import (
	"context"
	"time"

	"github.com/goliatone/go-optstore/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified on accepted writes and
// resets. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the emitter configuration. Emission is enabled
// by default once hooks are present.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *storeConfig) {
		cfg.activityConfig = config
	}
}

// WithActivityInput sets the actor, tenant and metadata copied into every
// emitted event.
func WithActivityInput(input activity.OptionsEventInput) Option {
	return func(cfg *storeConfig) {
		cfg.activityInput = input
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (s *Store[V]) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return s.cfg.emitter.Hooks()
}

func (s *Store[V]) eventInput() activity.OptionsEventInput {
	input := s.cfg.activityInput
	input.Store = activity.StoreContext{
		Identifier: s.identifier,
		InstanceID: s.instanceID,
	}
	if input.ObjectID == "" {
		input.ObjectID = s.objectID()
	}
	input.OccurredAt = time.Now()
	return input
}

// emitWrite runs after the value is stored. Values only reach hooks while the
// read validator approves key; a hidden key is reported without them.
func (s *Store[V]) emitWrite(key string, previous, value V, existed bool) {
	if !s.cfg.emitter.Enabled() {
		return
	}
	input := s.eventInput()
	input.Key = key
	visible := s.read.allows(key)
	if visible {
		input.NewValue = value
	}
	event := activity.BuildOptionCreatedEvent(input)
	if existed {
		if visible {
			input.OldValue = previous
		}
		event = activity.BuildOptionUpdatedEvent(input)
	}
	s.emit(key, event)
}

func (s *Store[V]) emitReset(removed int) {
	if !s.cfg.emitter.Enabled() {
		return
	}
	input := s.eventInput()
	input.Removed = removed
	s.emit("", activity.BuildOptionsResetEvent(input))
}

// emit never fails the calling operation; hook errors go to the logger.
func (s *Store[V]) emit(key string, event activity.Event) {
	start := time.Now()
	if err := s.cfg.emitter.Emit(context.Background(), event); err != nil && s.cfg.logger != nil {
		s.cfg.logger.LogStore(StoreLogEvent{
			Op:       OpActivity,
			Store:    s.String(),
			Key:      key,
			Accepted: true,
			Duration: time.Since(start),
			Err:      err,
		})
	}
}
