package optstore

import (
	"github.com/goliatone/go-optstore/pkg/activity"
	"github.com/google/uuid"
)

// Store holds named option values behind a read gate and a write gate. It has
// no internal locking; callers sharing a Store across goroutines must
// synchronise access themselves.
type Store[V any] struct {
	keys       []string
	values     map[string]V
	identifier string
	overlay    bool

	read  readGate
	write writeGate[V]

	cfg        storeConfig
	instanceID string
}

// Option configures a Store at construction time.
type Option func(*storeConfig)

type storeConfig struct {
	logger         Logger
	activityHooks  activity.Hooks
	activityConfig activity.Config
	activityInput  activity.OptionsEventInput
	overlay        bool
	emitter        *activity.Emitter
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{
		activityConfig: activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.emitter = activity.NewEmitter(cfg.activityHooks, cfg.activityConfig)
	return cfg
}

// WithOverlay enables the property-style access path from construction.
func WithOverlay(enabled bool) Option {
	return func(cfg *storeConfig) {
		cfg.overlay = enabled
	}
}

func newInstanceID() string {
	return uuid.NewString()
}
