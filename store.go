package optstore

import (
	"fmt"
	"sort"
	"time"
)

// New constructs an empty Store with pass-through validators. identifier is a
// display label; pass "" to leave it unset.
func New[V any](identifier string, opts ...Option) *Store[V] {
	cfg := applyOptions(opts)
	return &Store[V]{
		values:     map[string]V{},
		identifier: identifier,
		overlay:    cfg.overlay,
		read:       newReadGate(nil, nil),
		write:      newWriteGate[V](nil, nil),
		cfg:        cfg,
		instanceID: newInstanceID(),
	}
}

// Identifier returns the display label, or "" when unset.
func (s *Store[V]) Identifier() string {
	if s == nil {
		return ""
	}
	return s.identifier
}

// SetIdentifier replaces the display label and returns it.
func (s *Store[V]) SetIdentifier(identifier string) string {
	if s == nil {
		return ""
	}
	s.identifier = identifier
	return s.identifier
}

// OverlayEnabled reports whether TryGet, TryHas and TrySet delegate to the
// store.
func (s *Store[V]) OverlayEnabled() bool {
	return s != nil && s.overlay
}

// SetOverlayEnabled toggles the overlay and returns the new state.
func (s *Store[V]) SetOverlayEnabled(enabled bool) bool {
	if s == nil {
		return false
	}
	s.overlay = enabled
	return s.overlay
}

// Set stores value under key when the write validator approves it. Rejected
// writes are dropped without error.
func (s *Store[V]) Set(key string, value V) {
	s.setOne(key, value)
}

// SetMany applies every pair in values. Pairs are visited in sorted key order
// since map iteration order is unspecified.
func (s *Store[V]) SetMany(values map[string]V) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		s.setOne(key, values[key])
	}
}

// SetEntries applies entries in the order given.
func (s *Store[V]) SetEntries(entries ...Entry[V]) {
	for _, entry := range entries {
		s.setOne(entry.Key, entry.Value)
	}
}

func (s *Store[V]) setOne(key string, value V) bool {
	if s == nil {
		return false
	}
	var start time.Time
	if s.cfg.logger != nil {
		start = time.Now()
	}
	accepted := s.write.allows(key, value)
	if accepted {
		if s.values == nil {
			s.values = map[string]V{}
		}
		previous, existed := s.values[key]
		if !existed {
			s.keys = append(s.keys, key)
		}
		s.values[key] = value
		s.emitWrite(key, previous, value, existed)
	}
	if s.cfg.logger != nil {
		s.cfg.logger.LogStore(StoreLogEvent{
			Op:       OpSet,
			Store:    s.String(),
			Key:      key,
			Accepted: accepted,
			Duration: time.Since(start),
		})
	}
	return accepted
}

// Has reports whether key is stored and the read validator approves it right
// now. Every read path goes through Has.
func (s *Store[V]) Has(key string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.values[key]; !ok {
		return false
	}
	return s.read.allows(key)
}

// Get returns the value stored under key when Has(key) is true. Otherwise it
// returns the zero value and false.
func (s *Store[V]) Get(key string) (V, bool) {
	if !s.Has(key) {
		var zero V
		return zero, false
	}
	return s.values[key], true
}

// GetAll returns every visible entry in insertion order.
func (s *Store[V]) GetAll() Values[V] {
	if s == nil {
		return Values[V]{}
	}
	out := make(Values[V], 0, len(s.keys))
	for _, key := range s.keys {
		if s.Has(key) {
			out = append(out, Entry[V]{Key: key, Value: s.values[key]})
		}
	}
	return out
}

// GetMany returns the visible entries among keys, in request order. Keys that
// fail Has are omitted and repeated keys collapse to their first position.
func (s *Store[V]) GetMany(keys ...string) Values[V] {
	out := make(Values[V], 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		if !s.Has(key) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Entry[V]{Key: key, Value: s.values[key]})
	}
	return out
}

// GetGroups flattens groups into one key list and resolves it like GetMany.
func (s *Store[V]) GetGroups(groups ...[]string) Values[V] {
	return s.GetMany(flattenKeys(groups)...)
}

// Len returns the number of stored keys, visible or not.
func (s *Store[V]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Reset removes every stored value. Validators, identifier and overlay state
// are kept.
func (s *Store[V]) Reset() {
	if s == nil {
		return
	}
	var start time.Time
	if s.cfg.logger != nil {
		start = time.Now()
	}
	removed := len(s.keys)
	s.keys = nil
	s.values = map[string]V{}
	s.emitReset(removed)
	if s.cfg.logger != nil {
		s.cfg.logger.LogStore(StoreLogEvent{
			Op:       OpReset,
			Store:    s.String(),
			Accepted: true,
			Duration: time.Since(start),
		})
	}
}

// String returns a short label for diagnostics.
func (s *Store[V]) String() string {
	if s == nil {
		return "optstore.Store: <nil>"
	}
	if s.identifier != "" {
		return fmt.Sprintf("optstore.Store: %s", s.identifier)
	}
	return "optstore.Store: <instance>"
}

// objectID identifies the store in activity events.
func (s *Store[V]) objectID() string {
	if s == nil {
		return ""
	}
	if s.identifier != "" {
		return s.identifier
	}
	return s.instanceID
}

func flattenKeys(groups [][]string) []string {
	size := 0
	for _, group := range groups {
		size += len(group)
	}
	keys := make([]string, 0, size)
	for _, group := range groups {
		keys = append(keys, group...)
	}
	return keys
}
