package optstore

// Entry pairs an option key with its value.
type Entry[V any] struct {
	Key   string
	Value V
}

// E is shorthand for building an Entry inline.
func E[V any](key string, value V) Entry[V] {
	return Entry[V]{Key: key, Value: value}
}

// Values is an ordered key/value result. Keys are unique; order follows the
// store's insertion order for GetAll and the request order for GetMany.
type Values[V any] []Entry[V]

// Len returns the number of entries.
func (v Values[V]) Len() int {
	return len(v)
}

// Keys returns the entry keys in order.
func (v Values[V]) Keys() []string {
	if len(v) == 0 {
		return nil
	}
	keys := make([]string, len(v))
	for i, entry := range v {
		keys[i] = entry.Key
	}
	return keys
}

// Lookup returns the value stored under key within the result.
func (v Values[V]) Lookup(key string) (V, bool) {
	for _, entry := range v {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	var zero V
	return zero, false
}

// Map copies the entries into a map. The result is never nil.
func (v Values[V]) Map() map[string]V {
	out := make(map[string]V, len(v))
	for _, entry := range v {
		out[entry.Key] = entry.Value
	}
	return out
}

// Any widens the values to map[string]any, the shape rule evaluators and
// decoders consume.
func (v Values[V]) Any() map[string]any {
	out := make(map[string]any, len(v))
	for _, entry := range v {
		out[entry.Key] = entry.Value
	}
	return out
}
