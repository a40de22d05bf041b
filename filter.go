package optstore

// Transform maps a resolved value to its filtered form. args are the extra
// arguments passed to Filter.
type Transform[V any] func(value V, args ...any) V

// FilterOne resolves key like Get and returns fn applied to its value.
func (s *Store[V]) FilterOne(key string, fn Transform[V], args ...any) (V, bool) {
	var zero V
	if fn == nil {
		return zero, false
	}
	value, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	return fn(value, args...), true
}

// Filter resolves keys like GetMany and replaces each value with fn applied
// to it. Stored values are left untouched.
func (s *Store[V]) Filter(keys []string, fn Transform[V], args ...any) Values[V] {
	if fn == nil {
		return Values[V]{}
	}
	resolved := s.GetMany(keys...)
	out := make(Values[V], len(resolved))
	for i, entry := range resolved {
		out[i] = Entry[V]{Key: entry.Key, Value: fn(entry.Value, args...)}
	}
	return out
}

// FilterAs is Filter for transforms that change the value type.
func FilterAs[V, R any](s *Store[V], keys []string, fn func(value V, args ...any) R, args ...any) Values[R] {
	if s == nil || fn == nil {
		return Values[R]{}
	}
	resolved := s.GetMany(keys...)
	out := make(Values[R], len(resolved))
	for i, entry := range resolved {
		out[i] = Entry[R]{Key: entry.Key, Value: fn(entry.Value, args...)}
	}
	return out
}
