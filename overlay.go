package optstore

// TryGet exposes Get to a host object forwarding its own field accessors.
// It reports absent while the overlay is disabled.
func (s *Store[V]) TryGet(name string) (V, bool) {
	if !s.OverlayEnabled() {
		var zero V
		return zero, false
	}
	return s.Get(name)
}

// TryHas is Has behind the overlay flag.
func (s *Store[V]) TryHas(name string) bool {
	if !s.OverlayEnabled() {
		return false
	}
	return s.Has(name)
}

// TrySet is Set behind the overlay flag; it is a no-op while disabled.
func (s *Store[V]) TrySet(name string, value V) {
	if !s.OverlayEnabled() {
		return
	}
	s.Set(name, value)
}
