package optstore

// SetResult reports which keys an Apply call stored and which the write
// validator rejected.
type SetResult struct {
	Accepted []string
	Rejected []string
}

// OK reports whether every write was accepted.
func (r SetResult) OK() bool {
	return len(r.Rejected) == 0
}

// Apply behaves like SetEntries and additionally reports per-key outcomes.
func (s *Store[V]) Apply(entries ...Entry[V]) SetResult {
	var result SetResult
	for _, entry := range entries {
		if s.setOne(entry.Key, entry.Value) {
			result.Accepted = append(result.Accepted, entry.Key)
			continue
		}
		result.Rejected = append(result.Rejected, entry.Key)
	}
	return result
}

// Presence classifies a key from the store's point of view.
type Presence int

const (
	// Absent means the key was never stored or has been reset.
	Absent Presence = iota
	// Hidden means the key is stored but the read validator rejects it.
	Hidden
	// Visible means Has(key) is true.
	Visible
)

func (p Presence) String() string {
	switch p {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	default:
		return "absent"
	}
}

// Lookup tells an unset key apart from one that is stored but not readable.
func (s *Store[V]) Lookup(key string) Presence {
	if s == nil {
		return Absent
	}
	if _, ok := s.values[key]; !ok {
		return Absent
	}
	if s.read.allows(key) {
		return Visible
	}
	return Hidden
}
