package optstore

// ReadValidator decides whether a stored key is visible. args holds the fixed
// arguments configured alongside the validator.
type ReadValidator func(key string, args ...any) bool

// WriteValidator decides whether value may be stored under key. args holds
// the fixed arguments configured alongside the validator.
type WriteValidator[V any] func(key string, value V, args ...any) bool

// AllowAllReads is the default read validator.
func AllowAllReads(string, ...any) bool {
	return true
}

// AllowAllWrites returns the default write validator for V.
func AllowAllWrites[V any]() WriteValidator[V] {
	return func(string, V, ...any) bool {
		return true
	}
}

// readGate binds a read validator to its fixed arguments so both are replaced
// together.
type readGate struct {
	fn   ReadValidator
	args []any
}

func (g readGate) allows(key string) bool {
	if g.fn == nil {
		return true
	}
	return g.fn(key, g.args...)
}

type writeGate[V any] struct {
	fn   WriteValidator[V]
	args []any
}

func (g writeGate[V]) allows(key string, value V) bool {
	if g.fn == nil {
		return true
	}
	return g.fn(key, value, g.args...)
}

func newReadGate(fn ReadValidator, args []any) readGate {
	if fn == nil {
		fn = AllowAllReads
	}
	return readGate{fn: fn, args: cloneArgs(args)}
}

func newWriteGate[V any](fn WriteValidator[V], args []any) writeGate[V] {
	if fn == nil {
		fn = AllowAllWrites[V]()
	}
	return writeGate[V]{fn: fn, args: cloneArgs(args)}
}

// SetReadValidator replaces the read validator and its fixed arguments. A nil
// validator restores the pass-through default. Panics raised by fn reach the
// caller of Has, Get and Filter unchanged.
func (s *Store[V]) SetReadValidator(fn ReadValidator, args ...any) {
	if s == nil {
		return
	}
	s.read = newReadGate(fn, args)
}

// SetWriteValidator replaces the write validator and its fixed arguments. A
// nil validator restores the pass-through default.
func (s *Store[V]) SetWriteValidator(fn WriteValidator[V], args ...any) {
	if s == nil {
		return
	}
	s.write = newWriteGate(fn, args)
}

// ReadValidatorArgs returns a copy of the fixed read validator arguments.
func (s *Store[V]) ReadValidatorArgs() []any {
	if s == nil {
		return nil
	}
	return cloneArgs(s.read.args)
}

// WriteValidatorArgs returns a copy of the fixed write validator arguments.
func (s *Store[V]) WriteValidatorArgs() []any {
	if s == nil {
		return nil
	}
	return cloneArgs(s.write.args)
}

// AllReads combines read validators; a key is visible only when every
// validator approves it. Each validator receives the same fixed arguments.
func AllReads(validators ...ReadValidator) ReadValidator {
	return func(key string, args ...any) bool {
		for _, fn := range validators {
			if fn == nil {
				continue
			}
			if !fn(key, args...) {
				return false
			}
		}
		return true
	}
}

// AllWrites combines write validators; a write is accepted only when every
// validator approves it.
func AllWrites[V any](validators ...WriteValidator[V]) WriteValidator[V] {
	return func(key string, value V, args ...any) bool {
		for _, fn := range validators {
			if fn == nil {
				continue
			}
			if !fn(key, value, args...) {
				return false
			}
		}
		return true
	}
}

func cloneArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	return append([]any(nil), args...)
}
