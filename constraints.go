package optstore

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Constraints maps option keys to the ozzo-validation rules their values must
// satisfy.
type Constraints map[string][]validation.Rule

// Check validates value against the rules registered for key. Keys without
// rules return nil; known reports whether key has an entry at all.
//
// As with ozzo-validation generally, rules other than validation.Required
// and validation.NotNil skip empty values: {validation.Min(1)} accepts 0.
// Add validation.Required when the zero value must be rejected.
func (c Constraints) Check(key string, value any) (known bool, err error) {
	rules, ok := c[key]
	if !ok {
		return false, nil
	}
	return true, validation.Validate(value, rules...)
}

// ConstraintWriteValidator approves writes whose value passes the key's
// rules, with the empty-value behaviour described on Check. Keys without an entry are approved unless strict is set, in which
// case Constraints doubles as a key whitelist.
func ConstraintWriteValidator[V any](constraints Constraints, strict bool) WriteValidator[V] {
	return func(key string, value V, _ ...any) bool {
		known, err := constraints.Check(key, value)
		if !known {
			return !strict
		}
		return err == nil
	}
}

// KeyWhitelist is a ReadValidator that exposes only the listed keys.
func KeyWhitelist(keys ...string) ReadValidator {
	allowed := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		allowed[key] = struct{}{}
	}
	return func(key string, _ ...any) bool {
		_, ok := allowed[key]
		return ok
	}
}
