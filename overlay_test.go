package optstore

import "testing"

func TestOverlayDisabledIsInert(t *testing.T) {
	store := New[string]("")
	store.Set("color", "red")

	if _, ok := store.TryGet("color"); ok {
		t.Fatalf("expected TryGet absent while overlay disabled")
	}
	if store.TryHas("color") {
		t.Fatalf("expected TryHas false while overlay disabled")
	}
	store.TrySet("size", "xl")
	if store.Lookup("size") != Absent {
		t.Fatalf("expected TrySet to be a no-op while overlay disabled")
	}
}

func TestOverlayEnabledDelegates(t *testing.T) {
	store := New[string]("", WithOverlay(true))
	store.SetWriteValidator(func(key string, _ string, _ ...any) bool { return key != "locked" })
	store.SetReadValidator(func(key string, _ ...any) bool { return key != "hidden" })

	store.TrySet("color", "red")
	store.TrySet("locked", "x")
	store.Set("hidden", "y")

	if value, ok := store.TryGet("color"); !ok || value != "red" {
		t.Fatalf("expected red via overlay, got %q ok=%v", value, ok)
	}
	if store.TryHas("locked") {
		t.Fatalf("overlay writes must pass the write validator")
	}
	if store.TryHas("hidden") {
		t.Fatalf("overlay reads must pass the read validator")
	}
}

// hostConfig forwards field-like accessors into its option store.
type hostConfig struct {
	options *Store[any]
}

func (c hostConfig) Field(name string) any {
	value, _ := c.options.TryGet(name)
	return value
}

func TestOverlayHostForwarding(t *testing.T) {
	host := hostConfig{options: New[any]("host")}
	host.options.Set("timeout", 30)
	if host.Field("timeout") != nil {
		t.Fatalf("expected nil field before overlay is enabled")
	}
	host.options.SetOverlayEnabled(true)
	if host.Field("timeout") != 30 {
		t.Fatalf("expected forwarded field value, got %v", host.Field("timeout"))
	}
}
