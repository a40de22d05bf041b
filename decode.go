package optstore

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-optstore/internal/hydrate"
)

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	mapstructure    bool
	disallowUnknown bool
	useNumber       bool
	prefix          string
	validate        bool
}

// DecodeWithMapstructure decodes with weakly typed input, so string values
// such as "8080" fill numeric fields.
func DecodeWithMapstructure() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.mapstructure = true
	}
}

// DecodeWithDisallowUnknownFields fails when a visible key has no matching
// field. Ignored together with DecodeWithMapstructure.
func DecodeWithDisallowUnknownFields() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.disallowUnknown = true
	}
}

// DecodeWithUseNumber decodes numbers into json.Number for any-typed fields.
func DecodeWithUseNumber() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.useNumber = true
	}
}

// DecodeWithKeyPrefix decodes only keys starting with prefix, with the
// prefix stripped: "db.host" fills the `host` field for prefix "db.".
func DecodeWithKeyPrefix(prefix string) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.prefix = prefix
	}
}

// DecodeWithValidation runs ozzo-validation on the decoded value, so types
// implementing validation.Validatable are checked before Decode returns.
func DecodeWithValidation() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.validate = true
	}
}

// Decode copies the visible values of s into a new T, matching keys to `json`
// struct tags. Hidden keys never reach T.
func Decode[T, V any](s *Store[V], opts ...DecodeOption) (T, error) {
	cfg := decodeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var decoderOpts []hydrate.DecoderOption[T]
	if cfg.mapstructure {
		decoderOpts = append(decoderOpts, hydrate.WithMapstructure[T]())
	}
	if cfg.disallowUnknown {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
	if cfg.useNumber {
		decoderOpts = append(decoderOpts, hydrate.WithUseNumber[T]())
	}

	if cfg.prefix != "" {
		decoderOpts = append(decoderOpts, hydrate.WithPreHook[T](stripPrefix(cfg.prefix)))
	}
	if cfg.validate {
		decoderOpts = append(decoderOpts, hydrate.WithPostHook[T](func(_ hydrate.Context, out *T) error {
			return validation.Validate(out)
		}))
	}

	ctx := hydrate.Context{Store: s.objectID()}
	return hydrate.NewDecoder(decoderOpts...).Decode(ctx, s.GetAll().Any())
}

func stripPrefix(prefix string) hydrate.PreHook {
	return func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
		out := make(map[string]any, len(payload))
		for key, value := range payload {
			if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
				out[rest] = value
			}
		}
		return out, nil
	}
}
