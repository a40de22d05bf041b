package optstore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoEvaluator indicates no evaluator could be resolved for a rule.
	ErrNoEvaluator = errors.New("optstore: evaluator not configured")
	// ErrEmptyExpression indicates a rule was built from an empty expression.
	ErrEmptyExpression = errors.New("optstore: expression must not be empty")
)

// RuleContext carries the inputs a validator rule is evaluated against.
type RuleContext struct {
	Key      string
	Value    any
	Args     []any
	Now      *time.Time
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaults() RuleContext {
	ctx = ctx.withDefaultNow()
	if ctx.Args == nil {
		ctx.Args = []any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// environment returns the variables shared by every engine.
func (ctx RuleContext) environment() map[string]any {
	return map[string]any{
		"key":      ctx.Key,
		"value":    ctx.Value,
		"args":     ctx.Args,
		"now":      ctx.timestamp(),
		"metadata": ctx.Metadata,
	}
}

// Evaluator executes rule expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*optstore.exprEvaluator":
		return "expr"
	case "*optstore.celEvaluator":
		return "cel"
	case "*optstore.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
