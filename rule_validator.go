package optstore

import (
	"errors"
	"fmt"
	"time"
)

// RuleOption configures a rule-backed validator.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	evaluator    Evaluator
	evaluatorSet bool
	cache        ProgramCache
	functions    *FunctionRegistry
	shared       *FunctionRegistry
	optionErrs   []error
	logger       EvaluatorLogger
	metadata     map[string]any
	errorHandler func(error)
}

func applyRuleOptions(opts []RuleOption) ruleConfig {
	cfg := ruleConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopEvaluatorLogger{}
	}
	return cfg
}

// RuleWithEvaluator selects the engine used to compile the rule. The default
// is the expr engine. A nil evaluator, such as NewJSEvaluator without the
// js_eval build tag, makes rule construction fail with ErrNoEvaluator.
func RuleWithEvaluator(e Evaluator) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.evaluator = e
		cfg.evaluatorSet = true
	}
}

// RuleWithProgramCache shares a program cache with the default evaluator.
// It has no effect when RuleWithEvaluator is used; configure the evaluator
// itself instead, as with function registries.
func RuleWithProgramCache(cache ProgramCache) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.cache = cache
	}
}

// RuleWithEvaluatorLogger records every evaluation of the rule.
func RuleWithEvaluatorLogger(logger EvaluatorLogger) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.logger = logger
	}
}

// RuleWithMetadata exposes metadata to the expression as `metadata`.
func RuleWithMetadata(metadata map[string]any) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.metadata = copyMetadata(metadata)
	}
}

// RuleWithErrorHandler receives evaluation failures. The validator rejects
// the key or write either way.
func RuleWithErrorHandler(handler func(error)) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.errorHandler = handler
	}
}

func (cfg ruleConfig) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluatorSet {
		if cfg.evaluator == nil {
			return nil, ErrNoEvaluator
		}
		return cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
	}
	if registry := cfg.registry(); registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return evaluator, nil
}

// registry combines per-rule functions with the shared registries, per-rule
// names first.
func (cfg ruleConfig) registry() *FunctionRegistry {
	switch {
	case cfg.functions == nil:
		return cfg.shared
	case cfg.shared == nil:
		return cfg.functions
	}
	merged := cfg.functions.Clone()
	merged.Merge(cfg.shared)
	return merged
}

// rule is a compiled expression bound to its logging and error reporting.
type rule struct {
	engine   string
	expr     string
	compiled CompiledRule
	cfg      ruleConfig
}

func compileRule(expr string, opts []RuleOption) (*rule, error) {
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	cfg := applyRuleOptions(opts)
	if err := errors.Join(cfg.optionErrs...); err != nil {
		return nil, err
	}
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	compiled, err := evaluator.Compile(expr)
	if err != nil {
		return nil, wrapEvaluationError(engine, expr, "", err)
	}
	if compiled == nil {
		return nil, wrapEvaluationError(engine, expr, "", fmt.Errorf("evaluator returned no program"))
	}
	return &rule{engine: engine, expr: expr, compiled: compiled, cfg: cfg}, nil
}

// allows evaluates the rule and approves only a boolean true result.
func (r *rule) allows(ctx RuleContext) bool {
	if ctx.Metadata == nil && r.cfg.metadata != nil {
		ctx.Metadata = copyMetadata(r.cfg.metadata)
	}
	start := time.Now()
	result, err := r.compiled.Evaluate(ctx)
	if err == nil {
		if _, ok := result.(bool); !ok {
			err = fmt.Errorf("rule returned %T, want bool", result)
		}
	}
	err = wrapEvaluationError(r.engine, r.expr, ctx.Key, err)
	r.cfg.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   r.engine,
		Expr:     r.expr,
		Key:      ctx.Key,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		if r.cfg.errorHandler != nil {
			r.cfg.errorHandler(err)
		}
		return false
	}
	return result.(bool)
}

// NewRuleReadValidator compiles expr into a ReadValidator. The expression
// sees `key`, `args` (the fixed validator arguments), `now` and `metadata`,
// and must evaluate to a bool. Evaluation failures hide the key.
func NewRuleReadValidator(expr string, opts ...RuleOption) (ReadValidator, error) {
	r, err := compileRule(expr, opts)
	if err != nil {
		return nil, err
	}
	return func(key string, args ...any) bool {
		return r.allows(RuleContext{Key: key, Args: cloneArgs(args)})
	}, nil
}

// NewRuleWriteValidator compiles expr into a WriteValidator. In addition to
// the read variables the expression sees the candidate `value`. Evaluation
// failures reject the write.
func NewRuleWriteValidator[V any](expr string, opts ...RuleOption) (WriteValidator[V], error) {
	r, err := compileRule(expr, opts)
	if err != nil {
		return nil, err
	}
	return func(key string, value V, args ...any) bool {
		return r.allows(RuleContext{Key: key, Value: value, Args: cloneArgs(args)})
	}, nil
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
