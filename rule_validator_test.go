package optstore

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

// expressions per engine for the same policy.
var policyExpressions = map[string]struct {
	hideUnderscore string
	positiveValue  string
	roleArg        string
	registry       string
}{
	"expr": {
		hideUnderscore: `!(key startsWith "_")`,
		positiveValue:  `value > 0`,
		roleArg:        `args[0] == "admin" || key != "secret"`,
		registry:       `allowed(key)`,
	},
	"cel": {
		hideUnderscore: `!key.startsWith("_")`,
		positiveValue:  `value > 0`,
		roleArg:        `args[0] == "admin" || key != "secret"`,
		registry:       `allowed(key) == true`,
	},
	"js": {
		hideUnderscore: `!key.startsWith("_")`,
		positiveValue:  `value > 0`,
		roleArg:        `args[0] === "admin" || key !== "secret"`,
		registry:       `allowed(key) === true`,
	},
}

func requireEvaluator(t *testing.T, name string, evaluator Evaluator) {
	t.Helper()
	if evaluator == nil {
		if name == "js" && !jsEvaluatorAvailable() {
			t.Skip("js evaluator requires the js_eval build tag")
		}
		t.Fatalf("%s evaluator unavailable", name)
	}
}

func TestRuleValidatorsAcrossEvaluators(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			requireEvaluator(t, factory.name, evaluator)
			exprs := policyExpressions[factory.name]

			read, err := NewRuleReadValidator(exprs.hideUnderscore, RuleWithEvaluator(evaluator))
			if err != nil {
				t.Fatalf("read rule: %v", err)
			}
			write, err := NewRuleWriteValidator[int](exprs.positiveValue, RuleWithEvaluator(evaluator))
			if err != nil {
				t.Fatalf("write rule: %v", err)
			}

			store := New[int](factory.name)
			store.SetReadValidator(read)
			store.SetWriteValidator(write)
			store.SetEntries(E("retries", 3), E("_internal", 7), E("timeout", -5))

			if !store.Has("retries") {
				t.Fatalf("expected retries visible")
			}
			if store.Has("_internal") || store.Lookup("_internal") != Hidden {
				t.Fatalf("expected _internal stored but hidden")
			}
			if store.Lookup("timeout") != Absent {
				t.Fatalf("expected negative timeout rejected")
			}
		})
	}
}

func TestRuleValidatorSeesFixedArgs(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			requireEvaluator(t, factory.name, evaluator)

			read, err := NewRuleReadValidator(policyExpressions[factory.name].roleArg, RuleWithEvaluator(evaluator))
			if err != nil {
				t.Fatalf("read rule: %v", err)
			}
			store := New[string]("")
			store.SetEntries(E("secret", "s3"), E("name", "svc"))

			store.SetReadValidator(read, "viewer")
			if store.Has("secret") || !store.Has("name") {
				t.Fatalf("viewer must not see secret")
			}
			store.SetReadValidator(read, "admin")
			if !store.Has("secret") {
				t.Fatalf("admin must see secret")
			}
		})
	}
}

func TestRuleValidatorUsesFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("allowed", func(args ...any) (any, error) {
		key, _ := args[0].(string)
		return key != "blocked", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, registry)
			requireEvaluator(t, factory.name, evaluator)

			read, err := NewRuleReadValidator(policyExpressions[factory.name].registry, RuleWithEvaluator(evaluator))
			if err != nil {
				t.Fatalf("read rule: %v", err)
			}
			store := New[int]("")
			store.SetEntries(E("blocked", 1), E("open", 2))
			store.SetReadValidator(read)
			if store.Has("blocked") || !store.Has("open") {
				t.Fatalf("unexpected visibility: %v", store.GetAll().Keys())
			}
		})
	}
}

func TestRuleWithFunctionOnDefaultEngine(t *testing.T) {
	write, err := NewRuleWriteValidator[string](`call("known", key)`,
		RuleWithFunction("known", func(args ...any) (any, error) {
			return args[0] == "color", nil
		}),
	)
	if err != nil {
		t.Fatalf("write rule: %v", err)
	}
	store := New[string]("")
	store.SetWriteValidator(write)
	store.SetEntries(E("color", "red"), E("shape", "round"))
	if !store.Has("color") || store.Has("shape") {
		t.Fatalf("unexpected keys %v", store.GetAll().Keys())
	}
}

func TestRuleValidatorCompileErrors(t *testing.T) {
	if _, err := NewRuleReadValidator(""); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected ErrEmptyExpression, got %v", err)
	}
	_, err := NewRuleReadValidator("key ==")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T (%v)", err, err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "key ==" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if _, err := NewRuleReadValidator("true", RuleWithEvaluator(nil)); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func TestRuleValidatorFailsClosed(t *testing.T) {
	var handled []error
	var logged []EvaluatorLogEvent
	write, err := NewRuleWriteValidator[any](`value`,
		RuleWithErrorHandler(func(err error) { handled = append(handled, err) }),
		RuleWithEvaluatorLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) { logged = append(logged, event) })),
	)
	if err != nil {
		t.Fatalf("write rule: %v", err)
	}
	store := New[any]("")
	store.SetWriteValidator(write)
	store.Set("flag", true)
	store.Set("name", "not-a-bool")

	if !store.Has("flag") || store.Has("name") {
		t.Fatalf("expected only boolean-true write accepted, got %v", store.GetAll().Keys())
	}
	if len(handled) != 1 || !strings.Contains(handled[0].Error(), "want bool") {
		t.Fatalf("expected one non-bool error, got %v", handled)
	}
	if len(logged) != 2 || logged[1].Key != "name" || logged[1].Err == nil {
		t.Fatalf("expected both evaluations logged, got %+v", logged)
	}
}

func TestRuleValidatorMetadata(t *testing.T) {
	read, err := NewRuleReadValidator(`metadata.env == "prod" || key != "debug"`,
		RuleWithMetadata(map[string]any{"env": "staging"}))
	if err != nil {
		t.Fatalf("read rule: %v", err)
	}
	if read("debug") {
		t.Fatalf("expected debug hidden outside prod")
	}
	if !read("region") {
		t.Fatalf("expected other keys visible")
	}
}

func TestRuleValidatorSharesProgramCache(t *testing.T) {
	cache := newCountingCache()
	for i := 0; i < 3; i++ {
		if _, err := NewRuleReadValidator(`key != "x"`, RuleWithProgramCache(cache)); err != nil {
			t.Fatalf("read rule: %v", err)
		}
	}
	if cache.sets != 1 {
		t.Fatalf("expected program compiled once, got %d sets", cache.sets)
	}
	if cache.hits != 2 {
		t.Fatalf("expected two cache hits, got %d", cache.hits)
	}
}

func TestSharedProgramCacheKeepsRuleFunctionsApart(t *testing.T) {
	cache := newCountingCache()
	gate := func(result bool) Function {
		return func(...any) (any, error) { return result, nil }
	}
	allow, err := NewRuleReadValidator(`gate(key)`, RuleWithProgramCache(cache), RuleWithFunction("gate", gate(true)))
	if err != nil {
		t.Fatalf("allow rule: %v", err)
	}
	deny, err := NewRuleReadValidator(`gate(key)`, RuleWithProgramCache(cache), RuleWithFunction("gate", gate(false)))
	if err != nil {
		t.Fatalf("deny rule: %v", err)
	}
	if !allow("theme") {
		t.Fatalf("expected allow rule to approve")
	}
	if deny("theme") {
		t.Fatalf("expected deny rule to reject")
	}
	if cache.sets != 2 {
		t.Fatalf("expected each rule compiled separately, got %d sets", cache.sets)
	}
}

func TestSharedProgramCacheKeepsCELRegistriesApart(t *testing.T) {
	cache := newCountingCache()
	build := func(result bool) ReadValidator {
		registry := NewFunctionRegistry()
		if err := registry.Register("gate", func(...any) (any, error) { return result, nil }); err != nil {
			t.Fatalf("register: %v", err)
		}
		evaluator := NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry))
		read, err := NewRuleReadValidator(`call("gate", key)`, RuleWithEvaluator(evaluator))
		if err != nil {
			t.Fatalf("read rule: %v", err)
		}
		return read
	}
	allow, deny := build(true), build(false)
	if !allow("theme") || deny("theme") {
		t.Fatalf("expected registries to stay bound to their own rules")
	}
}

func TestEvaluatorEngineName(t *testing.T) {
	if got := evaluatorEngineName(NewExprEvaluator()); got != "expr" {
		t.Fatalf("expected expr, got %q", got)
	}
	if got := evaluatorEngineName(NewCELEvaluator()); got != "cel" {
		t.Fatalf("expected cel, got %q", got)
	}
	if got := evaluatorEngineName(nil); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

type countingCache struct {
	mu    sync.Mutex
	items map[string]any
	hits  int
	sets  int
}

func newCountingCache() *countingCache {
	return &countingCache{items: map[string]any{}}
}

func (c *countingCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *countingCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = value
}
