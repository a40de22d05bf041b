//go:build !js_eval

package optstore

// NewJSEvaluator returns nil unless the module is built with the js_eval
// tag. Passing the nil result to RuleWithEvaluator yields ErrNoEvaluator.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = newJSEvaluatorConfig(opts)
	return nil
}

func jsEvaluatorAvailable() bool { return false }
