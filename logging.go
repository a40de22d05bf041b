package optstore

import "time"

// Store operations reported through Logger.
const (
	OpSet      = "set"
	OpReset    = "reset"
	OpActivity = "activity"
)

// StoreLogEvent describes a store mutation attempt for logging.
type StoreLogEvent struct {
	Op       string
	Store    string
	Key      string
	Accepted bool
	Duration time.Duration
	Err      error
}

// Logger records store events. Rejected writes are reported with
// Accepted=false; the store itself never treats them as errors.
type Logger interface {
	LogStore(StoreLogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(StoreLogEvent)

// LogStore implements Logger.
func (f LoggerFunc) LogStore(event StoreLogEvent) {
	if f != nil {
		f(event)
	}
}

// WithLogger attaches a store logger. Without one the store skips building
// log events entirely.
func WithLogger(logger Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// EvaluatorLogEvent describes a rule evaluation for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Key      string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}
