// Package logrussink forwards optstore log events to logrus.
package logrussink

import (
	optstore "github.com/goliatone/go-optstore"
	"github.com/sirupsen/logrus"
)

// Sink implements optstore.Logger and optstore.EvaluatorLogger.
//
// Accepted writes and successful evaluations log at debug, rejected writes at
// info and failures at warn.
type Sink struct {
	Entry *logrus.Entry
}

// New wraps logger. A nil logger falls back to logrus.StandardLogger().
func New(logger *logrus.Logger) Sink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return Sink{Entry: logrus.NewEntry(logger).WithField("component", "optstore")}
}

func (s Sink) entry() *logrus.Entry {
	if s.Entry == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return s.Entry
}

// LogStore implements optstore.Logger.
func (s Sink) LogStore(event optstore.StoreLogEvent) {
	fields := logrus.Fields{
		"op":       event.Op,
		"store":    event.Store,
		"accepted": event.Accepted,
		"duration": event.Duration,
	}
	if event.Key != "" {
		fields["key"] = event.Key
	}
	entry := s.entry().WithFields(fields)
	switch {
	case event.Err != nil:
		entry.WithError(event.Err).Warn("optstore operation failed")
	case !event.Accepted:
		entry.Info("optstore write rejected")
	default:
		entry.Debug("optstore operation")
	}
}

// LogEvaluation implements optstore.EvaluatorLogger.
func (s Sink) LogEvaluation(event optstore.EvaluatorLogEvent) {
	entry := s.entry().WithFields(logrus.Fields{
		"engine":   event.Engine,
		"expr":     event.Expr,
		"key":      event.Key,
		"duration": event.Duration,
	})
	if event.Err != nil {
		entry.WithError(event.Err).Warn("optstore rule evaluation failed")
		return
	}
	entry.Debug("optstore rule evaluated")
}
