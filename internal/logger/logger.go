package logger

import (
	"log/slog"
	"os"

	"go.temporal.io/sdk/log"
)

var Log *slog.Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	Log = slog.New(handler)
}

type temporalLogger struct {
	l *slog.Logger
}

// NewTemporalLogger adapts Log for the Temporal SDK. Debug output is dropped.
func NewTemporalLogger() log.Logger {
	return &temporalLogger{l: Log.With("component", "temporal")}
}

func (t *temporalLogger) Debug(msg string, keyvals ...interface{}) {}

func (t *temporalLogger) Info(msg string, keyvals ...interface{}) {
	t.l.Info(msg, keyvals...)
}

func (t *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	t.l.Warn(msg, keyvals...)
}

func (t *temporalLogger) Error(msg string, keyvals ...interface{}) {
	t.l.Error(msg, keyvals...)
}
