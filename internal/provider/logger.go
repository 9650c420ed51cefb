package provider

import (
	"fmt"
	"log/slog"
)

// slogLeveledLogger routes stripe-go's internal logging into slog.
type slogLeveledLogger struct{}

func (slogLeveledLogger) Debugf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (slogLeveledLogger) Infof(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...), "component", "stripe")
}

func (slogLeveledLogger) Warnf(format string, v ...interface{}) {
	slog.Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (slogLeveledLogger) Errorf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), "component", "stripe")
}
