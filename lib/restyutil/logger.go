package restyutil

import (
	"fmt"
	"log/slog"
	"strings"
)

// SlogLogger sends resty's own log lines through slog.
type SlogLogger struct{}

func (SlogLogger) format(format string, v []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}

func (l SlogLogger) Errorf(format string, v ...any) {
	slog.Error(l.format(format, v), "source", "resty")
}

func (l SlogLogger) Warnf(format string, v ...any) {
	slog.Warn(l.format(format, v), "source", "resty")
}

func (l SlogLogger) Debugf(format string, v ...any) {
	slog.Debug(l.format(format, v), "source", "resty")
}
