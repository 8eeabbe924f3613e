package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// Printf adapts a slog.Logger to the printf-style logging hooks third-party clients expose.
func Printf(l *slog.Logger, level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		if l == nil || !l.Enabled(context.Background(), level) {
			return
		}
		l.Log(context.Background(), level, fmt.Sprintf(format, args...))
	}
}
