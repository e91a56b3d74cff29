package application

import (
	"context"
	"log/slog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier is the user-visible toast surface.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ Level, _ string) error {
	return nil
}

// LogNotifier writes toasts to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, level Level, message string) error {
	lvl := slog.LevelInfo
	switch level {
	case LevelWarning:
		lvl = slog.LevelWarn
	case LevelError:
		lvl = slog.LevelError
	}
	n.Logger.Log(ctx, lvl, message, "toast", string(level))
	return nil
}
