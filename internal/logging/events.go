package logging

import (
	"context"
	"log/slog"

	"github.com/aretw0/transit/pkg/domain"
)

// EventHandler forwards transition diagnostics to logger, mapping event
// kinds onto log levels.
func EventHandler(logger *slog.Logger) domain.EventHandler {
	return domain.EventHandlerFunc(func(e domain.Event) {
		level := slog.LevelInfo
		switch e.Kind {
		case domain.EventWarning:
			level = slog.LevelWarn
		case domain.EventError:
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, e.Message, "event_time", e.Timestamp)
	})
}
