package notify

import (
	"context"
	"log/slog"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

// LoggingNotifier is used when no email provider is configured.
type LoggingNotifier struct {
	logger *slog.Logger
}

func NewLoggingNotifier(logger *slog.Logger) *LoggingNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingNotifier{logger: logger.With("module", "notify", "layer", "adapter")}
}

func (n *LoggingNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	n.logger.InfoContext(ctx, "lease notification",
		"operation", "notify",
		"outcome", "success",
		"event", notification.Event,
		"user_id", notification.UserID.String(),
		"lease_id", notification.LeaseID.String(),
	)
	return nil
}
