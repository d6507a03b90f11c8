package usecase

import (
	"context"
	"log/slog"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

// ActivityLogger appends audit entries to a lead's trail. Callers apply
// their state change first and then call Log; a Log failure is reported
// but never undoes that change.
type ActivityLogger struct {
	Repo   entity.ActivityRepository
	Logger *slog.Logger
}

func NewActivityLogger(repo entity.ActivityRepository, logger *slog.Logger) *ActivityLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityLogger{Repo: repo, Logger: logger}
}

func (l *ActivityLogger) Log(ctx context.Context, leadID, action string, details map[string]any) (*entity.Activity, error) {
	activity := entity.NewActivity(leadID, action, details, UserIDFromContext(ctx))

	if err := l.Repo.Create(ctx, activity); err != nil {
		l.Logger.ErrorContext(ctx, "activity log write failed",
			slog.String("lead_id", leadID),
			slog.String("action", action),
			slog.Any("error", err),
		)
		return nil, err
	}

	l.Logger.DebugContext(ctx, "activity logged",
		slog.String("lead_id", leadID),
		slog.String("action", action),
		slog.String("activity_id", activity.ID),
	)
	return activity, nil
}
