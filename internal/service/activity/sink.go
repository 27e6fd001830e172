package activity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
)

// LogSink writes activity entries to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, entry activity.Entry) error {
	s.logger.InfoContext(ctx, entry.Message,
		"activity_id", entry.ID,
		"user_id", entry.UserID,
		"action", entry.Action,
		"metadata", entry.Metadata,
		"occurred_at", entry.OccurredAt,
	)
	return nil
}

// MultiSink records to every sink and joins their errors.
type MultiSink []activity.Sink

func (m MultiSink) Record(ctx context.Context, entry activity.Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
