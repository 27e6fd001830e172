package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type activityLogRepository struct {
	db *database.DB
}

// NewActivityLogRepository returns an activity.Sink that appends to activity_logs.
func NewActivityLogRepository(db *database.DB) activity.Sink {
	return &activityLogRepository{db: db}
}

// Record implements activity.Sink.
func (r *activityLogRepository) Record(ctx context.Context, entry activity.Entry) error {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal activity metadata: %w", err)
	}

	query := `
		INSERT INTO activity_logs (id, user_id, action, message, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = q.Exec(ctx, query, entry.ID, entry.UserID, entry.Action, entry.Message, metadataJSON, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}

	return nil
}
