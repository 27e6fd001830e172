package activity

import (
	"context"
	"time"
)

type Action string

const (
	ActionCheckIn  Action = "attendance_check_in"
	ActionCheckOut Action = "attendance_check_out"
)

// Entry is one audit/activity event.
type Entry struct {
	ID         string
	UserID     string
	Action     Action
	Message    string
	Metadata   map[string]interface{}
	OccurredAt time.Time
}

// Sink accepts activity entries. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}
