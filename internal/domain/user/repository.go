package user

import (
	"context"
)

// UserRepository is the user directory lookup used by attendance capture.
type UserRepository interface {
	// GetByID returns ErrUserNotFound when no user has the given id.
	GetByID(ctx context.Context, id string) (User, error)
}
