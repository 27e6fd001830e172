package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper for creating a user to attach attendance to
func createTestUser(t *testing.T, repo postgresql.UserStore, id, department string) user.User {
	t.Helper()
	u, err := repo.Upsert(context.Background(), user.User{
		ID:          id,
		DisplayName: "Test " + id,
		Email:       id + "@example.com",
		Department:  department,
		IsActive:    true,
	})
	require.NoError(t, err)
	return u
}

// ===== USER REPOSITORY TESTS =====

func TestUserRepository_GetByID_Success(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	userRepo := postgresql.NewUserRepository(setup.DB)

	created := createTestUser(t, userRepo, "emp-001", "Sales")

	retrieved, err := userRepo.GetByID(ctx, "emp-001")

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, "Sales", retrieved.Department)
	assert.Equal(t, "emp-001@example.com", retrieved.Email)
	assert.True(t, retrieved.IsActive)
	assert.False(t, retrieved.CreatedAt.IsZero())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	setup := NewTestDatabase(t)
	userRepo := postgresql.NewUserRepository(setup.DB)

	_, err := userRepo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUserRepository_Upsert_UpdatesExisting(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	userRepo := postgresql.NewUserRepository(setup.DB)

	createTestUser(t, userRepo, "emp-002", "Sales")

	_, err := userRepo.Upsert(ctx, user.User{ID: "emp-002", DisplayName: "Moved", Department: "Finance", IsActive: false})
	require.NoError(t, err)

	retrieved, err := userRepo.GetByID(ctx, "emp-002")
	require.NoError(t, err)
	assert.Equal(t, "Moved", retrieved.DisplayName)
	assert.Equal(t, "Finance", retrieved.Department)
	assert.Empty(t, retrieved.Email)
	assert.False(t, retrieved.IsActive)
}
