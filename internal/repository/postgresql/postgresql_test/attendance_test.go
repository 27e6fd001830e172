package postgresql_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/office"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAttendance(userID string, date time.Time) attendance.Attendance {
	officeID, officeName := "hq", "Head Office"
	return attendance.Attendance{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		Date:                   date,
		Type:                   attendance.TypeOffice,
		Status:                 attendance.StatusLate,
		CheckInAt:              date.Add(2*time.Hour + 15*time.Minute),
		CheckInLatitude:        -6.2088,
		CheckInLongitude:       106.8456,
		CheckInAccuracy:        8,
		IsLate:                 true,
		LateMinutes:            15,
		LocationConfidence:     0.97,
		LocationValidationType: office.ValidationExact,
		LocationOfficeID:       &officeID,
		LocationOfficeName:     &officeName,
		LocationDistance:       3.5,
	}
}

func TestAttendanceRepository_CreateAndGet(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	createTestUser(t, postgresql.NewUserRepository(setup.DB), "emp-100", "Sales")
	repo := postgresql.NewAttendanceRepository(setup.DB)

	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, newTestAttendance("emp-100", date))
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByUserAndDate(ctx, "emp-100", date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, attendance.StatusLate, got.Status)
	assert.Equal(t, office.ValidationExact, got.LocationValidationType)
	assert.Equal(t, 15, got.LateMinutes)
	assert.True(t, got.Date.Equal(date))
	assert.Nil(t, got.CheckOutAt)
	assert.Nil(t, got.WorkingHours)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "emp-100", byID.UserID)
}

func TestAttendanceRepository_GetByUserAndDate_None(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	got, err := repo.GetByUserAndDate(context.Background(), "emp-404", time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttendanceRepository_GetByID_NotFound(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	_, err := repo.GetByID(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestAttendanceRepository_Create_DuplicateDay(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	createTestUser(t, postgresql.NewUserRepository(setup.DB), "emp-101", "Sales")
	repo := postgresql.NewAttendanceRepository(setup.DB)
	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, newTestAttendance("emp-101", date))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, attendance.ErrRecordExists)
	}
	assert.Equal(t, 1, succeeded)
}

func TestAttendanceRepository_CloseCheckOut(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	createTestUser(t, postgresql.NewUserRepository(setup.DB), "emp-102", "Sales")
	repo := postgresql.NewAttendanceRepository(setup.DB)

	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	record, err := repo.Create(ctx, newTestAttendance("emp-102", date))
	require.NoError(t, err)

	checkOut := date.Add(11*time.Hour + 30*time.Minute)
	regular, overtime, total := decimal.NewFromInt(8), decimal.RequireFromString("0.25"), decimal.RequireFromString("8.25")
	early := 0
	record.CheckOutAt = &checkOut
	record.EarlyLeaveMinutes = &early
	record.WorkingHours = &regular
	record.OvertimeHours = &overtime
	record.TotalHours = &total

	_, err = repo.CloseCheckOut(ctx, record)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CheckOutAt)
	assert.True(t, got.CheckOutAt.Equal(checkOut))
	require.NotNil(t, got.TotalHours)
	assert.True(t, got.TotalHours.Equal(total))
	assert.True(t, got.OvertimeHours.Equal(overtime))

	_, err = repo.CloseCheckOut(ctx, record)
	assert.ErrorIs(t, err, attendance.ErrRecordClosed)
}

func TestAttendanceRepository_CloseCheckOut_Missing(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	now := time.Now()

	_, err := repo.CloseCheckOut(context.Background(), attendance.Attendance{ID: uuid.NewString(), CheckOutAt: &now})

	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestAttendanceRepository_ListByUser(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	createTestUser(t, postgresql.NewUserRepository(setup.DB), "emp-103", "Sales")
	repo := postgresql.NewAttendanceRepository(setup.DB)

	for day := 1; day <= 5; day++ {
		a := newTestAttendance("emp-103", time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC))
		if day%2 == 0 {
			a.Status = attendance.StatusPresent
			a.IsLate = false
			a.LateMinutes = 0
		}
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)
	}

	filter := attendance.MyAttendanceFilter{Page: 1, Limit: 2}
	require.NoError(t, filter.Validate())
	page, total, err := repo.ListByUser(ctx, "emp-103", filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, 5, page[0].Date.Day())
	assert.Equal(t, 4, page[1].Date.Day())

	status := "present"
	start := "2024-03-02"
	filter = attendance.MyAttendanceFilter{Status: &status, StartDate: &start, SortOrder: "asc"}
	require.NoError(t, filter.Validate())
	present, total, err := repo.ListByUser(ctx, "emp-103", filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, present, 2)
	assert.Equal(t, 2, present[0].Date.Day())

	others, total, err := repo.ListByUser(ctx, "emp-999", attendance.MyAttendanceFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, others)
}

func TestWithTransaction_Rollback(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	createTestUser(t, postgresql.NewUserRepository(setup.DB), "emp-104", "Sales")
	repo := postgresql.NewAttendanceRepository(setup.DB)
	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	err := postgresql.WithTransaction(ctx, setup.DB, func(txCtx context.Context) error {
		if _, err := repo.Create(txCtx, newTestAttendance("emp-104", date)); err != nil {
			return err
		}
		_, err := repo.Create(txCtx, newTestAttendance("emp-104", date))
		return err
	})
	require.ErrorIs(t, err, attendance.ErrRecordExists)

	got, err := repo.GetByUserAndDate(ctx, "emp-104", date)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttendanceRepository_CloseCheckOut_Concurrent(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	createTestUser(t, postgresql.NewUserRepository(setup.DB), "emp-105", "Sales")
	repo := postgresql.NewAttendanceRepository(setup.DB)

	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	record, err := repo.Create(ctx, newTestAttendance("emp-105", date))
	require.NoError(t, err)
	checkOut := date.Add(10 * time.Hour)
	record.CheckOutAt = &checkOut

	const workers = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CloseCheckOut(ctx, record)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var closed, ok int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, attendance.ErrRecordClosed):
			closed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, closed)
}

func TestAttendanceRepository_CloseCheckOut_JoinsOuterTransaction(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	createTestUser(t, postgresql.NewUserRepository(setup.DB), "emp-106", "Sales")
	repo := postgresql.NewAttendanceRepository(setup.DB)

	date := time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)
	record, err := repo.Create(ctx, newTestAttendance("emp-106", date))
	require.NoError(t, err)
	checkOut := date.Add(10 * time.Hour)
	record.CheckOutAt = &checkOut

	rollback := errors.New("abort")
	err = postgresql.WithTransaction(ctx, setup.DB, func(txCtx context.Context) error {
		if _, err := repo.CloseCheckOut(txCtx, record); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	got, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CheckOutAt)
}
