package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const attendanceColumns = `
	id, user_id, date, attendance_type, status,
	check_in_at, check_in_latitude, check_in_longitude, check_in_accuracy,
	photo_url, reason, customer_name, device_info,
	is_late, late_minutes,
	location_confidence, location_validation_type, location_office_id, location_office_name, location_distance,
	check_out_at, check_out_latitude, check_out_longitude, check_out_photo_url,
	check_out_reason, overtime_reason, early_leave_minutes,
	working_hours, overtime_hours, total_hours,
	created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			id, user_id, date, attendance_type, status,
			check_in_at, check_in_latitude, check_in_longitude, check_in_accuracy,
			photo_url, reason, customer_name, device_info,
			is_late, late_minutes,
			location_confidence, location_validation_type, location_office_id, location_office_name, location_distance
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.UserID,
		newAttendance.Date,
		newAttendance.Type,
		newAttendance.Status,
		newAttendance.CheckInAt,
		newAttendance.CheckInLatitude,
		newAttendance.CheckInLongitude,
		newAttendance.CheckInAccuracy,
		newAttendance.PhotoURL,
		newAttendance.Reason,
		newAttendance.CustomerName,
		newAttendance.DeviceInfo,
		newAttendance.IsLate,
		newAttendance.LateMinutes,
		newAttendance.LocationConfidence,
		newAttendance.LocationValidationType,
		newAttendance.LocationOfficeID,
		newAttendance.LocationOfficeName,
		newAttendance.LocationDistance,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", attendance.ErrRecordExists)
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE id = $1`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrRecordNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	return att, nil
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE user_id = $1
		  AND date = $2
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No existing attendance found
		}
		return nil, fmt.Errorf("failed to get attendance by user and date: %w", err)
	}

	return &att, nil
}

// CloseCheckOut implements attendance.AttendanceRepository. The row is locked
// first so not-found and already-closed are told apart against the same snapshot.
func (a *attendanceRepository) CloseCheckOut(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	err := WithTransaction(ctx, a.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, a.db)

		var checkOutAt *time.Time
		err := q.QueryRow(txCtx, `SELECT check_out_at FROM attendances WHERE id = $1 FOR UPDATE`, att.ID).Scan(&checkOutAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrRecordNotFound
			}
			return fmt.Errorf("failed to lock attendance: %w", err)
		}
		if checkOutAt != nil {
			return attendance.ErrRecordClosed
		}

		query := `
			UPDATE attendances SET
				check_out_at = $1,
				check_out_latitude = $2,
				check_out_longitude = $3,
				check_out_photo_url = $4,
				check_out_reason = $5,
				overtime_reason = $6,
				early_leave_minutes = $7,
				working_hours = $8,
				overtime_hours = $9,
				total_hours = $10,
				updated_at = NOW()
			WHERE id = $11
			  AND check_out_at IS NULL
			RETURNING updated_at
		`

		err = q.QueryRow(txCtx, query,
			att.CheckOutAt,
			att.CheckOutLatitude,
			att.CheckOutLongitude,
			att.CheckOutPhotoURL,
			att.CheckOutReason,
			att.OvertimeReason,
			att.EarlyLeaveMinutes,
			att.WorkingHours,
			att.OvertimeHours,
			att.TotalHours,
			att.ID,
		).Scan(&att.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to close attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Attendance{}, err
	}

	return att, nil
}

// ListByUser implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByUser(ctx context.Context, userID string, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "user_id = $1"
	args := []interface{}{userID}
	argIdx := 2

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Type != nil && *filter.Type != "" {
		baseWhere += fmt.Sprintf(" AND attendance_type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*) FROM attendances WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "date"
	switch filter.SortBy {
	case "check_in_at":
		orderByField = "check_in_at"
	case "check_out_at":
		orderByField = "check_out_at"
	case "status":
		orderByField = "status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := max(filter.Page, 1)

	selectQuery := fmt.Sprintf(`SELECT %s
		FROM attendances
		WHERE %s
		ORDER BY %s %s NULLS LAST, id %s
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	attendances := make([]attendance.Attendance, 0, limit)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, total, nil
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		att                                attendance.Attendance
		workingHours, overtime, totalHours decimal.NullDecimal
	)

	err := row.Scan(
		&att.ID, &att.UserID, &att.Date, &att.Type, &att.Status,
		&att.CheckInAt, &att.CheckInLatitude, &att.CheckInLongitude, &att.CheckInAccuracy,
		&att.PhotoURL, &att.Reason, &att.CustomerName, &att.DeviceInfo,
		&att.IsLate, &att.LateMinutes,
		&att.LocationConfidence, &att.LocationValidationType, &att.LocationOfficeID, &att.LocationOfficeName, &att.LocationDistance,
		&att.CheckOutAt, &att.CheckOutLatitude, &att.CheckOutLongitude, &att.CheckOutPhotoURL,
		&att.CheckOutReason, &att.OvertimeReason, &att.EarlyLeaveMinutes,
		&workingHours, &overtime, &totalHours,
		&att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	att.WorkingHours = nullDecimalPtr(workingHours)
	att.OvertimeHours = nullDecimalPtr(overtime)
	att.TotalHours = nullDecimalPtr(totalHours)

	return att, nil
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
