package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/location"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timing"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPhotoUploadTimeout = 10 * time.Second
	DefaultActivityTimeout    = 5 * time.Second
)

type Options struct {
	// Location is the business timezone that decides which calendar day a check-in
	// belongs to. Defaults to UTC.
	Location           *time.Location
	PhotoUploadTimeout time.Duration
	// ActivityTimeout bounds how long a check-in or check-out waits on the activity sink.
	ActivityTimeout time.Duration
	Clock           func() time.Time
}

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	userRepo       user.UserRepository
	guard          attendance.CheckInGuard
	resolver       *timing.Resolver
	locator        *location.Validator
	photoService   file.PhotoService
	activitySink   activity.Sink

	loc             *time.Location
	photoTimeout    time.Duration
	activityTimeout time.Duration
	clock           func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	guard attendance.CheckInGuard,
	resolver *timing.Resolver,
	locator *location.Validator,
	photoService file.PhotoService,
	activitySink activity.Sink,
	opts Options,
) attendance.AttendanceService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PhotoUploadTimeout <= 0 {
		opts.PhotoUploadTimeout = DefaultPhotoUploadTimeout
	}
	if opts.ActivityTimeout <= 0 {
		opts.ActivityTimeout = DefaultActivityTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &AttendanceServiceImpl{
		attendanceRepo:  attendanceRepo,
		userRepo:        userRepo,
		guard:           guard,
		resolver:        resolver,
		locator:         locator,
		photoService:    photoService,
		activitySink:    activitySink,
		loc:             opts.Location,
		photoTimeout:    opts.PhotoUploadTimeout,
		activityTimeout: opts.ActivityTimeout,
		clock:           opts.Clock,
	}
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (result attendance.CheckInResult, err error) {
	defer recoverPanic(ctx, "check_in", &err)

	now := s.now()
	if err := req.Validate(); err != nil {
		return attendance.CheckInResult{}, validationFailed(err)
	}
	date := businessDate(now)

	release, err := s.guard.Acquire(ctx, req.UserID, date)
	switch {
	case errors.Is(err, attendance.ErrCheckInInProgress):
		return attendance.CheckInResult{}, attendance.NewError(attendance.KindDuplicateCheckIn,
			"a check-in for today is already being processed",
			"Wait a moment and refresh your attendance status.")
	case err != nil:
		// The unique (user_id, date) index still rejects a second record.
		slog.WarnContext(ctx, "check-in guard unavailable", "user_id", req.UserID, "error", err)
		release = func() {}
	}
	defer release()

	u, existing, err := s.lookup(ctx, req.UserID, date)
	if err != nil {
		return attendance.CheckInResult{}, err
	}
	if existing != nil {
		return attendance.CheckInResult{}, duplicateCheckIn(existing)
	}

	validation := s.locator.Validate(req.Latitude, req.Longitude, req.Accuracy)

	if req.AttendanceType == attendance.TypeOffice && !validation.IsValid {
		recs := append([]string{}, validation.Recommendations...)
		recs = append(recs,
			"Try again once you are inside the office area.",
			"If you are working outside the office today, check in as remote work instead.")
		return attendance.CheckInResult{}, attendance.ErrLocationRejected.With(recs...)
	}

	if violations := req.RuleViolations(); len(violations) > 0 {
		return attendance.CheckInResult{}, validationFailed(violations)
	}

	dept, shift := s.resolver.Resolve(u.Department)
	lateness := timing.CalculateLateness(now, shift.CheckIn)

	var warnings []string
	photoURL, warning := s.uploadPhoto(ctx, req.UserID, now, file.PhotoCheckIn, req.ImageData)
	if warning != "" {
		warnings = append(warnings, warning)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.CheckInResult{}, systemError(ctx, "check_in", fmt.Errorf("failed to generate attendance id: %w", err))
	}

	status := attendance.StatusPresent
	if lateness.IsLate {
		status = attendance.StatusLate
	}

	record := attendance.Attendance{
		ID:               id.String(),
		UserID:           req.UserID,
		Date:             date,
		Type:             req.AttendanceType,
		Status:           status,
		CheckInAt:        now,
		CheckInLatitude:  req.Latitude,
		CheckInLongitude: req.Longitude,
		CheckInAccuracy:  location.NormalizeAccuracy(req.Accuracy),
		PhotoURL:         photoURL,
		Reason:           trimmed(req.Reason),
		CustomerName:     trimmed(req.CustomerName),
		DeviceInfo:       trimmed(req.DeviceInfo),
		IsLate:           lateness.IsLate,
		LateMinutes:      lateness.LateMinutes,
	}
	record.ApplyLocation(validation)

	created, err := s.attendanceRepo.Create(ctx, record)
	if err != nil {
		s.discardPhoto(ctx, photoURL)
		if errors.Is(err, attendance.ErrRecordExists) {
			return attendance.CheckInResult{}, attendance.ErrDuplicateCheckIn.With("Refresh your attendance status to see today's record.")
		}
		return attendance.CheckInResult{}, systemError(ctx, "check_in", fmt.Errorf("failed to create attendance record: %w", err))
	}

	s.recordActivity(ctx, activity.Entry{
		UserID:     created.UserID,
		Action:     activity.ActionCheckIn,
		Message:    checkInSummary(u, created),
		OccurredAt: now,
		Metadata: map[string]interface{}{
			"attendance_id":       created.ID,
			"attendance_type":     created.Type,
			"status":              created.Status,
			"late_minutes":        created.LateMinutes,
			"location_valid":      validation.IsValid,
			"location_type":       validation.ValidationType,
			"location_confidence": validation.Confidence,
			"office_id":           validation.OfficeID,
		},
	})

	var recommendations []string
	if req.AttendanceType == attendance.TypeOffice {
		recommendations = validation.Recommendations
	}

	message := fmt.Sprintf("Checked in at %s", now.Format("3:04 PM"))
	if lateness.IsLate {
		message += fmt.Sprintf(" (%d minutes late)", lateness.LateMinutes)
	}

	return attendance.CheckInResult{
		Success:        true,
		Message:        message,
		AttendanceID:   created.ID,
		Status:         created.Status,
		AttendanceType: created.Type,
		CheckInAt:      now.Format(time.RFC3339),
		Location:       validation,
		Lateness: attendance.LatenessDetail{
			IsLate:          lateness.IsLate,
			LateMinutes:     lateness.LateMinutes,
			ExpectedCheckIn: shift.CheckIn,
			Department:      string(dept),
		},
		Recommendations: nonNil(recommendations),
		Warnings:        nonNil(warnings),
		PhotoURL:        created.PhotoURL,
	}, nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (result attendance.CheckOutResult, err error) {
	defer recoverPanic(ctx, "check_out", &err)

	now := s.now()
	if err := req.Validate(); err != nil {
		return attendance.CheckOutResult{}, validationFailed(err)
	}

	u, record, err := s.lookup(ctx, req.UserID, businessDate(now))
	if err != nil {
		return attendance.CheckOutResult{}, err
	}
	if record == nil {
		return attendance.CheckOutResult{}, attendance.ErrNoOpenCheckIn.With("Check in first before checking out.")
	}
	if record.IsClosed() {
		return attendance.CheckOutResult{}, attendance.ErrAlreadyCheckedOut.With("Your attendance for today is complete.")
	}

	_, shift := s.resolver.Resolve(u.Department)
	checkIn := record.CheckInAt.In(s.loc)
	hours := timing.CalculateWorkingHours(checkIn, now, shift)
	earlyLeave := timing.CalculateEarlyLeave(checkIn, now, shift.CheckOut)

	var warnings []string
	photoURL, warning := s.uploadPhoto(ctx, req.UserID, now, file.PhotoCheckOut, req.ImageData)
	if warning != "" {
		warnings = append(warnings, warning)
	}
	if hours.OvertimeMinutes > 0 && validator.IsBlank(req.OTReason) {
		warnings = append(warnings, "Overtime was recorded without a reason. Add an overtime reason so it can be reviewed.")
	}

	regular, overtime, total := hours.RegularHours, hours.OvertimeHours, hours.TotalHours
	checkOutAt := now
	record.CheckOutAt = &checkOutAt
	record.CheckOutLatitude = req.Latitude
	record.CheckOutLongitude = req.Longitude
	record.CheckOutPhotoURL = photoURL
	record.CheckOutReason = trimmed(req.Reason)
	record.OvertimeReason = trimmed(req.OTReason)
	record.EarlyLeaveMinutes = &earlyLeave
	record.WorkingHours = &regular
	record.OvertimeHours = &overtime
	record.TotalHours = &total

	updated, err := s.attendanceRepo.CloseCheckOut(ctx, *record)
	if err != nil {
		s.discardPhoto(ctx, photoURL)
		if errors.Is(err, attendance.ErrRecordClosed) {
			return attendance.CheckOutResult{}, attendance.ErrAlreadyCheckedOut.With("Your attendance for today is complete.")
		}
		return attendance.CheckOutResult{}, systemError(ctx, "check_out", fmt.Errorf("failed to close attendance record: %w", err))
	}

	summary := fmt.Sprintf("%s checked out after %s hours", u.DisplayName, total.StringFixed(2))
	if hours.OvertimeMinutes > 0 {
		summary += fmt.Sprintf(" including %s hours overtime", overtime.StringFixed(2))
	}
	s.recordActivity(ctx, activity.Entry{
		UserID:     updated.UserID,
		Action:     activity.ActionCheckOut,
		Message:    summary,
		OccurredAt: now,
		Metadata: map[string]interface{}{
			"attendance_id":       updated.ID,
			"working_hours":       regular.InexactFloat64(),
			"overtime_hours":      overtime.InexactFloat64(),
			"total_hours":         total.InexactFloat64(),
			"early_leave_minutes": earlyLeave,
			"break_minutes":       hours.BreakMinutes,
		},
	})

	message := fmt.Sprintf("Checked out at %s after %s hours", now.Format("3:04 PM"), total.StringFixed(2))
	if earlyLeave > 0 {
		message += fmt.Sprintf(" (%d minutes early)", earlyLeave)
	}

	return attendance.CheckOutResult{
		Success:           true,
		Message:           message,
		AttendanceID:      updated.ID,
		CheckOutAt:        now.Format(time.RFC3339),
		WorkingHours:      regular.InexactFloat64(),
		OvertimeHours:     overtime.InexactFloat64(),
		TotalHours:        total.InexactFloat64(),
		EarlyLeaveMinutes: earlyLeave,
		IsEarlyLeave:      earlyLeave > 0,
		Warnings:          nonNil(warnings),
		PhotoURL:          updated.CheckOutPhotoURL,
	}, nil
}

// Today implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Today(ctx context.Context, userID string) (resp attendance.TodayResponse, err error) {
	defer recoverPanic(ctx, "today", &err)

	now := s.now()
	date := businessDate(now)

	_, record, err := s.lookup(ctx, userID, date)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	state := record.State()
	resp = attendance.TodayResponse{
		Date:        date.Format("2006-01-02"),
		State:       state,
		CanCheckIn:  state == attendance.StateNoRecord,
		CanCheckOut: state == attendance.StateCheckedIn,
	}
	if record != nil {
		r := record.ToResponse()
		resp.Attendance = &r
	}
	return resp, nil
}

// PreviewWorkingHours implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) PreviewWorkingHours(ctx context.Context, userID string) (preview attendance.WorkingHoursPreview, err error) {
	defer recoverPanic(ctx, "preview_working_hours", &err)

	now := s.now()

	u, record, err := s.lookup(ctx, userID, businessDate(now))
	if err != nil {
		return attendance.WorkingHoursPreview{}, err
	}
	if record == nil {
		return attendance.WorkingHoursPreview{}, attendance.ErrNoOpenCheckIn.With("Check in first to see your working hours.")
	}
	if record.IsClosed() {
		return attendance.WorkingHoursPreview{}, attendance.ErrAlreadyCheckedOut.With("Your final hours are shown on today's record.")
	}

	_, shift := s.resolver.Resolve(u.Department)
	checkIn := record.CheckInAt.In(s.loc)
	hours := timing.CalculateWorkingHours(checkIn, now, shift)

	return attendance.WorkingHoursPreview{
		AttendanceID:     record.ID,
		CheckInAt:        checkIn.Format(time.RFC3339),
		AsOf:             now.Format(time.RFC3339),
		StandardHours:    shift.StandardHours,
		BreakMinutes:     hours.BreakMinutes,
		WorkingHours:     hours.RegularHours.InexactFloat64(),
		OvertimeHours:    hours.OvertimeHours.InexactFloat64(),
		TotalHours:       hours.TotalHours.InexactFloat64(),
		ExpectedCheckOut: timing.AtTimeOfDay(checkIn, shift.CheckOut).Format(time.RFC3339),
	}, nil
}

// ListMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListMyAttendance(ctx context.Context, userID string, filter attendance.MyAttendanceFilter) (resp attendance.ListAttendanceResponse, err error) {
	defer recoverPanic(ctx, "list_my_attendance", &err)

	if validator.IsEmpty(userID) {
		return attendance.ListAttendanceResponse{}, attendance.ErrUserNotFound
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, validationFailed(err)
	}

	records, total, err := s.attendanceRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, systemError(ctx, "list_my_attendance", fmt.Errorf("failed to list attendance: %w", err))
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, r.ToResponse())
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// lookup fetches the user and the day's record concurrently. User errors are reported
// before record errors.
func (s *AttendanceServiceImpl) lookup(ctx context.Context, userID string, date time.Time) (user.User, *attendance.Attendance, error) {
	var (
		u         user.User
		record    *attendance.Attendance
		userErr   error
		recordErr error
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		u, userErr = s.userRepo.GetByID(gCtx, userID)
		return userErr
	})

	g.Go(func() error {
		record, recordErr = s.attendanceRepo.GetByUserAndDate(gCtx, userID, date)
		return recordErr
	})

	_ = g.Wait()

	if userErr != nil {
		if errors.Is(userErr, user.ErrUserNotFound) || errors.Is(userErr, user.ErrUserInactive) {
			return user.User{}, nil, attendance.ErrUserNotFound.With("Make sure you are signed in with an active employee account.")
		}
		return user.User{}, nil, systemError(ctx, "lookup", fmt.Errorf("failed to get user: %w", userErr))
	}
	if !u.IsActive {
		return user.User{}, nil, attendance.ErrUserNotFound.With("Make sure you are signed in with an active employee account.")
	}
	if recordErr != nil {
		return user.User{}, nil, systemError(ctx, "lookup", fmt.Errorf("failed to get attendance record: %w", recordErr))
	}

	return u, record, nil
}

type uploadResult struct {
	url string
	err error
}

// uploadPhoto stores the photo under a bounded timeout. A failure never aborts the
// operation; it is returned as a user-facing warning instead.
func (s *AttendanceServiceImpl) uploadPhoto(ctx context.Context, userID string, takenAt time.Time, kind file.PhotoKind, payload *string) (*string, string) {
	if validator.IsBlank(payload) {
		return nil, ""
	}
	if s.photoService == nil {
		return nil, "Photo storage is not available. Your attendance was recorded without a photo."
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.photoTimeout)
	defer cancel()

	done := make(chan uploadResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- uploadResult{err: fmt.Errorf("photo upload panicked: %v", r)}
			}
		}()
		url, err := s.photoService.UploadAttendancePhoto(uploadCtx, userID, takenAt, kind, *payload)
		done <- uploadResult{url: url, err: err}
	}()

	var res uploadResult
	select {
	case res = <-done:
	case <-uploadCtx.Done():
		res.err = uploadCtx.Err()
		go s.discardLateUpload(ctx, done)
	}

	if res.err != nil {
		slog.WarnContext(ctx, "attendance photo upload failed", "user_id", userID, "kind", kind, "error", res.err)
		return nil, "Photo upload failed. Your attendance was recorded without a photo."
	}
	return &res.url, ""
}

// discardLateUpload waits for an upload the caller stopped waiting for and removes
// the photo if it was stored anyway.
func (s *AttendanceServiceImpl) discardLateUpload(ctx context.Context, done <-chan uploadResult) {
	res := <-done
	if res.err != nil || res.url == "" {
		return
	}
	slog.InfoContext(ctx, "discarding attendance photo that finished after the upload deadline", "url", res.url)
	s.discardPhoto(ctx, &res.url)
}

// discardPhoto removes a photo whose attendance write did not happen.
func (s *AttendanceServiceImpl) discardPhoto(ctx context.Context, url *string) {
	if url == nil || s.photoService == nil {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.photoTimeout)
	defer cancel()
	if err := s.photoService.DeletePhoto(cleanupCtx, *url); err != nil {
		slog.WarnContext(ctx, "failed to discard orphaned attendance photo", "url", *url, "error", err)
	}
}

func (s *AttendanceServiceImpl) recordActivity(ctx context.Context, entry activity.Entry) {
	if s.activitySink == nil {
		return
	}
	if id, err := uuid.NewV7(); err == nil {
		entry.ID = id.String()
	}
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.activityTimeout)
	defer cancel()
	if err := s.activitySink.Record(sinkCtx, entry); err != nil {
		slog.WarnContext(ctx, "failed to record attendance activity", "user_id", entry.UserID, "action", entry.Action, "error", err)
	}
}

func (s *AttendanceServiceImpl) now() time.Time {
	return s.clock().In(s.loc)
}

// businessDate is the calendar day of t, normalized to midnight UTC for DATE columns.
func businessDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func checkInSummary(u user.User, a attendance.Attendance) string {
	name := u.DisplayName
	if name == "" {
		name = u.ID
	}
	summary := fmt.Sprintf("%s checked in (%s)", name, strings.ReplaceAll(string(a.Type), "_", " "))
	if a.IsLate {
		summary += fmt.Sprintf(", %d minutes late", a.LateMinutes)
	}
	return summary
}

func duplicateCheckIn(existing *attendance.Attendance) *attendance.Error {
	if existing.IsClosed() {
		return attendance.ErrDuplicateCheckIn.With("Your attendance for today is already complete.")
	}
	return attendance.ErrDuplicateCheckIn.With("Check out when you finish work today.")
}

func validationFailed(err error) *attendance.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return attendance.ErrValidationFailed.With(err.Error())
	}

	recs := make([]string, 0, len(verrs))
	for _, v := range verrs {
		recs = append(recs, v.Message)
	}

	e := attendance.ErrValidationFailed.With(recs...)
	e.Message = fmt.Sprintf("missing or invalid fields: %s", strings.Join(verrs.Fields(), ", "))
	e.Fields = verrs.ToMap()
	return e
}

func systemError(ctx context.Context, op string, err error) *attendance.Error {
	slog.ErrorContext(ctx, "attendance operation failed", "operation", op, "error", err)
	return attendance.SystemError(err)
}

func recoverPanic(ctx context.Context, op string, err *error) {
	if r := recover(); r != nil {
		slog.ErrorContext(ctx, "attendance operation panicked", "operation", op, "panic", r, "stack", string(debug.Stack()))
		*err = attendance.SystemError(fmt.Errorf("panic in %s: %v", op, r))
	}
}

func trimmed(s *string) *string {
	if validator.IsBlank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
