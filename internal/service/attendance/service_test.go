package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/events"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmployee = "emp-1"
	testAdmin    = "admin-1"
	testManager  = "mgr-1"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, topic+"|"+key+"|"+eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func setupAttendanceService(t *testing.T) (*AttendanceServiceImpl, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.NewStore()
	store.PutEmployee(employee.Employee{ID: testEmployee, FullName: "Test Employee", Active: true}, testManager)
	store.PutRole(testAdmin, user.RoleAdmin)
	store.PutRole(testManager, user.RoleManager)

	pub := &recordingPublisher{}
	svc := NewAttendanceService(
		memory.NewTxManager(store),
		memory.NewAttendanceRepository(store),
		memory.NewHolidayDirectory(store),
		memory.NewRoleRepository(store),
		pub,
		nil,
	)
	svc.now = func() time.Time { return time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC) }
	return svc, store, pub
}

func strPtr(s string) *string { return &s }

func TestGetAttendance_EmptyMonthHasCalendarApplied(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setupAttendanceService(t)
	store.PutHoliday(holiday.Holiday{Date: calendar.Date(2025, 3, 14), Name: "Holi"})

	resp, err := svc.GetAttendance(ctx, attendance.GetAttendanceRequest{EmployeeID: testEmployee, Month: 3, Year: 2025})
	require.NoError(t, err)

	assert.Equal(t, attendance.MonthOpen, resp.State)
	assert.Len(t, resp.Days, 31)
	assert.Equal(t, attendance.StatusHoliday, resp.Days[1].Status) // Sunday the 2nd
	assert.Equal(t, attendance.StatusHoliday, resp.Days[13].Status)
	require.NotNil(t, resp.Days[13].HolidayName)
	assert.Equal(t, "Holi", *resp.Days[13].HolidayName)
	assert.Equal(t, attendance.StatusUnmarked, resp.Days[2].Status)
	assert.Equal(t, 5, resp.Counts.Sunday)
	assert.Equal(t, 1, resp.Counts.Holiday)

	_, err = svc.LoadMonth(ctx, attendance.MonthKey{EmployeeID: testEmployee, Month: 3, Year: 2025})
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound, "reads must not create months")
}

func TestGetAttendance_InvalidPeriod(t *testing.T) {
	svc, _, _ := setupAttendanceService(t)
	_, err := svc.GetAttendance(context.Background(), attendance.GetAttendanceRequest{EmployeeID: testEmployee, Month: 13, Year: 2025})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestMarkDay_CyclesAndPersists(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupAttendanceService(t)
	req := attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, ActorID: testEmployee}

	expected := []attendance.Status{
		attendance.StatusPresent,
		attendance.StatusFirstHalf,
		attendance.StatusSecondHalf,
		attendance.StatusAbsent,
	}
	for _, want := range expected {
		rec, err := svc.MarkDay(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, want, rec.Status)
	}

	_, err := svc.MarkDay(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrLeaveTypeRequired)

	req.LeaveType = strPtr("CL")
	rec, err := svc.MarkDay(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLeave, rec.Status)

	rec, err = svc.MarkDay(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusUnmarked, rec.Status)

	m, err := svc.LoadMonth(ctx, attendance.MonthKey{EmployeeID: testEmployee, Month: 3, Year: 2025})
	require.NoError(t, err)
	day, _ := m.Day(3)
	assert.Equal(t, attendance.StatusUnmarked, day.Status)
}

func TestMarkDay_RejectsUnknownLeaveType(t *testing.T) {
	svc, _, _ := setupAttendanceService(t)
	_, err := svc.MarkDay(context.Background(), attendance.MarkDayRequest{
		EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, LeaveType: strPtr("XX"), ActorID: testEmployee,
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestMarkDay_SundayIsImmutable(t *testing.T) {
	svc, _, _ := setupAttendanceService(t)
	_, err := svc.MarkDay(context.Background(), attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 9, ActorID: testEmployee})
	assert.ErrorIs(t, err, attendance.ErrDayImmutable)
}

func TestMarkDay_OutOfRange(t *testing.T) {
	svc, _, _ := setupAttendanceService(t)
	_, err := svc.MarkDay(context.Background(), attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 2, Year: 2025, Day: 29, ActorID: testEmployee})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestUpsertAttendance_SkipsHolidaysAndSubmits(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := setupAttendanceService(t)

	resp, err := svc.UpsertAttendance(ctx, attendance.UpsertAttendanceRequest{
		EmployeeID: testEmployee,
		Month:      3,
		Year:       2025,
		Days: []attendance.DayInput{
			{Day: 3, Status: attendance.StatusPresent},
			{Day: 4, Status: attendance.StatusAbsent},
			{Day: 9, Status: attendance.StatusPresent},
		},
		Submitted: func() *bool { b := true; return &b }(),
		ActorID:   testEmployee,
	})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	require.Len(t, resp.SkippedDays, 1)
	assert.Equal(t, 9, resp.SkippedDays[0].Day)
	assert.Equal(t, attendance.SkipHoliday, resp.SkippedDays[0].Reason)
	assert.Equal(t, attendance.MonthSubmitted, resp.Attendance.State)
	assert.Equal(t, 1, resp.Attendance.Counts.Present)
	assert.Equal(t, 1, resp.Attendance.Counts.Absent)
	assert.Equal(t, []string{events.TopicAttendanceLocked + "|" + testEmployee + "|attendance.submitted"}, pub.events)
}

func TestUpsertAttendance_LockedMonthSkipsEverything(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupAttendanceService(t)

	_, err := svc.MarkDay(ctx, attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, ActorID: testEmployee})
	require.NoError(t, err)
	_, err = svc.LockAttendance(ctx, attendance.LockAttendanceRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, ActorID: testAdmin})
	require.NoError(t, err)

	resp, err := svc.UpsertAttendance(ctx, attendance.UpsertAttendanceRequest{
		EmployeeID: testEmployee,
		Month:      3,
		Year:       2025,
		Days:       []attendance.DayInput{{Day: 3, Status: attendance.StatusAbsent}},
		ActorID:    testAdmin,
	})
	require.NoError(t, err)
	require.Len(t, resp.SkippedDays, 1)
	assert.Equal(t, attendance.SkipMonthLocked, resp.SkippedDays[0].Reason)

	m, err := svc.LoadMonth(ctx, attendance.MonthKey{EmployeeID: testEmployee, Month: 3, Year: 2025})
	require.NoError(t, err)
	day, _ := m.Day(3)
	assert.Equal(t, attendance.StatusPresent, day.Status)
}

func TestUpsertAttendance_SubmitByOtherEmployeeForbidden(t *testing.T) {
	svc, _, _ := setupAttendanceService(t)
	submitted := true
	_, err := svc.UpsertAttendance(context.Background(), attendance.UpsertAttendanceRequest{
		EmployeeID: testEmployee,
		Month:      3,
		Year:       2025,
		Days:       []attendance.DayInput{{Day: 3, Status: attendance.StatusPresent}},
		Submitted:  &submitted,
		ActorID:    "someone-else",
	})
	assert.ErrorIs(t, err, attendance.ErrLockNotPermitted)
}

func TestAttendanceWrites_OwnerOrAdminOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupAttendanceService(t)

	_, err := svc.MarkDay(ctx, attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, ActorID: testManager})
	assert.ErrorIs(t, err, attendance.ErrLockNotPermitted)
	assert.Equal(t, apperror.KindAuthorization, apperror.KindOf(err))

	_, err = svc.UpsertAttendance(ctx, attendance.UpsertAttendanceRequest{
		EmployeeID: testEmployee,
		Month:      3,
		Year:       2025,
		Days:       []attendance.DayInput{{Day: 3, Status: attendance.StatusPresent}},
		ActorID:    "someone-else",
	})
	assert.ErrorIs(t, err, attendance.ErrLockNotPermitted)

	_, err = svc.MarkDay(ctx, attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), "actor is required")

	m, err := svc.GetAttendance(ctx, attendance.GetAttendanceRequest{EmployeeID: testEmployee, Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Zero(t, m.Counts.Present, "refused writes leave the month untouched")

	rec, err := svc.MarkDay(ctx, attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, ActorID: testAdmin})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
}

func TestLockAttendance(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := setupAttendanceService(t)
	req := attendance.LockAttendanceRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, ActorID: testAdmin}

	t.Run("manager cannot lock", func(t *testing.T) {
		_, err := svc.LockAttendance(ctx, attendance.LockAttendanceRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, ActorID: testManager})
		assert.ErrorIs(t, err, attendance.ErrLockNotPermitted)
	})

	t.Run("admin locks an empty month", func(t *testing.T) {
		resp, err := svc.LockAttendance(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, attendance.MonthLocked, resp.State)
		require.NotNil(t, resp.LockedBy)
		assert.Equal(t, testAdmin, *resp.LockedBy)
		assert.Len(t, pub.events, 1)
	})

	t.Run("second lock fails", func(t *testing.T) {
		_, err := svc.LockAttendance(ctx, req)
		assert.ErrorIs(t, err, attendance.ErrAlreadyLocked)
	})

	t.Run("marking a locked month fails", func(t *testing.T) {
		_, err := svc.MarkDay(ctx, attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, ActorID: testEmployee})
		assert.ErrorIs(t, err, attendance.ErrMonthLocked)
	})
}

func TestSubmitAttendance(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupAttendanceService(t)
	req := attendance.SubmitAttendanceRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, ActorID: testEmployee}

	_, err := svc.SubmitAttendance(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrNoAttendanceData)

	_, err = svc.MarkDay(ctx, attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, ActorID: testEmployee})
	require.NoError(t, err)

	resp, err := svc.SubmitAttendance(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, attendance.MonthSubmitted, resp.State)

	_, err = svc.SubmitAttendance(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrAlreadyLocked)
}

func TestLoadMonth_RemovedHolidayResets(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setupAttendanceService(t)
	holi := calendar.Date(2025, 3, 14)
	store.PutHoliday(holiday.Holiday{Date: holi, Name: "Holi"})

	_, err := svc.MarkDay(ctx, attendance.MarkDayRequest{EmployeeID: testEmployee, Month: 3, Year: 2025, Day: 3, ActorID: testEmployee})
	require.NoError(t, err)

	store.RemoveHoliday(holi)
	m, err := svc.LoadMonth(ctx, attendance.MonthKey{EmployeeID: testEmployee, Month: 3, Year: 2025})
	require.NoError(t, err)
	day, _ := m.Day(14)
	assert.Equal(t, attendance.StatusUnmarked, day.Status)
	assert.False(t, day.Immutable)
}
