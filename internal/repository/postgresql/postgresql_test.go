package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-payroll-engine/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// the engine's tables. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 5, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, migrations.Apply(ctx, db))

	tables := []string{
		"reporting_persons", "employees", "user_roles", "holidays", "attendance_months",
		"leave_allocations", "leave_applications", "salary_structures", "generated_salaries",
	}
	for _, table := range tables {
		_, err := db.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err, "truncate %s", table)
	}
	return db
}

func TestAttendanceRepository_SaveAndLoad(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)

	key, err := attendance.NewMonthKey("emp-1", 4, 2025)
	require.NoError(t, err)

	_, err = repo.GetByKey(ctx, key)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	m := attendance.NewMonth(key)
	_, err = m.Mark(1, nil)
	require.NoError(t, err)
	require.NoError(t, m.Lock("admin-1", time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, repo.Save(ctx, m))

	loaded, err := repo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, attendance.MonthLocked, loaded.State())
	day, err := loaded.Day(1)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, day.Status)
	require.NotNil(t, loaded.LockedBy)
	assert.Equal(t, "admin-1", *loaded.LockedBy)
}

func TestLeaveApplicationRepository_DecisionIsFinal(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewLeaveApplicationRepository(db)

	app := leave.Application{
		ID:         uuid.NewString(),
		EmployeeID: "emp-1",
		LeaveType:  leave.CodeCasual,
		StartDate:  calendar.Date(2025, 3, 10),
		EndDate:    calendar.Date(2025, 3, 11),
		Days:       2,
		Status:     leave.StatusPending,
		AppliedBy:  "emp-1",
		AppliedAt:  time.Now().UTC(),
	}
	created, err := repo.Create(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, app.ID, created.ID)

	overlapping, err := repo.ListOverlapping(ctx, "emp-1", calendar.Date(2025, 3, 11), calendar.Date(2025, 3, 12))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	decider := "mgr-1"
	now := time.Now().UTC()
	created.Status = leave.StatusApproved
	created.DecidedBy = &decider
	created.DecidedAt = &now
	require.NoError(t, repo.UpdateDecision(ctx, created))

	created.Status = leave.StatusRejected
	assert.ErrorIs(t, repo.UpdateDecision(ctx, created), leave.ErrAlreadyDecided)

	created.ID = uuid.NewString()
	assert.ErrorIs(t, repo.UpdateDecision(ctx, created), leave.ErrApplicationNotFound)
}

func TestRoleRepository_DefaultsToEmployee(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewRoleRepository(db)

	_, err := db.Exec(ctx, `INSERT INTO user_roles (actor_id, role) VALUES ('admin-1', 'admin')`)
	require.NoError(t, err)

	role, err := repo.GetRole(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, role)

	role, err = repo.GetRole(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, user.RoleEmployee, role)
}

func TestGeneratedSalaryRepository_UpsertKeepsID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewGeneratedSalaryRepository(db)

	first := payroll.GeneratedSalary{
		ID:          uuid.NewString(),
		EmployeeID:  "emp-1",
		Month:       4,
		Year:        2025,
		GrossSalary: decimal.NewFromInt(30000),
		NetSalary:   decimal.NewFromInt(25000),
		GeneratedAt: time.Now().UTC(),
	}
	saved, err := repo.Upsert(ctx, first)
	require.NoError(t, err)

	second := first
	second.ID = uuid.NewString()
	second.NetSalary = decimal.NewFromInt(24000)
	resaved, err := repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, resaved.ID)
	assert.True(t, decimal.NewFromInt(24000).Equal(resaved.NetSalary))

	_, err = repo.GetByKey(ctx, "emp-1", 5, 2025)
	assert.ErrorIs(t, err, payroll.ErrGeneratedSalaryNotFound)
}

func TestTxManager_LockAggregateSerializes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	tx := postgresql.NewTxManager(db)

	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
				if err := tx.LockAggregate(ctx, leave.LockKey("emp-1")); err != nil {
					return err
				}
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestTxManager_LockRequiresTransaction(t *testing.T) {
	db := openTestDB(t)
	tx := postgresql.NewTxManager(db)
	assert.Error(t, tx.LockAggregate(context.Background(), "attendance:emp-1:2025-04"))
}
