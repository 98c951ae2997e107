package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/events"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/migrations"
	"github.com/redis/go-redis/v9"
)

type repositories struct {
	tx               database.TxManager
	attendance       attendance.AttendanceRepository
	holidays         holiday.Directory
	employees        employee.Repository
	roles            user.RoleRepository
	applications     leave.ApplicationRepository
	allocations      leave.AllocationRepository
	salaryStructures payroll.SalaryStructureRepository
	generated        payroll.GeneratedSalaryRepository
	close            func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", "hris-payroll-engine"),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	m := metrics.New()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Source)
		slog.Info("Kafka publisher enabled", "brokers", cfg.Kafka.Brokers)
	}
	defer publisher.Close()

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cache.NewRedis(ctx, cache.RedisOptions{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		slog.Info("Allotment cache enabled", "ttl", cfg.Leave.AllotmentCacheTTL)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attSvc := attendanceService.NewAttendanceService(
		repos.tx,
		repos.attendance,
		repos.holidays,
		repos.roles,
		publisher,
		m,
	)

	engine := leaveService.NewAllotmentEngine(repos.employees, repos.allocations, repos.applications, cfg.Leave.CarryLookbackYears)
	authorizer := leaveService.NewAuthorizer(repos.employees, repos.roles)
	requestService := leaveService.NewRequestService(
		repos.tx,
		repos.applications,
		repos.attendance,
		repos.holidays,
		repos.employees,
		engine,
		authorizer,
	)
	lvSvc := leaveService.NewLeaveService(
		repos.applications,
		leaveService.NewAllotmentCache(rdb, engine, cfg.Leave.AllotmentCacheTTL, m),
		requestService,
		authorizer,
		publisher,
		m,
	)

	paySvc := payrollService.NewPayrollService(
		attSvc,
		repos.salaryStructures,
		repos.generated,
		repos.employees,
		publisher,
		m,
	)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        "hris-payroll-engine",
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		repos.roles,
		m,
		appHTTP.NewAttendanceHandler(attSvc),
		appHTTP.NewLeaveHandler(lvSvc),
		appHTTP.NewPayrollHandler(paySvc),
	)

	if cfg.Payroll.AutoRunDay > 0 {
		scheduler := cron.NewScheduler()
		cron.NewPayrollJobs(paySvc, cfg.Payroll.AutoRunDay).RegisterJobs(scheduler, cfg.Payroll.CheckInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("Shutting down server")
	return server.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		if cfg.Store.SeedFile != "" {
			if err := memory.SeedFromFile(store, cfg.Store.SeedFile); err != nil {
				return nil, err
			}
			slog.Info("Memory store seeded", "file", cfg.Store.SeedFile)
		}
		slog.Warn("Using in-memory store; data is lost on restart")
		return &repositories{
			tx:               memory.NewTxManager(store),
			attendance:       memory.NewAttendanceRepository(store),
			holidays:         memory.NewHolidayDirectory(store),
			employees:        memory.NewEmployeeRepository(store),
			roles:            memory.NewRoleRepository(store),
			applications:     memory.NewApplicationRepository(store),
			allocations:      memory.NewAllocationRepository(store),
			salaryStructures: memory.NewSalaryStructureRepository(store),
			generated:        memory.NewGeneratedSalaryRepository(store),
			close:            func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := migrations.Apply(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &repositories{
		tx:               postgresql.NewTxManager(db),
		attendance:       postgresql.NewAttendanceRepository(db),
		holidays:         postgresql.NewHolidayDirectory(db),
		employees:        postgresql.NewEmployeeRepository(db),
		roles:            postgresql.NewRoleRepository(db),
		applications:     postgresql.NewLeaveApplicationRepository(db),
		allocations:      postgresql.NewLeaveAllocationRepository(db),
		salaryStructures: postgresql.NewSalaryStructureRepository(db),
		generated:        postgresql.NewGeneratedSalaryRepository(db),
		close:            db.Close,
	}, nil
}
