package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	AllowedOrigins []string
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	roles user.RoleRepository,
	m *metrics.Metrics,
	attendanceHandler AttendanceHandler,
	leaveHandler LeaveHandler,
	payrollHandler PayrollHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(m.Middleware)

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		r.Route("/attendance/{employeeID}/{year}/{month}", func(r chi.Router) {
			r.Get("/", attendanceHandler.Get)
			r.Put("/", attendanceHandler.Upsert)
			r.Post("/days/{day}/mark", attendanceHandler.MarkDay)
			r.Post("/submit", attendanceHandler.Submit)
			r.Post("/lock", attendanceHandler.Lock)
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/allotments/{employeeID}", leaveHandler.GetAllotments)
			r.Post("/validate-dates", leaveHandler.ValidateDates)
			r.Get("/approvals/pending", leaveHandler.ListPendingApprovals)
			r.Get("/employees/{employeeID}/applications", leaveHandler.ListEmployeeApplications)

			r.Route("/applications", func(r chi.Router) {
				r.Post("/", leaveHandler.Apply)
				r.Get("/{id}", leaveHandler.GetApplication)
				r.Post("/{id}/approve", leaveHandler.Approve)
				r.Post("/{id}/reject", leaveHandler.Reject)
			})
		})

		// Admin only
		r.Route("/payroll", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(roles))
			r.Post("/run", payrollHandler.Run)
			r.Post("/run-batch", payrollHandler.RunBatch)
			r.Get("/{employeeID}/{year}/{month}", payrollHandler.Get)
		})
	})
	return r
}
