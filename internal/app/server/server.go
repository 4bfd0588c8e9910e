package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ewa/internal/domain/advance"
	"ewa/internal/domain/audit"
	"ewa/internal/domain/auth"
	"ewa/internal/domain/core"
	"ewa/internal/domain/notifications"
	"ewa/internal/domain/payroll"
	"ewa/internal/domain/risk"
	"ewa/internal/platform/config"
	"ewa/internal/platform/db"
	"ewa/internal/platform/email"
	"ewa/internal/platform/metrics"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	advanceshandler "ewa/internal/transport/http/handlers/advances"
	authhandler "ewa/internal/transport/http/handlers/auth"
	dashboardhandler "ewa/internal/transport/http/handlers/dashboard"
	employeeshandler "ewa/internal/transport/http/handlers/employees"
	employershandler "ewa/internal/transport/http/handlers/employers"
	notificationshandler "ewa/internal/transport/http/handlers/notifications"
	payrollhandler "ewa/internal/transport/http/handlers/payroll"
	referencehandler "ewa/internal/transport/http/handlers/reference"
	riskhandler "ewa/internal/transport/http/handlers/risk"
	transactionshandler "ewa/internal/transport/http/handlers/transactions"
	"ewa/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, err
		}
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	collector := metrics.New()
	router := newRouter(cfg, pool, collector, logger)

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Metrics: collector,
		Logger:  logger,
	}, nil
}

func (a *App) Close() {
	a.DB.Close()
}

func newRouter(cfg config.Config, pool *pgxpool.Pool, collector *metrics.Collector, logger *slog.Logger) http.Handler {
	coreStore := core.NewStore(pool)
	recorder := audit.NewRecorder(pool, logger)
	mailer := email.NewFromConfig(cfg, logger)

	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL)
	notifService := notifications.NewService(notifications.NewStore(pool), mailer, cfg.EmailEnabled, logger)
	advanceService := advance.NewService(advance.NewStore(pool), collector, notifService, logger)
	riskService := risk.NewService(risk.NewStore(pool), risk.NewDefaultCalculator(), logger)
	payrollService := payroll.NewService(payroll.NewStore(pool), logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequireRole(auth.RoleAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), requestctx.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService).RegisterRoutes(r)
		referencehandler.NewHandler().RegisterRoutes(r)
		employeeshandler.NewHandler(coreStore).RegisterRoutes(r)
		employershandler.NewHandler(coreStore).RegisterRoutes(r)
		advanceshandler.NewHandler(advanceService, coreStore, recorder).RegisterRoutes(r)
		riskhandler.NewHandler(riskService, recorder).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, coreStore, recorder).RegisterRoutes(r)
		transactionshandler.NewHandler(advanceService, authService).RegisterRoutes(r)
		notificationshandler.NewHandler(notifService).RegisterRoutes(r)
		dashboardhandler.NewHandler(pool, coreStore).RegisterRoutes(r)
	})

	return router
}

func Run() {
	cfg := config.Load()

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("EWA server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
