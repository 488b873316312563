package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caretrack/caretrack/internal/config"
	"github.com/caretrack/caretrack/internal/domain/admin"
	"github.com/caretrack/caretrack/internal/domain/appointment"
	"github.com/caretrack/caretrack/internal/domain/help"
	"github.com/caretrack/caretrack/internal/domain/medicalrecord"
	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/reference"
	"github.com/caretrack/caretrack/internal/platform/apierr"
	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/db"
	"github.com/caretrack/caretrack/internal/platform/events"
	"github.com/caretrack/caretrack/internal/platform/middleware"
	"github.com/caretrack/caretrack/internal/platform/reminder"
	"github.com/caretrack/caretrack/internal/shell"
	"github.com/caretrack/caretrack/migrations"
	"github.com/caretrack/caretrack/pkg/pagination"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "caretrack-server",
		Short: "CareTrack practice management server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator, logger zerolog.Logger) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				logger.Info().Int("applied", n).Msg("migrations complete")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *db.Migrator, _ zerolog.Logger) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(out, "%03d  %-30s %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(fn func(ctx context.Context, m *db.Migrator, logger zerolog.Logger) error) error {
	logger := newLogger(os.Getenv("ENV"))
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrations")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, migrations.FS, "."), logger)
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// app is the wired service graph shared by serve and seed.
type app struct {
	cfg          *config.Config
	logger       zerolog.Logger
	stores       *stores
	publisher    events.Publisher
	auth         *auth.Service
	patients     *patient.Service
	refs         *reference.Service
	appointments *appointment.Service
	records      *medicalrecord.Service
	admin        *admin.Service
	help         *help.Service
}

func loadConfig(logger zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.DevAuth() {
		logger.Warn().Msg("development auth enabled; every request is signed in as the dev admin")
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	key, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}
	catalog, err := help.Default()
	if err != nil {
		return nil, err
	}
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var pub events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing appointment events to kafka")
	}

	a := &app{cfg: cfg, logger: logger, stores: st, publisher: pub}
	a.auth = auth.NewService(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: key,
		SessionTTL: cfg.SessionTTL,
	}, st.users, logger)
	a.patients = patient.NewService(st.patients, patient.NewActiveStore())
	a.refs = reference.NewService(st.providers, st.types, st.statuses)
	a.appointments = appointment.NewService(st.appointments, a.patients, a.refs, pub, logger).WithClock(nil, loc)
	a.records = medicalrecord.NewService(st.records, a.patients)
	a.admin = admin.NewService(logger, admin.Standard(a.patients, a.refs)...)
	a.help = help.NewService(catalog)

	// A logged-out session forgets its patient selection.
	a.auth.OnLogout(a.patients.Active().Remove)
	return a, nil
}

func (a *app) close() {
	if c, ok := a.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("event publisher close failed")
		}
	}
	a.stores.close()
}

// newEcho builds the HTTP server. Page routes are gated by the shell, API
// routes by RequireAuth.
func (a *app) newEcho() *echo.Echo {
	cfg, logger := a.cfg, a.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierr.Handler(e, logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	if cfg.DevAuth() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(a.auth.Verifier()))
	}
	e.Use(middleware.Audit(logger, nil))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(a.stores.driver, a.stores.check, a.stores.pool))

	api := e.Group("/api/v1", auth.RequireAuth(auth.AuthSkipper))
	// RATE_LIMIT_RPS=0 turns limiting off.
	if cfg.RateLimitRPS > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond, rl.BurstSize = cfg.RateLimitRPS, cfg.RateLimitBurst
		api.Use(middleware.RateLimit(rl))
	}

	auth.NewHandler(a.auth).RegisterRoutes(api)
	patient.NewHandler(a.patients).RegisterRoutes(api)
	reference.NewHandler(a.refs).RegisterRoutes(api)
	appointment.NewHandler(a.appointments).RegisterRoutes(api)
	medicalrecord.NewHandler(a.records).RegisterRoutes(api)
	admin.NewHandler(a.admin).RegisterRoutes(api)
	help.NewHandler(a.help).RegisterRoutes(api)

	sh := shell.NewHandler(a.patients.Active())
	sh.RegisterRoutes(api)
	sh.RegisterPages(e)

	return e
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	pagination.DefaultPageSize = cfg.PageSize

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.close()

	if err := a.auth.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize auth")
	}

	jobs := reminder.New(a.appointments, a.publisher, logger)
	if err := jobs.Start(cfg.ReminderSchedule); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule reminders")
	}

	e := a.newEcho()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	select {
	case <-jobs.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("reminder job still running at shutdown")
	}
	logger.Info().Msg("server stopped")
	return nil
}
