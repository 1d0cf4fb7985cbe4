package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medibook/medibook/internal/config"
	"github.com/medibook/medibook/internal/domain/appointment"
	"github.com/medibook/medibook/internal/domain/doctor"
	"github.com/medibook/medibook/internal/domain/identity"
	"github.com/medibook/medibook/internal/domain/review"
	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/db"
	"github.com/medibook/medibook/internal/platform/middleware"
	"github.com/medibook/medibook/internal/platform/notification"
	"github.com/medibook/medibook/internal/platform/reminder"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medibook-server",
		Short: "Appointment booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			pool, cleanup, err := connect(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			pool, cleanup, err := connect(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// adminCmd bootstraps admin accounts. Admins cannot self-register through
// the API, so the first one has to come from here.
func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if name == "" || email == "" || password == "" {
				return fmt.Errorf("--name, --email and --password are required")
			}

			ctx := context.Background()
			pool, cleanup, err := connect(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u := &identity.User{
				Name:         name,
				Email:        strings.ToLower(email),
				PasswordHash: hash,
				Role:         auth.RoleAdmin,
			}
			if err := identity.NewRepoPG(pool).Create(ctx, u); err != nil {
				return err
			}
			fmt.Printf("Admin account created: %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("password", "", "Initial password")

	cmd.AddCommand(createCmd)
	return cmd
}

func connect(ctx context.Context) (*pgxpool.Pool, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Token issuance and revocation
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)
	revocation := auth.NewRevocationStore(pool)
	revocation.StartCleanup(time.Hour, logger)
	defer revocation.Close()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(1 << 20))
	e.Use(middleware.Metrics())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API groups: public carries no auth, api requires a bearer token, admin
	// additionally requires the admin role.
	public := e.Group("/api/v1")
	api := e.Group("/api/v1", auth.Middleware(issuer, revocation))
	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	public.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Repositories
	userRepo := identity.NewRepoPG(pool)
	doctorRepo := doctor.NewRepoPG(pool)
	apptRepo := appointment.NewRepoPG(pool)
	reviewRepo := review.NewRepoPG(pool)

	// Identity
	identitySvc := identity.NewService(userRepo, issuer, revocation)
	identity.NewHandler(identitySvc).RegisterRoutes(public, api, admin)

	// Doctors
	doctorSvc := doctor.NewService(doctorRepo)
	doctor.NewHandler(doctorSvc).RegisterRoutes(api, admin)

	// Appointments
	apptSvc := appointment.NewService(apptRepo, doctorRepo)
	appointment.NewHandler(apptSvc).RegisterRoutes(api)

	// Reviews, with the doctor aggregate recomputed transactionally
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	reviewSvc := review.NewService(reviewRepo, doctorRepo, inTx)
	review.NewHandler(reviewSvc).RegisterRoutes(api)

	// Outbound email
	templates := notification.NewTemplateEngine()
	var sender notification.EmailSender
	if cfg.SMTPConfigured() {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		logger.Info().Str("host", cfg.SMTPHost).Msg("smtp delivery enabled")
	} else {
		sender = notification.NewLogSender(logger)
		logger.Warn().Msg("SMTP not configured; reminders use log-only delivery")
	}
	mailer := notification.NewMailer(templates, sender, logger)
	identitySvc.SetMailer(mailer)
	apptSvc.SetMailer(userRepo, mailer)

	// Reminder job
	reminderJob := reminder.NewJob(apptRepo, userRepo, doctorRepo, templates, sender, logger)
	reminderJob.Start(cfg.ReminderInterval)
	defer reminderJob.Stop()

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
		return err
	}
	return nil
}
