// @title Pet Health Records API
// @version 1.0
// @description Historial clínico de mascotas con acceso temporal de clínicas por OTP.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-health-records/internal/adapters/auth/jwtauth"
	"pet-health-records/internal/adapters/auth/odin"
	"pet-health-records/internal/adapters/notify"
	"pet-health-records/internal/adapters/ratelimit"
	pg "pet-health-records/internal/adapters/storage/postgres"
	"pet-health-records/internal/domain/otp"
	"pet-health-records/internal/platform/config"
	"pet-health-records/internal/platform/logger"
	"pet-health-records/internal/ports/auth"
	notifyport "pet-health-records/internal/ports/notify"
	"pet-health-records/internal/router"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pet-health-records",
		Short:         "API de historial clínico de mascotas",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), false)
		},
	}

	var migrateOnStart bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrateOnStart)
		},
	}
	serve.Flags().BoolVar(&migrateOnStart, "migrate", false, "aplica migraciones antes de levantar")

	root.AddCommand(
		serve,
		&cobra.Command{
			Use:   "migrate",
			Short: "Aplica las migraciones pendientes (requiere DB_DSN)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sweep-grants",
			Short: "Marca como expirados los accesos de clínica vencidos",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMaintenance(cmd.Context(), "sweep-grants")
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Borra OTPs vencidos",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMaintenance(cmd.Context(), "cleanup")
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Imprime la versión",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

type app struct {
	cfg  config.Config
	log  logger.Logger
	db   *sql.DB
	opts router.Options
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	a := &app{cfg: cfg, log: log}

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		a.db = db
	}

	verifier, tokens, err := authFor(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	limiter, err := limiterFor(ctx, cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}

	a.opts = router.Options{
		DB:                a.db,
		Logger:            log,
		Sender:            senderFor(cfg, log),
		OTPTTL:            cfg.OTPTTL,
		OTPLimiter:        limiter,
		DefaultGrantHours: cfg.DefaultGrantHours,
	}
	// interfaces nil explícitas: un *Manager nil no es un verifier nil
	if verifier != nil {
		a.opts.AuthVerifier = verifier
	}
	if tokens != nil {
		a.opts.Tokens = tokens
	}
	return a, nil
}

func authFor(cfg config.Config) (auth.AuthVerifier, *jwtauth.Manager, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		m, err := jwtauth.New(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt: %w", err)
		}
		return m, m, nil
	case config.AuthModeOdin:
		c, err := odin.NewClient(odin.Config{
			BaseURL: cfg.OdinBaseURL,
			APIKey:  cfg.OdinAPIKey,
			Timeout: 5 * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("odin: %w", err)
		}
		return c, nil, nil
	default:
		return nil, nil, nil
	}
}

func limiterFor(ctx context.Context, cfg config.Config, log logger.Logger) (otp.RateLimiter, error) {
	if cfg.OTPRateLimitPerHour <= 0 {
		return nil, nil
	}
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemory(cfg.OTPRateLimitPerHour, time.Hour), nil
	}
	client, err := ratelimit.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Info("otp rate limit backed by redis", map[string]any{"addr": cfg.RedisAddr})
	return ratelimit.NewRedis(client, cfg.OTPRateLimitPerHour, time.Hour), nil
}

func senderFor(cfg config.Config, log logger.Logger) notifyport.Sender {
	var sms, email notifyport.Sender = notify.NewLog(log), notify.NewLog(log)

	if t, err := notify.NewTwilio(notify.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
		Timeout:    10 * time.Second,
	}); err == nil {
		sms = t
	} else {
		log.Warn("twilio not configured, sms go to log", nil)
	}

	if r, err := notify.NewResend(notify.ResendConfig{APIKey: cfg.ResendAPIKey, FromEmail: cfg.FromEmail}); err == nil {
		email = r
	} else {
		log.Warn("resend not configured, emails go to log", nil)
	}

	return notify.Router{SMS: sms, Email: email}
}

func runServe(parent context.Context, migrateFirst bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if migrateFirst && a.db != nil {
		applied, err := pg.Migrate(ctx, a.db)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.log.Info("migrations applied", map[string]any{"applied": applied})
	}

	storage := "memory"
	if a.db != nil {
		storage = "postgres"
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           router.NewRouter(a.opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", map[string]any{
			"addr":      a.cfg.Addr,
			"auth_mode": string(a.cfg.AuthMode),
			"storage":   storage,
			"version":   version,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.db == nil {
		return errors.New("DB_DSN is required")
	}
	applied, err := pg.Migrate(ctx, a.db)
	if err != nil {
		return err
	}
	a.log.Info("migrations applied", map[string]any{"applied": applied})
	return nil
}

// runMaintenance corre una tarea sobre Postgres; en memoria no hay nada que limpiar.
func runMaintenance(ctx context.Context, task string) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.db == nil {
		return errors.New("DB_DSN is required")
	}

	_, svcs := router.Build(a.opts)

	var n int64
	switch task {
	case "sweep-grants":
		n, err = svcs.Grants.SweepExpired(ctx)
	case "cleanup":
		n, err = svcs.OTP.Cleanup(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", task, err)
	}
	a.log.Info("maintenance done", map[string]any{"task": task, "affected": n})
	return nil
}
