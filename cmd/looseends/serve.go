package main

import (
	"context"
	"fmt"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loose-ends/internal/auth"
	"loose-ends/internal/config"
	"loose-ends/internal/logging"
	"loose-ends/internal/repository"
	"loose-ends/internal/service"
	"loose-ends/internal/timeutil"
	"loose-ends/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server, the login state sweeper and wait for SIGINT or
SIGTERM to shut down gracefully.

Examples:
  # Serve with environment configuration only
  SESSION_SECRET=... GITHUB_CLIENT_ID=... GITHUB_CLIENT_SECRET=... looseends serve

  # Serve with a config file
  looseends serve --config /etc/looseends/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := repository.NewDB(cfg.Database.DSN, logger)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	loginStateRepo := repository.NewLoginStateRepository(db)

	taskSvc := service.NewTaskService(taskRepo, userRepo, time.Now)
	boardSvc := service.NewBoardService(taskRepo, timeutil.NewFormatters())
	statsSvc := service.NewStatsService(taskRepo)

	var limiterStorage fiber.Storage
	if cfg.Limiter.RedisURL != "" {
		limiterStorage = web.NewLimiterStorage(cfg.Limiter.RedisURL)
		logger.Info("rate limiter uses redis")
	}

	server, err := web.New(web.Deps{
		Tasks:       taskSvc,
		Boards:      boardSvc,
		Stats:       statsSvc,
		Users:       userRepo,
		LoginStates: loginStateRepo,
		Provider:    auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL),
		Log:         logger,
		Now:         time.Now,
	}, web.Options{
		SessionKey:      auth.DeriveKey(cfg.Session.Secret),
		SecureCookies:   cfg.Session.Secure,
		DefaultLocation: cfg.Location(),
		DefaultLocale:   cfg.App.Locale,
		LimiterMax:      cfg.Limiter.Max,
		LimiterWindow:   cfg.Limiter.Window,
		LimiterStorage:  limiterStorage,
	})
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}

	scheduler := service.NewSchedulerService(cfg.Location(), logger)
	sweeper := service.NewLoginStateSweeper(loginStateRepo, time.Now, logger.Named("sweeper"))
	if err := sweeper.Schedule(scheduler, cfg.Scheduler.SweepInterval); err != nil {
		return err
	}
	scheduler.Start()

	go func() {
		if err := server.Listen(cfg.Server.Addr); err != nil {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		cmd.Context(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
			"scheduler": func(ctx context.Context) error {
				return scheduler.Stop(ctx)
			},
			"limiter-storage": func(context.Context) error {
				if limiterStorage == nil {
					return nil
				}
				return limiterStorage.Close()
			},
		},
	)

	exitCode := <-wait
	if err := sqlDB.Close(); err != nil {
		logger.Error("close db", zap.Error(err))
	}
	logger.Info("shutdown complete", zap.Int("exit_code", exitCode))
	if exitCode != 0 {
		_ = logger.Sync()
		os.Exit(exitCode)
	}
	return nil
}
