package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ckd_auth_service/internal/app"
	"ckd_auth_service/internal/config"
	"ckd_auth_service/internal/handler"
	"ckd_auth_service/internal/server"

	"github.com/gin-gonic/gin"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 30 * time.Second

func main() {
	//PARSE ARGS
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")

	flag.Parse()
	if configPath == "" {
		log.Fatal("failed get config path from flags")
	}

	cfg := config.MustLoadConfig(configPath)

	//INIT LOGGER
	lgr := setupLogger(cfg.Env)
	lgr.Info("starting auth service", slog.String("env", cfg.Env), slog.String("session_backend", cfg.SessionBackend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//INIT DB
	application, err := app.New(ctx, cfg, lgr)
	if err != nil {
		lgr.Error("failed to init storage", slog.Any("error", err))
		os.Exit(1)
	}

	runErr := run(ctx, cfg, lgr, application)

	if err := application.Close(); err != nil {
		lgr.Error("failed to close storage", slog.Any("error", err))
	}

	if runErr != nil {
		stop()
		os.Exit(1)
	}

	lgr.Info("auth service stopped")
}

// run serves until ctx is done and reports why it stopped early, if it did.
func run(ctx context.Context, cfg *config.Config, lgr *slog.Logger, application *app.App) error {
	if cfg.MigrateOnStart {
		if err := application.Migrate(ctx); err != nil {
			lgr.Error("failed to apply migrations", slog.Any("error", err))
			return err
		}
	}

	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go application.Reaper(cfg, lgr).Run(reaperCtx)

	//INIT SERVER
	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.NewHandler(application.Users, application.Admins, application, lgr)

	srv := server.New(h.InitRoutes(), server.Options{
		Address:      cfg.HTTPServer.Address,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	})

	serverErr := make(chan error, 1)
	go func() {
		lgr.Info("http server listening", slog.String("address", cfg.HTTPServer.Address))
		serverErr <- srv.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		lgr.Info("shutting down")
	case runErr = <-serverErr:
		if runErr != nil {
			lgr.Error("http server stopped", slog.Any("error", runErr))
		}
	}

	stopReaper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("failed to shut down http server", slog.Any("error", err))
	}

	return runErr
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
