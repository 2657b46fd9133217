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

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"bmr-form/internal/calcservice"
	"bmr-form/internal/config"
	"bmr-form/internal/form"
	"bmr-form/internal/observability"
	"bmr-form/internal/server"
	"bmr-form/internal/web"
)

func main() {

	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:   "bmrform",
		Usage:  "serve the BMR calculator form",
		Flags:  config.Flags(),
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bmrform:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {

	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	// Logger
	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	defer observability.SyncLogger()

	// Tracing
	traceShutdown, err := observability.InitTracing(ctx)
	if err != nil {
		return err
	}
	defer traceShutdown(ctx)

	// OTLP logs
	logShutdown, err := observability.InitLogging(ctx)
	if err != nil {
		return err
	}
	defer logShutdown(ctx)

	// Metrics
	metricShutdown, err := initMetrics(ctx)
	if err != nil {
		return err
	}
	defer metricShutdown(ctx)

	// Calculation service
	client, err := calcservice.New(cfg.Calc())
	if err != nil {
		return err
	}

	sessions := web.NewSessions(func() *form.Controller {
		return form.NewController(client, client)
	}, 0)

	// Router
	router := server.NewRouter(web.NewHandler(sessions))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.String("api_base_url", client.BaseURL()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	return waitForShutdown(ctx, srv, serveErr)
}

func waitForShutdown(ctx context.Context, srv *http.Server, serveErr <-chan error) error {

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	observability.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
