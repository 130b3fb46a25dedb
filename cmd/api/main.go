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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/marketplace-api/internal/bootstrap"
	"github.com/jwalitptl/marketplace-api/internal/config"
	"github.com/jwalitptl/marketplace-api/internal/handler/health"
	"github.com/jwalitptl/marketplace-api/internal/handler/notification"
	"github.com/jwalitptl/marketplace-api/internal/handler/prometheus"
	"github.com/jwalitptl/marketplace-api/internal/router"
	"github.com/jwalitptl/marketplace-api/pkg/validator"
	pkgworker "github.com/jwalitptl/marketplace-api/pkg/worker"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "marketplace-api",
	Short:        "Serve the marketplace notification HTTP API",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := bootstrap.NewLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error(err, "failed to initialize")
		return err
	}
	defer app.Close()

	if app.Broker != nil {
		invalidator := pkgworker.NewPreferenceInvalidator(app.Broker, app.Preferences, cfg.Notifications.PreferenceChannel, log, app.Metrics)
		go func() {
			if err := invalidator.Start(ctx); err != nil {
				log.Error(err, "preference invalidator stopped")
			}
		}()
	} else {
		log.Warn("redis disabled, cached preferences expire only by ttl", "ttl", cfg.Notifications.PreferenceCacheTTL.String())
	}

	gin.SetMode(gin.ReleaseMode)

	r := router.NewRouter(
		log,
		health.NewHandler(&app.Base),
		notification.NewHandler(app.Dispatcher, app.Notifications, validator.New(), log),
		prometheus.New(app.Registry, app.Metrics),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.RequestTimeout,
			MetricsPath:      cfg.Metrics.Path,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error(err, "failed to start server")
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
		return err
	}

	log.Info("server exited properly")
	return nil
}
