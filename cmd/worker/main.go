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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/marketplace-api/internal/bootstrap"
	"github.com/jwalitptl/marketplace-api/internal/config"
	"github.com/jwalitptl/marketplace-api/internal/worker"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/validator"
	pkgworker "github.com/jwalitptl/marketplace-api/pkg/worker"
)

var (
	configPath string
	healthAddr string
)

var rootCmd = &cobra.Command{
	Use:          "marketplace-worker",
	Short:        "Consume queued notification requests and prune old in-app notifications",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yml")
	rootCmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "address for health and metrics endpoints")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Redis.Enabled {
		return fmt.Errorf("worker requires redis.enabled")
	}

	log := bootstrap.NewLogger(cfg.Logging).With("component", "worker")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error(err, "failed to initialize")
		return err
	}
	defer app.Close()

	consumer := pkgworker.NewNotificationConsumer(
		app.Broker,
		app.Dispatcher,
		validator.New(),
		pkgworker.ConsumerConfig{Channel: cfg.Notifications.RequestChannel},
		log,
		app.Metrics,
	)

	invalidator := pkgworker.NewPreferenceInvalidator(app.Broker, app.Preferences, cfg.Notifications.PreferenceChannel, log, app.Metrics)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Start(ctx)
	})
	g.Go(func() error {
		return invalidator.Start(ctx)
	})
	if cfg.Notifications.Retention > 0 {
		retention := worker.NewRetentionWorker(app.Notifications, cfg.Notifications.Retention, cfg.Notifications.RetentionInterval, log)
		g.Go(func() error {
			retention.Start(ctx)
			return nil
		})
	}
	g.Go(func() error {
		return serveHealth(ctx, healthAddr, app, log)
	})

	if err := g.Wait(); err != nil {
		log.Error(err, "worker stopped")
		return err
	}
	log.Info("worker exited properly")
	return nil
}

func serveHealth(ctx context.Context, addr string, app *bootstrap.Components, log *logger.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := app.Base.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("health check server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health check server failed: %w", err)
	}
	return nil
}
