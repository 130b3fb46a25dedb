// Package bootstrap builds the components shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/marketplace-api/internal/config"
	"github.com/jwalitptl/marketplace-api/internal/email"
	"github.com/jwalitptl/marketplace-api/internal/repository"
	"github.com/jwalitptl/marketplace-api/internal/repository/cache"
	"github.com/jwalitptl/marketplace-api/internal/repository/postgres"
	"github.com/jwalitptl/marketplace-api/internal/service/notification"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/messaging"
	"github.com/jwalitptl/marketplace-api/pkg/messaging/redis"
	"github.com/jwalitptl/marketplace-api/pkg/metrics"
)

type Components struct {
	DB            *sqlx.DB
	Base          postgres.BaseRepository
	Notifications repository.NotificationRepository
	Preferences   *cache.PreferenceRepository
	Broker        messaging.Broker
	Dispatcher    *notification.Dispatcher
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

func NewLogger(cfg config.LoggingConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Console,
	})
}

// Build connects to the database and, when enabled, redis, then assembles
// the dispatcher and its senders.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Components, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(cfg.Metrics.Namespace, reg)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	c := &Components{
		DB:       db,
		Base:     postgres.NewBaseRepository(db, m),
		Registry: reg,
		Metrics:  m,
		Logger:   log,
	}
	c.Notifications = postgres.NewNotificationRepository(c.Base)
	c.Preferences = cache.NewPreferenceRepository(
		postgres.NewPreferenceRepository(c.Base),
		cfg.Notifications.PreferenceCacheTTL,
		2*cfg.Notifications.PreferenceCacheTTL,
	)

	if cfg.Redis.Enabled {
		broker, err := redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.ZL, m)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.Broker = broker
	}

	var emailSvc email.Service
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
		})
	} else {
		log.Warn("SMTP host not configured, email channel will be skipped")
	}

	var publisher messaging.Publisher
	if c.Broker != nil {
		publisher = c.Broker
	}

	c.Dispatcher = notification.NewDispatcher(c.Preferences, []notification.ChannelSender{
		notification.NewInAppSender(c.Notifications, publisher, cfg.Notifications.RealtimeChannel, log),
		notification.NewEmailSender(emailSvc, cfg.Notifications.BaseURL),
		notification.SMSSender{},
		notification.PushSender{},
	}, log, m, notification.Config{
		BatchConcurrency: cfg.Notifications.BatchConcurrency,
		SenderTimeout:    cfg.Notifications.SenderTimeout,
	})

	return c, nil
}

func (c *Components) Close() {
	if c.Broker != nil {
		if err := c.Broker.Close(); err != nil {
			c.Logger.Error(err, "failed to close redis broker")
		}
	}
	if err := c.DB.Close(); err != nil {
		c.Logger.Error(err, "failed to close database")
	}
}
