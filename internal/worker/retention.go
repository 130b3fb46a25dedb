package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/marketplace-api/pkg/logger"
)

// Pruner deletes in-app notifications created before cutoff.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker periodically prunes in-app notifications older than the
// retention window.
type RetentionWorker struct {
	repo            Pruner
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewRetentionWorker(repo Pruner, retention, cleanupInterval time.Duration, log *logger.Logger) *RetentionWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &RetentionWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log,
		now:             time.Now,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Failed to prune notifications")
			}
		}
	}
}

// Cleanup runs one pruning pass and returns the number of rows removed.
func (w *RetentionWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}

	w.logger.Info("Pruned notifications", "rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}
