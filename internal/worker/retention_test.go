package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return 4, p.err
}

func (p *fakePruner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestCleanupUsesRetentionWindow(t *testing.T) {
	repo := &fakePruner{}
	w := NewRetentionWorker(repo, 30*24*time.Hour, time.Hour, nil)
	fixed := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	n, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.Len(t, repo.cutoffs, 1)
	assert.Equal(t, time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC), repo.cutoffs[0])
}

func TestCleanupWrapsErrors(t *testing.T) {
	w := NewRetentionWorker(&fakePruner{err: errors.New("locked")}, time.Hour, time.Hour, nil)

	_, err := w.Cleanup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestStartStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &fakePruner{}
	w := NewRetentionWorker(repo, time.Hour, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return repo.calls() > 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
