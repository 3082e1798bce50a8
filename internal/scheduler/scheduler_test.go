package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/catalog"
	"github.com/sawpanic/techsignal/internal/orchestrator"
)

type blockingAnalytics struct {
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (b *blockingAnalytics) RefreshAll(ctx context.Context) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return nil
}

func TestScheduler_RefreshCatalog_SecondCallWhileRunningReturnsAlreadyRunning(t *testing.T) {
	store := catalog.NewStore(0)
	orch := orchestrator.New(nil, store, 100)
	s := New(DefaultConfig(), orch, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		s.mu.Lock()
		s.catalogRunning = true
		s.mu.Unlock()
		close(started)
		<-release
		s.mu.Lock()
		s.catalogRunning = false
		s.mu.Unlock()
	}()
	<-started

	_, err := s.RefreshCatalog(context.Background(), false)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	close(release)
}

func TestScheduler_RefreshAnalytics_SecondCallWhileRunningReturnsAlreadyRunning(t *testing.T) {
	store := catalog.NewStore(0)
	orch := orchestrator.New(nil, store, 100)
	a := &blockingAnalytics{release: make(chan struct{})}
	s := New(DefaultConfig(), orch, a)

	done := make(chan error, 1)
	go func() {
		_, err := s.RefreshAnalytics(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return s.GetStatus().AnalyticsRunning
	}, time.Second, time.Millisecond)

	_, err := s.RefreshAnalytics(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(a.release)
	require.NoError(t, <-done)
}

func TestScheduler_RefreshCatalog_ForcePassesThroughToOrchestrator(t *testing.T) {
	store := catalog.NewStore(0)
	orch := orchestrator.New(nil, store, 100)
	s := New(DefaultConfig(), orch, nil)

	result, err := s.RefreshCatalog(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, KindCatalog, result.Kind)
	assert.True(t, result.Success)
}
