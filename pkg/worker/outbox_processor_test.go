package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bookmed-api/internal/model"
	"github.com/jwalitptl/bookmed-api/internal/repository/memory"
	eventService "github.com/jwalitptl/bookmed-api/internal/service/event"
	"github.com/jwalitptl/bookmed-api/pkg/logger"
	"github.com/jwalitptl/bookmed-api/pkg/metrics"
)

var (
	testMetricsOnce sync.Once
	testMetrics     *metrics.Metrics
)

// promauto registers globally, so the test metrics are created once.
func sharedMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.NewMetrics("bookmed", "worker_test")
	})
	return testMetrics
}

type fakeBroker struct {
	mu        sync.Mutex
	published []string
	failures  int
}

func (b *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) channels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published...)
}

func newProcessor(repo *memory.OutboxRepository, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), sharedMetrics())
}

func emit(t *testing.T, repo *memory.OutboxRepository, eventType string) {
	t.Helper()
	svc := eventService.NewService(repo)
	require.NoError(t, svc.Emit(context.Background(), eventType, map[string]string{"id": "1"}))
}

func TestProcessEvents(t *testing.T) {
	repo := memory.NewOutboxRepository()
	broker := &fakeBroker{}
	p := newProcessor(repo, broker)

	emit(t, repo, model.EventAppointmentCreated)
	emit(t, repo, model.EventAppointmentCancelled)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, []string{model.EventAppointmentCreated, model.EventAppointmentCancelled}, broker.channels())
	for _, e := range repo.Events() {
		assert.Equal(t, string(model.OutboxStatusProcessed), e.Status)
		assert.NotNil(t, e.ProcessedAt)
	}

	// Processed events are not delivered again.
	require.NoError(t, p.processEvents(context.Background()))
	assert.Len(t, broker.channels(), 2)
}

func TestProcessEventsRetries(t *testing.T) {
	repo := memory.NewOutboxRepository()
	broker := &fakeBroker{failures: 2}
	p := newProcessor(repo, broker)

	emit(t, repo, model.EventAppointmentCreated)

	require.NoError(t, p.processEvents(context.Background()))

	// Two failures, third attempt lands.
	assert.Len(t, broker.channels(), 1)
	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, string(model.OutboxStatusProcessed), events[0].Status)
}

func TestProcessEventsMarksFailed(t *testing.T) {
	repo := memory.NewOutboxRepository()
	broker := &fakeBroker{failures: 100}
	p := newProcessor(repo, broker)

	emit(t, repo, model.EventAppointmentCreated)

	require.NoError(t, p.processEvents(context.Background()))

	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, string(model.OutboxStatusFailed), events[0].Status)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Equal(t, "broker unavailable", *events[0].ErrorMessage)
}
