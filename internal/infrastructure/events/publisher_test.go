package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/events"
)

type fakeWriter struct {
	mu    sync.Mutex
	msgs  []kafka.Message
	err   error
	calls int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func notification() *entity.ChurnNotification {
	return &entity.ChurnNotification{
		ID:           "n1",
		ClientID:     "c1",
		ClientName:   "Acme",
		Kind:         entity.ChurnKindProduct,
		ProductSlug:  "seo",
		DistratoStep: entity.DistratoChurnSolicitado,
		MonthlyValue: decimal.RequireFromString("300.50"),
		CreatedBy:    "u1",
		CreatedAt:    time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishChurn_MensajeConKeyDelCliente(t *testing.T) {
	w := &fakeWriter{}
	p := events.NewPublisher(w)

	require.NoError(t, p.PublishChurn(context.Background(), notification()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "c1", string(w.msgs[0].Key))

	var ev events.ChurnEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "product", ev.Kind)
	assert.Equal(t, "seo", ev.ProductSlug)
	assert.Equal(t, "churn_solicitado", ev.DistratoStep)
	assert.True(t, decimal.RequireFromString("300.5").Equal(ev.MonthlyValue))
}

func TestPublishChurn_BreakerAbreTrasFallos(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	p := events.NewPublisher(w)

	for i := 0; i < 5; i++ {
		assert.Error(t, p.PublishChurn(context.Background(), notification()))
	}
	assert.Equal(t, gobreaker.StateOpen.String(), p.State())

	err := p.PublishChurn(context.Background(), notification())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, w.calls, "con el breaker abierto no se llama al broker")
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, events.NopPublisher{}.PublishChurn(context.Background(), notification()))
}
