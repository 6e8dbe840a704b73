// Package events publica las notificaciones de churn hacia el bus de mensajes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

var (
	_ ports.ChurnPublisher = (*KafkaPublisher)(nil)
	_ ports.ChurnPublisher = NopPublisher{}
)

// ChurnEvent payload JSON publicado por cada notificación de churn.
type ChurnEvent struct {
	NotificationID string          `json:"notification_id"`
	ClientID       string          `json:"client_id"`
	ClientName     string          `json:"client_name"`
	Kind           string          `json:"kind"` // global | product
	ProductSlug    string          `json:"product_slug,omitempty"`
	DistratoStep   string          `json:"distrato_step"`
	MonthlyValue   decimal.Decimal `json:"monthly_value"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewChurnEvent mapea la notificación al payload publicado.
func NewChurnEvent(n *entity.ChurnNotification) ChurnEvent {
	return ChurnEvent{
		NotificationID: n.ID,
		ClientID:       n.ClientID,
		ClientName:     n.ClientName,
		Kind:           n.Kind,
		ProductSlug:    string(n.ProductSlug),
		DistratoStep:   string(n.DistratoStep),
		MonthlyValue:   n.MonthlyValue,
		CreatedBy:      n.CreatedBy,
		CreatedAt:      n.CreatedAt,
	}
}

// MessageWriter es la parte de *kafka.Writer que usa el publicador.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica en un topic protegido por circuit breaker: con el broker caído
// las publicaciones fallan rápido en lugar de bloquear la respuesta HTTP.
type KafkaPublisher struct {
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewKafkaPublisher crea el writer del topic de churn.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

// NewPublisher permite inyectar el writer (tests).
func NewPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		breaker: NewCircuitBreaker("kafka-churn"),
		timeout: 3 * time.Second,
	}
}

// NewCircuitBreaker abre tras 5+ solicitudes con 60% de fallos; prueba de nuevo a los 10s.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
}

// PublishChurn publica la notificación con el client_id como key (orden por cliente).
func (p *KafkaPublisher) PublishChurn(ctx context.Context, n *entity.ChurnNotification) error {
	data, err := json.Marshal(NewChurnEvent(n))
	if err != nil {
		return fmt.Errorf("marshal churn event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(n.ClientID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
		Time: n.CreatedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish churn %s: %w", n.ID, err)
	}
	return nil
}

// State estado del circuit breaker (para /health).
func (p *KafkaPublisher) State() string {
	return p.breaker.State().String()
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher se usa cuando no hay brokers configurados; la fila persistida sigue siendo el registro.
type NopPublisher struct{}

// PublishChurn no hace nada.
func (NopPublisher) PublishChurn(context.Context, *entity.ChurnNotification) error { return nil }
