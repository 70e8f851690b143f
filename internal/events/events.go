// Package events publica eventos de pedidos para consumidores externos.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated = "order.created"
	TypeOrderPaid    = "order.paid"
	TypeOrderDeleted = "order.deleted"
)

type Event struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	OrderID   uint           `json:"order_id"`
	UserID    uint           `json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// New preenche EventID e CreatedAt.
func New(typ string, orderID, userID uint, payload map[string]any) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      typ,
		OrderID:   orderID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

// Publisher é chamado depois do commit da transação que originou o evento.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop é usado quando nenhum broker está configurado.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
