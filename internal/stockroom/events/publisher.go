package events

import (
	"context"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/messaging"
)

// Publisher is the broker side of event publishing
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// MovementPublisher publishes ledger events. A nil *MovementPublisher is valid
// and drops every event, which is how a deployment without a broker runs.
type MovementPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewMovementPublisher declares the stockroom exchange and returns a publisher on it
func NewMovementPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*MovementPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockroomEvents, "stockroom", log)
	if err != nil {
		return nil, err
	}
	return NewMovementPublisherWith(publisher, log), nil
}

// NewMovementPublisherWith wraps any Publisher
func NewMovementPublisherWith(p Publisher, log *logger.Logger) *MovementPublisher {
	return &MovementPublisher{publisher: p, logger: log.WithComponent("events")}
}

// PublishRecorded publishes a movement recorded event
func (p *MovementPublisher) PublishRecorded(ctx context.Context, m *domain.Movement, balanceAfter int) {
	if p == nil {
		return
	}
	data := movementEvent(m)
	data.BalanceAfter = &balanceAfter
	p.publish(ctx, messaging.EventMovementRecorded, m.ID, data)
}

// PublishUpdated publishes a movement updated event
func (p *MovementPublisher) PublishUpdated(ctx context.Context, m *domain.Movement, editor string) {
	if p == nil {
		return
	}
	data := movementEvent(m)
	data.Actor = editor
	p.publish(ctx, messaging.EventMovementUpdated, m.ID, data)
}

// PublishDeleted publishes a movement deleted event
func (p *MovementPublisher) PublishDeleted(ctx context.Context, id int64, editor string) {
	if p == nil {
		return
	}
	p.publish(ctx, messaging.EventMovementDeleted, id, messaging.MovementEvent{MovementID: id, Actor: editor})
}

func (p *MovementPublisher) publish(ctx context.Context, eventType string, id int64, data messaging.MovementEvent) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.WithError(err).Error().Int64("movement_id", id).Str("event_type", eventType).Msg("failed to publish movement event")
	}
}

func movementEvent(m *domain.Movement) messaging.MovementEvent {
	data := messaging.MovementEvent{
		MovementID:      m.ID,
		TransactionType: string(m.TransactionType),
		StudyID:         m.StudyID,
		ProductID:       m.ProductID,
		Quantity:        m.Quantity,
		Lot:             m.Lot,
		Actor:           m.Actor,
	}
	if m.Expiry != nil {
		expiry := m.Expiry.String()
		data.Expiry = &expiry
	}
	return data
}
