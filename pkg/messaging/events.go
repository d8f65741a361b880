package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventMovementRecorded = "stockroom.movement.recorded"
	EventMovementUpdated  = "stockroom.movement.updated"
	EventMovementDeleted  = "stockroom.movement.deleted"
)

// ExchangeStockroomEvents is the topic exchange movement events are published to
const ExchangeStockroomEvents = "stockroom.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// MovementEvent is the payload of every movement event
type MovementEvent struct {
	MovementID      int64   `json:"movement_id"`
	TransactionType string  `json:"transaction_type,omitempty"`
	StudyID         int64   `json:"study_id,omitempty"`
	ProductID       int64   `json:"product_id,omitempty"`
	Quantity        int     `json:"quantity,omitempty"`
	Expiry          *string `json:"expiry,omitempty"`
	Lot             *string `json:"lot,omitempty"`
	Actor           string  `json:"actor"`
	BalanceAfter    *int    `json:"balance_after,omitempty"`
}
