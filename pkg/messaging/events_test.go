package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	lot := "L-01"
	event, err := NewEvent(EventMovementRecorded, "stockroom", "req-1", MovementEvent{
		MovementID: 9, TransactionType: "Saída", Quantity: 5, Lot: &lot, Actor: "admin",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventMovementRecorded, event.Type)
	assert.Equal(t, "req-1", event.CorrelationID)

	var payload MovementEvent
	require.NoError(t, event.UnmarshalData(&payload))
	assert.Equal(t, int64(9), payload.MovementID)
	assert.Equal(t, "L-01", *payload.Lot)
	assert.Nil(t, payload.Expiry)
}
