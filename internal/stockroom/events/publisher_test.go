package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/messaging"
	"github.com/medflow/stockroom/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	f.calls++
	return fmt.Errorf("channel closed")
}

func TestMovementPublisher_Recorded(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := NewMovementPublisherWith(mock, logger.Nop())

	expiry := domain.NewDate(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC))
	m := &domain.Movement{ID: 9, TransactionType: domain.Exit, StudyID: 1, ProductID: 2, Quantity: 40, Expiry: &expiry, Actor: "admin"}
	p.PublishRecorded(context.Background(), m, 60)

	events := mock.Events()
	require.Len(t, events, 1)
	assert.Equal(t, messaging.EventMovementRecorded, events[0].Type)

	data, ok := events[0].Payload.(messaging.MovementEvent)
	require.True(t, ok)
	assert.Equal(t, int64(9), data.MovementID)
	assert.Equal(t, "Saída", data.TransactionType)
	require.NotNil(t, data.Expiry)
	assert.Equal(t, "2027-03-01", *data.Expiry)
	assert.Nil(t, data.Lot)
	require.NotNil(t, data.BalanceAfter)
	assert.Equal(t, 60, *data.BalanceAfter)
}

func TestMovementPublisher_UpdatedAndDeleted(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := NewMovementPublisherWith(mock, logger.Nop())

	p.PublishUpdated(context.Background(), &domain.Movement{ID: 3, Actor: "maria"}, "admin")
	p.PublishDeleted(context.Background(), 3, "admin")

	events := mock.Events()
	require.Len(t, events, 2)
	assert.Equal(t, messaging.EventMovementUpdated, events[0].Type)
	assert.Equal(t, "admin", events[0].Payload.(messaging.MovementEvent).Actor)
	assert.Equal(t, messaging.EventMovementDeleted, events[1].Type)
}

func TestMovementPublisher_NilAndFailuresAreSwallowed(t *testing.T) {
	var p *MovementPublisher
	assert.NotPanics(t, func() {
		p.PublishRecorded(context.Background(), &domain.Movement{}, 0)
		p.PublishDeleted(context.Background(), 1, "admin")
	})

	failing := &failingPublisher{}
	p = NewMovementPublisherWith(failing, logger.Nop())
	assert.NotPanics(t, func() {
		p.PublishUpdated(context.Background(), &domain.Movement{ID: 1}, "admin")
	})
	assert.Equal(t, 1, failing.calls)
}
