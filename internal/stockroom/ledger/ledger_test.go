package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/events"
	"github.com/medflow/stockroom/internal/stockroom/stocktest"
	"github.com/medflow/stockroom/internal/stockroom/store/sqlstore"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/messaging"
	"github.com/medflow/stockroom/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *sqlstore.Store
	svc       *Service
	events    *testutil.MockPublisher
	study     *domain.Study
	product   *domain.Product
	countRows func() int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := stocktest.NewStore(t)
	mock := testutil.NewMockPublisher()
	svc := NewService(st, events.NewMovementPublisherWith(mock, logger.Nop()), logger.Nop())

	study := stocktest.Study(t, st, "S1")
	product := stocktest.Product(t, st, study.ID, "Paracetamol", "Comprimido")

	return &fixture{
		store:   st,
		svc:     svc,
		events:  mock,
		study:   study,
		product: product,
		countRows: func() int {
			n, err := st.CountMovementsByProduct(context.Background(), product.ID)
			require.NoError(t, err)
			return n
		},
	}
}

func (f *fixture) key() domain.Key {
	return domain.Key{StudyID: f.study.ID, ProductID: f.product.ID}
}

func (f *fixture) request(tt domain.TransactionType, qty int) RecordRequest {
	return RecordRequest{TransactionType: tt, StudyID: f.study.ID, ProductID: f.product.ID, Quantity: qty}
}

func (f *fixture) balance(t *testing.T, key domain.Key) int {
	t.Helper()
	b, err := f.svc.Balance(context.Background(), key)
	require.NoError(t, err)
	return b
}

func TestLedger_ParacetamolScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.RecordMovement(ctx, "admin", f.request(domain.Entry, 100))
	require.NoError(t, err)
	assert.Equal(t, 100, f.balance(t, f.key()))

	_, err = f.svc.RecordMovement(ctx, "admin", f.request(domain.Exit, 40))
	require.NoError(t, err)
	assert.Equal(t, 60, f.balance(t, f.key()))

	_, err = f.svc.RecordMovement(ctx, "admin", f.request(domain.Exit, 70))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 60, f.balance(t, f.key()))
	assert.Equal(t, 2, f.countRows())

	_, err = f.svc.UpdateMovement(ctx, "admin", entry.ID, UpdateRequest{
		Date:            entry.Date,
		TransactionType: domain.Entry,
		Quantity:        50,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, f.balance(t, f.key()))
}

func TestBalance_UnseenKeyIsZero(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.balance(t, f.key()))
	assert.Equal(t, 0, f.balance(t, domain.Key{StudyID: 99, ProductID: 99}))
}

func TestBalance_EntriesOnlySum(t *testing.T) {
	f := newFixture(t)
	total := 0
	for _, q := range []int{3, 7, 11, 29} {
		_, err := f.svc.RecordMovement(context.Background(), "admin", f.request(domain.Entry, q))
		require.NoError(t, err)
		total += q
	}
	assert.Equal(t, total, f.balance(t, f.key()))
}

func TestBalance_AbsentPartsAreTheirOwnKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withLot := f.request(domain.Entry, 5)
	withLot.Lot = stocktest.Ptr("L1")
	_, err := f.svc.RecordMovement(ctx, "admin", withLot)
	require.NoError(t, err)

	withExpiry := f.request(domain.Entry, 7)
	withExpiry.Expiry = stocktest.Date(t, "2027-01-31")
	_, err = f.svc.RecordMovement(ctx, "admin", withExpiry)
	require.NoError(t, err)

	_, err = f.svc.RecordMovement(ctx, "admin", f.request(domain.Entry, 10))
	require.NoError(t, err)

	assert.Equal(t, 10, f.balance(t, f.key()))

	lotKey := f.key()
	lotKey.Lot = stocktest.Ptr("L1")
	assert.Equal(t, 5, f.balance(t, lotKey))

	expiryKey := f.key()
	expiryKey.Expiry = stocktest.Date(t, "2027-01-31")
	assert.Equal(t, 7, f.balance(t, expiryKey))

	blank := f.key()
	blank.Lot = stocktest.Ptr("   ")
	assert.Equal(t, 10, f.balance(t, blank))

	// 10 units exist without lot, but only 5 under L1
	exit := f.request(domain.Exit, 6)
	exit.Lot = stocktest.Ptr("L1")
	_, err = f.svc.RecordMovement(ctx, "admin", exit)
	assert.True(t, errors.IsValidation(err))
}

func TestRecordMovement_ExitRejectionCarriesBalanceAndKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request(domain.Entry, 20)
	req.Lot = stocktest.Ptr("A7")
	_, err := f.svc.RecordMovement(ctx, "admin", req)
	require.NoError(t, err)

	req.TransactionType = domain.Exit
	req.Quantity = 21
	_, err = f.svc.RecordMovement(ctx, "admin", req)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "errors.exit_exceeds_balance", appErr.MessageKey)
	assert.Equal(t, "21", appErr.Params["quantity"])
	assert.Equal(t, "20", appErr.Params["balance"])
	assert.Equal(t, "Paracetamol", appErr.Params["product"])
	assert.Equal(t, "—", appErr.Params["expiry"])
	assert.Equal(t, "A7", appErr.Params["lot"])
	assert.Equal(t, "20", appErr.Details["balance"])
}

func TestRecordMovement_ExitOfWholeBalanceIsAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordMovement(ctx, "admin", f.request(domain.Entry, 15))
	require.NoError(t, err)
	_, err = f.svc.RecordMovement(ctx, "admin", f.request(domain.Exit, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, f.balance(t, f.key()))

	_, err = f.svc.RecordMovement(ctx, "admin", f.request(domain.Exit, 1))
	assert.True(t, errors.IsValidation(err))
}

func TestRecordMovement_Validation(t *testing.T) {
	f := newFixture(t)
	other := stocktest.Study(t, f.store, "S2")
	foreign := stocktest.Product(t, f.store, other.ID, "Dipirona", "Gotas")

	tests := []struct {
		name   string
		mutate func(r *RecordRequest)
		field  string
	}{
		{"zero quantity", func(r *RecordRequest) { r.Quantity = 0 }, "quantity"},
		{"negative quantity", func(r *RecordRequest) { r.Quantity = -3 }, "quantity"},
		{"quantity above column range", func(r *RecordRequest) { r.Quantity = math.MaxInt32 + 1 }, "quantity"},
		{"unknown transaction type", func(r *RecordRequest) { r.TransactionType = "Ajuste" }, "transaction_type"},
		{"missing study", func(r *RecordRequest) { r.StudyID = 0 }, "study_id"},
		{"unknown study", func(r *RecordRequest) { r.StudyID = 999 }, "study_id"},
		{"unknown product", func(r *RecordRequest) { r.ProductID = 999 }, "product_id"},
		{"product of another study", func(r *RecordRequest) { r.ProductID = foreign.ID }, "product_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(domain.Entry, 10)
			tt.mutate(&req)

			_, err := f.svc.RecordMovement(context.Background(), "admin", req)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Details, tt.field)
		})
	}
	assert.Equal(t, 0, f.countRows())
	f.events.AssertNoEventsPublished(t)
}

func TestRecordMovement_SnapshotsAndNormalizes(t *testing.T) {
	f := newFixture(t)
	fixed := domain.NewDate(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	f.svc.today = func() domain.Date { return fixed }

	req := f.request(domain.Entry, 12)
	req.Lot = stocktest.Ptr("  ")
	req.Expiry = &domain.Date{}
	req.Remarks = stocktest.Ptr("  caixa danificada ")
	req.Location = stocktest.Ptr("")

	m, err := f.svc.RecordMovement(context.Background(), "maria", req)
	require.NoError(t, err)

	stored, err := f.svc.GetMovement(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", stored.Date.String())
	assert.Equal(t, "Comprimido", stored.ProductType)
	assert.Equal(t, "maria", stored.Actor)
	assert.Nil(t, stored.Lot)
	assert.Nil(t, stored.Expiry)
	assert.Nil(t, stored.Location)
	require.NotNil(t, stored.Remarks)
	assert.Equal(t, "caixa danificada", *stored.Remarks)
}

func TestUpdateMovement_KeepsActorAndRequiresDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.RecordMovement(ctx, "maria", f.request(domain.Entry, 10))
	require.NoError(t, err)

	_, err = f.svc.UpdateMovement(ctx, "admin", m.ID, UpdateRequest{TransactionType: domain.Entry, Quantity: 5})
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.UpdateMovement(ctx, "admin", m.ID, UpdateRequest{Date: m.Date, TransactionType: domain.Entry, Quantity: 0})
	assert.True(t, errors.IsValidation(err))

	updated, err := f.svc.UpdateMovement(ctx, "admin", m.ID, UpdateRequest{
		Date:            *stocktest.Date(t, "2026-01-02"),
		TransactionType: domain.Exit,
		Quantity:        4,
		Lot:             stocktest.Ptr("B2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "maria", updated.Actor)

	stored, err := f.svc.GetMovement(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Exit, stored.TransactionType)
	assert.Equal(t, "2026-01-02", stored.Date.String())
	assert.Equal(t, "maria", stored.Actor)

	_, err = f.svc.UpdateMovement(ctx, "admin", 9999, UpdateRequest{Date: m.Date, TransactionType: domain.Entry, Quantity: 1})
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.RecordMovement(ctx, "admin", f.request(domain.Entry, 10))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMovement(ctx, "admin", m.ID))
	assert.Equal(t, 0, f.countRows())
	assert.True(t, errors.IsNotFound(f.svc.DeleteMovement(ctx, "admin", m.ID)))
}

func TestKeyOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, row := range []struct {
		expiry string
		lot    string
	}{
		{"2027-05-01", "L2"},
		{"2026-12-31", "L1"},
		{"2027-05-01", "L1"},
		{"", ""},
	} {
		req := f.request(domain.Entry, 1)
		if row.expiry != "" {
			req.Expiry = stocktest.Date(t, row.expiry)
		}
		req.Lot = stocktest.Ptr(row.lot)
		_, err := f.svc.RecordMovement(ctx, "admin", req)
		require.NoError(t, err)
	}

	opts, err := f.svc.KeyOptions(ctx, f.study.ID, f.product.ID)
	require.NoError(t, err)
	require.Len(t, opts.Expiries, 2)
	assert.Equal(t, "2026-12-31", opts.Expiries[0].String())
	assert.Equal(t, "2027-05-01", opts.Expiries[1].String())
	assert.Equal(t, []string{"L1", "L2"}, opts.Lots)

	empty, err := f.svc.KeyOptions(ctx, f.study.ID, 12345)
	require.NoError(t, err)
	assert.Empty(t, empty.Expiries)
	assert.Empty(t, empty.Lots)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	ctx := messaging.WithCorrelationID(context.Background(), "req-42")

	m, err := f.svc.RecordMovement(ctx, "admin", f.request(domain.Entry, 30))
	require.NoError(t, err)
	_, err = f.svc.RecordMovement(ctx, "admin", f.request(domain.Exit, 31))
	require.Error(t, err)

	recorded := f.events.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, messaging.EventMovementRecorded, recorded[0].Type)
	assert.Equal(t, "req-42", recorded[0].CorrelationID)
	data := recorded[0].Payload.(messaging.MovementEvent)
	require.NotNil(t, data.BalanceAfter)
	assert.Equal(t, 30, *data.BalanceAfter)

	require.NoError(t, f.svc.DeleteMovement(ctx, "admin", m.ID))
	f.events.AssertEventPublished(t, messaging.EventMovementDeleted)
}

func TestService_WithoutPublisher(t *testing.T) {
	st := stocktest.NewStore(t)
	svc := NewService(st, nil, logger.Nop())
	study := stocktest.Study(t, st, "S1")
	product := stocktest.Product(t, st, study.ID, "Soro", "Bolsa")

	_, err := svc.RecordMovement(context.Background(), "admin", RecordRequest{
		TransactionType: domain.Entry, StudyID: study.ID, ProductID: product.ID, Quantity: 1,
	})
	assert.NoError(t, err)
}
