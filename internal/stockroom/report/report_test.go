package report

import (
	"context"
	"net/url"
	"testing"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/stocktest"
	"github.com/medflow/stockroom/internal/stockroom/store/sqlstore"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seeded struct {
	store       *sqlstore.Store
	svc         *Service
	s1, s2      *domain.Study
	paracetamol *domain.Product
	dipirona    *domain.Product
	soro        *domain.Product
}

// seed builds a small ledger dated against 2026-01-01
func seed(t *testing.T) *seeded {
	t.Helper()
	st := stocktest.NewStore(t)
	svc := NewService(st, logger.Nop())
	today := *stocktest.Date(t, "2026-01-01")
	svc.today = func() domain.Date { return today }

	s1 := stocktest.Study(t, st, "S1")
	s2 := stocktest.Study(t, st, "S2")
	d := &seeded{
		store:       st,
		svc:         svc,
		s1:          s1,
		s2:          s2,
		paracetamol: stocktest.Product(t, st, s1.ID, "Paracetamol", "Comprimido"),
		dipirona:    stocktest.Product(t, st, s1.ID, "Dipirona", "Gotas"),
		soro:        stocktest.Product(t, st, s2.ID, "Soro", "Bolsa"),
	}

	mv := func(p *domain.Product, tt domain.TransactionType, qty int, expiry, lot, actor string) {
		m := domain.Movement{TransactionType: tt, StudyID: p.StudyID, ProductID: p.ID, Quantity: qty, Actor: actor}
		if expiry != "" {
			m.Expiry = stocktest.Date(t, expiry)
		}
		if lot != "" {
			m.Lot = stocktest.Ptr(lot)
		}
		stocktest.Movement(t, st, m)
	}

	mv(d.paracetamol, domain.Entry, 100, "", "", "admin")
	mv(d.paracetamol, domain.Exit, 40, "", "", "maria")
	mv(d.paracetamol, domain.Entry, 10, "2025-12-20", "L1", "admin")
	mv(d.paracetamol, domain.Entry, 5, "2026-01-20", "L2", "maria")
	mv(d.dipirona, domain.Entry, 8, "2026-02-15", "", "admin")
	mv(d.dipirona, domain.Exit, 8, "2026-02-15", "", "admin")
	mv(d.soro, domain.Entry, 3, "2026-03-20", "B1", "joao")
	mv(d.soro, domain.Entry, 4, "2026-06-01", "B2", "joao")
	return d
}

func TestLightFor(t *testing.T) {
	today := *stocktest.Date(t, "2026-01-01")
	tests := []struct {
		expiry string
		want   Light
	}{
		{"2025-12-31", LightRed},
		{"2026-01-01", LightOrange},
		{"2026-01-31", LightOrange},
		{"2026-02-01", LightYellow},
		{"2026-03-02", LightYellow},
		{"2026-03-03", LightBlue},
		{"2026-04-01", LightBlue},
		{"2026-04-02", LightGreen},
	}
	for _, tt := range tests {
		t.Run(tt.expiry, func(t *testing.T) {
			assert.Equal(t, tt.want, LightFor(stocktest.Date(t, tt.expiry), today))
		})
	}
	assert.Equal(t, LightNone, LightFor(nil, today))
	assert.Equal(t, "🔴", LightRed.Emoji())
	assert.Empty(t, LightNone.Emoji())
}

func TestOverview_GroupsAndSorts(t *testing.T) {
	d := seed(t)

	report, err := d.svc.Overview(context.Background(), OverviewFilter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 6)

	// S1: Dipirona, then Paracetamol by expiry with the undated key last
	r := report.Rows
	assert.Equal(t, "Dipirona", r[0].ProductName)
	assert.Equal(t, 0, r[0].Balance)
	assert.Equal(t, LightYellow, r[0].Light)

	assert.Equal(t, "Paracetamol", r[1].ProductName)
	assert.Equal(t, "L1", *r[1].Lot)
	assert.Equal(t, LightRed, r[1].Light)
	assert.Equal(t, "20/12/2025", r[1].ExpiryDisplay())
	require.NotNil(t, r[1].DaysToExpiry)
	assert.Equal(t, -12, *r[1].DaysToExpiry)

	assert.Equal(t, "L2", *r[2].Lot)
	assert.Equal(t, LightOrange, r[2].Light)

	assert.Nil(t, r[3].Expiry)
	assert.Equal(t, 100, r[3].Entries)
	assert.Equal(t, 40, r[3].Exits)
	assert.Equal(t, 60, r[3].Balance)
	assert.Equal(t, LightNone, r[3].Light)
	assert.Equal(t, "—", r[3].ExpiryDisplay())

	assert.Equal(t, "S2", r[4].StudyName)
	assert.Equal(t, LightBlue, r[4].Light)
	assert.Equal(t, LightGreen, r[5].Light)

	assert.Equal(t, Metrics{TotalEntries: 130, TotalExits: 48, Balance: 82}, report.Metrics)
	assert.Len(t, report.Studies, 2)
	assert.Len(t, report.Products, 3)
}

func TestOverview_Filters(t *testing.T) {
	d := seed(t)
	ctx := context.Background()

	byStudy, err := d.svc.Overview(ctx, OverviewFilter{StudyIDs: []int64{d.s2.ID}})
	require.NoError(t, err)
	assert.Len(t, byStudy.Rows, 2)
	assert.Equal(t, 7, byStudy.Metrics.Balance)
	assert.Len(t, byStudy.Studies, 2, "options ignore the filters")

	byProduct, err := d.svc.Overview(ctx, OverviewFilter{ProductIDs: []int64{d.paracetamol.ID, d.dipirona.ID}})
	require.NoError(t, err)
	assert.Len(t, byProduct.Rows, 4)

	zero, err := d.svc.Overview(ctx, OverviewFilter{ZeroBalanceOnly: true})
	require.NoError(t, err)
	require.Len(t, zero.Rows, 1)
	assert.Equal(t, "Dipirona", zero.Rows[0].ProductName)
	assert.Equal(t, Metrics{TotalEntries: 8, TotalExits: 8}, zero.Metrics)

	ranged, err := d.svc.Overview(ctx, OverviewFilter{
		ExpiryFrom: stocktest.Date(t, "2026-01-01"),
		ExpiryTo:   stocktest.Date(t, "2026-03-20"),
	})
	require.NoError(t, err)
	require.Len(t, ranged.Rows, 3)
	for _, row := range ranged.Rows {
		require.NotNil(t, row.Expiry)
	}
}

func TestOverview_EmptyLedger(t *testing.T) {
	st := stocktest.NewStore(t)
	report, err := NewService(st, logger.Nop()).Overview(context.Background(), OverviewFilter{})
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.Equal(t, Metrics{}, report.Metrics)
}

func TestMovementLog(t *testing.T) {
	d := seed(t)
	ctx := context.Background()

	all, err := d.svc.MovementLog(ctx, LogFilter{})
	require.NoError(t, err)
	require.Len(t, all.Rows, 8)
	assert.Greater(t, all.Rows[0].ID, all.Rows[1].ID, "newest first")
	assert.Equal(t, "Soro", all.Rows[0].ProductName)
	assert.Equal(t, []string{"admin", "joao", "maria"}, all.Options.Actors)
	assert.Equal(t, []string{"B1", "B2", "L1", "L2"}, all.Options.Lots)

	byActor, err := d.svc.MovementLog(ctx, LogFilter{Actors: []string{"maria"}})
	require.NoError(t, err)
	assert.Len(t, byActor.Rows, 2)
	assert.Equal(t, []string{"L2"}, byActor.Options.Lots)

	dated, err := d.svc.MovementLog(ctx, LogFilter{ExcludeNoExpiry: true})
	require.NoError(t, err)
	assert.Len(t, dated.Rows, 6)

	ranged, err := d.svc.MovementLog(ctx, LogFilter{
		ExpiryFrom: stocktest.Date(t, "2026-01-01"),
		ExpiryTo:   stocktest.Date(t, "2026-02-28"),
	})
	require.NoError(t, err)
	// 2 undated + L2 + the two Dipirona rows
	assert.Len(t, ranged.Rows, 5)

	byLot, err := d.svc.MovementLog(ctx, LogFilter{Lots: []string{"B2", "L1"}})
	require.NoError(t, err)
	require.Len(t, byLot.Rows, 2)

	byStudy, err := d.svc.MovementLog(ctx, LogFilter{StudyIDs: []int64{d.s1.ID}, ProductIDs: []int64{d.dipirona.ID}})
	require.NoError(t, err)
	assert.Len(t, byStudy.Rows, 2)
}

func TestMovementLog_KeepsOrphans(t *testing.T) {
	d := seed(t)
	require.NoError(t, d.store.DeleteStudy(context.Background(), d.s2.ID))

	log, err := d.svc.MovementLog(context.Background(), LogFilter{})
	require.NoError(t, err)
	assert.Len(t, log.Rows, 8)
	assert.Empty(t, log.Rows[0].StudyName)
	assert.Len(t, log.Options.Studies, 1)
}

func TestParseFilters(t *testing.T) {
	values := url.Values{
		"study_id":          {"1", "2"},
		"product_id":        {"3"},
		"expiry_from":       {"2026-01-01"},
		"zero_balance":      {"on"},
		"actor":             {"ana", " "},
		"lot":               {"L1"},
		"exclude_no_expiry": {"true"},
	}

	of, err := ParseOverviewFilter(values)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, of.StudyIDs)
	assert.Equal(t, []int64{3}, of.ProductIDs)
	require.NotNil(t, of.ExpiryFrom)
	assert.Equal(t, "2026-01-01", of.ExpiryFrom.String())
	assert.Nil(t, of.ExpiryTo)
	assert.True(t, of.ZeroBalanceOnly)

	lf, err := ParseLogFilter(values)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana"}, lf.Actors)
	assert.Equal(t, []string{"L1"}, lf.Lots)
	assert.True(t, lf.ExcludeNoExpiry)

	_, err = ParseOverviewFilter(url.Values{"expiry_to": {"31/12/2026"}})
	assert.True(t, errors.IsValidation(err))
}
