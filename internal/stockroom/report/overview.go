package report

import (
	"context"
	"sort"

	"github.com/medflow/stockroom/internal/stockroom/domain"
)

// OverviewFilter narrows the overview. Empty slices and nil bounds do not filter.
type OverviewFilter struct {
	StudyIDs        []int64      `json:"study_ids"`
	ProductIDs      []int64      `json:"product_ids"`
	ExpiryFrom      *domain.Date `json:"expiry_from"`
	ExpiryTo        *domain.Date `json:"expiry_to"`
	ZeroBalanceOnly bool         `json:"zero_balance_only"`
}

// hasExpiryRange reports whether an expiry range is active. An active range
// drops movements without expiry.
func (f OverviewFilter) hasExpiryRange() bool {
	return f.ExpiryFrom != nil || f.ExpiryTo != nil
}

// OverviewRow is the position of one balance key
type OverviewRow struct {
	StudyID      int64        `json:"study_id"`
	StudyName    string       `json:"study_name"`
	ProductID    int64        `json:"product_id"`
	ProductName  string       `json:"product_name"`
	Expiry       *domain.Date `json:"expiry"`
	Lot          *string      `json:"lot"`
	Entries      int          `json:"entries"`
	Exits        int          `json:"exits"`
	Balance      int          `json:"balance"`
	Light        Light        `json:"light"`
	DaysToExpiry *int         `json:"days_to_expiry,omitempty"`
}

// ExpiryDisplay formats the expiry as dd/mm/yyyy
func (r OverviewRow) ExpiryDisplay() string {
	return domain.DisplayDate(r.Expiry)
}

// Metrics are the totals over the displayed rows
type Metrics struct {
	TotalEntries int `json:"total_entries"`
	TotalExits   int `json:"total_exits"`
	Balance      int `json:"balance"`
}

// Overview is the stock position report
type Overview struct {
	Rows     []OverviewRow `json:"rows"`
	Metrics  Metrics       `json:"metrics"`
	Studies  []Option      `json:"studies"`
	Products []Option      `json:"products"`
}

// Overview groups movements by (study, product, expiry, lot) and sums entries,
// exits and balance per group. Rows are ordered by study, product, expiry and
// lot, with absent expiry or lot last.
func (s *Service) Overview(ctx context.Context, filter OverviewFilter) (*Overview, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	studies := newIDSet(filter.StudyIDs)
	products := newIDSet(filter.ProductIDs)

	studyOptions := make(map[int64]string)
	productOptions := make(map[int64]string)
	groups := make(map[string]*OverviewRow)

	for i := range rows {
		r := &rows[i]
		studyOptions[r.StudyID] = r.StudyName
		productOptions[r.ProductID] = r.ProductName

		if !studies.pass(r.StudyID) || !products.pass(r.ProductID) {
			continue
		}
		if filter.hasExpiryRange() && (r.Expiry == nil || !inRange(*r.Expiry, filter.ExpiryFrom, filter.ExpiryTo)) {
			continue
		}

		key := r.Key().String()
		g, ok := groups[key]
		if !ok {
			g = &OverviewRow{
				StudyID:     r.StudyID,
				StudyName:   r.StudyName,
				ProductID:   r.ProductID,
				ProductName: r.ProductName,
				Expiry:      r.Expiry,
				Lot:         r.Lot,
				Light:       LightFor(r.Expiry, today),
			}
			if r.Expiry != nil {
				days := r.Expiry.DaysUntil(today)
				g.DaysToExpiry = &days
			}
			groups[key] = g
		}
		switch r.TransactionType {
		case domain.Entry:
			g.Entries += r.Quantity
		case domain.Exit:
			g.Exits += r.Quantity
		}
	}

	report := &Overview{
		Rows:     make([]OverviewRow, 0, len(groups)),
		Studies:  options(studyOptions),
		Products: options(productOptions),
	}
	for _, g := range groups {
		g.Balance = g.Entries - g.Exits
		if filter.ZeroBalanceOnly && g.Balance != 0 {
			continue
		}
		report.Rows = append(report.Rows, *g)
		report.Metrics.TotalEntries += g.Entries
		report.Metrics.TotalExits += g.Exits
		report.Metrics.Balance += g.Balance
	}

	c := newCollator()
	sort.Slice(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if cmp := c.CompareString(a.StudyName, b.StudyName); cmp != 0 {
			return cmp < 0
		}
		if cmp := c.CompareString(a.ProductName, b.ProductName); cmp != 0 {
			return cmp < 0
		}
		if cmp := compareOptionalDate(a.Expiry, b.Expiry); cmp != 0 {
			return cmp < 0
		}
		return compareOptionalString(c, a.Lot, b.Lot) < 0
	})

	return report, nil
}
