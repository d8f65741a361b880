// Package report builds the read-side views: the stock overview grouped by
// balance key and the filterable movement log.
package report

import (
	"context"
	"sort"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/logger"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Source is the slice of the store reports read from
type Source interface {
	ListStudies(ctx context.Context) ([]domain.Study, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.ProductListing, error)
	ListMovements(ctx context.Context) ([]domain.Movement, error)
}

// Service builds reports
type Service struct {
	source Source
	logger *logger.Logger
	today  func() domain.Date
}

// NewService creates a report service
func NewService(source Source, log *logger.Logger) *Service {
	return &Service{source: source, logger: log.WithComponent("report"), today: domain.Today}
}

// Option is one selectable filter value
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// joined is a movement with its study and product names resolved
type joined struct {
	domain.Movement
	StudyName   string
	ProductName string
}

// load reads the ledger newest first and resolves names. Movements pointing at
// deleted studies or products keep empty names.
func (s *Service) load(ctx context.Context) ([]joined, error) {
	movements, err := s.source.ListMovements(ctx)
	if err != nil {
		return nil, err
	}
	studies, err := s.source.ListStudies(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.source.ListProducts(ctx, store.ProductFilter{})
	if err != nil {
		return nil, err
	}

	studyNames := make(map[int64]string, len(studies))
	for _, st := range studies {
		studyNames[st.ID] = st.Name
	}
	productNames := make(map[int64]string, len(products))
	for _, p := range products {
		productNames[p.ID] = p.Name
	}

	rows := make([]joined, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, joined{Movement: m, StudyName: studyNames[m.StudyID], ProductName: productNames[m.ProductID]})
	}
	return rows, nil
}

func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
}

// idSet is a multi-select filter; empty means everything passes
type idSet map[int64]bool

func newIDSet(ids []int64) idSet {
	set := make(idSet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (s idSet) pass(id int64) bool {
	return len(s) == 0 || s[id]
}

type stringSet map[string]bool

func newStringSet(values []string) stringSet {
	set := make(stringSet, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func (s stringSet) pass(v string) bool {
	return len(s) == 0 || s[v]
}

// inRange reports whether d lies in [from, to]; nil bounds are open
func inRange(d domain.Date, from, to *domain.Date) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

// options collects distinct named ids in pt-BR name order
func options(names map[int64]string) []Option {
	out := make([]Option, 0, len(names))
	for id, name := range names {
		if name == "" {
			continue
		}
		out = append(out, Option{ID: id, Name: name})
	}
	c := newCollator()
	sort.Slice(out, func(i, j int) bool {
		if cmp := c.CompareString(out[i].Name, out[j].Name); cmp != 0 {
			return cmp < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	c := newCollator()
	sort.Slice(out, func(i, j int) bool { return c.CompareString(out[i], out[j]) < 0 })
	return out
}

// compareOptionalDate orders present dates ascending with absent last
func compareOptionalDate(a, b *domain.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}

// compareOptionalString orders present strings ascending with absent last
func compareOptionalString(c *collate.Collator, a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return c.CompareString(*a, *b)
	}
}
