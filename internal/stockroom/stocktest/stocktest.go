// Package stocktest provides fixtures for tests that need a real store.
package stocktest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store/sqlstore"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/stretchr/testify/require"
)

// NewStore opens an empty SQLite store in a temp dir, closed on cleanup
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "estoque.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Study creates a study
func Study(t *testing.T, s *sqlstore.Store, name string) *domain.Study {
	t.Helper()
	study, err := s.CreateStudy(context.Background(), name)
	require.NoError(t, err)
	return study
}

// Product creates a product under study
func Product(t *testing.T, s *sqlstore.Store, studyID int64, name, productType string) *domain.Product {
	t.Helper()
	p := &domain.Product{StudyID: studyID, Name: name, ProductType: productType}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

// Movement inserts a movement directly, bypassing the balance rule
func Movement(t *testing.T, s *sqlstore.Store, m domain.Movement) *domain.Movement {
	t.Helper()
	if m.Date.IsZero() {
		m.Date = domain.Today()
	}
	if m.Actor == "" {
		m.Actor = "admin"
	}
	require.NoError(t, s.InsertMovement(context.Background(), &m))
	return &m
}

// Date parses YYYY-MM-DD or fails the test
func Date(t *testing.T, s string) *domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return &d
}

// Ptr returns a pointer to s
func Ptr(s string) *string {
	return &s
}
