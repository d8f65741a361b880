// Package store defines the storage contract shared by every backend.
//
// Implementations return *errors.AppError values: NotFound for missing rows,
// Conflict for unique violations and Backend for connectivity or query failures.
package store

import (
	"context"

	"github.com/medflow/stockroom/internal/stockroom/domain"
)

// Table names
const (
	TableStudies   = "estudos"
	TableProducts  = "produtos"
	TableMovements = "movimentacoes"
	TableUsers     = "users"
)

// StudyRepository persists studies
type StudyRepository interface {
	ListStudies(ctx context.Context) ([]domain.Study, error)
	GetStudy(ctx context.Context, id int64) (*domain.Study, error)
	CreateStudy(ctx context.Context, name string) (*domain.Study, error)
	DeleteStudy(ctx context.Context, id int64) error
}

// ProductFilter narrows ListProducts. Zero values do not filter.
type ProductFilter struct {
	StudyID int64
	Search  string
}

// ProductRepository persists products
type ProductRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.ProductListing, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// LookupRepository persists the three reference lists
type LookupRepository interface {
	ListLookups(ctx context.Context, kind domain.LookupKind) ([]domain.LookupValue, error)
	CreateLookup(ctx context.Context, kind domain.LookupKind, name string) (*domain.LookupValue, error)
	DeleteLookup(ctx context.Context, kind domain.LookupKind, id int64) error
}

// MovementRepository persists the ledger
type MovementRepository interface {
	// ListMovements returns every movement, newest first
	ListMovements(ctx context.Context) ([]domain.Movement, error)
	GetMovement(ctx context.Context, id int64) (*domain.Movement, error)
	// InsertMovement appends m and sets its ID
	InsertMovement(ctx context.Context, m *domain.Movement) error
	UpdateMovement(ctx context.Context, m *domain.Movement) error
	DeleteMovement(ctx context.Context, id int64) error
	CountMovementsByProduct(ctx context.Context, productID int64) (int, error)
	ListMovementsForProduct(ctx context.Context, studyID, productID int64) ([]domain.Movement, error)
	// Balance sums entries minus exits over movements matching key exactly
	Balance(ctx context.Context, key domain.Key) (int, error)
}

// UserRepository persists login accounts
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// Store is the single storage interface selected by configuration at startup
type Store interface {
	StudyRepository
	ProductRepository
	LookupRepository
	MovementRepository
	UserRepository

	// WithKeyLock runs fn so that balance reads and inserts for key made through
	// the ctx passed to fn are serialized against other callers, where the
	// backend is able to do so.
	WithKeyLock(ctx context.Context, key domain.Key, fn func(ctx context.Context) error) error

	Health(ctx context.Context) map[string]string
	Close() error
}

// SumBalance folds movements matching key into a balance. Backends without a
// server-side aggregate use it over the rows they fetched.
func SumBalance(key domain.Key, movements []domain.Movement) int {
	balance := 0
	for i := range movements {
		if key.Matches(&movements[i]) {
			balance += movements[i].Signed()
		}
	}
	return balance
}
