// Package catalog manages the reference data movements point at: studies,
// products and the three lookup lists.
package catalog

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/i18n"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/validation"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Service handles catalog business logic
type Service struct {
	store  store.Store
	logger *logger.Logger
}

// NewService creates a catalog service
func NewService(st store.Store, log *logger.Logger) *Service {
	return &Service{store: st, logger: log.WithComponent("catalog")}
}

// CreateProductRequest is the input of a new product
type CreateProductRequest struct {
	StudyID     int64  `json:"study_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"notblank,max=200"`
	ProductType string `json:"product_type" validate:"notblank"`
}

type nameRequest struct {
	Name string `json:"name" validate:"notblank,max=200"`
}

// newCollator returns a pt-BR collator. Collators keep internal buffers, so
// each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
}

// Studies

// ListStudies returns every study in pt-BR name order
func (s *Service) ListStudies(ctx context.Context) ([]domain.Study, error) {
	studies, err := s.store.ListStudies(ctx)
	if err != nil {
		return nil, err
	}
	c := newCollator()
	sort.SliceStable(studies, func(i, j int) bool {
		return c.CompareString(studies[i].Name, studies[j].Name) < 0
	})
	return studies, nil
}

// CreateStudy adds a study. Names are trimmed and unique.
func (s *Service) CreateStudy(ctx context.Context, name string) (*domain.Study, error) {
	name = strings.TrimSpace(name)
	if err := validation.Struct(nameRequest{Name: name}); err != nil {
		return nil, err
	}
	study, err := s.store.CreateStudy(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("study_id", study.ID).Str("name", name).Msg("study created")
	return study, nil
}

// DeleteStudy removes a study. Its products and movements are not touched.
func (s *Service) DeleteStudy(ctx context.Context, id int64) error {
	if err := s.store.DeleteStudy(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("study_id", id).Msg("study deleted")
	return nil
}

// Products

// ListProducts returns products with their study name, filtered and in pt-BR
// order of study then product
func (s *Service) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.ProductListing, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	c := newCollator()
	sort.SliceStable(products, func(i, j int) bool {
		if cmp := c.CompareString(products[i].StudyName, products[j].StudyName); cmp != 0 {
			return cmp < 0
		}
		return c.CompareString(products[i].Name, products[j].Name) < 0
	})
	return products, nil
}

// ProductsOfStudy returns the products of one study in name order
func (s *Service) ProductsOfStudy(ctx context.Context, studyID int64) ([]domain.ProductListing, error) {
	return s.ListProducts(ctx, store.ProductFilter{StudyID: studyID})
}

// CreateProduct adds a product to an existing study
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ProductType = strings.TrimSpace(req.ProductType)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetStudy(ctx, req.StudyID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Validation(map[string]string{"study_id": i18n.T("validation.unknown_study")})
		}
		return nil, err
	}

	p := &domain.Product{StudyID: req.StudyID, Name: req.Name, ProductType: req.ProductType}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("product_id", p.ID).Int64("study_id", p.StudyID).Str("name", p.Name).Msg("product created")
	return p, nil
}

// DeleteProduct removes a product that no movement references
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	count, err := s.store.CountMovementsByProduct(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.Conflict("errors.product_in_use", "product has movements", map[string]string{
			"count": strconv.Itoa(count),
		}).WithDetails(map[string]string{"movements": strconv.Itoa(count)})
	}

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

// Lookups

// ListLookups returns one reference list in pt-BR name order
func (s *Service) ListLookups(ctx context.Context, kind domain.LookupKind) ([]domain.LookupValue, error) {
	if !kind.Valid() {
		return nil, errors.NotFound("lookup")
	}
	values, err := s.store.ListLookups(ctx, kind)
	if err != nil {
		return nil, err
	}
	c := newCollator()
	sort.SliceStable(values, func(i, j int) bool {
		return c.CompareString(values[i].Name, values[j].Name) < 0
	})
	return values, nil
}

// CreateLookup adds a trimmed, unique value to a reference list
func (s *Service) CreateLookup(ctx context.Context, kind domain.LookupKind, name string) (*domain.LookupValue, error) {
	if !kind.Valid() {
		return nil, errors.NotFound("lookup")
	}
	name = strings.TrimSpace(name)
	if err := validation.Struct(nameRequest{Name: name}); err != nil {
		return nil, err
	}
	value, err := s.store.CreateLookup(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("kind", kind.Slug()).Int64("id", value.ID).Str("name", name).Msg("lookup value created")
	return value, nil
}

// DeleteLookup removes a value from a reference list
func (s *Service) DeleteLookup(ctx context.Context, kind domain.LookupKind, id int64) error {
	if !kind.Valid() {
		return errors.NotFound("lookup")
	}
	if err := s.store.DeleteLookup(ctx, kind, id); err != nil {
		return err
	}
	s.logger.Info().Str("kind", kind.Slug()).Int64("id", id).Msg("lookup value deleted")
	return nil
}
