package sqlstore

import (
	"context"
	"strings"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/database"
)

// ListStudies returns every study ordered by name
func (s *Store) ListStudies(ctx context.Context) ([]domain.Study, error) {
	var studies []domain.Study
	if err := s.selectAll(ctx, &studies, `SELECT id, nome FROM estudos ORDER BY nome`); err != nil {
		return nil, database.MapError(err, "study", "list studies")
	}
	return studies, nil
}

// GetStudy retrieves a study by ID
func (s *Store) GetStudy(ctx context.Context, id int64) (*domain.Study, error) {
	var study domain.Study
	if err := s.get(ctx, &study, `SELECT id, nome FROM estudos WHERE id = ?`, id); err != nil {
		return nil, database.MapError(err, "study", "get study")
	}
	return &study, nil
}

// CreateStudy inserts a study
func (s *Store) CreateStudy(ctx context.Context, name string) (*domain.Study, error) {
	study := domain.Study{Name: name}
	if err := s.get(ctx, &study.ID, `INSERT INTO estudos (nome) VALUES (?) RETURNING id`, name); err != nil {
		return nil, database.MapError(err, "study", "create study")
	}
	return &study, nil
}

// DeleteStudy removes a study. Products and movements are left in place.
func (s *Store) DeleteStudy(ctx context.Context, id int64) error {
	return s.execOne(ctx, "study", "delete study", `DELETE FROM estudos WHERE id = ?`, id)
}

// ListProducts returns products joined with their study name
func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.ProductListing, error) {
	query := `
		SELECT p.id, p.estudo_id, p.nome, COALESCE(p.tipo_produto, '') AS tipo_produto,
		       COALESCE(e.nome, '') AS estudo_nome
		FROM produtos p
		LEFT JOIN estudos e ON e.id = p.estudo_id
		WHERE 1 = 1`
	var args []interface{}

	if filter.StudyID != 0 {
		query += ` AND p.estudo_id = ?`
		args = append(args, filter.StudyID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += ` AND LOWER(p.nome) LIKE ?`
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += ` ORDER BY estudo_nome, p.nome`

	var products []domain.ProductListing
	if err := s.selectAll(ctx, &products, query, args...); err != nil {
		return nil, database.MapError(err, "product", "list products")
	}
	return products, nil
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	err := s.get(ctx, &product, `
		SELECT id, estudo_id, nome, COALESCE(tipo_produto, '') AS tipo_produto
		FROM produtos WHERE id = ?`, id)
	if err != nil {
		return nil, database.MapError(err, "product", "get product")
	}
	return &product, nil
}

// CreateProduct inserts a product and sets its ID
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	err := s.get(ctx, &p.ID, `
		INSERT INTO produtos (estudo_id, nome, tipo_produto) VALUES (?, ?, ?) RETURNING id`,
		p.StudyID, p.Name, p.ProductType)
	return database.MapError(err, "product", "create product")
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.execOne(ctx, "product", "delete product", `DELETE FROM produtos WHERE id = ?`, id)
}

// ListLookups returns the values of one reference list ordered by name
func (s *Store) ListLookups(ctx context.Context, kind domain.LookupKind) ([]domain.LookupValue, error) {
	var values []domain.LookupValue
	if err := s.selectAll(ctx, &values, `SELECT id, nome FROM `+kind.Table()+` ORDER BY nome`); err != nil {
		return nil, database.MapError(err, "lookup", "list "+kind.Table())
	}
	return values, nil
}

// CreateLookup inserts a value into one reference list
func (s *Store) CreateLookup(ctx context.Context, kind domain.LookupKind, name string) (*domain.LookupValue, error) {
	value := domain.LookupValue{Name: name}
	if err := s.get(ctx, &value.ID, `INSERT INTO `+kind.Table()+` (nome) VALUES (?) RETURNING id`, name); err != nil {
		return nil, database.MapError(err, "lookup", "create "+kind.Table())
	}
	return &value, nil
}

// DeleteLookup removes a value from one reference list
func (s *Store) DeleteLookup(ctx context.Context, kind domain.LookupKind, id int64) error {
	return s.execOne(ctx, "lookup", "delete "+kind.Table(), `DELETE FROM `+kind.Table()+` WHERE id = ?`, id)
}
