package reststore

import (
	"context"
	"sort"
	"strings"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/config"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
)

var _ store.Store = (*Store)(nil)

// Store is the hosted table API backed store. The API has no transactions,
// so WithKeyLock cannot serialize concurrent writers.
type Store struct {
	client *Client
	logger *logger.Logger
}

// New creates a store for the configured endpoint
func New(cfg *config.RESTConfig, log *logger.Logger) *Store {
	client := NewClient(cfg.URL, cfg.Key, cfg.Timeout, cfg.RowLimit, log.WithComponent("reststore"))
	return NewWithClient(client, log)
}

// NewWithClient wraps an existing client
func NewWithClient(client *Client, log *logger.Logger) *Store {
	return &Store{client: client, logger: log.WithComponent("reststore")}
}

// first returns the only row of rows or NotFound
func first[T any](rows []T, resource string) (*T, error) {
	if len(rows) == 0 {
		return nil, errors.NotFound(resource)
	}
	return &rows[0], nil
}

// removed turns a zero delete count into NotFound
func removed(n int, err error, resource string) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

// ListStudies returns every study ordered by name
func (s *Store) ListStudies(ctx context.Context) ([]domain.Study, error) {
	var rows []studyRow
	if err := s.client.Get(ctx, store.TableStudies, Query{Order: "nome.asc"}, &rows); err != nil {
		return nil, err
	}
	studies := make([]domain.Study, 0, len(rows))
	for _, r := range rows {
		studies = append(studies, domain.Study{ID: r.ID, Name: r.Nome})
	}
	return studies, nil
}

// GetStudy retrieves a study by ID
func (s *Store) GetStudy(ctx context.Context, id int64) (*domain.Study, error) {
	var rows []studyRow
	if err := s.client.Get(ctx, store.TableStudies, Query{Filters: []Filter{Eq("id", id)}}, &rows); err != nil {
		return nil, err
	}
	row, err := first(rows, "study")
	if err != nil {
		return nil, err
	}
	return &domain.Study{ID: row.ID, Name: row.Nome}, nil
}

// CreateStudy inserts a study
func (s *Store) CreateStudy(ctx context.Context, name string) (*domain.Study, error) {
	var rows []studyRow
	if err := s.client.Insert(ctx, store.TableStudies, studyRow{Nome: name}, &rows); err != nil {
		return nil, err
	}
	row, err := first(rows, "study")
	if err != nil {
		return nil, err
	}
	return &domain.Study{ID: row.ID, Name: row.Nome}, nil
}

// DeleteStudy removes a study
func (s *Store) DeleteStudy(ctx context.Context, id int64) error {
	n, err := s.client.Delete(ctx, store.TableStudies, "id", id)
	return removed(n, err, "study")
}

// ListProducts joins study names client side and orders by study then product name
func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.ProductListing, error) {
	q := Query{Order: "nome.asc"}
	if filter.StudyID != 0 {
		q.Filters = append(q.Filters, Eq("estudo_id", filter.StudyID))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q.Filters = append(q.Filters, ILike("nome", search))
	}

	var rows []productRow
	if err := s.client.Get(ctx, store.TableProducts, q, &rows); err != nil {
		return nil, err
	}
	studies, err := s.ListStudies(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(studies))
	for _, st := range studies {
		names[st.ID] = st.Name
	}

	products := make([]domain.ProductListing, 0, len(rows))
	for _, r := range rows {
		products = append(products, domain.ProductListing{Product: r.toDomain(), StudyName: names[r.EstudoID]})
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].StudyName != products[j].StudyName {
			return products[i].StudyName < products[j].StudyName
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var rows []productRow
	if err := s.client.Get(ctx, store.TableProducts, Query{Filters: []Filter{Eq("id", id)}}, &rows); err != nil {
		return nil, err
	}
	row, err := first(rows, "product")
	if err != nil {
		return nil, err
	}
	p := row.toDomain()
	return &p, nil
}

// CreateProduct inserts a product and sets its ID
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	productType := p.ProductType
	var rows []productRow
	err := s.client.Insert(ctx, store.TableProducts, productRow{EstudoID: p.StudyID, Nome: p.Name, TipoProduto: &productType}, &rows)
	if err != nil {
		return err
	}
	row, err := first(rows, "product")
	if err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	n, err := s.client.Delete(ctx, store.TableProducts, "id", id)
	return removed(n, err, "product")
}

// ListLookups returns the values of one reference list ordered by name
func (s *Store) ListLookups(ctx context.Context, kind domain.LookupKind) ([]domain.LookupValue, error) {
	var rows []lookupRow
	if err := s.client.Get(ctx, kind.Table(), Query{Order: "nome.asc"}, &rows); err != nil {
		return nil, err
	}
	values := make([]domain.LookupValue, 0, len(rows))
	for _, r := range rows {
		values = append(values, domain.LookupValue{ID: r.ID, Name: r.Nome})
	}
	return values, nil
}

// CreateLookup inserts a value into one reference list
func (s *Store) CreateLookup(ctx context.Context, kind domain.LookupKind, name string) (*domain.LookupValue, error) {
	var rows []lookupRow
	if err := s.client.Insert(ctx, kind.Table(), lookupRow{Nome: name}, &rows); err != nil {
		return nil, err
	}
	row, err := first(rows, "lookup")
	if err != nil {
		return nil, err
	}
	return &domain.LookupValue{ID: row.ID, Name: row.Nome}, nil
}

// DeleteLookup removes a value from one reference list
func (s *Store) DeleteLookup(ctx context.Context, kind domain.LookupKind, id int64) error {
	n, err := s.client.Delete(ctx, kind.Table(), "id", id)
	return removed(n, err, "lookup")
}

func (s *Store) movements(ctx context.Context, q Query) ([]domain.Movement, error) {
	var rows []movementRow
	if err := s.client.Get(ctx, store.TableMovements, q, &rows); err != nil {
		return nil, err
	}
	movements := make([]domain.Movement, 0, len(rows))
	for _, r := range rows {
		movements = append(movements, r.toDomain())
	}
	return movements, nil
}

// ListMovements returns the whole ledger, newest first
func (s *Store) ListMovements(ctx context.Context) ([]domain.Movement, error) {
	return s.movements(ctx, Query{Order: "id.desc"})
}

// GetMovement retrieves a movement by ID
func (s *Store) GetMovement(ctx context.Context, id int64) (*domain.Movement, error) {
	movements, err := s.movements(ctx, Query{Filters: []Filter{Eq("id", id)}})
	if err != nil {
		return nil, err
	}
	return first(movements, "movement")
}

// InsertMovement appends a movement and sets its ID
func (s *Store) InsertMovement(ctx context.Context, m *domain.Movement) error {
	var rows []movementRow
	if err := s.client.Insert(ctx, store.TableMovements, newMovementRow(m), &rows); err != nil {
		return err
	}
	row, err := first(rows, "movement")
	if err != nil {
		return err
	}
	m.ID = row.ID
	return nil
}

// UpdateMovement overwrites the editable fields of a movement
func (s *Store) UpdateMovement(ctx context.Context, m *domain.Movement) error {
	patch := movementPatch{
		Data:          m.Date,
		TipoTransacao: string(m.TransactionType),
		Quantidade:    m.Quantity,
		Validade:      m.Expiry,
		Lote:          m.Lot,
		Nota:          m.InvoiceNote,
		TipoAcao:      m.ActionType,
		Consideracoes: m.Remarks,
		Localizacao:   m.Location,
	}
	var rows []movementRow
	if err := s.client.Update(ctx, store.TableMovements, patch, "id", m.ID, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.NotFound("movement")
	}
	return nil
}

// DeleteMovement removes a movement
func (s *Store) DeleteMovement(ctx context.Context, id int64) error {
	n, err := s.client.Delete(ctx, store.TableMovements, "id", id)
	return removed(n, err, "movement")
}

// CountMovementsByProduct counts the movements referencing a product
func (s *Store) CountMovementsByProduct(ctx context.Context, productID int64) (int, error) {
	return s.client.Count(ctx, store.TableMovements, []Filter{Eq("produto_id", productID)})
}

// ListMovementsForProduct returns the movements of one study and product, oldest first
func (s *Store) ListMovementsForProduct(ctx context.Context, studyID, productID int64) ([]domain.Movement, error) {
	return s.movements(ctx, Query{
		Filters: []Filter{Eq("estudo_id", studyID), Eq("produto_id", productID)},
		Order:   "id.asc",
	})
}

// Balance fetches the quantities of the exact key and sums them here
func (s *Store) Balance(ctx context.Context, key domain.Key) (int, error) {
	filters := []Filter{Eq("estudo_id", key.StudyID), Eq("produto_id", key.ProductID)}
	if key.Expiry == nil {
		filters = append(filters, IsNull("validade"))
	} else {
		filters = append(filters, Eq("validade", key.Expiry.String()))
	}
	if key.Lot == nil {
		filters = append(filters, IsNull("lote"))
	} else {
		filters = append(filters, Eq("lote", *key.Lot))
	}

	var rows []struct {
		Quantidade    int    `json:"quantidade"`
		TipoTransacao string `json:"tipo_transacao"`
	}
	q := Query{Select: "quantidade,tipo_transacao", Filters: filters, Unlimited: true}
	if err := s.client.Get(ctx, store.TableMovements, q, &rows); err != nil {
		return 0, err
	}

	balance := 0
	for _, r := range rows {
		switch domain.TransactionType(r.TipoTransacao) {
		case domain.Entry:
			balance += r.Quantidade
		case domain.Exit:
			balance -= r.Quantidade
		}
	}
	return balance, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.user(ctx, Eq("username", username))
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.user(ctx, Eq("id", id))
}

func (s *Store) user(ctx context.Context, f Filter) (*domain.User, error) {
	var rows []userRow
	if err := s.client.Get(ctx, store.TableUsers, Query{Filters: []Filter{f}}, &rows); err != nil {
		return nil, err
	}
	row, err := first(rows, "user")
	if err != nil {
		return nil, err
	}
	u := row.toDomain()
	return &u, nil
}

// ListUsers returns every account ordered by username
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.client.Get(ctx, store.TableUsers, Query{Order: "username.asc"}, &rows); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

// CreateUser inserts an account and sets its ID
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	var rows []userRow
	if err := s.client.Insert(ctx, store.TableUsers, newUserRow(u), &rows); err != nil {
		return err
	}
	row, err := first(rows, "user")
	if err != nil {
		return err
	}
	u.ID = row.ID
	return nil
}

// UpdateUser overwrites username, hash, role and active flag
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	var rows []userRow
	if err := s.client.Update(ctx, store.TableUsers, newUserRow(u), "id", u.ID, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// DeleteUser removes an account
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	n, err := s.client.Delete(ctx, store.TableUsers, "id", id)
	return removed(n, err, "user")
}

// WithKeyLock runs fn directly; the table API offers no lock or transaction
func (s *Store) WithKeyLock(ctx context.Context, _ domain.Key, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Health probes the studies table
func (s *Store) Health(ctx context.Context) map[string]string {
	status := map[string]string{"driver": "rest"}
	var rows []studyRow
	if err := s.client.Get(ctx, store.TableStudies, Query{Select: "id", Order: "id.asc"}, &rows); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}
	status["status"] = "up"
	return status
}

// Close releases idle connections
func (s *Store) Close() error {
	s.client.httpClient.CloseIdleConnections()
	return nil
}
