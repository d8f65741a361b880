// Package ledger owns the movement write path and the balance rule: an exit
// may never take more than the current balance of its key.
package ledger

import (
	"context"
	"sort"
	"strconv"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/events"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/i18n"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/validation"
)

// Service records, edits and removes movements
type Service struct {
	store     store.Store
	publisher *events.MovementPublisher
	logger    *logger.Logger
	today     func() domain.Date
}

// NewService creates a ledger service. publisher may be nil.
func NewService(st store.Store, publisher *events.MovementPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     st,
		publisher: publisher,
		logger:    log.WithComponent("ledger"),
		today:     domain.Today,
	}
}

// RecordRequest is the input of a new movement. Date and actor are not
// accepted from the caller.
type RecordRequest struct {
	TransactionType domain.TransactionType `json:"transaction_type" validate:"required,oneof=Entrada Saída"`
	StudyID         int64                  `json:"study_id" validate:"required,gt=0"`
	ProductID       int64                  `json:"product_id" validate:"required,gt=0"`
	Quantity        int                    `json:"quantity" validate:"gt=0,max=2147483647"`
	Expiry          *domain.Date           `json:"expiry"`
	Lot             *string                `json:"lot"`
	InvoiceNote     *string                `json:"invoice_note"`
	ActionType      *string                `json:"action_type"`
	Remarks         *string                `json:"remarks"`
	Location        *string                `json:"location"`
}

// UpdateRequest replaces the editable fields of a movement. Study, product,
// product type and actor stay as recorded.
type UpdateRequest struct {
	Date            domain.Date            `json:"date"`
	TransactionType domain.TransactionType `json:"transaction_type" validate:"required,oneof=Entrada Saída"`
	Quantity        int                    `json:"quantity" validate:"gt=0,max=2147483647"`
	Expiry          *domain.Date           `json:"expiry"`
	Lot             *string                `json:"lot"`
	InvoiceNote     *string                `json:"invoice_note"`
	ActionType      *string                `json:"action_type"`
	Remarks         *string                `json:"remarks"`
	Location        *string                `json:"location"`
}

// KeyOptions are the expiries and lots already seen for a study and product
type KeyOptions struct {
	Expiries []domain.Date `json:"expiries"`
	Lots     []string      `json:"lots"`
}

// Balance returns entries minus exits for the exact key. Unseen keys are 0.
func (s *Service) Balance(ctx context.Context, key domain.Key) (int, error) {
	key.Expiry = domain.NormalizeExpiry(key.Expiry)
	key.Lot = domain.NormalizeLot(key.Lot)
	return s.store.Balance(ctx, key)
}

// GetMovement retrieves a movement by ID
func (s *Service) GetMovement(ctx context.Context, id int64) (*domain.Movement, error) {
	return s.store.GetMovement(ctx, id)
}

// RecordMovement validates and appends one movement dated today. Exits are
// rejected when quantity exceeds the key's balance; the check and the insert
// run under the store's key lock.
func (s *Service) RecordMovement(ctx context.Context, actorName string, req RecordRequest) (*domain.Movement, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	product, err := s.resolve(ctx, req.StudyID, req.ProductID)
	if err != nil {
		return nil, err
	}

	m := &domain.Movement{
		Date:            s.today(),
		TransactionType: req.TransactionType,
		StudyID:         req.StudyID,
		ProductID:       req.ProductID,
		ProductType:     product.ProductType,
		Quantity:        req.Quantity,
		Expiry:          domain.NormalizeExpiry(req.Expiry),
		Lot:             domain.NormalizeLot(req.Lot),
		InvoiceNote:     domain.NormalizeOptional(req.InvoiceNote),
		ActionType:      domain.NormalizeOptional(req.ActionType),
		Remarks:         domain.NormalizeOptional(req.Remarks),
		Actor:           actorName,
		Location:        domain.NormalizeOptional(req.Location),
	}
	key := m.Key()

	var balanceAfter int
	err = s.store.WithKeyLock(ctx, key, func(ctx context.Context) error {
		balance, err := s.store.Balance(ctx, key)
		if err != nil {
			return err
		}
		if m.TransactionType == domain.Exit && m.Quantity > balance {
			return exitExceedsBalance(m, product, balance)
		}
		if err := s.store.InsertMovement(ctx, m); err != nil {
			return err
		}
		balanceAfter = balance + m.Signed()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("movement_id", m.ID).
		Str("type", string(m.TransactionType)).
		Str("key", key.String()).
		Int("quantity", m.Quantity).
		Int("balance", balanceAfter).
		Str("actor", actorName).
		Msg("movement recorded")

	s.publisher.PublishRecorded(ctx, m, balanceAfter)
	return m, nil
}

// UpdateMovement overwrites the editable fields of a movement. Balances are not
// re-validated, so an edit can leave a later exit uncovered.
func (s *Service) UpdateMovement(ctx context.Context, editor string, id int64, req UpdateRequest) (*domain.Movement, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, errors.Validation(map[string]string{"date": i18n.T("validation.required")})
	}

	m, err := s.store.GetMovement(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Date = req.Date
	m.TransactionType = req.TransactionType
	m.Quantity = req.Quantity
	m.Expiry = domain.NormalizeExpiry(req.Expiry)
	m.Lot = domain.NormalizeLot(req.Lot)
	m.InvoiceNote = domain.NormalizeOptional(req.InvoiceNote)
	m.ActionType = domain.NormalizeOptional(req.ActionType)
	m.Remarks = domain.NormalizeOptional(req.Remarks)
	m.Location = domain.NormalizeOptional(req.Location)

	if err := s.store.UpdateMovement(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("movement_id", id).Str("editor", editor).Msg("movement updated")
	s.publisher.PublishUpdated(ctx, m, editor)
	return m, nil
}

// DeleteMovement removes a movement
func (s *Service) DeleteMovement(ctx context.Context, editor string, id int64) error {
	if err := s.store.DeleteMovement(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("movement_id", id).Str("editor", editor).Msg("movement deleted")
	s.publisher.PublishDeleted(ctx, id, editor)
	return nil
}

// KeyOptions lists the distinct expiries and lots recorded for a study and
// product, ascending. Exits pick their key from these.
func (s *Service) KeyOptions(ctx context.Context, studyID, productID int64) (*KeyOptions, error) {
	movements, err := s.store.ListMovementsForProduct(ctx, studyID, productID)
	if err != nil {
		return nil, err
	}

	opts := &KeyOptions{Expiries: []domain.Date{}, Lots: []string{}}
	seenExpiry := make(map[string]bool)
	seenLot := make(map[string]bool)
	for _, m := range movements {
		if m.Expiry != nil && !seenExpiry[m.Expiry.String()] {
			seenExpiry[m.Expiry.String()] = true
			opts.Expiries = append(opts.Expiries, *m.Expiry)
		}
		if m.Lot != nil && !seenLot[*m.Lot] {
			seenLot[*m.Lot] = true
			opts.Lots = append(opts.Lots, *m.Lot)
		}
	}
	sort.Slice(opts.Expiries, func(i, j int) bool { return opts.Expiries[i].Before(opts.Expiries[j]) })
	sort.Strings(opts.Lots)
	return opts, nil
}

// resolve loads the product and checks it belongs to the study
func (s *Service) resolve(ctx context.Context, studyID, productID int64) (*domain.Product, error) {
	if _, err := s.store.GetStudy(ctx, studyID); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Validation(map[string]string{"study_id": i18n.T("validation.unknown_study")})
		}
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Validation(map[string]string{"product_id": i18n.T("validation.unknown_product")})
		}
		return nil, err
	}
	if product.StudyID != studyID {
		return nil, errors.Validation(map[string]string{"product_id": i18n.T("validation.product_not_in_study")})
	}
	return product, nil
}

func exitExceedsBalance(m *domain.Movement, product *domain.Product, balance int) error {
	expiry, lot := "—", "—"
	if m.Expiry != nil {
		expiry = m.Expiry.String()
	}
	if m.Lot != nil {
		lot = *m.Lot
	}
	return errors.Rule("errors.exit_exceeds_balance", "exit quantity exceeds available balance", map[string]string{
		"quantity": strconv.Itoa(m.Quantity),
		"balance":  strconv.Itoa(balance),
		"product":  product.Name,
		"expiry":   expiry,
		"lot":      lot,
	}).WithDetails(map[string]string{
		"balance": strconv.Itoa(balance),
		"key":     m.Key().String(),
	})
}
