package sqlstore

import (
	"context"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/database"
)

const movementColumns = `id, data, tipo_transacao, estudo_id, produto_id, COALESCE(tipo_produto, '') AS tipo_produto,
	quantidade, validade, lote, nota, tipo_acao, consideracoes, responsavel, localizacao`

// ListMovements returns the whole ledger, newest first
func (s *Store) ListMovements(ctx context.Context) ([]domain.Movement, error) {
	var movements []domain.Movement
	if err := s.selectAll(ctx, &movements, `SELECT `+movementColumns+` FROM movimentacoes ORDER BY id DESC`); err != nil {
		return nil, database.MapError(err, "movement", "list movements")
	}
	return movements, nil
}

// GetMovement retrieves a movement by ID
func (s *Store) GetMovement(ctx context.Context, id int64) (*domain.Movement, error) {
	var m domain.Movement
	if err := s.get(ctx, &m, `SELECT `+movementColumns+` FROM movimentacoes WHERE id = ?`, id); err != nil {
		return nil, database.MapError(err, "movement", "get movement")
	}
	return &m, nil
}

// InsertMovement appends a movement and sets its ID
func (s *Store) InsertMovement(ctx context.Context, m *domain.Movement) error {
	err := s.get(ctx, &m.ID, `
		INSERT INTO movimentacoes (
			data, tipo_transacao, estudo_id, produto_id, tipo_produto, quantidade,
			validade, lote, nota, tipo_acao, consideracoes, responsavel, localizacao
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		m.Date, string(m.TransactionType), m.StudyID, m.ProductID, m.ProductType, m.Quantity,
		m.Expiry, m.Lot, m.InvoiceNote, m.ActionType, m.Remarks, m.Actor, m.Location,
	)
	return database.MapError(err, "movement", "insert movement")
}

// UpdateMovement overwrites the editable fields of a movement
func (s *Store) UpdateMovement(ctx context.Context, m *domain.Movement) error {
	return s.execOne(ctx, "movement", "update movement", `
		UPDATE movimentacoes SET
			data = ?, tipo_transacao = ?, quantidade = ?, validade = ?, lote = ?,
			nota = ?, tipo_acao = ?, consideracoes = ?, localizacao = ?
		WHERE id = ?`,
		m.Date, string(m.TransactionType), m.Quantity, m.Expiry, m.Lot,
		m.InvoiceNote, m.ActionType, m.Remarks, m.Location, m.ID,
	)
}

// DeleteMovement removes a movement
func (s *Store) DeleteMovement(ctx context.Context, id int64) error {
	return s.execOne(ctx, "movement", "delete movement", `DELETE FROM movimentacoes WHERE id = ?`, id)
}

// CountMovementsByProduct counts the movements referencing a product
func (s *Store) CountMovementsByProduct(ctx context.Context, productID int64) (int, error) {
	var count int
	if err := s.get(ctx, &count, `SELECT COUNT(*) FROM movimentacoes WHERE produto_id = ?`, productID); err != nil {
		return 0, database.MapError(err, "movement", "count movements")
	}
	return count, nil
}

// ListMovementsForProduct returns the movements of one study and product, oldest first
func (s *Store) ListMovementsForProduct(ctx context.Context, studyID, productID int64) ([]domain.Movement, error) {
	var movements []domain.Movement
	err := s.selectAll(ctx, &movements, `
		SELECT `+movementColumns+` FROM movimentacoes
		WHERE estudo_id = ? AND produto_id = ?
		ORDER BY id`, studyID, productID)
	if err != nil {
		return nil, database.MapError(err, "movement", "list product movements")
	}
	return movements, nil
}

// Balance aggregates entries minus exits for an exact key. Absent expiry or lot
// match only rows where the column is NULL.
func (s *Store) Balance(ctx context.Context, key domain.Key) (int, error) {
	query := `
		SELECT COALESCE(SUM(CASE
			WHEN tipo_transacao = ? THEN quantidade
			WHEN tipo_transacao = ? THEN -quantidade
			ELSE 0 END), 0)
		FROM movimentacoes
		WHERE estudo_id = ? AND produto_id = ?`
	args := []interface{}{string(domain.Entry), string(domain.Exit), key.StudyID, key.ProductID}

	if key.Expiry == nil {
		query += ` AND validade IS NULL`
	} else {
		query += ` AND validade = ?`
		args = append(args, *key.Expiry)
	}
	if key.Lot == nil {
		query += ` AND lote IS NULL`
	} else {
		query += ` AND lote = ?`
		args = append(args, *key.Lot)
	}

	var balance int
	if err := s.get(ctx, &balance, query, args...); err != nil {
		return 0, database.MapError(err, "movement", "balance")
	}
	return balance, nil
}
