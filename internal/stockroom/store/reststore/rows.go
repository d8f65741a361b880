package reststore

import "github.com/medflow/stockroom/internal/stockroom/domain"

// Row shapes use the persisted column names; domain types keep their API names.

type studyRow struct {
	ID   int64  `json:"id,omitempty"`
	Nome string `json:"nome"`
}

type productRow struct {
	ID          int64   `json:"id,omitempty"`
	EstudoID    int64   `json:"estudo_id"`
	Nome        string  `json:"nome"`
	TipoProduto *string `json:"tipo_produto"`
}

func (r productRow) toDomain() domain.Product {
	p := domain.Product{ID: r.ID, StudyID: r.EstudoID, Name: r.Nome}
	if r.TipoProduto != nil {
		p.ProductType = *r.TipoProduto
	}
	return p
}

type lookupRow struct {
	ID   int64  `json:"id,omitempty"`
	Nome string `json:"nome"`
}

type movementRow struct {
	ID            int64        `json:"id,omitempty"`
	Data          domain.Date  `json:"data"`
	TipoTransacao string       `json:"tipo_transacao"`
	EstudoID      int64        `json:"estudo_id"`
	ProdutoID     int64        `json:"produto_id"`
	TipoProduto   *string      `json:"tipo_produto"`
	Quantidade    int          `json:"quantidade"`
	Validade      *domain.Date `json:"validade"`
	Lote          *string      `json:"lote"`
	Nota          *string      `json:"nota"`
	TipoAcao      *string      `json:"tipo_acao"`
	Consideracoes *string      `json:"consideracoes"`
	Responsavel   string       `json:"responsavel"`
	Localizacao   *string      `json:"localizacao"`
}

func newMovementRow(m *domain.Movement) movementRow {
	productType := m.ProductType
	return movementRow{
		Data:          m.Date,
		TipoTransacao: string(m.TransactionType),
		EstudoID:      m.StudyID,
		ProdutoID:     m.ProductID,
		TipoProduto:   &productType,
		Quantidade:    m.Quantity,
		Validade:      m.Expiry,
		Lote:          m.Lot,
		Nota:          m.InvoiceNote,
		TipoAcao:      m.ActionType,
		Consideracoes: m.Remarks,
		Responsavel:   m.Actor,
		Localizacao:   m.Location,
	}
}

func (r movementRow) toDomain() domain.Movement {
	m := domain.Movement{
		ID:              r.ID,
		Date:            r.Data,
		TransactionType: domain.TransactionType(r.TipoTransacao),
		StudyID:         r.EstudoID,
		ProductID:       r.ProdutoID,
		Quantity:        r.Quantidade,
		Expiry:          r.Validade,
		Lot:             r.Lote,
		InvoiceNote:     r.Nota,
		ActionType:      r.TipoAcao,
		Remarks:         r.Consideracoes,
		Actor:           r.Responsavel,
		Location:        r.Localizacao,
	}
	if r.TipoProduto != nil {
		m.ProductType = *r.TipoProduto
	}
	return m
}

// movementPatch carries the editable columns of a movement
type movementPatch struct {
	Data          domain.Date  `json:"data"`
	TipoTransacao string       `json:"tipo_transacao"`
	Quantidade    int          `json:"quantidade"`
	Validade      *domain.Date `json:"validade"`
	Lote          *string      `json:"lote"`
	Nota          *string      `json:"nota"`
	TipoAcao      *string      `json:"tipo_acao"`
	Consideracoes *string      `json:"consideracoes"`
	Localizacao   *string      `json:"localizacao"`
}

type userRow struct {
	ID           int64  `json:"id,omitempty"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	IsActive     bool   `json:"is_active"`
}

func newUserRow(u *domain.User) userRow {
	return userRow{Username: u.Username, PasswordHash: u.PasswordHash, Role: string(u.Role), IsActive: u.IsActive}
}

func (r userRow) toDomain() domain.User {
	return domain.User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, Role: domain.Role(r.Role), IsActive: r.IsActive}
}
