package domain

import (
	"fmt"
	"strings"
)

// TransactionType is the direction of a movement. Values are persisted as is.
type TransactionType string

const (
	Entry TransactionType = "Entrada"
	Exit  TransactionType = "Saída"
)

// Valid reports whether t is Entry or Exit
func (t TransactionType) Valid() bool {
	return t == Entry || t == Exit
}

// Movement is one row of the stock ledger
type Movement struct {
	ID              int64           `json:"id" db:"id"`
	Date            Date            `json:"date" db:"data"`
	TransactionType TransactionType `json:"transaction_type" db:"tipo_transacao"`
	StudyID         int64           `json:"study_id" db:"estudo_id"`
	ProductID       int64           `json:"product_id" db:"produto_id"`
	ProductType     string          `json:"product_type" db:"tipo_produto"`
	Quantity        int             `json:"quantity" db:"quantidade"`
	Expiry          *Date           `json:"expiry" db:"validade"`
	Lot             *string         `json:"lot" db:"lote"`
	InvoiceNote     *string         `json:"invoice_note" db:"nota"`
	ActionType      *string         `json:"action_type" db:"tipo_acao"`
	Remarks         *string         `json:"remarks" db:"consideracoes"`
	Actor           string          `json:"actor" db:"responsavel"`
	Location        *string         `json:"location" db:"localizacao"`
}

// Key returns the balance identity of the movement
func (m *Movement) Key() Key {
	return Key{StudyID: m.StudyID, ProductID: m.ProductID, Expiry: m.Expiry, Lot: m.Lot}
}

// Signed returns the quantity with the sign of its direction
func (m *Movement) Signed() int {
	if m.TransactionType == Exit {
		return -m.Quantity
	}
	return m.Quantity
}

// Key is the unit of balance tracking. A nil Expiry or Lot is its own value
// and only matches movements where the field is also absent.
type Key struct {
	StudyID   int64
	ProductID int64
	Expiry    *Date
	Lot       *string
}

// String gives the canonical form study|product|expiry|lot with "-" for absent parts
func (k Key) String() string {
	expiry, lot := "-", "-"
	if k.Expiry != nil {
		expiry = k.Expiry.String()
	}
	if k.Lot != nil {
		lot = *k.Lot
	}
	return fmt.Sprintf("%d|%d|%s|%s", k.StudyID, k.ProductID, expiry, lot)
}

// Matches reports whether m carries exactly this key
func (k Key) Matches(m *Movement) bool {
	if m.StudyID != k.StudyID || m.ProductID != k.ProductID {
		return false
	}
	if (k.Expiry == nil) != (m.Expiry == nil) {
		return false
	}
	if k.Expiry != nil && !k.Expiry.Equal(*m.Expiry) {
		return false
	}
	if (k.Lot == nil) != (m.Lot == nil) {
		return false
	}
	return k.Lot == nil || *k.Lot == *m.Lot
}

// OptionalString trims s and returns nil when nothing is left
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeOptional trims an optional text field and treats blank as absent
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return OptionalString(*s)
}

// NormalizeLot treats a blank lot as absent
func NormalizeLot(lot *string) *string {
	return NormalizeOptional(lot)
}

// NormalizeExpiry treats the zero date as absent
func NormalizeExpiry(d *Date) *Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
