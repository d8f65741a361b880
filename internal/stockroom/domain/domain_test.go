package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(t *testing.T, s string) *Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return &d
}

func TestDate_ScanAndJSON(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-03-09"))
	assert.Equal(t, "2025-03-09", d.String())
	assert.Equal(t, "09/03/2025", d.Display())

	require.NoError(t, d.Scan([]byte("2025-03-10T00:00:00Z")))
	assert.Equal(t, "2025-03-10", d.String())

	require.NoError(t, d.Scan(time.Date(2025, 3, 11, 15, 4, 0, 0, time.UTC)))
	assert.Equal(t, "2025-03-11", d.String())

	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("11/03/2025"))

	b, err := json.Marshal(struct {
		Expiry *Date `json:"expiry"`
	}{Expiry: &d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiry":"2025-03-11"}`, string(b))

	var back struct {
		Expiry *Date `json:"expiry"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expiry":"2026-01-31"}`), &back))
	assert.Equal(t, "2026-01-31", back.Expiry.String())

	require.NoError(t, json.Unmarshal([]byte(`{"expiry":""}`), &back))
	require.NotNil(t, back.Expiry)
	assert.Nil(t, NormalizeExpiry(back.Expiry))

	assert.Error(t, json.Unmarshal([]byte(`{"expiry":"31/01/2026"}`), &back))
}

func TestDate_DaysUntil(t *testing.T) {
	today := *datePtr(t, "2025-01-01")
	assert.Equal(t, 0, datePtr(t, "2025-01-01").DaysUntil(today))
	assert.Equal(t, 31, datePtr(t, "2025-02-01").DaysUntil(today))
	assert.Equal(t, -1, datePtr(t, "2024-12-31").DaysUntil(today))
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "—", DisplayDate(nil))
	assert.Equal(t, "31/12/2025", DisplayDate(datePtr(t, "2025-12-31")))
}

func TestParseOptionalDate(t *testing.T) {
	d, err := ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseOptionalDate("2025-06-30")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-30", d.String())
}

func TestKey_NullIsAValue(t *testing.T) {
	lot := "A1"
	expiry := datePtr(t, "2025-06-30")

	bare := Key{StudyID: 1, ProductID: 2}
	withLot := Key{StudyID: 1, ProductID: 2, Lot: &lot}
	full := Key{StudyID: 1, ProductID: 2, Expiry: expiry, Lot: &lot}

	m := &Movement{StudyID: 1, ProductID: 2}
	assert.True(t, bare.Matches(m))
	assert.False(t, withLot.Matches(m))

	other := "A1"
	m2 := &Movement{StudyID: 1, ProductID: 2, Lot: &other, Expiry: datePtr(t, "2025-06-30")}
	assert.True(t, full.Matches(m2))
	assert.False(t, withLot.Matches(m2))
	assert.False(t, bare.Matches(m2))

	assert.Equal(t, "1|2|-|-", bare.String())
	assert.Equal(t, "1|2|2025-06-30|A1", full.String())
	assert.Equal(t, full, m2.Key())
}

func TestMovement_Signed(t *testing.T) {
	assert.Equal(t, 10, (&Movement{TransactionType: Entry, Quantity: 10}).Signed())
	assert.Equal(t, -4, (&Movement{TransactionType: Exit, Quantity: 4}).Signed())
	assert.True(t, Entry.Valid())
	assert.False(t, TransactionType("Transferência").Valid())
}

func TestNormalize(t *testing.T) {
	blank := "   "
	assert.Nil(t, NormalizeLot(&blank))
	assert.Nil(t, NormalizeLot(nil))
	padded := " L7 "
	assert.Equal(t, "L7", *NormalizeLot(&padded))

	assert.Nil(t, NormalizeExpiry(&Date{}))
	assert.NotNil(t, NormalizeExpiry(datePtr(t, "2025-01-01")))
}

func TestLookupKind(t *testing.T) {
	k, ok := ParseLookupKind("action-types")
	require.True(t, ok)
	assert.Equal(t, LookupActionType, k)
	assert.Equal(t, "tipo_acao", k.Table())
	assert.Equal(t, "lookups.action-types", k.LabelKey())

	_, ok = ParseLookupKind("estudos")
	assert.False(t, ok)

	tables := map[string]bool{}
	for _, k := range LookupKinds {
		assert.True(t, k.Valid())
		tables[k.Table()] = true
	}
	assert.Len(t, tables, 3)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleManager.Valid())
	assert.True(t, RoleViewer.Valid())
	assert.False(t, Role("admin").Valid())
}
