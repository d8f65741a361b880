package handler

import (
	"net/http"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/ledger"
	"github.com/medflow/stockroom/internal/stockroom/report"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/httputil"
	"github.com/medflow/stockroom/pkg/i18n"
)

// BalanceResponse is the current balance of one key
type BalanceResponse struct {
	Key     string `json:"key"`
	Balance int    `json:"balance"`
}

// ListMovements returns the filtered movement log, newest first
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	filter, err := report.ParseLogFilter(r.URL.Query())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	log, err := h.reports.MovementLog(r.Context(), filter)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, log, &httputil.Meta{Total: int64(len(log.Rows))})
}

func (h *Handler) GetMovement(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	m, err := h.ledger.GetMovement(r.Context(), id)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, m)
}

// RecordMovement appends a movement dated today, acted by the token's user
func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req ledger.RecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	m, err := h.ledger.RecordMovement(r.Context(), actor.Username(r.Context()), req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, m)
}

func (h *Handler) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req ledger.UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	m, err := h.ledger.UpdateMovement(r.Context(), actor.Username(r.Context()), id, req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.ledger.DeleteMovement(r.Context(), actor.Username(r.Context()), id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Balance returns the balance of study_id, product_id, expiry and lot.
// Omitted expiry or lot select the key where that field is absent.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	key, err := parseKey(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	balance, err := h.ledger.Balance(r.Context(), key)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	key.Expiry = domain.NormalizeExpiry(key.Expiry)
	key.Lot = domain.NormalizeLot(key.Lot)
	httputil.JSON(w, http.StatusOK, BalanceResponse{Key: key.String(), Balance: balance})
}

// KeyOptions lists the expiries and lots already recorded for a study and product
func (h *Handler) KeyOptions(w http.ResponseWriter, r *http.Request) {
	key, err := parseKey(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	opts, err := h.ledger.KeyOptions(r.Context(), key.StudyID, key.ProductID)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, opts)
}

func parseKey(r *http.Request) (domain.Key, error) {
	q := r.URL.Query()
	var key domain.Key
	var err error

	if key.StudyID, err = httputil.Int64(q, "study_id"); err != nil {
		return key, err
	}
	if key.ProductID, err = httputil.Int64(q, "product_id"); err != nil {
		return key, err
	}

	details := map[string]string{}
	if key.StudyID <= 0 {
		details["study_id"] = i18n.T("validation.required")
	}
	if key.ProductID <= 0 {
		details["product_id"] = i18n.T("validation.required")
	}
	if key.Expiry, err = domain.ParseOptionalDate(q.Get("expiry")); err != nil {
		details["expiry"] = i18n.T("validation.invalid_date")
	}
	if len(details) > 0 {
		return key, errors.Validation(details)
	}

	key.Lot = domain.OptionalString(q.Get("lot"))
	return key, nil
}
