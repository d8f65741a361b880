package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/stockroom/internal/stockroom/catalog"
	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/httputil"
)

// NameRequest is the body of study and lookup creation
type NameRequest struct {
	Name string `json:"name"`
}

// Study handlers

func (h *Handler) ListStudies(w http.ResponseWriter, r *http.Request) {
	studies, err := h.catalog.ListStudies(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, studies)
}

func (h *Handler) CreateStudy(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	study, err := h.catalog.CreateStudy(r.Context(), req.Name)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, study)
}

func (h *Handler) DeleteStudy(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := h.catalog.DeleteStudy(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Product handlers

// ListProducts returns products with their study names. Filters: study_id, q.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	studyID, err := httputil.Int64(q, "study_id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), store.ProductFilter{StudyID: studyID, Search: q.Get("q")})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, products)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Lookup handlers

func lookupKind(r *http.Request) (domain.LookupKind, error) {
	kind, ok := domain.ParseLookupKind(chi.URLParam(r, "kind"))
	if !ok {
		return 0, errors.NotFound("lookup")
	}
	return kind, nil
}

func (h *Handler) ListLookups(w http.ResponseWriter, r *http.Request) {
	kind, err := lookupKind(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	values, err := h.catalog.ListLookups(r.Context(), kind)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, values)
}

func (h *Handler) CreateLookup(w http.ResponseWriter, r *http.Request) {
	kind, err := lookupKind(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req NameRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	value, err := h.catalog.CreateLookup(r.Context(), kind, req.Name)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, value)
}

func (h *Handler) DeleteLookup(w http.ResponseWriter, r *http.Request) {
	kind, err := lookupKind(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.catalog.DeleteLookup(r.Context(), kind, id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
