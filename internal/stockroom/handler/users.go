package handler

import (
	"net/http"

	"github.com/medflow/stockroom/internal/stockroom/access"
	"github.com/medflow/stockroom/pkg/httputil"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.access.ListUsers(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req access.CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	user, err := h.access.CreateUser(r.Context(), req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var req access.UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	user, err := h.access.UpdateUser(r.Context(), id, req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := h.access.DeleteUser(r.Context(), id); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
