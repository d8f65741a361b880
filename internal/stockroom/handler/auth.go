package handler

import (
	"net/http"

	"github.com/medflow/stockroom/internal/stockroom/access"
	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/httputil"
)

// LoginResponse carries the issued token and the logged in account
type LoginResponse struct {
	Token *access.Token `json:"token"`
	User  *domain.User  `json:"user"`
}

// Login exchanges credentials for a bearer token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req access.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	user, err := h.access.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sign token")
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// Me returns the principal of the current token
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, actor.FromContext(r.Context()))
}
