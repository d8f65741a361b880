// Package handler serves the stock room JSON API under /api/v1.
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/stockroom/internal/stockroom/access"
	"github.com/medflow/stockroom/internal/stockroom/catalog"
	"github.com/medflow/stockroom/internal/stockroom/ledger"
	"github.com/medflow/stockroom/internal/stockroom/report"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/httputil"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/permissions"
)

// Handler exposes the stock room services over HTTP
type Handler struct {
	ledger  *ledger.Service
	catalog *catalog.Service
	access  *access.Service
	reports *report.Service
	tokens  *access.TokenManager
	logger  *logger.Logger
}

// New creates the API handler
func New(
	led *ledger.Service,
	cat *catalog.Service,
	acc *access.Service,
	reports *report.Service,
	tokens *access.TokenManager,
	log *logger.Logger,
) *Handler {
	return &Handler{
		ledger:  led,
		catalog: cat,
		access:  acc,
		reports: reports,
		tokens:  tokens,
		logger:  log.WithComponent("api"),
	}
}

// Routes returns the API router, meant to be mounted at /api/v1
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)

		r.Get("/auth/me", h.Me)
		r.With(RequirePermission(permissions.ReportRead)).Get("/overview", h.Overview)

		r.Route("/movements", func(r chi.Router) {
			r.With(RequirePermission(permissions.MovementsRead)).Get("/", h.ListMovements)
			r.With(RequirePermission(permissions.MovementsRead)).Get("/options", h.KeyOptions)
			r.With(RequirePermission(permissions.MovementsWrite)).Post("/", h.RecordMovement)
			r.With(RequirePermission(permissions.MovementsRead)).Get("/{id}", h.GetMovement)
			r.With(RequirePermission(permissions.MovementsWrite)).Put("/{id}", h.UpdateMovement)
			r.With(RequirePermission(permissions.MovementsWrite)).Delete("/{id}", h.DeleteMovement)
		})
		r.With(RequirePermission(permissions.MovementsRead)).Get("/balance", h.Balance)

		r.Route("/studies", func(r chi.Router) {
			r.With(RequirePermission(permissions.CatalogRead)).Get("/", h.ListStudies)
			r.With(RequirePermission(permissions.CatalogWrite)).Post("/", h.CreateStudy)
			r.With(RequirePermission(permissions.CatalogWrite)).Delete("/{id}", h.DeleteStudy)
		})

		r.Route("/products", func(r chi.Router) {
			r.With(RequirePermission(permissions.CatalogRead)).Get("/", h.ListProducts)
			r.With(RequirePermission(permissions.CatalogWrite)).Post("/", h.CreateProduct)
			r.With(RequirePermission(permissions.CatalogWrite)).Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/lookups/{kind}", func(r chi.Router) {
			r.With(RequirePermission(permissions.CatalogRead)).Get("/", h.ListLookups)
			r.With(RequirePermission(permissions.CatalogWrite)).Post("/", h.CreateLookup)
			r.With(RequirePermission(permissions.CatalogWrite)).Delete("/{id}", h.DeleteLookup)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(RequirePermission(permissions.UsersManage))
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
	})

	return r
}

// Authenticate validates the bearer token and attaches its principal to the request
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.Error(w, r, errors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.Error(w, r, errors.Unauthorized("invalid authorization header format"))
			return
		}

		principal, err := h.tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			httputil.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
	})
}

// RequirePermission rejects requests whose principal's role lacks perm
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := actor.FromContext(r.Context())
			if p == nil {
				httputil.Error(w, r, errors.Unauthorized("authentication required"))
				return
			}
			if !permissions.Allowed(p.Role, perm) {
				httputil.Error(w, r, errors.Forbidden("restricted to managers"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
