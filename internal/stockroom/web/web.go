// Package web serves the server-rendered pages of the stock room: login,
// overview, movement entry and log, catalogs and user management.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/medflow/stockroom/internal/stockroom/access"
	"github.com/medflow/stockroom/internal/stockroom/catalog"
	"github.com/medflow/stockroom/internal/stockroom/ledger"
	"github.com/medflow/stockroom/internal/stockroom/report"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/config"
	"github.com/medflow/stockroom/pkg/httputil"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/permissions"
)

// Web renders the browser UI
type Web struct {
	ledger    *ledger.Service
	catalog   *catalog.Service
	access    *access.Service
	reports   *report.Service
	sessions  sessions.Store
	templates *templates
	logger    *logger.Logger
}

// New creates the web UI. Sessions live in a signed cookie keyed by cfg.Secret.
func New(
	led *ledger.Service,
	cat *catalog.Service,
	acc *access.Service,
	reports *report.Service,
	cfg *config.SessionConfig,
	log *logger.Logger,
) (*Web, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Web{
		ledger:    led,
		catalog:   cat,
		access:    acc,
		reports:   reports,
		sessions:  newCookieStore(cfg),
		templates: tmpl,
		logger:    log.WithComponent("web"),
	}, nil
}

// Routes returns the page router, meant to be mounted at /
func (wb *Web) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(wb.loadPrincipal)

	r.Get("/login", wb.LoginPage)
	r.Post("/login", wb.Login)
	r.Post("/logout", wb.Logout)

	r.Group(func(r chi.Router) {
		r.Use(wb.requireLogin)

		r.With(wb.requirePermission(permissions.ReportRead)).Get("/", wb.Overview)

		r.Route("/movements", func(r chi.Router) {
			r.With(wb.requirePermission(permissions.MovementsRead)).Get("/", wb.MovementLog)
			r.With(wb.requirePermission(permissions.MovementsWrite)).Get("/new", wb.NewMovement)
			r.With(wb.requirePermission(permissions.MovementsWrite)).Post("/", wb.RecordMovement)
			r.With(wb.requirePermission(permissions.MovementsWrite)).Get("/{id}/edit", wb.EditMovement)
			r.With(wb.requirePermission(permissions.MovementsWrite)).Post("/{id}", wb.UpdateMovement)
			r.With(wb.requirePermission(permissions.MovementsWrite)).Post("/{id}/delete", wb.DeleteMovement)
		})

		r.Route("/products", func(r chi.Router) {
			r.With(wb.requirePermission(permissions.CatalogRead)).Get("/", wb.Products)
			r.With(wb.requirePermission(permissions.CatalogWrite)).Post("/", wb.CreateProduct)
			r.With(wb.requirePermission(permissions.CatalogWrite)).Post("/{id}/delete", wb.DeleteProduct)
		})

		r.Route("/lookups", func(r chi.Router) {
			r.With(wb.requirePermission(permissions.CatalogRead)).Get("/", wb.LookupsIndex)
			r.With(wb.requirePermission(permissions.CatalogRead)).Get("/{kind}", wb.Lookups)
			r.With(wb.requirePermission(permissions.CatalogWrite)).Post("/{kind}", wb.CreateLookup)
			r.With(wb.requirePermission(permissions.CatalogWrite)).Post("/{kind}/{id}/delete", wb.DeleteLookup)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(wb.requirePermission(permissions.UsersManage))
			r.Get("/", wb.Users)
			r.Post("/", wb.CreateUser)
			r.Post("/{id}", wb.UpdateUser)
			r.Post("/{id}/delete", wb.DeleteUser)
		})
	})

	return r
}

// loadPrincipal restores the logged in user from the session cookie
func (wb *Web) loadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := wb.principal(r); p != nil {
			r = httputil.WithPrincipal(r, p)
		}
		next.ServeHTTP(w, r)
	})
}

func (wb *Web) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor.FromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePermission renders the restricted page when the role lacks perm
func (wb *Web) requirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := actor.FromContext(r.Context())
			if p == nil || !permissions.Allowed(p.Role, perm) {
				wb.render(w, r, http.StatusForbidden, "restricted.html", wb.page(w, r, "", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
