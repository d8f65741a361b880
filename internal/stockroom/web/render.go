package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/report"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/i18n"
	"github.com/medflow/stockroom/pkg/permissions"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

type templates struct {
	pages map[string]*template.Template
}

// Page is the data every template receives
type Page struct {
	Title     string
	Principal *actor.Principal
	Manager   bool
	Flashes   []Flash
	Locale    string
	Data      interface{}
}

var funcs = template.FuncMap{
	// replaced per request with the request's localizer
	"t": func(key string, params ...map[string]string) string { return i18n.T(key, params...) },

	"hasID": func(ids []int64, id int64) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	},
	"hasString": func(values []string, s string) bool {
		for _, v := range values {
			if v == s {
				return true
			}
		}
		return false
	},
	"opt": func(s *string) string {
		if s == nil {
			return "—"
		}
		return *s
	},
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"date": domain.DisplayDate,
	"iso": func(d *domain.Date) string {
		if d == nil {
			return ""
		}
		return d.String()
	},
	"emoji": func(l report.Light) string { return l.Emoji() },
}

func parseTemplates() (*templates, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	t := &templates{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := path.Base(file)
		page, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, err
		}
		t.pages[name] = page
	}
	return t, nil
}

// page builds the common page data and pops pending flashes
func (wb *Web) page(w http.ResponseWriter, r *http.Request, title string, data interface{}) *Page {
	p := actor.FromContext(r.Context())
	return &Page{
		Title:     title,
		Principal: p,
		Manager:   p != nil && permissions.Allowed(p.Role, permissions.MovementsWrite),
		Flashes:   wb.takeFlashes(w, r),
		Locale:    i18n.LocalizerFromContext(r.Context()).GetLocale(),
		Data:      data,
	}
}

// render executes a page into a buffer first so template errors never produce half a page
func (wb *Web) render(w http.ResponseWriter, r *http.Request, status int, name string, p *Page) {
	tmpl, ok := wb.templates.pages[name]
	if !ok {
		wb.logger.Error().Str("template", name).Msg("unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clone, err := tmpl.Clone()
	if err != nil {
		wb.logger.Error().Err(err).Str("template", name).Msg("failed to clone template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	clone.Funcs(template.FuncMap{"t": i18n.LocalizerFromContext(r.Context()).T})

	var buf bytes.Buffer
	if err := clone.ExecuteTemplate(&buf, "layout", p); err != nil {
		wb.logger.Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// fail flashes a localized error and redirects
func (wb *Web) fail(w http.ResponseWriter, r *http.Request, err error, to string) {
	wb.flash(w, r, flashError, errorMessage(r.Context(), err))
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// succeed flashes a localized confirmation and redirects
func (wb *Web) succeed(w http.ResponseWriter, r *http.Request, key string, to string, params ...map[string]string) {
	wb.flash(w, r, flashSuccess, i18n.TFromContext(r.Context(), key, params...))
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// errorMessage renders err for the user. Field details of validation errors
// are appended with their form labels.
func errorMessage(ctx context.Context, err error) string {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		return i18n.TFromContext(ctx, "errors.internal")
	}

	msg := appErr.Localize(ctx)
	if appErr.MessageKey != "errors.validation_failed" || len(appErr.Details) == 0 {
		return msg
	}

	fields := make([]string, 0, len(appErr.Details))
	for field := range appErr.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fieldLabel(ctx, field)+": "+appErr.Details[field])
	}
	return msg + " " + strings.Join(parts, " ")
}

var fieldLabels = map[string]string{
	"study_id":         "web.movement.study",
	"product_id":       "web.movement.product",
	"transaction_type": "web.movement.type",
	"quantity":         "web.movement.quantity",
	"expiry":           "web.movement.expiry",
	"date":             "web.movement.date",
	"product_type":     "web.movement.product_type",
	"name":             "web.catalog.name",
	"username":         "web.users.username",
	"password":         "web.users.password",
	"role":             "web.users.role",
}

func fieldLabel(ctx context.Context, field string) string {
	if key, ok := fieldLabels[field]; ok {
		return i18n.TFromContext(ctx, key)
	}
	return field
}
