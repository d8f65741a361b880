package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/stockroom/internal/stockroom/catalog"
	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/httputil"
)

// studiesTab is the lookups page tab that manages studies
const studiesTab = "studies"

type productsData struct {
	StudyID      int64
	Search       string
	Studies      []domain.Study
	Products     []domain.ProductListing
	ProductTypes []domain.LookupValue
	Error        string
}

// Products renders the product list with its create form
func (wb *Web) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := &productsData{Search: strings.TrimSpace(q.Get("q"))}
	data.StudyID, _ = httputil.Int64(q, "study_id")

	var err error
	if data.Studies, err = wb.catalog.ListStudies(r.Context()); err == nil {
		if data.Products, err = wb.catalog.ListProducts(r.Context(), store.ProductFilter{StudyID: data.StudyID, Search: data.Search}); err == nil {
			data.ProductTypes, err = wb.catalog.ListLookups(r.Context(), domain.LookupProductType)
		}
	}
	if err != nil {
		data.Error = errorMessage(r.Context(), err)
	}

	wb.render(w, r, http.StatusOK, "products.html", wb.page(w, r, "web.nav.products", data))
}

func (wb *Web) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	studyID, err := httputil.Int64(r.PostForm, "study_id")
	if err != nil {
		wb.fail(w, r, err, "/products")
		return
	}

	req := catalog.CreateProductRequest{
		StudyID:     studyID,
		Name:        r.PostForm.Get("name"),
		ProductType: r.PostForm.Get("product_type"),
	}
	if _, err := wb.catalog.CreateProduct(r.Context(), req); err != nil {
		wb.fail(w, r, err, "/products")
		return
	}
	wb.succeed(w, r, "flash.product_created", "/products")
}

func (wb *Web) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		wb.fail(w, r, err, "/products")
		return
	}
	if err := wb.catalog.DeleteProduct(r.Context(), id); err != nil {
		wb.fail(w, r, err, "/products")
		return
	}
	wb.succeed(w, r, "flash.product_deleted", "/products")
}

// Lookups

// lookupTab is one tab of the lookups page
type lookupTab struct {
	Slug     string
	LabelKey string
}

type lookupsData struct {
	Tabs   []lookupTab
	Active lookupTab
	Values []domain.LookupValue
	Error  string
}

func lookupTabs() []lookupTab {
	tabs := make([]lookupTab, 0, len(domain.LookupKinds)+1)
	for _, k := range domain.LookupKinds {
		tabs = append(tabs, lookupTab{Slug: k.Slug(), LabelKey: k.LabelKey()})
	}
	return append(tabs, lookupTab{Slug: studiesTab, LabelKey: "web.catalog.studies"})
}

// resolveTab returns the tab of the {kind} parameter; kind is 0 on the studies tab
func resolveTab(r *http.Request) (lookupTab, domain.LookupKind, error) {
	slug := chi.URLParam(r, "kind")
	if slug == studiesTab {
		return lookupTab{Slug: studiesTab, LabelKey: "web.catalog.studies"}, 0, nil
	}
	kind, ok := domain.ParseLookupKind(slug)
	if !ok {
		return lookupTab{}, 0, errors.NotFound("lookup")
	}
	return lookupTab{Slug: kind.Slug(), LabelKey: kind.LabelKey()}, kind, nil
}

func (wb *Web) LookupsIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/lookups/"+domain.LookupLocation.Slug(), http.StatusSeeOther)
}

// Lookups renders one reference list, or the studies, with add and delete forms
func (wb *Web) Lookups(w http.ResponseWriter, r *http.Request) {
	tab, kind, err := resolveTab(r)
	if err != nil {
		wb.fail(w, r, err, "/lookups")
		return
	}

	data := &lookupsData{Tabs: lookupTabs(), Active: tab}
	if kind == 0 {
		var studies []domain.Study
		if studies, err = wb.catalog.ListStudies(r.Context()); err == nil {
			for _, s := range studies {
				data.Values = append(data.Values, domain.LookupValue{ID: s.ID, Name: s.Name})
			}
		}
	} else {
		data.Values, err = wb.catalog.ListLookups(r.Context(), kind)
	}
	if err != nil {
		data.Error = errorMessage(r.Context(), err)
	}

	wb.render(w, r, http.StatusOK, "lookups.html", wb.page(w, r, "web.nav.lookups", data))
}

func (wb *Web) CreateLookup(w http.ResponseWriter, r *http.Request) {
	tab, kind, err := resolveTab(r)
	if err != nil {
		wb.fail(w, r, err, "/lookups")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	back := "/lookups/" + url.PathEscape(tab.Slug)
	name := r.PostForm.Get("name")
	if kind == 0 {
		if _, err := wb.catalog.CreateStudy(r.Context(), name); err != nil {
			wb.fail(w, r, err, back)
			return
		}
		wb.succeed(w, r, "flash.study_created", back)
		return
	}

	if _, err := wb.catalog.CreateLookup(r.Context(), kind, name); err != nil {
		wb.fail(w, r, err, back)
		return
	}
	wb.succeed(w, r, "flash.lookup_created", back)
}

func (wb *Web) DeleteLookup(w http.ResponseWriter, r *http.Request) {
	tab, kind, err := resolveTab(r)
	if err != nil {
		wb.fail(w, r, err, "/lookups")
		return
	}
	back := "/lookups/" + url.PathEscape(tab.Slug)
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		wb.fail(w, r, err, back)
		return
	}

	if kind == 0 {
		if err := wb.catalog.DeleteStudy(r.Context(), id); err != nil {
			wb.fail(w, r, err, back)
			return
		}
		wb.succeed(w, r, "flash.study_deleted", back)
		return
	}

	if err := wb.catalog.DeleteLookup(r.Context(), kind, id); err != nil {
		wb.fail(w, r, err, back)
		return
	}
	wb.succeed(w, r, "flash.lookup_deleted", back)
}
