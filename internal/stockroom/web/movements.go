package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/internal/stockroom/ledger"
	"github.com/medflow/stockroom/internal/stockroom/report"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/httputil"
	"github.com/medflow/stockroom/pkg/i18n"
)

// movementForm holds the raw form values so a rejected submission can be redisplayed
type movementForm struct {
	Type        string
	StudyID     int64
	ProductID   int64
	Date        string
	Quantity    string
	Expiry      string
	Lot         string
	InvoiceNote string
	ActionType  string
	Remarks     string
	Location    string
}

func (f movementForm) IsExit() bool {
	return f.Type == string(domain.Exit)
}

func readMovementForm(values url.Values) movementForm {
	f := movementForm{
		Type:        strings.TrimSpace(values.Get("transaction_type")),
		Date:        strings.TrimSpace(values.Get("date")),
		Quantity:    strings.TrimSpace(values.Get("quantity")),
		Expiry:      strings.TrimSpace(values.Get("expiry")),
		Lot:         values.Get("lot"),
		InvoiceNote: values.Get("invoice_note"),
		ActionType:  values.Get("action_type"),
		Remarks:     values.Get("remarks"),
		Location:    values.Get("location"),
	}
	if f.Type == "" {
		f.Type = string(domain.Entry)
	}
	// unparsable ids fall back to "nothing selected"
	f.StudyID, _ = httputil.Int64(values, "study_id")
	f.ProductID, _ = httputil.Int64(values, "product_id")
	return f
}

// parsed converts the typed fields, collecting every bad one
func (f movementForm) parsed() (quantity int, expiry *domain.Date, err error) {
	details := map[string]string{}
	if quantity, err = strconv.Atoi(f.Quantity); err != nil {
		details["quantity"] = i18n.T("validation.invalid_number")
	}
	if expiry, err = domain.ParseOptionalDate(f.Expiry); err != nil {
		details["expiry"] = i18n.T("validation.invalid_date")
	}
	if len(details) > 0 {
		return 0, nil, errors.Validation(details)
	}
	return quantity, expiry, nil
}

func (f movementForm) recordRequest() (ledger.RecordRequest, error) {
	quantity, expiry, err := f.parsed()
	if err != nil {
		return ledger.RecordRequest{}, err
	}
	return ledger.RecordRequest{
		TransactionType: domain.TransactionType(f.Type),
		StudyID:         f.StudyID,
		ProductID:       f.ProductID,
		Quantity:        quantity,
		Expiry:          expiry,
		Lot:             domain.OptionalString(f.Lot),
		InvoiceNote:     domain.OptionalString(f.InvoiceNote),
		ActionType:      domain.OptionalString(f.ActionType),
		Remarks:         domain.OptionalString(f.Remarks),
		Location:        domain.OptionalString(f.Location),
	}, nil
}

func (f movementForm) updateRequest() (ledger.UpdateRequest, error) {
	quantity, expiry, err := f.parsed()
	if err != nil {
		return ledger.UpdateRequest{}, err
	}
	date, err := domain.ParseDate(f.Date)
	if err != nil {
		return ledger.UpdateRequest{}, errors.Validation(map[string]string{"date": i18n.T("validation.invalid_date")})
	}
	return ledger.UpdateRequest{
		Date:            date,
		TransactionType: domain.TransactionType(f.Type),
		Quantity:        quantity,
		Expiry:          expiry,
		Lot:             domain.OptionalString(f.Lot),
		InvoiceNote:     domain.OptionalString(f.InvoiceNote),
		ActionType:      domain.OptionalString(f.ActionType),
		Remarks:         domain.OptionalString(f.Remarks),
		Location:        domain.OptionalString(f.Location),
	}, nil
}

func movementFormOf(m *domain.Movement) movementForm {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	f := movementForm{
		Type:        string(m.TransactionType),
		StudyID:     m.StudyID,
		ProductID:   m.ProductID,
		Date:        m.Date.String(),
		Quantity:    strconv.Itoa(m.Quantity),
		Lot:         deref(m.Lot),
		InvoiceNote: deref(m.InvoiceNote),
		ActionType:  deref(m.ActionType),
		Remarks:     deref(m.Remarks),
		Location:    deref(m.Location),
	}
	if m.Expiry != nil {
		f.Expiry = m.Expiry.String()
	}
	return f
}

type entryData struct {
	Form        movementForm
	Today       string
	Studies     []domain.Study
	Products    []domain.ProductListing
	Locations   []domain.LookupValue
	ActionTypes []domain.LookupValue
	// Options and Balance are set once a product is chosen for an exit
	Options *ledger.KeyOptions
	Balance *int
	Error   string
}

// loadEntry fills the select lists of the entry form. Lookup failures leave
// the lists empty and surface as the page error.
func (wb *Web) loadEntry(ctx context.Context, form movementForm) *entryData {
	data := &entryData{Form: form, Today: domain.Today().Display()}

	var err error
	if data.Studies, err = wb.catalog.ListStudies(ctx); err != nil {
		data.Error = errorMessage(ctx, err)
		return data
	}
	if form.StudyID > 0 {
		if data.Products, err = wb.catalog.ProductsOfStudy(ctx, form.StudyID); err != nil {
			data.Error = errorMessage(ctx, err)
			return data
		}
	}
	if data.Locations, err = wb.catalog.ListLookups(ctx, domain.LookupLocation); err != nil {
		data.Error = errorMessage(ctx, err)
		return data
	}
	if data.ActionTypes, err = wb.catalog.ListLookups(ctx, domain.LookupActionType); err != nil {
		data.Error = errorMessage(ctx, err)
		return data
	}

	if form.IsExit() && form.StudyID > 0 && form.ProductID > 0 {
		if data.Options, err = wb.ledger.KeyOptions(ctx, form.StudyID, form.ProductID); err != nil {
			data.Error = errorMessage(ctx, err)
			return data
		}
		if expiry, perr := domain.ParseOptionalDate(form.Expiry); perr == nil {
			key := domain.Key{StudyID: form.StudyID, ProductID: form.ProductID, Expiry: expiry, Lot: domain.OptionalString(form.Lot)}
			if balance, err := wb.ledger.Balance(ctx, key); err == nil {
				data.Balance = &balance
			}
		}
	}
	return data
}

// NewMovement renders the entry form. Changing study, product or type
// reloads the form through its query string.
func (wb *Web) NewMovement(w http.ResponseWriter, r *http.Request) {
	data := wb.loadEntry(r.Context(), readMovementForm(r.URL.Query()))
	wb.render(w, r, http.StatusOK, "movement_new.html", wb.page(w, r, "web.movement.title", data))
}

// RecordMovement records the submitted movement for the logged in user
func (wb *Web) RecordMovement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := readMovementForm(r.PostForm)

	m, err := wb.recordMovement(r, form)
	if err != nil {
		data := wb.loadEntry(r.Context(), form)
		data.Error = errorMessage(r.Context(), err)
		wb.render(w, r, http.StatusBadRequest, "movement_new.html", wb.page(w, r, "web.movement.title", data))
		return
	}

	balance, err := wb.ledger.Balance(r.Context(), m.Key())
	if err != nil {
		wb.logger.Warn().Err(err).Int64("movement_id", m.ID).Msg("could not read balance after recording")
	}

	next := url.Values{}
	next.Set("transaction_type", form.Type)
	next.Set("study_id", strconv.FormatInt(form.StudyID, 10))
	next.Set("product_id", strconv.FormatInt(form.ProductID, 10))
	wb.succeed(w, r, "flash.movement_recorded", "/movements/new?"+next.Encode(),
		map[string]string{"balance": strconv.Itoa(balance)})
}

func (wb *Web) recordMovement(r *http.Request, form movementForm) (*domain.Movement, error) {
	req, err := form.recordRequest()
	if err != nil {
		return nil, err
	}
	return wb.ledger.RecordMovement(r.Context(), actor.Username(r.Context()), req)
}

type logData struct {
	Filter report.LogFilter
	Log    *report.MovementLog
	Error  string
}

// MovementLog renders the filtered ledger
func (wb *Web) MovementLog(w http.ResponseWriter, r *http.Request) {
	data := &logData{Log: &report.MovementLog{}}

	filter, err := report.ParseLogFilter(r.URL.Query())
	if err == nil {
		data.Filter = filter
		var log *report.MovementLog
		if log, err = wb.reports.MovementLog(r.Context(), filter); err == nil {
			data.Log = log
		}
	}
	if err != nil {
		data.Error = errorMessage(r.Context(), err)
	}

	wb.render(w, r, http.StatusOK, "movements.html", wb.page(w, r, "web.movement.log_title", data))
}

type editData struct {
	ID          int64
	Form        movementForm
	Locations   []domain.LookupValue
	ActionTypes []domain.LookupValue
}

func (wb *Web) EditMovement(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		wb.fail(w, r, err, "/movements")
		return
	}

	m, err := wb.ledger.GetMovement(r.Context(), id)
	if err != nil {
		wb.fail(w, r, err, "/movements")
		return
	}

	data := &editData{ID: id, Form: movementFormOf(m)}
	if data.Locations, err = wb.catalog.ListLookups(r.Context(), domain.LookupLocation); err != nil {
		wb.fail(w, r, err, "/movements")
		return
	}
	if data.ActionTypes, err = wb.catalog.ListLookups(r.Context(), domain.LookupActionType); err != nil {
		wb.fail(w, r, err, "/movements")
		return
	}

	wb.render(w, r, http.StatusOK, "movement_edit.html", wb.page(w, r, "web.movement.edit_title", data))
}

func (wb *Web) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		wb.fail(w, r, err, "/movements")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	editPage := "/movements/" + strconv.FormatInt(id, 10) + "/edit"
	req, err := readMovementForm(r.PostForm).updateRequest()
	if err != nil {
		wb.fail(w, r, err, editPage)
		return
	}
	if _, err := wb.ledger.UpdateMovement(r.Context(), actor.Username(r.Context()), id, req); err != nil {
		wb.fail(w, r, err, editPage)
		return
	}
	wb.succeed(w, r, "flash.movement_updated", "/movements")
}

func (wb *Web) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		wb.fail(w, r, err, "/movements")
		return
	}
	if err := wb.ledger.DeleteMovement(r.Context(), actor.Username(r.Context()), id); err != nil {
		wb.fail(w, r, err, "/movements")
		return
	}
	wb.succeed(w, r, "flash.movement_deleted", "/movements")
}
