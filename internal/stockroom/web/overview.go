package web

import (
	"net/http"

	"github.com/medflow/stockroom/internal/stockroom/report"
)

type overviewData struct {
	Filter   report.OverviewFilter
	Overview *report.Overview
	Error    string
}

// Overview renders the stock position. Open to every logged in role.
func (wb *Web) Overview(w http.ResponseWriter, r *http.Request) {
	data := &overviewData{Overview: &report.Overview{}}

	filter, err := report.ParseOverviewFilter(r.URL.Query())
	if err == nil {
		data.Filter = filter
		var overview *report.Overview
		if overview, err = wb.reports.Overview(r.Context(), filter); err == nil {
			data.Overview = overview
		}
	}
	if err != nil {
		data.Error = errorMessage(r.Context(), err)
	}

	wb.render(w, r, http.StatusOK, "overview.html", wb.page(w, r, "web.overview.title", data))
}
