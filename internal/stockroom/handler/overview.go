package handler

import (
	"net/http"

	"github.com/medflow/stockroom/internal/stockroom/report"
	"github.com/medflow/stockroom/pkg/httputil"
)

// Overview returns the stock position per balance key
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	filter, err := report.ParseOverviewFilter(r.URL.Query())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	overview, err := h.reports.Overview(r.Context(), filter)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, overview, &httputil.Meta{Total: int64(len(overview.Rows))})
}
