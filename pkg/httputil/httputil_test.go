package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/i18n"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestError_LocalizesAppError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(i18n.WithLocale(req.Context(), i18n.LocaleEnglish))
	rec := httptest.NewRecorder()

	Error(rec, req, errors.InvalidCredentials())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	assert.Equal(t, i18n.TWithLocale(i18n.LocaleEnglish, "errors.invalid_credentials"), resp.Error.Message)
}

func TestError_UnknownErrorIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	Error(rec, req, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rec).Error.Code)
}

func TestJSONWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONWithMeta(rec, http.StatusOK, []string{"a", "b"}, &Meta{Total: 2})

	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2), resp.Meta.Total)
}

func TestRequestIDAndPrincipal(t *testing.T) {
	var seen *actor.Principal
	h := RequestID(Logger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = WithPrincipal(r, &actor.Principal{Username: "ana", Role: "gestor"})
		seen = actor.FromContext(r.Context())
		assert.NotEmpty(t, GetRequestID(r.Context()))
		NoContent(w)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.NotNil(t, seen)
	assert.Equal(t, "ana", seen.Username)
}

func TestRequestID_BecomesCorrelationID(t *testing.T) {
	var correlationID string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID = messaging.CorrelationID(r.Context())
		NoContent(w)
	}))

	req := httptest.NewRequest(http.MethodPost, "/movements", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", correlationID)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
