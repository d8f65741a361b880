package httputil

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/i18n"
)

// IDParam parses a positive integer path parameter
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidNumber(name)
	}
	return id, nil
}

// Int64 parses a single optional integer value. Missing or blank gives 0.
func Int64(values url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidNumber(key)
	}
	return n, nil
}

// Int64s parses a repeated integer value (?id=1&id=2). Comma separated lists are accepted too.
func Int64s(values url.Values, key string) ([]int64, error) {
	var out []int64
	for _, raw := range Strings(values, key) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, invalidNumber(key)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// Strings returns the non-blank values of a repeated key
func Strings(values url.Values, key string) []string {
	var out []string
	for _, v := range values[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Bool reads a checkbox style flag: "1", "true", "on" and "yes" are true
func Bool(values url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(values.Get(key))) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

func invalidNumber(field string) error {
	return errors.Validation(map[string]string{field: i18n.T("validation.invalid_number")})
}
