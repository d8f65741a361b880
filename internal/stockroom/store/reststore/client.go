// Package reststore implements store.Store against a hosted PostgREST style
// table API (the Supabase REST interface).
package reststore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/logger"
)

// Filter is one column predicate in PostgREST syntax (col=op.value)
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Eq matches rows where column equals v
func Eq(column string, v interface{}) Filter {
	return Filter{Column: column, Op: "eq", Value: fmt.Sprint(v)}
}

// IsNull matches rows where column is NULL
func IsNull(column string) Filter {
	return Filter{Column: column, Op: "is", Value: "null"}
}

// ILike matches rows where column contains substr, ignoring case
func ILike(column, substr string) Filter {
	return Filter{Column: column, Op: "ilike", Value: "*" + substr + "*"}
}

// Query describes a GET against one table
type Query struct {
	Select  string
	Filters []Filter
	Order   string
	// Unlimited skips the row limit, for reads that must see every matching row
	Unlimited bool
}

// apiError is the PostgREST error body
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Client talks to /rest/v1/<table>
type Client struct {
	baseURL    string
	key        string
	rowLimit   int
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a table client. rowLimit caps every read.
func NewClient(baseURL, key string, timeout time.Duration, rowLimit int, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/rest/v1/",
		key:        key,
		rowLimit:   rowLimit,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Get reads rows of table into dest, a pointer to a slice
func (c *Client) Get(ctx context.Context, table string, q Query, dest interface{}) error {
	params := url.Values{}
	sel := q.Select
	if sel == "" {
		sel = "*"
	}
	params.Set("select", sel)
	for _, f := range q.Filters {
		params.Add(f.Column, f.Op+"."+f.Value)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if c.rowLimit > 0 && !q.Unlimited {
		params.Set("limit", strconv.Itoa(c.rowLimit))
	}
	return c.do(ctx, http.MethodGet, table, params, nil, dest)
}

// Count returns the exact number of rows of table matching filters, read from
// the Content-Range header of a HEAD request
func (c *Client) Count(ctx context.Context, table string, filters []Filter) (int, error) {
	params := url.Values{}
	for _, f := range filters {
		params.Add(f.Column, f.Op+"."+f.Value)
	}

	header, err := c.send(ctx, http.MethodHead, table, params, nil, nil, "count=exact")
	if err != nil {
		return 0, err
	}

	contentRange := header.Get("Content-Range")
	slash := strings.LastIndex(contentRange, "/")
	if slash < 0 {
		return 0, errors.Backend("count "+table, fmt.Errorf("missing total in Content-Range %q", contentRange))
	}
	n, err := strconv.Atoi(contentRange[slash+1:])
	if err != nil {
		return 0, errors.Backend("count "+table, fmt.Errorf("bad Content-Range %q: %w", contentRange, err))
	}
	return n, nil
}

// Insert adds row to table and decodes the stored representation into dest
func (c *Client) Insert(ctx context.Context, table string, row interface{}, dest interface{}) error {
	return c.do(ctx, http.MethodPost, table, nil, row, dest)
}

// Update patches the rows where keyColumn equals keyValue and decodes them into dest
func (c *Client) Update(ctx context.Context, table string, patch interface{}, keyColumn string, keyValue interface{}, dest interface{}) error {
	params := url.Values{}
	params.Set(keyColumn, "eq."+fmt.Sprint(keyValue))
	return c.do(ctx, http.MethodPatch, table, params, patch, dest)
}

// Delete removes the rows where keyColumn equals keyValue and reports how many went
func (c *Client) Delete(ctx context.Context, table string, keyColumn string, keyValue interface{}) (int, error) {
	params := url.Values{}
	params.Set(keyColumn, "eq."+fmt.Sprint(keyValue))
	params.Set("select", keyColumn)

	var removed []map[string]interface{}
	if err := c.do(ctx, http.MethodDelete, table, params, nil, &removed); err != nil {
		return 0, err
	}
	return len(removed), nil
}

func (c *Client) do(ctx context.Context, method, table string, params url.Values, body interface{}, dest interface{}) error {
	prefer := ""
	if method != http.MethodGet {
		prefer = "return=representation"
	}
	_, err := c.send(ctx, method, table, params, body, dest, prefer)
	return err
}

// send performs one request and returns the response headers
func (c *Client) send(ctx context.Context, method, table string, params url.Values, body interface{}, dest interface{}, prefer string) (http.Header, error) {
	op := strings.ToLower(method) + " " + table

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("rest marshal %s: %w", table, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	target := c.baseURL + table
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, errors.Backend(op, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Backend(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Backend(op, err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.mapError(op, table, resp.StatusCode, data)
	}

	if dest != nil && len(data) > 0 {
		if err := json.Unmarshal(data, dest); err != nil {
			return nil, errors.Backend(op, fmt.Errorf("decode response: %w", err))
		}
	}
	return resp.Header, nil
}

func (c *Client) mapError(op, table string, status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	if apiErr.Code == "23505" || status == http.StatusConflict {
		return errors.Conflict("errors.duplicate", "a record with these values already exists", map[string]string{"resource": table})
	}

	c.logger.Warn().
		Str("op", op).
		Int("status", status).
		Str("code", apiErr.Code).
		Str("message", apiErr.Message).
		Msg("rest backend request failed")

	msg := apiErr.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return errors.Backend(op, fmt.Errorf("HTTP %d: %s", status, msg))
}
