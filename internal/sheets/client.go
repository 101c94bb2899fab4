// Package sheets is a minimal REST client for the spreadsheet values and
// structural-update endpoints. It exposes exactly the range primitives the
// row store is built from; no retries, at-most-once semantics per call.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
)

// TokenSource supplies a fresh bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// APIError is a non-2xx response from the spreadsheet API. The message is
// taken from the error body when parseable, the HTTP status text otherwise.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sheets api: %s (status %d)", e.Message, e.Status)
}

// Unwrap maps an unauthorized response onto the auth sentinel so callers can
// distinguish "need to re-login" from other transport failures.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return errs.ErrAuthRequired
	}
	return nil
}

// SheetProperties identifies one sheet (tab) inside a spreadsheet.
type SheetProperties struct {
	SheetID int64  `json:"sheetId"`
	Title   string `json:"title"`
}

// Request is a single structural batch-update operation. Exactly one field
// is set per request.
type Request struct {
	AddSheet              *addSheetRequest              `json:"addSheet,omitempty"`
	UpdateSheetProperties *updateSheetPropertiesRequest `json:"updateSheetProperties,omitempty"`
	DeleteDimension       *deleteDimensionRequest       `json:"deleteDimension,omitempty"`
}

type sheetPropertiesBody struct {
	SheetID int64  `json:"sheetId,omitempty"`
	Title   string `json:"title,omitempty"`
}

type addSheetRequest struct {
	Properties sheetPropertiesBody `json:"properties"`
}

type updateSheetPropertiesRequest struct {
	Properties sheetPropertiesBody `json:"properties"`
	Fields     string              `json:"fields"`
}

type dimensionRange struct {
	SheetID    int64  `json:"sheetId"`
	Dimension  string `json:"dimension"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

type deleteDimensionRequest struct {
	Range dimensionRange `json:"range"`
}

// AddSheet creates a new sheet with the given title.
func AddSheet(title string) Request {
	return Request{AddSheet: &addSheetRequest{Properties: sheetPropertiesBody{Title: title}}}
}

// RenameSheet changes a sheet's title.
func RenameSheet(sheetID int64, title string) Request {
	return Request{UpdateSheetProperties: &updateSheetPropertiesRequest{
		Properties: sheetPropertiesBody{SheetID: sheetID, Title: title},
		Fields:     "title",
	}}
}

// DeleteRows removes the half-open row interval [start, end) from a sheet.
// Indices are zero-based.
func DeleteRows(sheetID int64, start, end int) Request {
	return Request{DeleteDimension: &deleteDimensionRequest{Range: dimensionRange{
		SheetID:    sheetID,
		Dimension:  "ROWS",
		StartIndex: start,
		EndIndex:   end,
	}}}
}

// Client talks to one spreadsheet API endpoint. Cells are the raw JSON
// scalars of the grid: string, float64, bool or nil.
type Client struct {
	base        string
	httpClient  *http.Client
	tokens      TokenSource
	onAuthError func()
	log         *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthErrorHook registers a callback fired whenever the API rejects the
// bearer token. Used to clear the session and evict provisioning memos.
func WithAuthErrorHook(fn func()) Option {
	return func(c *Client) { c.onAuthError = fn }
}

// NewClient constructs a Client for the given API base URL.
func NewClient(baseURL string, tokens TokenSource, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		base:       baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type valuesResponse struct {
	Values [][]any `json:"values"`
}

type valuesBody struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

type spreadsheetResponse struct {
	Sheets []struct {
		Properties SheetProperties `json:"properties"`
	} `json:"sheets"`
}

type batchUpdateBody struct {
	Requests []Request `json:"requests"`
}

// Values reads a range as rows of raw cells. Unformatted values, formatted
// date strings.
func (c *Client) Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	q := url.Values{}
	q.Set("valueRenderOption", "UNFORMATTED_VALUE")
	q.Set("dateTimeRenderOption", "FORMATTED_STRING")
	q.Set("majorDimension", "ROWS")

	path := fmt.Sprintf("/%s/values/%s?%s", url.PathEscape(spreadsheetID), url.PathEscape(rng), q.Encode())
	var out valuesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// UpdateValues overwrites a range with the given rows. Nil cells are sent
// as empty strings so stale cell content is cleared, not skipped.
func (c *Client) UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	q := url.Values{}
	q.Set("valueInputOption", "RAW")

	body := valuesBody{Range: rng, MajorDimension: "ROWS", Values: normalizeValues(values)}
	path := fmt.Sprintf("/%s/values/%s?%s", url.PathEscape(spreadsheetID), url.PathEscape(rng), q.Encode())
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// AppendValues appends rows after the last data row of the range, inserting
// new rows rather than overwriting anything below the table.
func (c *Client) AppendValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	q := url.Values{}
	q.Set("valueInputOption", "RAW")
	q.Set("insertDataOption", "INSERT_ROWS")

	body := valuesBody{Range: rng, MajorDimension: "ROWS", Values: normalizeValues(values)}
	path := fmt.Sprintf("/%s/values/%s:append?%s", url.PathEscape(spreadsheetID), url.PathEscape(rng), q.Encode())
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// BatchUpdate applies structural operations (add sheet, rename, delete rows).
func (c *Client) BatchUpdate(ctx context.Context, spreadsheetID string, reqs []Request) error {
	path := fmt.Sprintf("/%s:batchUpdate", url.PathEscape(spreadsheetID))
	return c.do(ctx, http.MethodPost, path, batchUpdateBody{Requests: reqs}, nil)
}

// Sheets returns id and title for every sheet in the spreadsheet.
func (c *Client) Sheets(ctx context.Context, spreadsheetID string) ([]SheetProperties, error) {
	q := url.Values{}
	q.Set("fields", "sheets.properties(sheetId,title)")

	path := fmt.Sprintf("/%s?%s", url.PathEscape(spreadsheetID), q.Encode())
	var out spreadsheetResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	props := make([]SheetProperties, 0, len(out.Sheets))
	for _, s := range out.Sheets {
		props = append(props, s.Properties)
	}
	return props, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp)}
		if resp.StatusCode == http.StatusUnauthorized && c.onAuthError != nil {
			c.onAuthError()
		}
		c.log.Debug("sheets api error",
			zap.String("method", method),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode sheets response: %w", err)
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &payload) == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return resp.Status
}

func normalizeValues(values [][]any) [][]any {
	normalized := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, cell := range row {
			if cell == nil {
				cells[j] = ""
			} else {
				cells[j] = cell
			}
		}
		normalized[i] = cells
	}
	return normalized
}
