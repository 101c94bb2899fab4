package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
)

type staticTokens string

func (t staticTokens) Token(context.Context) (string, error) { return string(t), nil }

func TestValues_RequestShape(t *testing.T) {
	t.Parallel()
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"values":[["id","value"],["a",1.5]]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("tok-1"), zap.NewNop())
	rows, err := c.Values(context.Background(), "sheet-id", "Events!A:H")
	require.NoError(t, err)
	require.Equal(t, [][]any{{"id", "value"}, {"a", 1.5}}, rows)

	require.Equal(t, http.MethodGet, got.Method)
	require.Equal(t, "Bearer tok-1", got.Header.Get("Authorization"))
	require.Contains(t, got.URL.Path, "/sheet-id/values/")
	q := got.URL.Query()
	require.Equal(t, "UNFORMATTED_VALUE", q.Get("valueRenderOption"))
	require.Equal(t, "FORMATTED_STRING", q.Get("dateTimeRenderOption"))
	require.Equal(t, "ROWS", q.Get("majorDimension"))
}

func TestAppendValues_InsertsRowsAndNormalizesNil(t *testing.T) {
	t.Parallel()
	var (
		gotQuery map[string][]string
		gotBody  []byte
		gotPath  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("t"), zap.NewNop())
	err := c.AppendValues(context.Background(), "sid", "Events!A:C", [][]any{{"a", nil, 2.0}})
	require.NoError(t, err)

	require.Contains(t, gotPath, ":append")
	require.Equal(t, "RAW", gotQuery["valueInputOption"][0])
	require.Equal(t, "INSERT_ROWS", gotQuery["insertDataOption"][0])

	var body struct {
		Values [][]any `json:"values"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &body))
	require.Equal(t, [][]any{{"a", "", 2.0}}, body.Values)
}

func TestBatchUpdate_SerializesRequests(t *testing.T) {
	t.Parallel()
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("t"), zap.NewNop())
	err := c.BatchUpdate(context.Background(), "sid", []Request{
		AddSheet("Reminders"),
		RenameSheet(7, "EVENTS"),
		DeleteRows(42, 4, 5),
	})
	require.NoError(t, err)

	require.JSONEq(t, `{
		"requests": [
			{"addSheet": {"properties": {"title": "Reminders"}}},
			{"updateSheetProperties": {"properties": {"sheetId": 7, "title": "EVENTS"}, "fields": "title"}},
			{"deleteDimension": {"range": {"sheetId": 42, "dimension": "ROWS", "startIndex": 4, "endIndex": 5}}}
		]
	}`, string(gotBody))
}

func TestSheets_ParsesProperties(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "sheets.properties(sheetId,title)", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":0,"title":"Events"}},{"properties":{"sheetId":7,"title":"Livestock"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("t"), zap.NewNop())
	props, err := c.Sheets(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, []SheetProperties{
		{SheetID: 0, Title: "Events"},
		{SheetID: 7, Title: "Livestock"},
	}, props)
}

func TestDo_ParsesErrorBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Unable to parse range: Nope!A:B"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens("t"), zap.NewNop())
	_, err := c.Values(context.Background(), "sid", "Nope!A:B")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "Unable to parse range: Nope!A:B", apiErr.Message)
	require.NotErrorIs(t, err, errs.ErrAuthRequired)
}

func TestDo_UnauthorizedMapsToAuthSentinelAndFiresHook(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
	}))
	defer srv.Close()

	hookFired := 0
	c := NewClient(srv.URL, staticTokens("expired"), zap.NewNop(),
		WithAuthErrorHook(func() { hookFired++ }))

	err := c.UpdateValues(context.Background(), "sid", "Events!A2:C2", [][]any{{"x"}})
	require.ErrorIs(t, err, errs.ErrAuthRequired)
	require.Equal(t, 1, hookFired)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Invalid Credentials", apiErr.Message)
}
