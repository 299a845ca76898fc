package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatEd/internal/database"
	"github.com/koustreak/DatEd/internal/database/sqlite"
	"github.com/koustreak/DatEd/internal/editor"
	"github.com/koustreak/DatEd/internal/exporter"
	"github.com/koustreak/DatEd/internal/filestore"
	"github.com/koustreak/DatEd/internal/logger"
	"github.com/koustreak/DatEd/internal/schema"
)

// uploadStore is a minimal in-memory filestore.Store for export tests.
type uploadStore struct {
	lastKey string
}

func (u *uploadStore) Ping(context.Context) error { return nil }

func (u *uploadStore) Close() error { return nil }

func (u *uploadStore) EnsureBucket(context.Context, string) error { return nil }

func (u *uploadStore) PutObject(_ context.Context, bucket, key string, body io.Reader, size int64, _ string) (*filestore.ObjectInfo, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	u.lastKey = key
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (u *uploadStore) PresignGetURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "http://store.local/" + bucket + "/" + key, nil
}

func newTestServer(t *testing.T, store filestore.Store, logOut io.Writer) (http.Handler, database.DB) {
	t.Helper()

	db, err := sqlite.New(context.Background(), database.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, editor.Seed(context.Background(), db))

	if logOut == nil {
		logOut = io.Discard
	}
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: logOut})

	svc := editor.NewService(db, schema.NewInspector(db), nil, log)
	exp := exporter.New(svc, store, "exports", log)

	srv, err := New(svc, exp, db, log)
	require.NoError(t, err)
	return srv.Router(), db
}

func doRequest(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestMetadataEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/metadata", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "users", body["table"])

	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 5)

	first, ok := fields[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "id", first["name"])
	assert.Equal(t, true, first["primary_key"])
	assert.Contains(t, first, "type")
	assert.Contains(t, first, "nullable")
	assert.Contains(t, first, "default")
}

func TestMetadataEndpoint_UnknownTable(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/metadata?table=ghost", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), `"fields":[]`)
	body := decodeBody(t, rec)
	assert.Equal(t, "ghost", body["table"])
}

func TestDataEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/data?table=users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "users", body["table"])

	columns, ok := body["columns"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"id", "username", "email", "age", "active"}, columns)

	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	assert.Len(t, rows, 3)
}

func TestDataEndpoint_UnknownTable(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/data?table=ghost", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), `"columns":[]`)
	assert.Contains(t, rec.Body.String(), `"rows":[]`)
}

func TestUpdateEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/update",
		`{"id": 1, "fields": {"email": "new@x.com"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Record 1 updated successfully", body["message"])
	assert.Equal(t, float64(1), body["rows_affected"])

	// the change is visible on the read path
	data := decodeBody(t, doRequest(t, h, http.MethodGet, "/data", ""))
	for _, raw := range data["rows"].([]any) {
		row := raw.(map[string]any)
		if row["id"] == float64(1) {
			assert.Equal(t, "new@x.com", row["email"])
			assert.Equal(t, "john_doe", row["username"])
		}
	}
}

func TestUpdateEndpoint_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "empty body",
			body:    "",
			message: "No data provided",
		},
		{
			name:    "null body",
			body:    "null",
			message: "No data provided",
		},
		{
			name:    "malformed json",
			body:    "{not json",
			message: "No data provided",
		},
		{
			name:    "missing id",
			body:    `{"fields": {"email": "x"}}`,
			message: "No record ID provided",
		},
		{
			name:    "no fields",
			body:    `{"id": 1}`,
			message: "No fields to update",
		},
		{
			name:    "unknown table",
			body:    `{"table": "ghost", "id": 1, "fields": {"a": 1}}`,
			message: "Table ghost does not exist",
		},
		{
			name:    "invalid column",
			body:    `{"id": 1, "fields": {"password": "hunter2"}}`,
			message: "Invalid column name: password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestServer(t, nil, nil)

			rec := doRequest(t, h, http.MethodPost, "/update", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["error"])
		})
	}
}

func TestUpdateEndpoint_NotFound(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/update",
		`{"id": 999999, "fields": {"email": "x@x.com"}}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Record not found", decodeBody(t, rec)["error"])
}

func TestUpdateEndpoint_RedactsInternalErrors(t *testing.T) {
	h, db := newTestServer(t, nil, nil)
	db.Close()

	rec := doRequest(t, h, http.MethodPost, "/update",
		`{"id": 1, "fields": {"email": "x@x.com"}}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "closed")
	assert.NotContains(t, rec.Body.String(), "sql")
}

func TestIndexPage(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	page := rec.Body.String()
	assert.Contains(t, page, "users")
	assert.Contains(t, page, "john_doe")
	assert.Contains(t, page, "jane@example.com")
	assert.Contains(t, page, `data-column="email"`)
}

func TestIndexPage_RedactsInternalErrors(t *testing.T) {
	h, db := newTestServer(t, nil, nil)
	db.Close()

	rec := doRequest(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, "Internal server error")
	assert.NotContains(t, page, "closed")
}

func TestHealthzEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestHealthzEndpoint_DatabaseDown(t *testing.T) {
	h, db := newTestServer(t, nil, nil)
	db.Close()

	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "database unreachable", body["error"])
}

func TestExportEndpoint_DirectCSV(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/export", `{"table": "users"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"id", "username", "email", "age", "active"}, records[0])
}

func TestExportEndpoint_Upload(t *testing.T) {
	store := &uploadStore{}
	h, _ := newTestServer(t, store, nil)

	rec := doRequest(t, h, http.MethodPost, "/export", `{"table": "users"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "exports", body["bucket"])
	assert.Equal(t, store.lastKey, body["key"])
	assert.Contains(t, body["url"], store.lastKey)
	assert.Equal(t, float64(3), body["rows"])
}

func TestExportEndpoint_UnknownTable(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, h, http.MethodPost, "/export", `{"table": "ghost"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Table ghost does not exist", decodeBody(t, rec)["error"])
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	h, _ := newTestServer(t, nil, &buf)

	doRequest(t, h, http.MethodGet, "/healthz", "")

	logLine := buf.String()
	assert.Contains(t, logLine, `"method":"GET"`)
	assert.Contains(t, logLine, `"path":"/healthz"`)
	assert.Contains(t, logLine, `"status":200`)
	assert.Contains(t, logLine, "request_id")
}
