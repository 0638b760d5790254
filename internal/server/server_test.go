package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/fkoehler/buildorder/pkg/history"
	pkgio "github.com/fkoehler/buildorder/pkg/io"
	"github.com/fkoehler/buildorder/pkg/pipeline"
)

const sampleData = `# sample build dependencies
kde/kdelibs: tools/cmake
kde/kdelibs: qt/qt5
kde/kdebase: kde/kdelibs
net/ircd: net/ircd-extras
net/ircd-extras: net/ircd
*: tools/cmake
`

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func newTestServer(t *testing.T, store history.Store) *Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dependency-data-test")
	if err := os.WriteFile(path, []byte(sampleData), 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}

	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, logger)
	db, hash, err := runner.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if store == nil {
		store = history.NewNopStore()
	}
	return New(Config{Addr: "127.0.0.1:0", DataFile: path}, db, hash, runner, store, logger)
}

func doJSON(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
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
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("GET /healthz body = %q, want it to contain %q", rec.Body.String(), `"ok"`)
	}
}

func TestComponents(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/v1/components", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/components status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Components []string `json:"components"`
		Count      int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	want := []string{
		"kde/kdebase",
		"kde/kdelibs",
		"net/ircd",
		"net/ircd-extras",
		"qt/qt5",
		"tools/cmake",
	}
	if !slices.Equal(body.Components, want) {
		t.Errorf("components = %v, want %v", body.Components, want)
	}
	if body.Count != len(want) {
		t.Errorf("count = %d, want %d", body.Count, len(want))
	}
}

func TestResolve(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/v1/resolve", `{"components": ["kdebase"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/resolve status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var res pkgio.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if !slices.Equal(res.Components, []string{"kde/kdebase"}) {
		t.Errorf("components = %v, want [kde/kdebase]", res.Components)
	}
	if res.Mode != pkgio.ModeClosure {
		t.Errorf("mode = %q, want %q", res.Mode, pkgio.ModeClosure)
	}
	got := make([]string, len(res.Order))
	for i, ref := range res.Order {
		got[i] = ref.Component
	}
	want := []string{"tools/cmake", "qt/qt5", "kde/kdelibs", "kde/kdebase"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown component",
			body:       `{"components": ["does/not-exist"]}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "cycle",
			body:       `{"components": ["net/ircd"]}`,
			wantStatus: http.StatusConflict,
			wantCode:   "CYCLE",
		},
		{
			name:       "malformed json",
			body:       `{"components": [`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "no components",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "path traversal",
			body:       `{"components": ["../etc/passwd"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "waves with direct",
			body:       `{"components": ["kde/kdebase"], "direct": true, "waves": true}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			rec := doJSON(t, s, http.MethodPost, "/v1/resolve", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestResolveRecordsHistory(t *testing.T) {
	store := &recordingStore{}
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodPost, "/v1/resolve", `{"components": ["kde/kdebase"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/resolve status = %d, want %d", rec.Code, http.StatusOK)
	}

	if len(store.entries) != 1 {
		t.Fatalf("recorded entries = %d, want 1", len(store.entries))
	}
	entry := store.entries[0]
	if !slices.Equal(entry.Components, []string{"kde/kdebase"}) {
		t.Errorf("entry components = %v, want [kde/kdebase]", entry.Components)
	}
	if entry.Direct {
		t.Error("entry direct = true, want false")
	}
	if entry.OrderSize != 4 {
		t.Errorf("entry order size = %d, want 4", entry.OrderSize)
	}
}

func TestResolveFailureNotRecorded(t *testing.T) {
	store := &recordingStore{}
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodPost, "/v1/resolve", `{"components": ["net/ircd"]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if len(store.entries) != 0 {
		t.Errorf("recorded entries = %d, want 0", len(store.entries))
	}
}

func TestGraphDOT(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/v1/graph?component=kde/kdebase", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/graph status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/vnd.graphviz")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "digraph deps {") {
		t.Errorf("body missing digraph header:\n%s", body)
	}
	if !strings.Contains(body, `"kde/kdebase" -> "kde/kdelibs";`) {
		t.Errorf("body missing edge:\n%s", body)
	}
}

func TestGraphErrors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing component",
			target:     "/v1/graph",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "unknown format",
			target:     "/v1/graph?component=kde/kdebase&format=bmp",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "unknown component",
			target:     "/v1/graph?component=does/not-exist",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			rec := doJSON(t, s, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestHistoryEmpty(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/history status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Entries []history.Entry `json:"entries"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Entries) != 0 || body.Count != 0 {
		t.Errorf("entries = %v, count = %d, want empty", body.Entries, body.Count)
	}
}

func TestHistoryBadLimit(t *testing.T) {
	s := newTestServer(t, nil)

	for _, limit := range []string{"abc", "0", "-3"} {
		rec := doJSON(t, s, http.MethodGet, "/v1/history?limit="+limit, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: status = %d, want %d", limit, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-from-client")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-from-client" {
		t.Errorf("X-Request-ID = %q, want %q", got, "req-from-client")
	}
}

func TestErrorBodyCarriesRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/v1/resolve", `{"components": ["does/not-exist"]}`)
	if body := decodeError(t, rec); body.RequestID == "" {
		t.Error("error body request_id is empty")
	}
}

// recordingStore captures history entries for assertions.
type recordingStore struct {
	entries []history.Entry
}

func (s *recordingStore) Record(ctx context.Context, entry history.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingStore) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func (s *recordingStore) Close(ctx context.Context) error { return nil }
