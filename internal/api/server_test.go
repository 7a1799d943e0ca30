package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/processor"
)

const exportJSON = `{
	"conversations": [
		{"id": "48:calllogs.skype", "MessageList": []},
		{"id": "8:bob", "displayName": "Bob", "MessageList": [
			{"id": "m1", "originalarrivaltime": "2023-05-01T10:00:00.000Z", "messagetype": "Event/Call",
			 "from": "8:me", "content": "<partlist type=\"started\" alt=\"\" callId=\"call-id-0000000001\"> </partlist>"},
			{"id": "m2", "originalarrivaltime": "2023-05-01T10:20:00.000Z", "messagetype": "Event/Call",
			 "from": "8:bob", "content": "<partlist type=\"ended\" alt=\"\" callId=\"call-id-0000000001\"> <part><duration>1200</duration></part> </partlist>"}
		]},
		{"id": "8:carol", "displayName": "Carol", "MessageList": [
			{"id": "m3", "originalarrivaltime": "2023-05-01T10:00:00.000Z", "messagetype": "Event/Call",
			 "from": "8:carol", "content": "<partlist alt=\"\"> </partlist>"}
		]}
	]
}`

type memStore struct {
	mu    sync.Mutex
	saved map[uuid.UUID]*analysis.Analysis
}

func (m *memStore) SaveAnalysis(_ context.Context, a *analysis.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[a.ID] = a
	return nil
}

func (m *memStore) GetAnalysis(_ context.Context, id uuid.UUID) (*analysis.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.saved[id]; ok {
		return a, nil
	}
	return nil, analysis.ErrNotFound
}

func (m *memStore) DeleteAnalysis(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saved[id]; !ok {
		return analysis.ErrNotFound
	}
	delete(m.saved, id)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(withStore bool, token string) *Server {
	var st processor.Store
	if withStore {
		st = &memStore{saved: make(map[uuid.UUID]*analysis.Analysis)}
	}
	proc := processor.New(st, nil, "UTC", discard())
	return NewServer(8760, token, 1<<20, proc, discard())
}

func multipartRequest(t *testing.T, path, filename, body string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, body)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(false, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(false, "secret")

	req := httptest.NewRequest("GET", "/api/v1/waddle/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["agent"] != "waddle" {
		t.Errorf("expected agent waddle, got %v", body["agent"])
	}
	if body["version"] != Version {
		t.Errorf("expected version %s, got %v", Version, body["version"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(false, "")

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListPartners(t *testing.T) {
	srv := newTestServer(false, "")

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, multipartRequest(t, "/api/v1/partners", "messages.json", exportJSON, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Source   string `json:"source"`
		Partners []struct {
			Label string `json:"label"`
			Index int    `json:"index"`
		} `json:"partners"`
		Index map[string]int `json:"index"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Partners) != 2 {
		t.Fatalf("expected 2 partners, got %d", len(body.Partners))
	}
	if body.Partners[0].Label != "Bob" || body.Partners[0].Index != 1 {
		t.Errorf("unexpected first partner %+v", body.Partners[0])
	}
	if body.Index["Bob"] != 1 || body.Index["Carol"] != 2 {
		t.Errorf("unexpected partner index %v", body.Index)
	}
}

func TestCreateAnalysis(t *testing.T) {
	srv := newTestServer(true, "")

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, multipartRequest(t, "/api/v1/analyses", "messages.json", exportJSON,
		map[string]string{"partner": "1", "timezone": "Europe/Berlin"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var a analysis.Analysis
	if err := json.NewDecoder(w.Body).Decode(&a); err != nil {
		t.Fatal(err)
	}
	if len(a.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(a.Calls))
	}
	if a.Calls[0].Duration != 1200 {
		t.Errorf("expected duration 1200, got %v", a.Calls[0].Duration)
	}
	if a.Timezone != "Europe/Berlin" {
		t.Errorf("expected Europe/Berlin, got %s", a.Timezone)
	}

	// Stored analyses can be fetched again.
	req := httptest.NewRequest("GET", "/api/v1/analyses/"+a.ID.String(), nil)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 on get, got %d", w.Code)
	}
}

func TestCreateAnalysisDataURL(t *testing.T) {
	srv := newTestServer(false, "")

	payload, _ := json.Marshal(map[string]any{
		"filename": "messages.json",
		"contents": "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(exportJSON)),
		"partner":  1,
	})
	req := httptest.NewRequest("POST", "/api/v1/analyses", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateAnalysisErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		fields   map[string]string
		want     int
		contains string
	}{
		{"unsupported file", "export.zip", exportJSON, map[string]string{"partner": "1"}, http.StatusBadRequest, "unsupported"},
		{"invalid json", "messages.json", `{"conversations": [`, map[string]string{"partner": "1"}, http.StatusBadRequest, "invalid export"},
		{"no conversations", "messages.json", `{}`, map[string]string{"partner": "1"}, http.StatusBadRequest, "no conversations"},
		{"missing partner", "messages.json", exportJSON, nil, http.StatusBadRequest, "partner"},
		{"partner out of range", "messages.json", exportJSON, map[string]string{"partner": "9"}, http.StatusBadRequest, "out of range"},
		{"missing file", "", "", map[string]string{"partner": "1"}, http.StatusBadRequest, "missing file"},
		{"malformed call event", "messages.json", exportJSON, map[string]string{"partner": "2"}, http.StatusUnprocessableEntity, "could not build call history: malformed call event"},
		{"no calls", "messages.json", exportJSON, map[string]string{"partner": "0"}, http.StatusUnprocessableEntity, "could not build call history: no calls found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(false, "")
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, multipartRequest(t, "/api/v1/analyses", tt.filename, tt.body, tt.fields))

			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			msg, _ := decodeBody(t, w)["error"].(string)
			if !strings.Contains(msg, tt.contains) {
				t.Errorf("error %q does not contain %q", msg, tt.contains)
			}
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	proc := processor.New(nil, nil, "UTC", discard())
	srv := NewServer(8760, "", 64, proc, discard())

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, multipartRequest(t, "/api/v1/partners", "messages.json", exportJSON, nil))

	if w.Code != http.StatusRequestEntityTooLarge && w.Code != http.StatusBadRequest {
		t.Errorf("expected upload to be rejected, got %d", w.Code)
	}
}

func TestGetAnalysis(t *testing.T) {
	tests := []struct {
		name      string
		withStore bool
		id        string
		want      int
	}{
		{"invalid id", true, "not-a-uuid", http.StatusBadRequest},
		{"unknown id", true, uuid.NewString(), http.StatusNotFound},
		{"no store", false, uuid.NewString(), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(tt.withStore, "")
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/analyses/"+tt.id, nil))
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(true, "s3cret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/analyses/"+uuid.NewString(), nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestDeleteAnalysis(t *testing.T) {
	srv := newTestServer(true, "")

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, multipartRequest(t, "/api/v1/analyses", "messages.json", exportJSON, map[string]string{"partner": "1"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	id, _ := decodeBody(t, w)["id"].(string)

	tests := []struct {
		name   string
		method string
		want   int
	}{
		{"delete", "DELETE", http.StatusNoContent},
		{"gone", "GET", http.StatusNotFound},
		{"delete again", "DELETE", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/v1/analyses/"+id, nil))
		if w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, w.Code)
		}
	}
}

func TestDeleteAnalysisErrors(t *testing.T) {
	tests := []struct {
		name      string
		withStore bool
		id        string
		want      int
	}{
		{"invalid id", true, "not-a-uuid", http.StatusBadRequest},
		{"no store", false, uuid.NewString(), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(tt.withStore, "")
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/v1/analyses/"+tt.id, nil))
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv := NewServer(8760, "", 1<<20, processor.New(nil, nil, "UTC", logger), logger)

	w := httptest.NewRecorder()
	srv.writeJSON(w, http.StatusOK, map[string]any{"ch": make(chan int)})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(logs.String(), "failed to write response") {
		t.Errorf("encode failure not logged: %q", logs.String())
	}
}
