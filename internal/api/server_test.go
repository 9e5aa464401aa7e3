package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frey-perez/encoding-prompter/internal/codebook"
	"github.com/frey-perez/encoding-prompter/internal/encoder"
	"github.com/frey-perez/encoding-prompter/internal/openrouter"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer wires a Server to a fake model endpoint returning content.
func newTestServer(t *testing.T, content string) *Server {
	t.Helper()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
	t.Cleanup(model.Close)

	client := openrouter.NewClient("test-key", "test/model")
	client.SetBaseURL(model.URL)

	cb := &codebook.Codebook{
		Constructs: []codebook.Construct{{Name: "Hope", Definition: "def"}},
	}
	enc, err := encoder.New(client, cb, encoder.Options{}, testLogger())
	if err != nil {
		t.Fatalf("encoder.New: %v", err)
	}
	return NewServer(8080, enc, testLogger())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestEncodeEndpoint(t *testing.T) {
	reply := "DOC_ID: x\nSPEAKER_ID: P-001\nCONSTRUCT: Hope\nQUOTE: better days\nCONFIDENCE: 2"
	srv := newTestServer(t, reply)

	payload := `{"doc_id": "session_7", "text": "some transcript"}`
	req := httptest.NewRequest("POST", "/v1/encode", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp EncodeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("expected a request id")
	}
	if resp.Count != 1 || len(resp.Rows) != 1 {
		t.Fatalf("expected 1 row, got count=%d rows=%d", resp.Count, len(resp.Rows))
	}
	if resp.Rows[0].DocID != "session_7" {
		t.Errorf("expected doc_id session_7, got %q", resp.Rows[0].DocID)
	}
	if resp.Rows[0].Quote != "better days" {
		t.Errorf("expected quote, got %q", resp.Rows[0].Quote)
	}
}

func TestEncodeEndpoint_DefaultDocID(t *testing.T) {
	reply := "DOC_ID: from_model\nCONSTRUCT: Hope\nQUOTE: q"
	srv := newTestServer(t, reply)

	req := httptest.NewRequest("POST", "/v1/encode", strings.NewReader(`{"text": "hi"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp EncodeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(resp.Rows))
	}
	if resp.Rows[0].DocID != "inline" {
		t.Errorf("expected default doc_id inline, got %q", resp.Rows[0].DocID)
	}
}

func TestEncodeEndpoint_EmptyReply(t *testing.T) {
	srv := newTestServer(t, "nothing found")

	req := httptest.NewRequest("POST", "/v1/encode", strings.NewReader(`{"text": "hi"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp EncodeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Rows == nil {
		t.Error("expected rows to be an empty array, not null")
	}
	if resp.Count != 0 {
		t.Errorf("expected count 0, got %d", resp.Count)
	}
}

func TestEncodeEndpoint_BadJSON(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/v1/encode", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEncodeEndpoint_MissingText(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/v1/encode", strings.NewReader(`{"doc_id": "d"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEncodeEndpoint_ModelFailure(t *testing.T) {
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"upstream down"}`, http.StatusInternalServerError)
	}))
	defer model.Close()

	client := openrouter.NewClient("test-key", "test/model")
	client.SetBaseURL(model.URL)
	cb := &codebook.Codebook{Constructs: []codebook.Construct{{Name: "Hope"}}}
	enc, err := encoder.New(client, cb, encoder.Options{}, testLogger())
	if err != nil {
		t.Fatalf("encoder.New: %v", err)
	}
	srv := NewServer(8080, enc, testLogger())

	req := httptest.NewRequest("POST", "/v1/encode", strings.NewReader(`{"text": "hi"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
