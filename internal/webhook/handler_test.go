package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/callctx"
	"voice-lead-pipeline/internal/dedupe"
	"voice-lead-pipeline/internal/dispatch"
	"voice-lead-pipeline/internal/pipeline"
	"voice-lead-pipeline/internal/records"
	"voice-lead-pipeline/internal/retryqueue"
)

// stubStore serves the read endpoint; the webhook tests never reach the
// write path synchronously.
type stubStore struct {
	rows map[string]*records.Row
}

func (s *stubStore) FindByCallID(_ context.Context, callID string) (*records.Row, error) {
	return s.rows[callID], nil
}

func (s *stubStore) FindByPhone(context.Context, string) (*records.Row, error) { return nil, nil }

func (s *stubStore) Recent(context.Context, int) ([]*records.Row, error) { return nil, nil }

func (s *stubStore) Create(_ context.Context, row *records.Row) (string, error) { return "row-1", nil }

func (s *stubStore) Update(context.Context, string, map[string]string) error { return nil }

func newTestRouter(store records.Store) http.Handler {
	calls := callctx.New(time.Minute)
	sync := records.NewSynchronizer(store, zerolog.Nop())
	dispatcher := dispatch.New(dispatch.Collaborators{}, calls, zerolog.Nop())
	retry := retryqueue.New(&retryqueue.Config{Enabled: false})
	pipe := pipeline.New(dedupe.NewRegistry(10), sync, dispatcher, retry, calls, zerolog.Nop())
	return NewRouter(NewHandler(pipe, store, zerolog.Nop()))
}

func TestCallCompleted_AcksImmediately(t *testing.T) {
	router := newTestRouter(&stubStore{rows: map[string]*records.Row{}})

	body := `{"callId":"call-1","status":"completed","transcript":"User: hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/call-completed", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected ack {\"status\":\"ok\"}, got %v", resp)
	}
}

func TestCallCompleted_RejectsInvalidJSON(t *testing.T) {
	router := newTestRouter(&stubStore{rows: map[string]*records.Row{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/call-completed", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rec.Code)
	}
}

func TestGetCall_Found(t *testing.T) {
	store := &stubStore{rows: map[string]*records.Row{
		"call-1": {
			ID:     "row-1",
			CallID: "call-1",
			Phone:  "447700900123",
			Fields: map[string]string{"sentiment": "positive", "quality_score": "8"},
		},
	}}
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/call-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		ID     string            `json:"id"`
		CallID string            `json:"callId"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.ID != "row-1" || resp.CallID != "call-1" {
		t.Errorf("unexpected row payload: %+v", resp)
	}
	if resp.Fields["quality_score"] != "8" {
		t.Errorf("expected fields in response, got %v", resp.Fields)
	}
}

func TestGetCall_NotFound(t *testing.T) {
	router := newTestRouter(&stubStore{rows: map[string]*records.Row{}})

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/absent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&stubStore{rows: map[string]*records.Row{}})

	for _, path := range []string{"/v1/liveness", "/v1/readiness"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 from %s, got %d", path, rec.Code)
		}
	}
}
