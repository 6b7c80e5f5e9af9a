package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/callctx"
	"voice-lead-pipeline/internal/dedupe"
	"voice-lead-pipeline/internal/dispatch"
	"voice-lead-pipeline/internal/records"
	"voice-lead-pipeline/internal/retryqueue"
)

// memStore is an in-memory record store for end-to-end pipeline runs.
type memStore struct {
	rows    []*records.Row
	nextID  int
	creates int
	failAll bool
}

func (s *memStore) FindByCallID(_ context.Context, callID string) (*records.Row, error) {
	if s.failAll {
		return nil, errors.New("store down")
	}
	for _, r := range s.rows {
		if r.CallID == callID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindByPhone(_ context.Context, phone string) (*records.Row, error) {
	if s.failAll {
		return nil, errors.New("store down")
	}
	for _, r := range s.rows {
		if r.Phone == phone {
			return r, nil
		}
	}
	return nil, nil
}

func (s *memStore) Recent(_ context.Context, limit int) ([]*records.Row, error) {
	if s.failAll {
		return nil, errors.New("store down")
	}
	out := make([]*records.Row, 0, len(s.rows))
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.rows[i])
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, row *records.Row) (string, error) {
	if s.failAll {
		return "", errors.New("store down")
	}
	s.nextID++
	s.creates++
	created := &records.Row{
		ID:        fmt.Sprintf("row-%d", s.nextID),
		CallID:    row.CallID,
		Phone:     row.Phone,
		CreatedAt: time.Now(),
		Fields:    map[string]string{},
	}
	for k, v := range row.Fields {
		created.Fields[k] = v
	}
	s.rows = append(s.rows, created)
	return created.ID, nil
}

func (s *memStore) Update(_ context.Context, id string, cols map[string]string) error {
	if s.failAll {
		return errors.New("store down")
	}
	for _, r := range s.rows {
		if r.ID == id {
			for k, v := range cols {
				r.Fields[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("no row with id %s", id)
}

type env struct {
	pipe  *Pipeline
	store *memStore
	reg   *dedupe.Registry
	calls *callctx.Cache
}

func newEnv() *env {
	store := &memStore{}
	reg := dedupe.NewRegistry(10)
	calls := callctx.New(time.Minute)
	sync := records.NewSynchronizer(store, zerolog.Nop())
	dispatcher := dispatch.New(dispatch.Collaborators{}, calls, zerolog.Nop())
	retry := retryqueue.New(&retryqueue.Config{Enabled: false})
	return &env{
		pipe:  New(reg, sync, dispatcher, retry, calls, zerolog.Nop()),
		store: store,
		reg:   reg,
		calls: calls,
	}
}

func payload(t *testing.T, body string) (raw []byte, decoded map[string]any) {
	t.Helper()
	raw = []byte(body)
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return raw, decoded
}

func TestProcess_PositiveBookedCall(t *testing.T) {
	e := newEnv()
	raw, decoded := payload(t, `{
		"callId": "call-1",
		"status": "completed",
		"outcome": "booked",
		"duration": 180,
		"transcript": "Yes, I am very interested! Let's book an appointment.",
		"metadata": {"phone": "+44 7700 900123", "tenantKey": "sheet-1"}
	}`)

	e.pipe.Process(context.Background(), raw, decoded)

	if e.store.creates != 1 {
		t.Fatalf("expected 1 row created, got %d", e.store.creates)
	}
	row := e.store.rows[0]
	if row.Fields["quality_score"] != "10" {
		t.Errorf("expected quality_score 10, got %q", row.Fields["quality_score"])
	}
	if row.Fields["sentiment"] != "positive" {
		t.Errorf("expected positive sentiment, got %q", row.Fields["sentiment"])
	}
	if row.Phone != "447700900123" {
		t.Errorf("expected normalized phone, got %q", row.Phone)
	}
	if e.reg.ShouldProcess("call-1") {
		t.Error("expected call marked processed after successful sync")
	}
	if info, ok := e.calls.Get("call-1"); !ok || info.Phone != "+44 7700 900123" {
		t.Errorf("expected caller identity cached, got %+v ok=%v", info, ok)
	}
}

func TestProcess_NegativeShortCall(t *testing.T) {
	e := newEnv()
	raw, decoded := payload(t, `{
		"callId": "call-2",
		"status": "completed",
		"outcome": "not_interested",
		"duration": 25,
		"transcript": "Not interested. Too expensive. Don't call again."
	}`)

	e.pipe.Process(context.Background(), raw, decoded)

	row := e.store.rows[0]
	if row.Fields["quality_score"] != "1" {
		t.Errorf("expected quality_score 1, got %q", row.Fields["quality_score"])
	}
	if row.Fields["sentiment"] != "negative" {
		t.Errorf("expected negative sentiment, got %q", row.Fields["sentiment"])
	}
	if row.Fields["objections"] != "price" {
		t.Errorf("expected price objection, got %q", row.Fields["objections"])
	}
}

func TestProcess_TranscriptFieldExtraction(t *testing.T) {
	e := newEnv()
	raw, decoded := payload(t, `{
		"callId": "call-c",
		"status": "completed",
		"transcript": "We use DHL and FedEx, about 50 packages per week to USA and Germany. Email: j@b.com"
	}`)

	e.pipe.Process(context.Background(), raw, decoded)

	row := e.store.rows[0]
	if row.Fields["main_couriers"] != "DHL, FedEx" {
		t.Errorf("expected couriers 'DHL, FedEx', got %q", row.Fields["main_couriers"])
	}
	if row.Fields["main_countries"] != "USA, Germany" {
		t.Errorf("expected countries 'USA, Germany', got %q", row.Fields["main_countries"])
	}
	if row.Fields["email"] != "j@b.com" {
		t.Errorf("expected email 'j@b.com', got %q", row.Fields["email"])
	}
	if row.Fields["shipping_frequency"] != "50 per week" {
		t.Errorf("expected frequency '50 per week', got %q", row.Fields["shipping_frequency"])
	}
}

func TestProcess_StructuredOutputWinsOverTranscript(t *testing.T) {
	e := newEnv()
	raw, decoded := payload(t, `{
		"callId": "call-d",
		"status": "completed",
		"transcript": "You can reach me at c@d.com whenever suits.",
		"structuredOutput": {"email": "a@b.com"}
	}`)

	e.pipe.Process(context.Background(), raw, decoded)

	row := e.store.rows[0]
	if row.Fields["email"] != "a@b.com" {
		t.Errorf("expected structured email to win, got %q", row.Fields["email"])
	}
}

func TestProcess_DuplicateDeliverySuppressed(t *testing.T) {
	e := newEnv()
	raw, decoded := payload(t, `{
		"callId": "call-3",
		"status": "completed",
		"transcript": "User: a perfectly ordinary conversation"
	}`)

	e.pipe.Process(context.Background(), raw, decoded)
	e.pipe.Process(context.Background(), raw, decoded)

	if e.store.creates != 1 {
		t.Errorf("expected duplicate suppressed, got %d creates", e.store.creates)
	}
}

func TestProcess_UnrecognizedPayloadSkipped(t *testing.T) {
	e := newEnv()
	raw, decoded := payload(t, `{"callId": "call-4", "metadata": {"x": 1}}`)

	e.pipe.Process(context.Background(), raw, decoded)

	if e.store.creates != 0 {
		t.Errorf("expected no row for skipped payload, got %d", e.store.creates)
	}
	if !e.reg.ShouldProcess("call-4") {
		t.Error("skipped payload must not be marked processed")
	}
}

func TestProcess_SyncFailureLeavesCallUnmarked(t *testing.T) {
	e := newEnv()
	e.store.failAll = true
	raw, decoded := payload(t, `{
		"callId": "call-5",
		"status": "completed",
		"transcript": "User: a perfectly ordinary conversation"
	}`)

	e.pipe.Process(context.Background(), raw, decoded)

	// A redelivery after the store recovers must be admitted and processed.
	if !e.reg.ShouldProcess("call-5") {
		t.Error("failed event must not be marked processed")
	}
	e.store.failAll = false
	e.pipe.Process(context.Background(), raw, decoded)
	if e.store.creates != 1 {
		t.Errorf("expected redelivery to be processed, got %d creates", e.store.creates)
	}
}

func TestProcess_MidCallRowClaimedByCompletion(t *testing.T) {
	e := newEnv()
	// Row seeded mid-call by a tool invocation: phone known, call id not.
	e.store.Create(context.Background(), &records.Row{Phone: "447700900123", Fields: map[string]string{"business_name": "Acme"}})
	e.store.creates = 0

	raw, decoded := payload(t, `{
		"callId": "call-6",
		"status": "completed",
		"transcript": "User: a perfectly ordinary conversation",
		"metadata": {"phone": "+44 7700 900123"}
	}`)
	e.pipe.Process(context.Background(), raw, decoded)

	if e.store.creates != 0 {
		t.Errorf("expected completion to claim the mid-call row, got %d creates", e.store.creates)
	}
	if e.store.rows[0].Fields["call_id"] != "call-6" {
		t.Errorf("expected claimed row to carry call id, got %v", e.store.rows[0].Fields)
	}
	if e.store.rows[0].Fields["business_name"] != "Acme" {
		t.Error("mid-call columns must survive the completion update")
	}
}
