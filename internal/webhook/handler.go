package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/pipeline"
	"voice-lead-pipeline/internal/records"
)

// maxBodyBytes caps webhook request bodies. Call payloads with full
// transcripts run to a few hundred KB at most.
const maxBodyBytes = 2 << 20

// processTimeout bounds one async pipeline run after the delivery has been
// acknowledged.
const processTimeout = 2 * time.Minute

// Handler serves the webhook and read endpoints.
type Handler struct {
	pipeline *pipeline.Pipeline
	store    records.Store
	log      zerolog.Logger
}

// NewHandler wires a Handler.
func NewHandler(p *pipeline.Pipeline, store records.Store, log zerolog.Logger) *Handler {
	return &Handler{
		pipeline: p,
		store:    store,
		log:      log.With().Str("component", "webhook").Logger(),
	}
}

// CallCompleted receives a call-completion delivery. The delivery is
// acknowledged as soon as the body parses; processing happens asynchronously
// so a slow collaborator never causes the platform to time out and redeliver.
func (h *Handler) CallCompleted(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read webhook body")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		h.log.Warn().Err(err).Int("bytes", len(body)).Msg("webhook body is not a JSON object")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		h.pipeline.Process(ctx, body, payload)
	}()
}

// GetCall returns the stored row for a processed call.
func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing call id"})
		return
	}

	row, err := h.store.FindByCallID(r.Context(), callID)
	if err != nil {
		h.log.Error().Err(err).Str("callId", callID).Msg("record lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	if row == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "call not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        row.ID,
		"callId":    row.CallID,
		"phone":     row.Phone,
		"createdAt": row.CreatedAt,
		"fields":    row.Fields,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
