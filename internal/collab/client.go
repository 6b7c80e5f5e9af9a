// Package collab implements the outbound collaborator clients the
// dispatcher calls: booking confirmation, follow-up scheduling, lead
// capture, and the in-call tool backends. All collaborators speak JSON over
// HTTP against a single automation base URL.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/dispatch"
	"voice-lead-pipeline/internal/models"
)

const requestTimeout = 15 * time.Second

// Client is the shared HTTP JSON client for all collaborator endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a collaborator client for the given base URL. An empty
// base URL yields a nil client; the dispatcher treats nil collaborators as
// unconfigured.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		log:     log.With().Str("component", "collab").Logger(),
	}
}

// post sends payload to path and decodes the response into out when out is
// non-nil. Non-2xx responses are errors.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("call %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ConfirmBooking notifies the automation platform that a slot was booked so
// it can send the lead a confirmation.
func (c *Client) ConfirmBooking(ctx context.Context, tenantKey, phone, callID string, slot dispatch.Slot) error {
	return c.post(ctx, "/bookings/confirm", map[string]any{
		"tenantKey": tenantKey,
		"phone":     phone,
		"callId":    callID,
		"slotStart": slot.Start,
		"slotEnd":   slot.End,
	}, nil)
}

// ScheduleRetry asks the platform to redial a lead that did not pick up.
func (c *Client) ScheduleRetry(ctx context.Context, tenantKey, phone, callID, outcome string) error {
	return c.post(ctx, "/calls/retry", map[string]any{
		"tenantKey": tenantKey,
		"phone":     phone,
		"callId":    callID,
		"reason":    outcome,
	}, nil)
}

// ScheduleFollowUps enrolls the lead in the generic follow-up sequence.
func (c *Client) ScheduleFollowUps(ctx context.Context, tenantKey, phone, leadName, outcome, callID string) error {
	return c.post(ctx, "/followups/schedule", map[string]any{
		"tenantKey": tenantKey,
		"phone":     phone,
		"leadName":  leadName,
		"outcome":   outcome,
		"callId":    callID,
	}, nil)
}

// CaptureInterestedLead re-enters an interested prospect into the capture
// flow and reports the created lead.
func (c *Client) CaptureInterestedLead(ctx context.Context, lead dispatch.LeadData) (dispatch.CaptureResult, error) {
	var res dispatch.CaptureResult
	if err := c.post(ctx, "/leads/capture", lead, &res); err != nil {
		return dispatch.CaptureResult{}, err
	}
	return res, nil
}

// CheckAndBook forwards an in-call availability-and-book request.
func (c *Client) CheckAndBook(ctx context.Context, req dispatch.BookingRequest) error {
	return c.post(ctx, "/calendar/check-and-book", req, nil)
}

// HandleReceptionist forwards a generic receptionist tool invocation.
func (c *Client) HandleReceptionist(ctx context.Context, callID string, inv models.ToolInvocation) error {
	return c.post(ctx, "/receptionist/handle", map[string]any{
		"callId":    callID,
		"tool":      inv.Name,
		"arguments": inv.Arguments,
	}, nil)
}
