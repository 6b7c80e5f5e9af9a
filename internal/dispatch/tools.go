package dispatch

import (
	"context"
	"fmt"
	"strings"

	"voice-lead-pipeline/internal/models"
	"voice-lead-pipeline/internal/observability/logging"
)

// BookingRequest is what the calendar collaborator needs to check
// availability and book. Phone is filled in by the dispatcher from verified
// caller-identity context: the in-call tool invocation never receives it
// directly.
type BookingRequest struct {
	CallID    string         `json:"callId"`
	TenantKey string         `json:"tenantKey"`
	Phone     string         `json:"phone"`
	Args      map[string]any `json:"args"`
}

// ReceptionistHandler executes general receptionist capabilities (message
// taking, FAQ answering, call transfer requests).
type ReceptionistHandler interface {
	HandleReceptionist(ctx context.Context, callID string, inv models.ToolInvocation) error
}

// CalendarBooker checks availability and books an appointment.
type CalendarBooker interface {
	CheckAndBook(ctx context.Context, req BookingRequest) error
}

// SheetAppender records lead details into the external row store mid-call.
type SheetAppender interface {
	AppendRow(ctx context.Context, callID, phone string, values map[string]string) error
}

// EmailSender delivers callback-alert notifications.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ToolHandlers groups the per-function-name handlers for tool invocations.
type ToolHandlers struct {
	Receptionist   ReceptionistHandler
	Calendar       CalendarBooker
	Sheets         SheetAppender
	Email          EmailSender
	AlertRecipient string
}

// ProcessToolCalls routes every tool invocation on the event by function
// name. Tool processing is independent of outcome dispatch: a failed or
// unmodeled outcome still executes the actions the assistant requested.
func (d *Dispatcher) ProcessToolCalls(ctx context.Context, ev *models.NormalizedCallEvent) {
	if len(ev.ToolCalls) == 0 {
		return
	}
	logger := logging.WithCall(d.log, ev.CallID)
	phone := d.callerPhone(ev)

	for _, inv := range ev.ToolCalls {
		name := strings.ToLower(inv.Name)
		var handler string
		var err error
		switch {
		case strings.Contains(name, "availability") || strings.Contains(name, "book") || strings.Contains(name, "calendar"):
			handler = "calendar"
			err = d.checkAndBook(ctx, ev, inv, phone)
		case strings.Contains(name, "sheet") || strings.Contains(name, "append") || strings.Contains(name, "log_lead"):
			handler = "sheet"
			err = d.appendSheetRow(ctx, ev, inv, phone)
		case strings.Contains(name, "callback"):
			handler = "callback_alert"
			err = d.sendCallbackAlert(ctx, ev, inv, phone)
		case d.collab.Tools.Receptionist != nil:
			handler = "receptionist"
			err = d.collab.Tools.Receptionist.HandleReceptionist(ctx, ev.CallID, inv)
		default:
			logger.Info().Str("tool", inv.Name).Msg("no handler for tool invocation")
			continue
		}
		d.metrics.RecordToolCall(handler, err)
		if err != nil {
			logger.Error().Err(err).Str("tool", inv.Name).Msg("tool invocation failed")
		}
	}
}

// callerPhone prefers the event metadata and falls back to the call-context
// cache populated when the call started.
func (d *Dispatcher) callerPhone(ev *models.NormalizedCallEvent) string {
	if phone := ev.LeadPhone(); phone != "" {
		return phone
	}
	if d.calls != nil {
		if info, ok := d.calls.Get(ev.CallID); ok {
			return info.Phone
		}
	}
	return ""
}

func (d *Dispatcher) checkAndBook(ctx context.Context, ev *models.NormalizedCallEvent, inv models.ToolInvocation, phone string) error {
	if d.collab.Tools.Calendar == nil {
		return fmt.Errorf("no calendar collaborator configured")
	}
	args := make(map[string]any, len(inv.Arguments)+1)
	for k, v := range inv.Arguments {
		args[k] = v
	}
	// Only the webhook layer holds verified caller identity; the tool call
	// itself never carries the phone number.
	if _, ok := args["phone"]; !ok && phone != "" {
		args["phone"] = phone
	}
	return d.collab.Tools.Calendar.CheckAndBook(ctx, BookingRequest{
		CallID:    ev.CallID,
		TenantKey: ev.TenantKey(),
		Phone:     phone,
		Args:      args,
	})
}

func (d *Dispatcher) appendSheetRow(ctx context.Context, ev *models.NormalizedCallEvent, inv models.ToolInvocation, phone string) error {
	if d.collab.Tools.Sheets == nil {
		return fmt.Errorf("no sheet collaborator configured")
	}
	values := map[string]string{}
	for k, v := range inv.Arguments {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			values[columnFor(k)] = strings.TrimSpace(s)
		}
	}
	return d.collab.Tools.Sheets.AppendRow(ctx, ev.CallID, phone, values)
}

func (d *Dispatcher) sendCallbackAlert(ctx context.Context, ev *models.NormalizedCallEvent, inv models.ToolInvocation, phone string) error {
	if d.collab.Tools.Email == nil || d.collab.Tools.AlertRecipient == "" {
		return fmt.Errorf("no callback alert recipient configured")
	}
	reason, _ := inv.Arguments["reason"].(string)
	subject := fmt.Sprintf("Callback requested: %s", orUnknown(ev.BusinessName()))
	body := fmt.Sprintf("Caller: %s\nPhone: %s\nCall ID: %s\nReason: %s\n",
		orUnknown(ev.LeadName()), orUnknown(phone), ev.CallID, orUnknown(reason))
	return d.collab.Tools.Email.SendEmail(ctx, d.collab.Tools.AlertRecipient, subject, body)
}

// columnFor maps loose tool-argument names onto record-store columns.
func columnFor(arg string) string {
	switch strings.ToLower(arg) {
	case "business", "businessname", "company":
		return "business_name"
	case "name", "leadname", "contact":
		return "lead_name"
	case "email":
		return "email"
	default:
		return "summary"
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
