// Package dispatch routes a processed call event to its follow-up actions
// based on (status, outcome), and routes embedded tool invocations to their
// handlers. Collaborator failures are logged at the call site and never
// abort sibling actions.
package dispatch

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/callctx"
	"voice-lead-pipeline/internal/models"
	"voice-lead-pipeline/internal/observability/logging"
	"voice-lead-pipeline/internal/observability/metrics"
)

// Slot carries the offered appointment bounds, when the call produced any.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// LeadData is the hand-off payload for an interested prospect.
type LeadData struct {
	CallID       string   `json:"callId"`
	TenantKey    string   `json:"tenantKey"`
	Name         string   `json:"name"`
	Business     string   `json:"business"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Summary      string   `json:"summary"`
	QualityScore int      `json:"qualityScore"`
	KeyPhrases   []string `json:"keyPhrases"`
}

// CaptureResult is what the interested-prospect collaborator reports back.
type CaptureResult struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
}

// BookingConfirmer confirms a booked appointment with the lead.
type BookingConfirmer interface {
	ConfirmBooking(ctx context.Context, tenantKey, phone, callID string, slot Slot) error
}

// FollowUpScheduler schedules retry calls and the generic follow-up
// message sequence.
type FollowUpScheduler interface {
	ScheduleRetry(ctx context.Context, tenantKey, phone, callID, outcome string) error
	ScheduleFollowUps(ctx context.Context, tenantKey, phone, leadName, outcome, callID string) error
}

// LeadCapturer re-enters an interested prospect into the capture flow.
type LeadCapturer interface {
	CaptureInterestedLead(ctx context.Context, lead LeadData) (CaptureResult, error)
}

// Summarizer produces a short lead summary when the platform supplied none.
// Implementations may be unavailable; errors are non-fatal.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Collaborators groups everything the dispatcher calls out to.
type Collaborators struct {
	Booking    BookingConfirmer
	FollowUps  FollowUpScheduler
	Leads      LeadCapturer
	Tools      ToolHandlers
	Summarizer Summarizer
}

// interestMarkers detect an interested outcome expressed only in summary
// text rather than the outcome field.
var interestMarkers = regexp.MustCompile(`(?i)\b(?:interested|wants? (?:a|to) (?:demo|meeting|call ?back|quote)|asked for (?:pricing|a quote)|follow up)\b`)

// Dispatcher is the outcome state machine.
type Dispatcher struct {
	collab  Collaborators
	calls   *callctx.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New wires a Dispatcher.
func New(collab Collaborators, calls *callctx.Cache, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		collab:  collab,
		calls:   calls,
		metrics: metrics.DefaultMetrics,
		log:     logging.WithComponent(log, "dispatch"),
	}
}

// Dispatch routes one processed event. Unmodeled (status, outcome)
// combinations are logged and not acted on: the platform introduces outcome
// values after the fact, and a wrong automated action is worse than none.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *models.NormalizedCallEvent, qa *models.QualityAnalysis, fields *models.ExtractedFields) {
	logger := logging.WithTenantCall(d.log, ev.TenantKey(), ev.CallID).With().
		Str("status", ev.Status).Str("outcome", ev.Outcome).Logger()
	outcome := normalizeOutcome(ev.Outcome)

	switch {
	case outcome == "booked":
		d.confirmBooking(ctx, ev, logger)

	case outcome == "no_answer" || outcome == "busy" || outcome == "declined":
		d.handleFailedCall(ctx, ev, outcome, logger)

	case strings.EqualFold(ev.Status, "completed") && d.showsInterest(ev, outcome):
		d.handOffLead(ctx, ev, qa, fields, logger)

	default:
		logger.Info().Msg("no dispatch action for outcome")
	}
}

func (d *Dispatcher) confirmBooking(ctx context.Context, ev *models.NormalizedCallEvent, logger zerolog.Logger) {
	if d.collab.Booking == nil {
		logger.Warn().Msg("booked outcome but no booking collaborator configured")
		return
	}
	slot := offeredSlot(ev)
	err := d.collab.Booking.ConfirmBooking(ctx, ev.TenantKey(), ev.LeadPhone(), ev.CallID, slot)
	d.metrics.RecordDispatch("confirm_booking", err)
	if err != nil {
		logger.Error().Err(err).Msg("booking confirmation failed")
		return
	}
	logger.Info().Str("slotStart", slot.Start).Msg("booking confirmed")
}

// handleFailedCall logs the reason, schedules a retry for the reachable-
// later reasons (no-answer, busy), and always schedules the generic
// follow-up sequence.
func (d *Dispatcher) handleFailedCall(ctx context.Context, ev *models.NormalizedCallEvent, outcome string, logger zerolog.Logger) {
	logger.Info().Msg("call did not connect or was declined")
	if d.collab.FollowUps == nil {
		return
	}
	if outcome == "no_answer" || outcome == "busy" {
		err := d.collab.FollowUps.ScheduleRetry(ctx, ev.TenantKey(), ev.LeadPhone(), ev.CallID, outcome)
		d.metrics.RecordDispatch("schedule_retry", err)
		if err != nil {
			logger.Error().Err(err).Msg("retry scheduling failed")
		}
	}
	err := d.collab.FollowUps.ScheduleFollowUps(ctx, ev.TenantKey(), ev.LeadPhone(), ev.LeadName(), outcome, ev.CallID)
	d.metrics.RecordDispatch("schedule_follow_ups", err)
	if err != nil {
		logger.Error().Err(err).Msg("follow-up scheduling failed")
	}
}

func (d *Dispatcher) showsInterest(ev *models.NormalizedCallEvent, outcome string) bool {
	if outcome == "interested" || outcome == "positive" {
		return true
	}
	return interestMarkers.MatchString(ev.Summary)
}

func (d *Dispatcher) handOffLead(ctx context.Context, ev *models.NormalizedCallEvent, qa *models.QualityAnalysis, fields *models.ExtractedFields, logger zerolog.Logger) {
	if d.collab.Leads == nil {
		logger.Warn().Msg("interested outcome but no lead collaborator configured")
		return
	}
	lead := LeadData{
		CallID:    ev.CallID,
		TenantKey: ev.TenantKey(),
		Name:      ev.LeadName(),
		Business:  ev.BusinessName(),
		Phone:     ev.LeadPhone(),
		Summary:   ev.Summary,
	}
	if fields != nil {
		lead.Email = fields.Email
	}
	if qa != nil {
		lead.QualityScore = qa.QualityScore
		lead.KeyPhrases = qa.KeyPhrases
	}
	if lead.Summary == "" && d.collab.Summarizer != nil && ev.Transcript != "" {
		summary, err := d.collab.Summarizer.Summarize(ctx, ev.Transcript)
		if err != nil {
			logger.Warn().Err(err).Msg("lead summary enrichment failed")
		} else {
			lead.Summary = summary
		}
	}
	res, err := d.collab.Leads.CaptureInterestedLead(ctx, lead)
	d.metrics.RecordDispatch("lead_handoff", err)
	if err != nil {
		logger.Error().Err(err).Msg("interested lead hand-off failed")
		return
	}
	logger.Info().Bool("success", res.Success).Str("leadId", res.LeadID).Msg("interested lead handed off")
}

func normalizeOutcome(outcome string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(outcome)), "-", "_")
}

// offeredSlot pulls appointment bounds from the structured output or
// metadata, whichever the platform populated.
func offeredSlot(ev *models.NormalizedCallEvent) Slot {
	slot := Slot{}
	for _, src := range []map[string]any{ev.StructuredOut, ev.Metadata} {
		if src == nil {
			continue
		}
		if slot.Start == "" {
			slot.Start = stringAt(src, "slotStart", "appointmentStart", "bookedSlotStart")
		}
		if slot.End == "" {
			slot.End = stringAt(src, "slotEnd", "appointmentEnd", "bookedSlotEnd")
		}
	}
	return slot
}

func stringAt(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
