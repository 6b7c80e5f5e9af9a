package records

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"voice-lead-pipeline/internal/models"
	"voice-lead-pipeline/internal/observability/logging"
)

// claimScanDepth bounds the backward scan for an unclaimed mid-call row.
const claimScanDepth = 50

// Synchronizer locates-or-creates the external row for a call and writes
// the derived fields into it. Invocations are idempotent: the tool-call path
// may create a row during the call and the completion path updates the same
// row afterwards, in either order. There is no transaction around the
// match-and-update sequence; concurrent updates to one row can interleave,
// which is accepted because writes are column-scoped.
type Synchronizer struct {
	store Store
	log   zerolog.Logger
}

// NewSynchronizer wires a Synchronizer over the given store.
func NewSynchronizer(store Store, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{store: store, log: logging.WithComponent(log, "records")}
}

// Sync writes the event's derived data to its row and returns the row id.
func (s *Synchronizer) Sync(ctx context.Context, ev *models.NormalizedCallEvent, qa *models.QualityAnalysis, fields *models.ExtractedFields) (string, bool, error) {
	cols := buildColumns(ev, qa, fields)
	phone := NormalizePhone(ev.LeadPhone())

	row, err := s.match(ctx, ev.CallID, phone)
	if err != nil {
		return "", false, err
	}
	if row != nil {
		// Make sure a claimed row ends up carrying the call identifier.
		if ev.CallID != "" && row.CallID == "" {
			cols["call_id"] = ev.CallID
		}
		if phone != "" && row.Phone == "" {
			cols["phone"] = phone
		}
		if err := s.store.Update(ctx, row.ID, cols); err != nil {
			return "", false, err
		}
		return row.ID, false, nil
	}

	id, err := s.store.Create(ctx, &Row{CallID: ev.CallID, Phone: phone, Fields: cols})
	if err != nil {
		return "", false, err
	}
	s.log.Debug().Str("callId", ev.CallID).Str("rowId", id).Msg("created record row")
	return id, true, nil
}

// EnsureRow is the mid-call path used by tool invocations: it locates or
// creates the row for a call and writes only the provided columns.
func (s *Synchronizer) EnsureRow(ctx context.Context, callID, phone string, cols map[string]string) (string, error) {
	phone = NormalizePhone(phone)
	row, err := s.match(ctx, callID, phone)
	if err != nil {
		return "", err
	}
	if row != nil {
		if callID != "" && row.CallID == "" {
			cols["call_id"] = callID
		}
		if err := s.store.Update(ctx, row.ID, cols); err != nil {
			return "", err
		}
		return row.ID, nil
	}
	return s.store.Create(ctx, &Row{CallID: callID, Phone: phone, Fields: cols})
}

// match applies the matching precedence, first match wins:
//
//  1. exact call-identifier match;
//  2. phone match, but only a row that does not already carry a call
//     identifier (a row with one is claimed by a different call);
//  3. with a call identifier but no phone, claim the most recent row that
//     has a phone but no identifier yet (row seeded mid-call);
//  4. no match: caller creates a new row.
func (s *Synchronizer) match(ctx context.Context, callID, phone string) (*Row, error) {
	if callID != "" {
		row, err := s.store.FindByCallID(ctx, callID)
		if err != nil || row != nil {
			return row, err
		}
	}
	if phone != "" {
		row, err := s.store.FindByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		if row != nil && row.CallID == "" {
			return row, nil
		}
		return nil, nil
	}
	if callID != "" {
		recent, err := s.store.Recent(ctx, claimScanDepth)
		if err != nil {
			return nil, err
		}
		for _, row := range recent {
			if row.Phone != "" && row.CallID == "" {
				return row, nil
			}
		}
	}
	return nil, nil
}

// buildColumns assembles the column set for this update. Empty values are
// omitted so a later, sparser delivery never clobbers columns written by an
// earlier, richer one.
func buildColumns(ev *models.NormalizedCallEvent, qa *models.QualityAnalysis, fields *models.ExtractedFields) map[string]string {
	cols := map[string]string{}
	put := func(col, val string) {
		if val != "" {
			cols[col] = val
		}
	}

	put("status", ev.Status)
	put("outcome", ev.Outcome)
	put("recording_uri", ev.RecordingURI)
	put("summary", ev.Summary)
	put("business_name", ev.BusinessName())
	put("lead_name", ev.LeadName())
	if ev.DurationSeconds > 0 {
		put("duration_seconds", strconv.FormatFloat(ev.DurationSeconds, 'f', -1, 64))
	}
	if ev.CostUSD > 0 {
		put("cost_usd", strconv.FormatFloat(ev.CostUSD, 'f', 4, 64))
	}

	if qa != nil {
		put("sentiment", string(qa.Sentiment))
		put("quality_score", strconv.Itoa(qa.QualityScore))
		put("objections", strings.Join(qa.Objections, ", "))
		put("key_phrases", strings.Join(qa.KeyPhrases, ", "))
	}

	if fields != nil {
		put("email", fields.Email)
		put("international", fields.International)
		put("main_couriers", strings.Join(fields.MainCouriers, ", "))
		put("shipping_frequency", fields.ShippingFrequency)
		put("main_countries", strings.Join(fields.MainCountries, ", "))
		put("example_shipment", fields.ExampleShipment)
		put("example_shipment_cost", fields.ExampleShipmentCost)
		put("domestic_frequency", fields.DomesticFrequency)
		put("domestic_courier", fields.DomesticCourier)
		put("standard_rate", fields.StandardRate)
		put("excluding_fuel_vat", fields.ExcludingFuelVat)
		put("single_or_multi", fields.SingleOrMultiParcel)
		put("decision_maker", fields.DecisionMaker)
		if fields.CallbackNeeded {
			put("callback_needed", "Yes")
		}
	}
	return cols
}
