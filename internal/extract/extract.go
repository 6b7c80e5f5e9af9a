// Package extract mines the fixed domain-field schema from a call's
// transcript and the platform's structured output, merging the two with
// structured output taking precedence field by field.
package extract

import (
	"github.com/rs/zerolog/log"

	"voice-lead-pipeline/internal/models"
)

// Extract derives the final field set for one normalized event. Both
// strategies run unconditionally; the merge is per-field, never an
// all-or-nothing choice between sources.
func Extract(ev *models.NormalizedCallEvent) models.ExtractedFields {
	fromText := fromTranscript(ev.Transcript)
	structured := fromStructured(ev.StructuredOut)
	merged := merge(structured, fromText)
	merged.CallbackNeeded = callbackNeeded(ev, merged.DecisionMaker)
	return merged
}

// merge fills every empty field of the structured result from the transcript
// result. Re-merging a merged result with itself is a no-op: values are
// replaced, never appended.
func merge(structured, fromText models.ExtractedFields) models.ExtractedFields {
	out := structured
	out.Email = pick(out.Email, fromText.Email)
	out.International = pick(out.International, fromText.International)
	out.MainCouriers = pickList(out.MainCouriers, fromText.MainCouriers)
	out.ShippingFrequency = pick(out.ShippingFrequency, fromText.ShippingFrequency)
	out.MainCountries = pickList(out.MainCountries, fromText.MainCountries)
	out.ExampleShipment = pick(out.ExampleShipment, fromText.ExampleShipment)
	out.ExampleShipmentCost = pick(out.ExampleShipmentCost, fromText.ExampleShipmentCost)
	out.DomesticFrequency = pick(out.DomesticFrequency, fromText.DomesticFrequency)
	out.DomesticCourier = pick(out.DomesticCourier, fromText.DomesticCourier)
	out.StandardRate = pick(out.StandardRate, fromText.StandardRate)
	out.ExcludingFuelVat = pick(out.ExcludingFuelVat, fromText.ExcludingFuelVat)
	out.SingleOrMultiParcel = pick(out.SingleOrMultiParcel, fromText.SingleOrMultiParcel)
	out.DecisionMaker = pick(out.DecisionMaker, fromText.DecisionMaker)
	return out
}

// callbackNeeded is true when structured output explicitly says yes, or when
// the transcript carries callback/transfer/unavailable phrasing and no
// decision-maker name was identified. The branches are disjunctive: a
// structured "no" does not suppress the transcript heuristic. The transcript
// branch is a known false-positive source when name extraction fails for
// unrelated reasons, so each firing is logged for tuning.
func callbackNeeded(ev *models.NormalizedCallEvent, decisionMaker string) bool {
	if structuredSaysCallback(ev.StructuredOut) {
		return true
	}
	if callbackPhrases.MatchString(ev.Transcript) && decisionMaker == "" {
		log.Info().
			Str("callId", ev.CallID).
			Msg("callback heuristic fired without a decision-maker name")
		return true
	}
	return false
}

func pick(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func pickList(primary, fallback []string) []string {
	if len(primary) > 0 {
		return primary
	}
	return fallback
}
