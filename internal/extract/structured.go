package extract

import (
	"fmt"
	"strconv"
	"strings"

	"voice-lead-pipeline/internal/models"
)

// fromStructured maps the platform's structured-output object onto the field
// schema. The field-name translation table is fixed; unknown keys are
// ignored. Numbered courier1..3 / country1..3 keys collapse into lists.
func fromStructured(out map[string]any) models.ExtractedFields {
	f := models.ExtractedFields{}
	if len(out) == 0 {
		return f
	}

	f.Email = cleanValue(out["email"])
	f.International = flagValue(out["internationalYN"], out["international"])
	f.ShippingFrequency = cleanValue(out["frequency"], out["shippingFrequency"])
	f.ExampleShipment = cleanValue(out["exampleShipment"], out["exampleParcel"])
	f.ExampleShipmentCost = cleanValue(out["exampleShipmentCost"], out["exampleCost"])
	f.DomesticFrequency = cleanValue(out["domesticFrequency"], out["ukFrequency"])
	f.DomesticCourier = cleanValue(out["domesticCourier"], out["ukCourier"])
	f.StandardRate = cleanValue(out["standardRate"])
	f.ExcludingFuelVat = flagValue(out["exclFuelVAT"], out["excludingFuelVat"])
	f.SingleOrMultiParcel = cleanValue(out["singleMulti"], out["singleOrMulti"])
	f.DecisionMaker = cleanValue(out["decisionMaker"], out["contactName"])

	for i := 1; i <= 3; i++ {
		if v := cleanValue(out[fmt.Sprintf("courier%d", i)]); v != "" {
			f.MainCouriers = append(f.MainCouriers, v)
		}
		if v := cleanValue(out[fmt.Sprintf("country%d", i)]); v != "" {
			f.MainCountries = append(f.MainCountries, v)
		}
	}
	if len(f.MainCouriers) == 0 {
		f.MainCouriers = listValue(out["couriers"], out["mainCouriers"])
	}
	if len(f.MainCountries) == 0 {
		f.MainCountries = listValue(out["countries"], out["mainCountries"])
	}
	return f
}

// structuredSaysCallback reports whether structured output explicitly
// requests a callback. An explicit "no" carries no weight here: the
// transcript heuristic runs independently either way.
func structuredSaysCallback(out map[string]any) bool {
	for _, key := range []string{"callbackYN", "callbackNeeded", "callback"} {
		switch t := out[key].(type) {
		case bool:
			if t {
				return true
			}
		case string:
			s := strings.ToLower(strings.TrimSpace(t))
			if s == "yes" || s == "y" || s == "true" {
				return true
			}
		}
	}
	return false
}

// cleanValue normalizes one structured value to a trimmed string, treating
// filler values as absent.
func cleanValue(values ...any) string {
	for _, v := range values {
		var s string
		switch t := v.(type) {
		case nil:
			continue
		case string:
			s = strings.TrimSpace(t)
		case bool:
			if t {
				s = "Yes"
			} else {
				s = "No"
			}
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			continue
		}
		lower := strings.ToLower(s)
		if s == "" || lower == "n/a" || lower == "na" || lower == "unknown" || lower == "none" {
			continue
		}
		return s
	}
	return ""
}

// flagValue maps bool-ish structured values onto the "Yes"/"No"/"" flag
// convention used by the field schema.
func flagValue(values ...any) string {
	s := cleanValue(values...)
	switch strings.ToLower(s) {
	case "yes", "y", "true":
		return "Yes"
	case "no", "n", "false":
		return "No"
	case "":
		return ""
	default:
		return s
	}
}

func listValue(values ...any) []string {
	for _, v := range values {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		var out []string
		for _, item := range items {
			if s := cleanValue(item); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
