package extract

import (
	"regexp"
	"strings"

	"voice-lead-pipeline/internal/models"
)

// Courier and country dictionaries: whole-word pattern -> canonical label.
// Order matters only for output ordering, so both are slices.
var courierDict = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`(?i)\bdhl\b`), "DHL"},
	{regexp.MustCompile(`(?i)\bfed ?ex\b`), "FedEx"},
	{regexp.MustCompile(`(?i)\bups\b`), "UPS"},
	{regexp.MustCompile(`(?i)\broyal mail\b`), "Royal Mail"},
	{regexp.MustCompile(`(?i)\bdpd\b`), "DPD"},
	{regexp.MustCompile(`(?i)\b(?:evri|hermes)\b`), "Evri"},
	{regexp.MustCompile(`(?i)\btnt\b`), "TNT"},
	{regexp.MustCompile(`(?i)\bparcel ?force\b`), "Parcelforce"},
	{regexp.MustCompile(`(?i)\busps\b`), "USPS"},
	{regexp.MustCompile(`(?i)\byodel\b`), "Yodel"},
}

var countryDict = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`(?i)\b(?:usa|u\.s\.a?\.?|united states|america)\b`), "USA"},
	{regexp.MustCompile(`(?i)\bgermany\b`), "Germany"},
	{regexp.MustCompile(`(?i)\bfrance\b`), "France"},
	{regexp.MustCompile(`(?i)\bspain\b`), "Spain"},
	{regexp.MustCompile(`(?i)\bitaly\b`), "Italy"},
	{regexp.MustCompile(`(?i)\bnetherlands\b`), "Netherlands"},
	{regexp.MustCompile(`(?i)\bireland\b`), "Ireland"},
	{regexp.MustCompile(`(?i)\bchina\b`), "China"},
	{regexp.MustCompile(`(?i)\bjapan\b`), "Japan"},
	{regexp.MustCompile(`(?i)\bindia\b`), "India"},
	{regexp.MustCompile(`(?i)\baustralia\b`), "Australia"},
	{regexp.MustCompile(`(?i)\bcanada\b`), "Canada"},
	{regexp.MustCompile(`(?i)\bpoland\b`), "Poland"},
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// "50 per week", "50 packages a week", "about 200 parcels per month"
	frequencyPattern = regexp.MustCompile(`(?i)\b(\d+)\s*(?:packages?|parcels?|shipments?|items?|boxes)?\s*(?:per|a|each)\s*(day|week|month)\b`)
	dailyPattern     = regexp.MustCompile(`(?i)\b(daily|weekly|monthly)\b`)

	weightPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:kg|kilos?|kilograms?)\b`)
	dimsPattern   = regexp.MustCompile(`(?i)\b(\d+)\s*x\s*(\d+)\s*x\s*(\d+)\s*(cm|mm|in|inches)?\b`)

	// "£45", "$30.50" or "45 pounds"
	symbolCostPattern = regexp.MustCompile(`[£$€]\s?\d+(?:\.\d+)?`)
	wordCostPattern   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*pounds\b`)

	// "£10 per parcel" style standing rate
	standardRatePattern = regexp.MustCompile(`(?i)[£$€]\s?\d+(?:\.\d+)?\s*(?:per|a|each)\s*(?:parcel|package|item|shipment|consignment)`)

	decisionMakerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:owner|manager|director|boss)(?:'s name)? is ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
		regexp.MustCompile(`(?:speak|talk) to ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
		regexp.MustCompile(`ask for ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`),
	}

	callbackPhrases = regexp.MustCompile(`(?i)\b(?:call (?:me |us )?back|callback|transfer (?:me|you|the call)|(?:he|she|they)(?:'s| is| are)? not (?:here|in|available)|not available right now|out of (?:the )?office)\b`)

	ukMarker = regexp.MustCompile(`(?i)\b(?:uk|domestic|domestically|within the uk)\b`)
)

// Flag-like fields check the "no" side before the "yes" side so that a
// negated phrase ("we don't ship internationally") is not read as a yes.
var (
	internationalYes = regexp.MustCompile(`(?i)\b(?:international(?:ly)?|overseas|abroad|worldwide|export)\b`)
	internationalNo  = regexp.MustCompile(`(?i)\b(?:only (?:ship )?(?:in the )?uk|uk only|domestic only|don'?t ship international(?:ly)?|no international|nothing international)\b`)

	exclFuelVatYes = regexp.MustCompile(`(?i)\b(?:excluding (?:fuel|vat)|plus (?:fuel|vat)|ex vat|vat on top|fuel surcharge on top|before (?:fuel|vat))\b`)
	exclFuelVatNo  = regexp.MustCompile(`(?i)\b(?:including (?:fuel|vat)|includes (?:fuel|vat)|inc vat|all in|all inclusive)\b`)

	multiParcelYes  = regexp.MustCompile(`(?i)\b(?:pallets?|multiple parcels|multi[- ]parcel|bulk|consignments?)\b`)
	singleParcelYes = regexp.MustCompile(`(?i)\b(?:one parcel|single parcels?|individual parcels?|one package at a time)\b`)
)

// fromTranscript runs every field pattern independently over the transcript.
// A field that finds nothing stays empty; absence is not an error.
func fromTranscript(transcript string) models.ExtractedFields {
	f := models.ExtractedFields{}
	if strings.TrimSpace(transcript) == "" {
		return f
	}

	f.Email = emailPattern.FindString(transcript)
	f.MainCouriers = matchDict(courierDict, transcript)
	f.MainCountries = matchDict(countryDict, transcript)
	f.ShippingFrequency = matchFrequency(transcript)
	f.ExampleShipment = matchShipment(transcript)
	f.ExampleShipmentCost = matchCost(transcript)
	f.DomesticFrequency = matchDomesticFrequency(transcript)
	f.DomesticCourier = matchDomesticCourier(transcript)
	f.StandardRate = strings.TrimSpace(standardRatePattern.FindString(transcript))
	f.International = matchFlag(transcript, internationalYes, internationalNo)
	f.ExcludingFuelVat = matchFlag(transcript, exclFuelVatYes, exclFuelVatNo)
	f.SingleOrMultiParcel = matchSingleMulti(transcript)
	f.DecisionMaker = matchDecisionMaker(transcript)
	return f
}

func matchDict(dict []struct {
	pattern *regexp.Regexp
	label   string
}, text string) []string {
	var out []string
	for _, entry := range dict {
		if entry.pattern.MatchString(text) {
			out = append(out, entry.label)
		}
	}
	return out
}

func matchFrequency(text string) string {
	if m := frequencyPattern.FindStringSubmatch(text); m != nil {
		return m[1] + " per " + strings.ToLower(m[2])
	}
	if m := dailyPattern.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

// matchShipment combines the weight and dimension patterns when both are
// present ("20kg, 30x40x50cm"), otherwise returns whichever matched.
func matchShipment(text string) string {
	weight := strings.TrimSpace(weightPattern.FindString(text))
	dims := strings.TrimSpace(dimsPattern.FindString(text))
	switch {
	case weight != "" && dims != "":
		return weight + ", " + dims
	case weight != "":
		return weight
	default:
		return dims
	}
}

// matchCost normalizes both cost forms to a symbol-prefixed string.
func matchCost(text string) string {
	if m := symbolCostPattern.FindString(text); m != "" {
		return strings.ReplaceAll(m, " ", "")
	}
	if m := wordCostPattern.FindStringSubmatch(text); m != nil {
		return "£" + m[1]
	}
	return ""
}

// matchDomesticFrequency looks for a frequency phrase inside a sentence that
// also carries a UK/domestic qualifier.
func matchDomesticFrequency(text string) string {
	for _, sentence := range splitSentences(text) {
		if !ukMarker.MatchString(sentence) {
			continue
		}
		if freq := matchFrequency(sentence); freq != "" {
			return freq
		}
	}
	return ""
}

// matchDomesticCourier returns a courier that co-occurs with "UK" in the
// same sentence.
func matchDomesticCourier(text string) string {
	for _, sentence := range splitSentences(text) {
		if !ukMarker.MatchString(sentence) {
			continue
		}
		if couriers := matchDict(courierDict, sentence); len(couriers) > 0 {
			return couriers[0]
		}
	}
	return ""
}

// matchFlag returns "Yes", "No", or empty when neither side matches, because
// silence is not evidence either way.
func matchFlag(text string, yes, no *regexp.Regexp) string {
	if no.MatchString(text) {
		return "No"
	}
	if yes.MatchString(text) {
		return "Yes"
	}
	return ""
}

func matchSingleMulti(text string) string {
	if multiParcelYes.MatchString(text) {
		return "Multi"
	}
	if singleParcelYes.MatchString(text) {
		return "Single"
	}
	return ""
}

func matchDecisionMaker(text string) string {
	for _, p := range decisionMakerPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
