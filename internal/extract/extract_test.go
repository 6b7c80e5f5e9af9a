package extract

import (
	"testing"

	"voice-lead-pipeline/internal/models"
)

func TestFromTranscript_FieldPatterns(t *testing.T) {
	transcript := "User: We ship about 50 parcels per week with DHL and FedEx, " +
		"mostly to Germany and France. A typical one is 20 kg, 30x40x50 cm and costs £45. " +
		"Within the UK we use Royal Mail daily. Our standard rate is £10 per parcel, " +
		"excluding fuel and VAT. You can email me at jane@example.co.uk. " +
		"The owner is Jane Smith."

	f := fromTranscript(transcript)

	if f.Email != "jane@example.co.uk" {
		t.Errorf("expected email, got %q", f.Email)
	}
	if len(f.MainCouriers) != 3 || f.MainCouriers[0] != "DHL" || f.MainCouriers[1] != "FedEx" || f.MainCouriers[2] != "Royal Mail" {
		t.Errorf("expected couriers [DHL FedEx Royal Mail], got %v", f.MainCouriers)
	}
	if len(f.MainCountries) != 2 || f.MainCountries[0] != "Germany" || f.MainCountries[1] != "France" {
		t.Errorf("expected countries [Germany France], got %v", f.MainCountries)
	}
	if f.ShippingFrequency != "50 per week" {
		t.Errorf("expected frequency '50 per week', got %q", f.ShippingFrequency)
	}
	if f.ExampleShipment != "20 kg, 30x40x50 cm" {
		t.Errorf("expected shipment '20 kg, 30x40x50 cm', got %q", f.ExampleShipment)
	}
	if f.ExampleShipmentCost != "£45" {
		t.Errorf("expected cost '£45', got %q", f.ExampleShipmentCost)
	}
	if f.DomesticCourier != "Royal Mail" {
		t.Errorf("expected domestic courier 'Royal Mail', got %q", f.DomesticCourier)
	}
	if f.DomesticFrequency != "daily" {
		t.Errorf("expected domestic frequency 'daily', got %q", f.DomesticFrequency)
	}
	if f.StandardRate != "£10 per parcel" {
		t.Errorf("expected standard rate '£10 per parcel', got %q", f.StandardRate)
	}
	if f.ExcludingFuelVat != "Yes" {
		t.Errorf("expected excluding fuel/VAT 'Yes', got %q", f.ExcludingFuelVat)
	}
	if f.DecisionMaker != "Jane Smith" {
		t.Errorf("expected decision maker 'Jane Smith', got %q", f.DecisionMaker)
	}
}

func TestFromTranscript_WordCostNormalized(t *testing.T) {
	f := fromTranscript("It usually costs about 45 pounds each time.")
	if f.ExampleShipmentCost != "£45" {
		t.Errorf("expected '£45', got %q", f.ExampleShipmentCost)
	}
}

func TestFromTranscript_FlagsCheckNoSideFirst(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{"negated international", "We don't ship internationally, UK only for us.", "No"},
		{"affirmed international", "We ship overseas to Europe quite often.", "Yes"},
		{"silent", "We send a few parcels now and then.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fromTranscript(tt.transcript)
			if f.International != tt.want {
				t.Errorf("International = %q, want %q", f.International, tt.want)
			}
		})
	}
}

func TestFromTranscript_SingleMulti(t *testing.T) {
	if f := fromTranscript("We mostly send pallets and bulk consignments."); f.SingleOrMultiParcel != "Multi" {
		t.Errorf("expected Multi, got %q", f.SingleOrMultiParcel)
	}
	if f := fromTranscript("Usually just one parcel at a time."); f.SingleOrMultiParcel != "Single" {
		t.Errorf("expected Single, got %q", f.SingleOrMultiParcel)
	}
}

func TestFromTranscript_Empty(t *testing.T) {
	f := fromTranscript("   ")
	if f.Email != "" || f.International != "" || f.ShippingFrequency != "" ||
		len(f.MainCouriers) != 0 || len(f.MainCountries) != 0 || f.DecisionMaker != "" {
		t.Errorf("expected zero fields for empty transcript, got %+v", f)
	}
}

func TestFromStructured_TranslationTable(t *testing.T) {
	out := map[string]any{
		"email":           "bob@example.com",
		"internationalYN": "yes",
		"exclFuelVAT":     false,
		"courier1":        "DHL",
		"courier2":        "UPS",
		"country1":        "Spain",
		"frequency":       float64(30),
		"decisionMaker":   "n/a",
	}

	f := fromStructured(out)

	if f.Email != "bob@example.com" {
		t.Errorf("expected email, got %q", f.Email)
	}
	if f.International != "Yes" {
		t.Errorf("expected International 'Yes', got %q", f.International)
	}
	if f.ExcludingFuelVat != "No" {
		t.Errorf("expected ExcludingFuelVat 'No' from bool, got %q", f.ExcludingFuelVat)
	}
	if len(f.MainCouriers) != 2 || f.MainCouriers[0] != "DHL" || f.MainCouriers[1] != "UPS" {
		t.Errorf("expected numbered couriers collapsed, got %v", f.MainCouriers)
	}
	if len(f.MainCountries) != 1 || f.MainCountries[0] != "Spain" {
		t.Errorf("expected countries [Spain], got %v", f.MainCountries)
	}
	if f.ShippingFrequency != "30" {
		t.Errorf("expected numeric frequency '30', got %q", f.ShippingFrequency)
	}
	if f.DecisionMaker != "" {
		t.Errorf("expected filler 'n/a' treated as absent, got %q", f.DecisionMaker)
	}
}

func TestExtract_StructuredWinsPerField(t *testing.T) {
	ev := &models.NormalizedCallEvent{
		CallID:     "call-1",
		Transcript: "Email me at transcript@example.com. We use DHL. We ship 50 parcels per week.",
		StructuredOut: map[string]any{
			"email": "structured@example.com",
		},
	}

	f := Extract(ev)

	if f.Email != "structured@example.com" {
		t.Errorf("expected structured email to win, got %q", f.Email)
	}
	if len(f.MainCouriers) != 1 || f.MainCouriers[0] != "DHL" {
		t.Errorf("expected transcript couriers to fill the gap, got %v", f.MainCouriers)
	}
	if f.ShippingFrequency != "50 per week" {
		t.Errorf("expected transcript frequency to fill the gap, got %q", f.ShippingFrequency)
	}
}

func TestExtract_MergeIdempotent(t *testing.T) {
	base := models.ExtractedFields{Email: "a@b.com", MainCouriers: []string{"DHL"}}
	once := merge(base, models.ExtractedFields{Email: "x@y.com", StandardRate: "£5 per parcel"})
	twice := merge(once, once)

	if once.Email != "a@b.com" || once.StandardRate != "£5 per parcel" {
		t.Errorf("unexpected first merge: %+v", once)
	}
	if twice.Email != once.Email || twice.StandardRate != once.StandardRate ||
		len(twice.MainCouriers) != len(once.MainCouriers) {
		t.Errorf("re-merge changed the result: %+v vs %+v", twice, once)
	}
}

func TestCallbackNeeded(t *testing.T) {
	tests := []struct {
		name string
		ev   *models.NormalizedCallEvent
		want bool
	}{
		{
			"structured yes wins",
			&models.NormalizedCallEvent{StructuredOut: map[string]any{"callbackYN": "yes"}},
			true,
		},
		{
			"structured no does not suppress phrasing",
			&models.NormalizedCallEvent{
				Transcript:    "Please call me back later, the owner is not available right now.",
				StructuredOut: map[string]any{"callbackYN": "no"},
			},
			true,
		},
		{
			"structured no without phrasing",
			&models.NormalizedCallEvent{
				Transcript:    "We had a pleasant chat about shipping.",
				StructuredOut: map[string]any{"callbackNeeded": false},
			},
			false,
		},
		{
			"phrase without decision maker",
			&models.NormalizedCallEvent{Transcript: "The manager is not available right now, please call back."},
			true,
		},
		{
			"no signal",
			&models.NormalizedCallEvent{Transcript: "We had a pleasant chat about shipping."},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(tt.ev)
			if f.CallbackNeeded != tt.want {
				t.Errorf("CallbackNeeded = %v, want %v", f.CallbackNeeded, tt.want)
			}
		})
	}
}

func TestCallbackNeeded_SuppressedWhenDecisionMakerKnown(t *testing.T) {
	ev := &models.NormalizedCallEvent{
		Transcript: "She's not here today. You should speak to Alice, the owner.",
	}

	f := Extract(ev)
	if f.DecisionMaker != "Alice" {
		t.Fatalf("expected decision maker 'Alice', got %q", f.DecisionMaker)
	}
	if f.CallbackNeeded {
		t.Error("expected callback heuristic suppressed when a decision maker was named")
	}
}
