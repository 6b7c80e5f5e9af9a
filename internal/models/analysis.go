package models

import "time"

// Sentiment is the coarse sentiment classification of a call transcript.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUnknown  Sentiment = "unknown"
)

// QualityAnalysis is the derived quality assessment of one call. Immutable
// once produced.
type QualityAnalysis struct {
	Sentiment    Sentiment `json:"sentiment"`
	Objections   []string  `json:"objections"`
	KeyPhrases   []string  `json:"keyPhrases"`
	QualityScore int       `json:"qualityScore"` // 1..10
	AnalyzedAt   time.Time `json:"analyzedAt"`
}

// ExtractedFields is the fixed domain-field schema mined from the transcript
// and/or the platform's structured output.
//
// The flag-like fields (International, ExcludingFuelVat, SingleOrMultiParcel)
// hold "Yes"/"No"/"" rather than booleans: silence is not evidence, so an
// unmatched field stays empty instead of defaulting to false.
type ExtractedFields struct {
	Email               string   `json:"email"`
	International       string   `json:"international"`
	MainCouriers        []string `json:"mainCouriers"`
	ShippingFrequency   string   `json:"shippingFrequency"`
	MainCountries       []string `json:"mainCountries"`
	ExampleShipment     string   `json:"exampleShipment"`
	ExampleShipmentCost string   `json:"exampleShipmentCost"`
	DomesticFrequency   string   `json:"domesticFrequency"`
	DomesticCourier     string   `json:"domesticCourier"`
	StandardRate        string   `json:"standardRate"`
	ExcludingFuelVat    string   `json:"excludingFuelVat"`
	SingleOrMultiParcel string   `json:"singleOrMultiParcel"`
	DecisionMaker       string   `json:"decisionMaker"`
	CallbackNeeded      bool     `json:"callbackNeeded"`
}
