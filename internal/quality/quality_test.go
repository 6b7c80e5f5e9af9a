package quality

import (
	"testing"
	"time"

	"voice-lead-pipeline/internal/models"
)

var analyzedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestAnalyze_PositiveBookedCall(t *testing.T) {
	in := Input{
		Transcript: "User: Yes, that sounds great. I'm very interested in your service. " +
			"Let's book an appointment for next week.",
		Outcome:         "booked",
		DurationSeconds: 120,
	}

	qa := Analyze(in, analyzedAt)

	if qa.Sentiment != models.SentimentPositive {
		t.Errorf("expected positive sentiment, got %s", qa.Sentiment)
	}
	// 5 baseline +4 booked +1 healthy duration +2 positive = 12, clamped.
	if qa.QualityScore != 10 {
		t.Errorf("expected score 10, got %d", qa.QualityScore)
	}
	if !qa.AnalyzedAt.Equal(analyzedAt) {
		t.Errorf("expected analyzedAt %v, got %v", analyzedAt, qa.AnalyzedAt)
	}
}

func TestAnalyze_NegativeDeclinedCall(t *testing.T) {
	in := Input{
		Transcript:      "User: No thanks, I'm not interested, this is too expensive for us.",
		Outcome:         "declined",
		DurationSeconds: 20,
	}

	qa := Analyze(in, analyzedAt)

	if qa.Sentiment != models.SentimentNegative {
		t.Errorf("expected negative sentiment, got %s", qa.Sentiment)
	}
	// 5 baseline -2 declined -2 abrupt -2 negative = -1, clamped.
	if qa.QualityScore != 1 {
		t.Errorf("expected score 1, got %d", qa.QualityScore)
	}
	if len(qa.Objections) != 1 || qa.Objections[0] != "price" {
		t.Errorf("expected objections [price], got %v", qa.Objections)
	}
}

func TestClassifySentiment(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       models.Sentiment
	}{
		{"too short", "hi", models.SentimentUnknown},
		{"no signals", "We talked about the weather for a while today.", models.SentimentNeutral},
		{"only positive", "That sounds great, definitely works for me.", models.SentimentPositive},
		{"only negative", "Please stop calling, this is a waste of time.", models.SentimentNegative},
		{
			"mixed, positive majority",
			"Yes, this sounds great and I'm definitely interested in booking, " +
				"even though it's too expensive and not right now.",
			models.SentimentPositive,
		},
		{
			"negation does not read as positive",
			"I am not interested at all in this.",
			models.SentimentNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifySentiment(tt.transcript)
			if got != tt.want {
				t.Errorf("classifySentiment(%q) = %s, want %s", tt.transcript, got, tt.want)
			}
		})
	}
}

func TestDetectObjections_SortedAndIndependent(t *testing.T) {
	transcript := "It's a bad time, we're too busy, and honestly it's too expensive. " +
		"We already have a current provider anyway."

	got := detectObjections(transcript)
	want := []string{"existing_provider", "price", "timing"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected objections %v, got %v", want, got)
			break
		}
	}
}

func TestExtractKeyPhrases_DedupedAndCapped(t *testing.T) {
	transcript := "Call me back tomorrow. Seriously, call me back. " +
		"Also send me more info and tell me more about the free trial."

	got := extractKeyPhrases(transcript)

	seen := map[string]int{}
	for _, p := range got {
		seen[p]++
		if seen[p] > 1 {
			t.Errorf("duplicate key phrase %q", p)
		}
	}
	if len(got) > maxKeyPhrases {
		t.Errorf("expected at most %d phrases, got %d", maxKeyPhrases, len(got))
	}
	if seen["call me back"] != 1 {
		t.Errorf("expected 'call me back' once, got %v", got)
	}
}

func TestScore_EngagementRules(t *testing.T) {
	ratio := 0.65
	interruptions := 1
	response := 1.0
	in := Input{
		Transcript:      "a plain conversation without sentiment markers here",
		Outcome:         "completed",
		DurationSeconds: 120,
		Engagement: &models.EngagementMetrics{
			TalkTimeRatio:          &ratio,
			Interruptions:          &interruptions,
			AvgResponseTimeSeconds: &response,
		},
	}

	qa := Analyze(in, analyzedAt)
	// 5 baseline +1 duration +1 ratio +1 interruptions +1 responses = 9.
	if qa.QualityScore != 9 {
		t.Errorf("expected score 9, got %d", qa.QualityScore)
	}
}

func TestScore_MissingEngagementIsNeutral(t *testing.T) {
	in := Input{
		Transcript:      "a plain conversation without sentiment markers here",
		Outcome:         "completed",
		DurationSeconds: 120,
	}

	qa := Analyze(in, analyzedAt)
	// 5 baseline +1 duration; absent engagement triggers nothing.
	if qa.QualityScore != 6 {
		t.Errorf("expected score 6, got %d", qa.QualityScore)
	}
}

func TestScore_NoAnswerNotPenalizedForShortDuration(t *testing.T) {
	in := Input{Outcome: "no-answer", DurationSeconds: 5}

	qa := Analyze(in, analyzedAt)
	// 5 baseline -3 unreachable; abrupt-duration rule excludes no-answer.
	if qa.QualityScore != 2 {
		t.Errorf("expected score 2, got %d", qa.QualityScore)
	}
}
