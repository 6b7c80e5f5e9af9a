package quality

import "regexp"

// The phrase families below are fixed heuristics. Each family is a flat rule
// table so a new phrase is a one-line change and each entry is independently
// testable; classification never touches control flow.

// positivePatterns and negativePatterns feed the sentiment counter. The
// positive family deliberately avoids the bare word "interested" so that
// "not interested" does not count on both sides.
var positivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bvery interested\b`),
	regexp.MustCompile(`(?i)\binterested in\b`),
	regexp.MustCompile(`(?i)\byes\b`),
	regexp.MustCompile(`(?i)\bsounds (?:good|great|perfect)\b`),
	regexp.MustCompile(`(?i)\bthat works\b`),
	regexp.MustCompile(`(?i)\bperfect\b`),
	regexp.MustCompile(`(?i)\bgreat\b`),
	regexp.MustCompile(`(?i)\bdefinitely\b`),
	regexp.MustCompile(`(?i)\babsolutely\b`),
	regexp.MustCompile(`(?i)\blet'?s book\b`),
	regexp.MustCompile(`(?i)\bsign me up\b`),
	regexp.MustCompile(`(?i)\blooking forward\b`),
}

var negativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bnot interested\b`),
	regexp.MustCompile(`(?i)\bno thanks?\b`),
	regexp.MustCompile(`(?i)\btoo expensive\b`),
	regexp.MustCompile(`(?i)\bdon'?t call\b`),
	regexp.MustCompile(`(?i)\bdo not call\b`),
	regexp.MustCompile(`(?i)\bstop calling\b`),
	regexp.MustCompile(`(?i)\bwaste of time\b`),
	regexp.MustCompile(`(?i)\bnot right now\b`),
	regexp.MustCompile(`(?i)\bcan'?t afford\b`),
	regexp.MustCompile(`(?i)\bremove (?:me|us)\b`),
	regexp.MustCompile(`(?i)\bleave (?:me|us) alone\b`),
}

// objectionRules map one category to its trigger patterns. Categories are
// independent: a transcript may match zero, one, or several.
type objectionRule struct {
	category string
	patterns []*regexp.Regexp
}

var objectionRules = []objectionRule{
	{"price", compileAll(
		`\btoo expensive\b`, `\btoo much money\b`, `\bcan'?t afford\b`,
		`\bcheaper\b`, `\bover (?:our|my) budget\b`, `\bprice is\b`, `\bcosts? too\b`)},
	{"timing", compileAll(
		`\bnot right now\b`, `\bbad time\b`, `\bnot a good time\b`,
		`\btoo busy\b`, `\bnext (?:quarter|year|month)\b`, `\bcall (?:me )?back later\b`)},
	{"existing_provider", compileAll(
		`\balready (?:have|use|using|with)\b`, `\bcurrent provider\b`,
		`\bunder contract\b`, `\bhappy with (?:our|my|who)\b`, `\bwe use someone\b`)},
	{"no_need", compileAll(
		`\bdon'?t need\b`, `\bno need\b`, `\bnot necessary\b`, `\bnot for us\b`,
		`\bdon'?t ship\b`)},
	{"trust", compileAll(
		`\bscam\b`, `\bdon'?t trust\b`, `\bnever heard of\b`, `\bis this legit\b`,
		`\bsounds? too good\b`)},
	{"decision_maker_unavailable", compileAll(
		`\bnot the right person\b`, `\bspeak to (?:my|the|our)\b`,
		`\bowner (?:is|isn'?t|is not)\b`, `\bmanager (?:is|isn'?t|is not)\b`,
		`\bnot my (?:decision|call)\b`, `\bdecision maker\b`)},
	{"missing_features", compileAll(
		`\bdoesn'?t (?:do|have|offer)\b`, `\bdo you (?:do|support|offer|handle)\b`,
		`\bcan you (?:do|handle)\b`, `\bwhat about\b`)},
	{"competitor_mention", compileAll(
		`\bother compan(?:y|ies)\b`, `\bsomeone else quoted\b`, `\byour competitor\b`,
		`\bgot a quote from\b`, `\btalking to another\b`)},
}

// keyPhraseFamilies are scanned in order; matches are lower-cased, trimmed,
// deduplicated, and capped at maxKeyPhrases in first-found order.
var keyPhraseFamilies = []*regexp.Regexp{
	// interest signals
	regexp.MustCompile(`(?i)\b(?:very |really )?interested\b`),
	regexp.MustCompile(`(?i)\bsounds (?:good|great|interesting|perfect)\b`),
	// callback signals
	regexp.MustCompile(`(?i)\bcall (?:me )?back\b`),
	regexp.MustCompile(`(?i)\bbetter time to (?:call|reach)\b`),
	// information-request signals
	regexp.MustCompile(`(?i)\bsend (?:me|us) (?:more )?(?:info|information|details|an email)\b`),
	regexp.MustCompile(`(?i)\btell me more\b`),
	// booking signals
	regexp.MustCompile(`(?i)\bbook (?:an? )?(?:appointment|meeting|call|demo)\b`),
	regexp.MustCompile(`(?i)\bschedule (?:an? )?(?:appointment|meeting|call|demo)\b`),
	// pricing-question signals
	regexp.MustCompile(`(?i)\bhow much (?:does it cost|is it|would it be)\b`),
	regexp.MustCompile(`(?i)\bwhat(?:'s| is| are) (?:the|your) (?:price|prices|rates?|cost)\b`),
	// trial signals
	regexp.MustCompile(`(?i)\b(?:free )?trial\b`),
	regexp.MustCompile(`(?i)\btry it (?:out|first)\b`),
	// feature-question signals
	regexp.MustCompile(`(?i)\bdo you (?:do|offer|support|handle) [a-z ]{3,30}\b`),
	regexp.MustCompile(`(?i)\bhow does (?:it|that|this) work\b`),
	// social-proof signals
	regexp.MustCompile(`(?i)\bwho else uses\b`),
	regexp.MustCompile(`(?i)\b(?:reviews|testimonials|case stud(?:y|ies)|references)\b`),
}

const maxKeyPhrases = 10

// scoreRule is one declarative quality-score adjustment. Rules are evaluated
// in table order against a baseline of 5; the sum is clamped to [1,10].
type scoreRule struct {
	name   string
	weight int
	when   func(in Input) bool
}

const scoreBaseline = 5

var scoreRules = []scoreRule{
	// Outcome.
	{"outcome booked", +4, func(in Input) bool { return outcomeIs(in.Outcome, "booked", "booking") }},
	{"outcome interested", +2, func(in Input) bool { return outcomeIs(in.Outcome, "interested") }},
	{"outcome callback", +1, func(in Input) bool { return outcomeIs(in.Outcome, "callback_requested", "follow_up") }},
	{"outcome declined", -2, func(in Input) bool { return outcomeIs(in.Outcome, "not_interested", "declined") }},
	{"outcome unreachable", -3, func(in Input) bool { return outcomeIs(in.Outcome, "no-answer", "no_answer", "voicemail") }},
	{"outcome failed", -3, func(in Input) bool { return outcomeIs(in.Outcome, "busy", "failed") }},

	// Duration.
	{"duration healthy", +1, func(in Input) bool { return in.DurationSeconds >= 60 && in.DurationSeconds <= 300 }},
	{"duration abrupt", -2, func(in Input) bool {
		return in.DurationSeconds < 30 && !outcomeIs(in.Outcome, "no-answer", "no_answer", "voicemail")
	}},
	{"duration dragging", -1, func(in Input) bool { return in.DurationSeconds > 600 }},

	// Sentiment (filled in by Analyze before scoring).
	{"sentiment positive", +2, func(in Input) bool { return in.sentiment == "positive" }},
	{"sentiment negative", -2, func(in Input) bool { return in.sentiment == "negative" }},

	// Engagement. Each check applies only when the metric was supplied.
	{"talk ratio balanced", +1, func(in Input) bool {
		r := in.talkTimeRatio()
		return r != nil && *r >= 0.60 && *r <= 0.70
	}},
	{"talk ratio low", -1, func(in Input) bool {
		r := in.talkTimeRatio()
		return r != nil && *r < 0.30
	}},
	{"few interruptions", +1, func(in Input) bool {
		n := in.interruptions()
		return n != nil && *n <= 2
	}},
	{"many interruptions", -1, func(in Input) bool {
		n := in.interruptions()
		return n != nil && *n > 5
	}},
	{"fast responses", +1, func(in Input) bool {
		t := in.avgResponseTime()
		return t != nil && *t <= 1.5
	}},
	{"slow responses", -1, func(in Input) bool {
		t := in.avgResponseTime()
		return t != nil && *t > 3
	}},

	// Transcript substance.
	{"substantial transcript", +1, func(in Input) bool { return len(in.Transcript) > 200 }},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}
