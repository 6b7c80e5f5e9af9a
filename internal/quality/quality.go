// Package quality derives a heuristic quality assessment from a normalized
// call event. Analyze is a pure function: same input, same output, no I/O.
package quality

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"voice-lead-pipeline/internal/models"
)

// minTranscriptLen is the shortest transcript the sentiment heuristic will
// trust. Anything shorter classifies as unknown regardless of content.
const minTranscriptLen = 10

// Input carries everything the analyzer looks at.
type Input struct {
	Transcript      string
	Outcome         string
	DurationSeconds float64
	Engagement      *models.EngagementMetrics

	// sentiment is filled in by Analyze before score rules run.
	sentiment models.Sentiment
}

func (in Input) talkTimeRatio() *float64 {
	if in.Engagement == nil {
		return nil
	}
	return in.Engagement.TalkTimeRatio
}

func (in Input) interruptions() *int {
	if in.Engagement == nil {
		return nil
	}
	return in.Engagement.Interruptions
}

func (in Input) avgResponseTime() *float64 {
	if in.Engagement == nil {
		return nil
	}
	return in.Engagement.AvgResponseTimeSeconds
}

// Analyze produces the full quality assessment for one call.
func Analyze(in Input, now time.Time) models.QualityAnalysis {
	in.sentiment = classifySentiment(in.Transcript)
	return models.QualityAnalysis{
		Sentiment:    in.sentiment,
		Objections:   detectObjections(in.Transcript),
		KeyPhrases:   extractKeyPhrases(in.Transcript),
		QualityScore: score(in),
		AnalyzedAt:   now,
	}
}

// classifySentiment counts the positive and negative phrase families and
// applies the classification rule in order:
//
//	both >= 2 and positive > negative  -> positive
//	both >= 2 and negative > positive  -> negative
//	positive >= 1 and negative == 0    -> positive
//	negative >= 1 and positive == 0    -> negative
//	otherwise                          -> neutral
func classifySentiment(transcript string) models.Sentiment {
	if len(transcript) < minTranscriptLen {
		return models.SentimentUnknown
	}
	pos := countMatches(positivePatterns, transcript)
	neg := countMatches(negativePatterns, transcript)
	switch {
	case pos >= 2 && neg >= 2 && pos > neg:
		return models.SentimentPositive
	case pos >= 2 && neg >= 2 && neg > pos:
		return models.SentimentNegative
	case pos >= 1 && neg == 0:
		return models.SentimentPositive
	case neg >= 1 && pos == 0:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func countMatches(patterns []*regexp.Regexp, transcript string) int {
	total := 0
	for _, p := range patterns {
		total += len(p.FindAllStringIndex(transcript, -1))
	}
	return total
}

// detectObjections runs every category rule independently and returns the
// matching category names sorted for stable output.
func detectObjections(transcript string) []string {
	matched := []string{}
	for _, rule := range objectionRules {
		for _, p := range rule.patterns {
			if p.MatchString(transcript) {
				matched = append(matched, rule.category)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

// extractKeyPhrases collects matches from every phrase family in table
// order, lower-cased and trimmed, deduplicated, capped at maxKeyPhrases.
func extractKeyPhrases(transcript string) []string {
	seen := map[string]bool{}
	phrases := []string{}
	for _, family := range keyPhraseFamilies {
		for _, m := range family.FindAllString(transcript, -1) {
			phrase := strings.ToLower(strings.TrimSpace(m))
			if phrase == "" || seen[phrase] {
				continue
			}
			seen[phrase] = true
			phrases = append(phrases, phrase)
			if len(phrases) == maxKeyPhrases {
				return phrases
			}
		}
	}
	return phrases
}

// score evaluates the rule table over the baseline and clamps to [1,10].
func score(in Input) int {
	total := scoreBaseline
	for _, rule := range scoreRules {
		if rule.when(in) {
			total += rule.weight
		}
	}
	if total < 1 {
		return 1
	}
	if total > 10 {
		return 10
	}
	return total
}

func outcomeIs(outcome string, candidates ...string) bool {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(outcome)), "-", "_")
	for _, c := range candidates {
		if norm == strings.ReplaceAll(c, "-", "_") {
			return true
		}
	}
	return false
}
