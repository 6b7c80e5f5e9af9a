// Package normalize turns heterogeneous webhook payloads into one canonical
// event shape. All shape-sniffing lives here; nothing downstream branches on
// payload layout.
package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"voice-lead-pipeline/internal/models"
)

// envelopeKeys mark a `message` wrapper that should be flattened onto the
// top level before field resolution.
var envelopeKeys = []string{"call", "transcript", "structuredOutput", "recordingUri", "metadata", "type"}

// userRoles are the roles labeled as the human speaker during transcript
// reconstruction. Any other role is the automated party.
var userRoles = map[string]bool{
	"user":     true,
	"customer": true,
	"caller":   true,
	"human":    true,
	"person":   true,
}

// discardRoles are never conversation turns.
var discardRoles = map[string]bool{
	"system":   true,
	"function": true,
	"tool":     true,
}

// injectionMarkers flag message content that is prompt/control text rather
// than conversation. Matched case-insensitively.
var injectionMarkers = []string{
	"do not deviate",
	"use the tool",
	"use tool",
	"invoke the function",
	"call the function",
	"follow the script",
	"follow this script",
	"system prompt",
	"you are an ai assistant",
}

// Normalize converts a raw decoded payload into a NormalizedCallEvent.
// skip is true when the event should be acknowledged but not processed.
// The input map is never mutated; envelope flattening operates on a copy.
func Normalize(raw map[string]any, now time.Time) (*models.NormalizedCallEvent, bool) {
	if raw == nil {
		return nil, true
	}
	payload := flattenEnvelope(raw)

	ev := &models.NormalizedCallEvent{
		CallID:          firstString(payload, "call.id", "call.callId", "callId", "id"),
		Status:          firstString(payload, "call.status", "status", "type"),
		Outcome:         firstString(payload, "call.outcome", "outcome", "call.endedReason", "endedReason"),
		DurationSeconds: firstNumber(payload, "call.durationSeconds", "call.duration", "durationSeconds", "duration"),
		CostUSD:         firstNumber(payload, "call.cost", "cost", "costUsd"),
		Summary:         firstString(payload, "summary", "analysis.summary", "call.summary"),
		RecordingURI:    firstString(payload, "call.recordingUri", "call.recordingUrl", "recordingUri", "recordingUrl", "artifact.recordingUrl"),
		AssistantID:     firstString(payload, "call.assistantId", "assistantId"),
		Metadata:        firstMap(payload, "call.metadata", "metadata"),
		StructuredOut:   firstMap(payload, "structuredOutput", "analysis.structuredData", "structuredData"),
		ReceivedAt:      now,
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]any{}
	}

	ev.Transcript = resolveTranscript(payload)
	ev.ToolCalls = resolveToolCalls(payload)
	ev.Engagement = resolveEngagement(payload, ev.Metadata)

	if ev.Transcript == "" && ev.Status == "" {
		return nil, true
	}
	return ev, false
}

// flattenEnvelope detects a `message` wrapper and merges its fields onto a
// copy of the top level. The envelope is the lowest-priority candidate
// location: it only supplies keys the top level lacks, so the resolution
// order stays call object, then top level, then envelope.
func flattenEnvelope(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	msg, ok := raw["message"].(map[string]any)
	if !ok {
		return out
	}
	isEnvelope := false
	for _, k := range envelopeKeys {
		if _, present := msg[k]; present {
			isEnvelope = true
			break
		}
	}
	if !isEnvelope {
		return out
	}
	for k, v := range msg {
		if _, present := out[k]; !present {
			out[k] = v
		}
	}
	return out
}

// resolveTranscript picks an explicit transcript field when present,
// otherwise reconstructs one from the conversation messages. The longer of
// the two wins when both exist.
func resolveTranscript(payload map[string]any) string {
	explicit := strings.TrimSpace(firstString(payload,
		"call.transcript", "transcript", "artifact.transcript", "endOfCallReport.transcript"))

	msgs := firstSlice(payload, "messages", "artifact.messages", "call.messages", "conversation")
	rebuilt, joined := rebuildFromMessages(msgs)

	if rebuilt != "" && len(rebuilt) > len(explicit) {
		return rebuilt
	}
	if explicit != "" {
		return explicit
	}
	if rebuilt != "" {
		return rebuilt
	}
	return joined
}

// rebuildFromMessages returns the labeled transcript and, separately, a plain
// space-joined fallback of the surviving message contents.
func rebuildFromMessages(msgs []any) (labeled string, joined string) {
	var lines []string
	var contents []string
	for _, m := range msgs {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(stringValue(msg["role"])))
		content := strings.TrimSpace(firstNonEmpty(
			stringValue(msg["content"]),
			stringValue(msg["message"]),
			stringValue(msg["text"]),
		))
		if content == "" || discardRoles[role] || looksInjected(content) {
			continue
		}
		contents = append(contents, content)
		label := "AI"
		if userRoles[role] {
			label = "User"
		}
		lines = append(lines, label+": "+content)
	}
	return strings.Join(lines, "\n\n"), strings.Join(contents, " ")
}

func looksInjected(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range injectionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func resolveToolCalls(payload map[string]any) []models.ToolInvocation {
	raw := firstSlice(payload, "toolCalls", "call.toolCalls", "toolCallList")
	if len(raw) == 0 {
		return nil
	}
	var calls []models.ToolInvocation
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		inv := models.ToolInvocation{
			ID:   stringValue(m["id"]),
			Name: stringValue(m["name"]),
		}
		args := m["arguments"]
		if fn, ok := m["function"].(map[string]any); ok {
			if inv.Name == "" {
				inv.Name = stringValue(fn["name"])
			}
			if args == nil {
				args = fn["arguments"]
			}
		}
		switch a := args.(type) {
		case map[string]any:
			inv.Arguments = a
		case string:
			// Some platforms double-encode tool arguments.
			var decoded map[string]any
			if err := json.Unmarshal([]byte(a), &decoded); err == nil {
				inv.Arguments = decoded
			}
		}
		if inv.Arguments == nil {
			inv.Arguments = map[string]any{}
		}
		if inv.Name != "" {
			calls = append(calls, inv)
		}
	}
	return calls
}

func resolveEngagement(payload, metadata map[string]any) *models.EngagementMetrics {
	m := firstMap(payload, "engagementMetrics", "call.engagementMetrics")
	if m == nil {
		if em, ok := metadata["engagementMetrics"].(map[string]any); ok {
			m = em
		}
	}
	if m == nil {
		return nil
	}
	em := &models.EngagementMetrics{}
	found := false
	if v, ok := numberValue(m["talkTimeRatio"]); ok {
		em.TalkTimeRatio = &v
		found = true
	}
	if v, ok := numberValue(m["interruptions"]); ok {
		n := int(v)
		em.Interruptions = &n
		found = true
	}
	if v, ok := numberValue(m["avgResponseTimeSeconds"]); ok {
		em.AvgResponseTimeSeconds = &v
		found = true
	}
	if v, ok := numberValue(m["completionRate"]); ok {
		em.CompletionRate = &v
		found = true
	}
	if !found {
		return nil
	}
	return em
}

// lookup walks a dotted path through nested maps.
func lookup(m map[string]any, path string) (any, bool) {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// firstString resolves the first non-empty string among the candidate
// locations, in order. The order is load-bearing: different event subtypes
// populate different locations.
func firstString(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if v, ok := lookup(m, p); ok {
			if s := strings.TrimSpace(stringValue(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstNumber(m map[string]any, paths ...string) float64 {
	for _, p := range paths {
		if v, ok := lookup(m, p); ok {
			if n, ok := numberValue(v); ok {
				return n
			}
		}
	}
	return 0
}

func firstMap(m map[string]any, paths ...string) map[string]any {
	for _, p := range paths {
		if v, ok := lookup(m, p); ok {
			if mv, ok := v.(map[string]any); ok && len(mv) > 0 {
				return mv
			}
		}
	}
	return nil
}

func firstSlice(m map[string]any, paths ...string) []any {
	for _, p := range paths {
		if v, ok := lookup(m, p); ok {
			if sv, ok := v.([]any); ok && len(sv) > 0 {
				return sv
			}
		}
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		// Durations occasionally arrive as strings.
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(n)), &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
