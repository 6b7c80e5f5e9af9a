// Package models defines the data structures shared across the call pipeline.
package models

import (
	"strconv"
	"strings"
	"time"
)

// ToolInvocation is a side-effect action requested by the in-call assistant,
// embedded in the completion event.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// EngagementMetrics are optional per-call engagement figures supplied by the
// platform. Pointers distinguish "not supplied" from zero.
type EngagementMetrics struct {
	TalkTimeRatio          *float64 `json:"talkTimeRatio,omitempty"`
	Interruptions          *int     `json:"interruptions,omitempty"`
	AvgResponseTimeSeconds *float64 `json:"avgResponseTimeSeconds,omitempty"`
	CompletionRate         *float64 `json:"completionRate,omitempty"`
}

// NormalizedCallEvent is the canonical form of a call-completion event.
// It is created once per delivery by the normalizer and read-only downstream.
//
// Status and Outcome are platform-defined enumerations and are deliberately
// kept as opaque strings: the platform introduces new values without notice.
type NormalizedCallEvent struct {
	CallID          string             `json:"callId"`
	Status          string             `json:"status"`
	Outcome         string             `json:"outcome"`
	DurationSeconds float64            `json:"durationSeconds"`
	CostUSD         float64            `json:"costUsd"`
	Transcript      string             `json:"transcript"`
	Summary         string             `json:"summary"`
	RecordingURI    string             `json:"recordingUri"`
	AssistantID     string             `json:"assistantId"`
	Metadata        map[string]any     `json:"metadata"`
	StructuredOut   map[string]any     `json:"structuredOutput,omitempty"`
	ToolCalls       []ToolInvocation   `json:"toolCalls,omitempty"`
	Engagement      *EngagementMetrics `json:"engagementMetrics,omitempty"`
	ReceivedAt      time.Time          `json:"receivedAt"`
}

// MetaString returns the string value of a metadata key, or "" when the key
// is absent or not string-like.
func (e *NormalizedCallEvent) MetaString(keys ...string) string {
	for _, k := range keys {
		if v, ok := e.Metadata[k]; ok {
			switch t := v.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					return s
				}
			case float64:
				return strconv.FormatFloat(t, 'f', -1, 64)
			}
		}
	}
	return ""
}

// TenantKey is the caller-supplied tenant identifier.
func (e *NormalizedCallEvent) TenantKey() string {
	return e.MetaString("tenantKey", "tenant_key", "sheetId", "clientId")
}

// LeadPhone is the lead's phone number from metadata.
func (e *NormalizedCallEvent) LeadPhone() string {
	return e.MetaString("leadPhone", "phone", "phoneNumber", "customerPhone")
}

// LeadName is the lead's name from metadata.
func (e *NormalizedCallEvent) LeadName() string {
	return e.MetaString("leadName", "name", "customerName")
}

// BusinessName is the lead's business name from metadata.
func (e *NormalizedCallEvent) BusinessName() string {
	return e.MetaString("businessName", "business", "company")
}
