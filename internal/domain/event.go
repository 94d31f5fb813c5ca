// Package domain defines the core interfaces and types for Kestrel.
package domain

import "time"

// Event represents an incoming business event from the retail platform.
// Events are transient: constructed per webhook call and never persisted
// by the engine itself.
type Event struct {
	// Type is the event type string, e.g. "sale_completed".
	Type string `json:"type"`

	// OrganizationID identifies the org the event belongs to.
	OrganizationID string `json:"organization_id"`

	// Data is the arbitrary nested payload the conditions walk.
	Data map[string]interface{} `json:"data"`

	// Timestamp is the platform-supplied event time (RFC3339 string,
	// passed through untouched).
	Timestamp string `json:"timestamp,omitempty"`

	// EventID is an optional platform-assigned identifier.
	EventID string `json:"event_id,omitempty"`
}

// ActionResult is the outcome of dispatching a single action.
type ActionResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EngineResult is the structured outcome of processing one event.
// Callers always receive a well-formed result; a hard failure is only
// observable through the Error field.
type EngineResult struct {
	Success         bool           `json:"success"`
	Rule            string         `json:"rule,omitempty"`
	EventType       string         `json:"eventType"`
	Reason          string         `json:"reason,omitempty"`
	ActionsExecuted int            `json:"actionsExecuted,omitempty"`
	Results         []ActionResult `json:"results,omitempty"`
	Error           string         `json:"error,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Reason codes for non-matching engine outcomes. These are normal,
// expected paths, not errors.
const (
	ReasonMissingOrganization = "MissingOrganization"
	ReasonNoMatchingRule      = "NoMatchingRule"
	ReasonConditionsNotMet    = "ConditionsNotMet"
)
