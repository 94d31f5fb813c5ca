package domain

// Operator names accepted by condition evaluation.
const (
	OpEquals   = "equals"
	OpContains = "contains"
	OpGreater  = "greater"
	OpLess     = "less"
	OpExists   = "exists"
)

// Condition is a single field/operator/value check against an event payload.
// Conditions are immutable once their rule is registered.
type Condition struct {
	// Field is a dotted path into the event data, e.g. "customer.id".
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
}

// Action names a side-effect routine to run when a rule matches.
// The handler is resolved by the dispatcher at execution time, not at
// registration time.
type Action struct {
	Type       string                 `json:"type"`
	Handler    string                 `json:"handler"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Rule is an Event-Condition-Action definition. Conditions are ANDed in
// order; an empty list is vacuously satisfied. All actions are attempted
// in order regardless of individual failures. Rules are keyed by Event:
// one rule per event type, last registration wins.
type Rule struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Event string `json:"event"`

	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`

	// Expression is an optional CEL filter evaluated alongside the
	// structured conditions. Compiled when the rule is registered.
	Expression string `json:"expression,omitempty"`

	Enabled bool `json:"enabled"`
}
