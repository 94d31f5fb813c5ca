package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/opensource-retail/kestrel/internal/domain"
)

// Registry holds ECA rules keyed by event type. Exactly one rule per
// event type: registering a second rule for the same type replaces the
// first. Reads vastly outnumber writes; the table is RWMutex guarded.
//
// Rules live in memory only. The registry is seeded with the default
// rule set at construction and resets to it on restart.
type Registry struct {
	mu    sync.RWMutex
	env   *cel.Env
	rules map[string]*compiledRule
}

// compiledRule pairs a rule with its pre-compiled CEL filter, if any.
type compiledRule struct {
	rule    domain.Rule
	program cel.Program
}

// NewRegistry creates a registry seeded with the default rule set.
func NewRegistry() (*Registry, error) {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("event_type", cel.StringType),
		cel.Variable("org_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	r := &Registry{
		env:   env,
		rules: make(map[string]*compiledRule),
	}

	for _, rule := range DefaultRules() {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register stores a rule, replacing any existing rule for its event type.
// An optional CEL expression is compiled here so ProcessEvent never pays
// compilation cost.
func (r *Registry) Register(rule domain.Rule) error {
	if rule.Event == "" {
		return fmt.Errorf("rule %s: event type is required", rule.ID)
	}

	compiled := &compiledRule{rule: rule}

	if rule.Expression != "" {
		program, err := r.compileExpression(rule)
		if err != nil {
			return err
		}
		compiled.program = program
	}

	r.mu.Lock()
	r.rules[rule.Event] = compiled
	r.mu.Unlock()

	return nil
}

// Get returns the rule registered for an event type.
func (r *Registry) Get(eventType string) (domain.Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	compiled, ok := r.rules[eventType]
	if !ok {
		return domain.Rule{}, false
	}
	return compiled.rule, true
}

// List returns all registered rules sorted by event type.
func (r *Registry) List() []domain.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]domain.Rule, 0, len(r.rules))
	for _, compiled := range r.rules {
		rules = append(rules, compiled.rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Event < rules[j].Event })
	return rules
}

// Enable marks the rule for an event type as active.
// Returns false if no rule is registered for the type.
func (r *Registry) Enable(eventType string) bool {
	return r.setEnabled(eventType, true)
}

// Disable marks the rule for an event type as inactive.
func (r *Registry) Disable(eventType string) bool {
	return r.setEnabled(eventType, false)
}

// Remove deletes the rule for an event type.
func (r *Registry) Remove(eventType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[eventType]; !ok {
		return false
	}
	delete(r.rules, eventType)
	return true
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

func (r *Registry) setEnabled(eventType string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	compiled, ok := r.rules[eventType]
	if !ok {
		return false
	}
	compiled.rule.Enabled = enabled
	return true
}

// lookup returns the compiled rule for engine evaluation.
func (r *Registry) lookup(eventType string) (*compiledRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	compiled, ok := r.rules[eventType]
	return compiled, ok
}

func (r *Registry) compileExpression(rule domain.Rule) (cel.Program, error) {
	ast, issues := r.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression for rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := r.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return program, nil
}

// DefaultRules returns the rule set seeded at startup.
func DefaultRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:    "rule-sale-completed",
			Name:  "Sale Completed",
			Event: "sale_completed",
			Conditions: []domain.Condition{
				{Field: "total_amount", Operator: domain.OpGreater, Value: 0},
				{Field: "status", Operator: domain.OpEquals, Value: "completed"},
			},
			Actions: []domain.Action{
				{Type: "update_inventory", Handler: "inventory", Parameters: map[string]interface{}{"direction": "decrement"}},
				{Type: "update_customer_rfm", Handler: "rfm", Parameters: map[string]interface{}{"mode": "purchase"}},
				{Type: "generate_receipt", Handler: "receipt"},
			},
			Enabled: true,
		},
		{
			ID:    "rule-return-processed",
			Name:  "Return Processed",
			Event: "return_processed",
			Conditions: []domain.Condition{
				{Field: "status", Operator: domain.OpEquals, Value: "approved"},
			},
			Actions: []domain.Action{
				{Type: "update_inventory", Handler: "inventory", Parameters: map[string]interface{}{"direction": "increment"}},
				{Type: "update_customer_rfm", Handler: "rfm", Parameters: map[string]interface{}{"mode": "return"}},
				{Type: "process_refund", Handler: "refund"},
			},
			Enabled: true,
		},
		{
			ID:    "rule-inventory-adjustment",
			Name:  "Inventory Adjustment",
			Event: "inventory_adjustment",
			Conditions: []domain.Condition{
				{Field: "reason", Operator: domain.OpExists},
			},
			Actions: []domain.Action{
				{Type: "adjust_stock", Handler: "inventory"},
				{Type: "audit_log", Handler: "audit"},
			},
			Enabled: true,
		},
	}
}
