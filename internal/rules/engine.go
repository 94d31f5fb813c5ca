package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/common/types"
	"github.com/opensource-retail/kestrel/internal/domain"
)

// Engine is the Event-Condition-Action entry point: it looks up the rule
// for an event type, evaluates its conditions, and dispatches its actions.
type Engine struct {
	registry   *Registry
	dispatcher *Dispatcher
}

// NewEngine creates an engine over a registry and dispatcher. The
// registry is injected rather than shared process-wide so tests and
// multi-org deployments can hold isolated rule sets.
func NewEngine(registry *Registry, dispatcher *Dispatcher) *Engine {
	return &Engine{
		registry:   registry,
		dispatcher: dispatcher,
	}
}

// Registry returns the engine's rule registry for admin operations.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// ProcessEvent runs one event through the engine. The returned result is
// always well-formed: validation failures and non-matching outcomes are
// reported through Reason, and any internal panic is caught and reported
// through Error. A single bad event must never crash the host process.
func (e *Engine) ProcessEvent(ctx context.Context, event *domain.Event) (result *domain.EngineResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &domain.EngineResult{
				Success:   false,
				EventType: event.Type,
				Error:     fmt.Sprintf("internal error: %v", r),
				Timestamp: time.Now().UTC(),
			}
		}
	}()

	if event.OrganizationID == "" {
		return &domain.EngineResult{
			Success:   false,
			EventType: event.Type,
			Reason:    domain.ReasonMissingOrganization,
			Timestamp: time.Now().UTC(),
		}
	}

	compiled, ok := e.registry.lookup(event.Type)
	if !ok || !compiled.rule.Enabled {
		// Expected, frequent path: events without a registered rule are
		// not errors.
		return &domain.EngineResult{
			Success:   false,
			EventType: event.Type,
			Reason:    domain.ReasonNoMatchingRule,
			Timestamp: time.Now().UTC(),
		}
	}

	rule := compiled.rule

	for _, cond := range rule.Conditions {
		if !EvaluateCondition(cond, event.Data) {
			return &domain.EngineResult{
				Success:   false,
				EventType: event.Type,
				Rule:      rule.Name,
				Reason:    domain.ReasonConditionsNotMet,
				Timestamp: time.Now().UTC(),
			}
		}
	}

	if compiled.program != nil && !e.expressionMatches(compiled, event) {
		return &domain.EngineResult{
			Success:   false,
			EventType: event.Type,
			Rule:      rule.Name,
			Reason:    domain.ReasonConditionsNotMet,
			Timestamp: time.Now().UTC(),
		}
	}

	results := e.dispatcher.DispatchAll(ctx, rule.Actions, event)

	return &domain.EngineResult{
		Success:         true,
		EventType:       event.Type,
		Rule:            rule.Name,
		ActionsExecuted: len(results),
		Results:         results,
		Timestamp:       time.Now().UTC(),
	}
}

// expressionMatches evaluates a rule's compiled CEL filter. Evaluation
// errors count as a non-match.
func (e *Engine) expressionMatches(compiled *compiledRule, event *domain.Event) bool {
	data := event.Data
	if data == nil {
		data = map[string]interface{}{}
	}

	out, _, err := compiled.program.Eval(map[string]interface{}{
		"event":      data,
		"event_type": event.Type,
		"org_id":     event.OrganizationID,
	})
	if err != nil {
		return false
	}

	b, ok := out.(types.Bool)
	return ok && bool(b)
}
