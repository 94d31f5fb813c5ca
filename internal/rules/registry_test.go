package rules

import (
	"testing"

	"github.com/opensource-retail/kestrel/internal/domain"
)

func TestRegistrySeededWithDefaults(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}

	for _, eventType := range []string{"sale_completed", "return_processed", "inventory_adjustment"} {
		rule, ok := registry.Get(eventType)
		if !ok {
			t.Errorf("expected default rule for %s", eventType)
			continue
		}
		if !rule.Enabled {
			t.Errorf("expected default rule for %s to be enabled", eventType)
		}
	}
}

func TestRegisterReplacesExisting(t *testing.T) {
	registry, _ := NewRegistry()

	rule := domain.Rule{
		ID:      "custom-sale",
		Name:    "Custom Sale",
		Event:   "sale_completed",
		Actions: []domain.Action{{Type: "audit_log", Handler: "audit"}},
		Enabled: true,
	}

	if err := registry.Register(rule); err != nil {
		t.Fatalf("failed to register rule: %v", err)
	}

	got, ok := registry.Get("sale_completed")
	if !ok {
		t.Fatal("expected rule for sale_completed")
	}
	if got.ID != "custom-sale" {
		t.Errorf("expected last registration to win, got %s", got.ID)
	}
	if len(got.Actions) != 1 {
		t.Errorf("expected 1 action, got %d", len(got.Actions))
	}
}

func TestRegisterRequiresEventType(t *testing.T) {
	registry, _ := NewRegistry()

	err := registry.Register(domain.Rule{ID: "no-event", Name: "No Event"})
	if err == nil {
		t.Error("expected error for rule without event type")
	}
}

func TestRegisterCompilesExpression(t *testing.T) {
	registry, _ := NewRegistry()

	rule := domain.Rule{
		ID:         "expr-rule",
		Event:      "transfer_completed",
		Expression: `event_type == "transfer_completed" && org_id != ""`,
		Enabled:    true,
	}
	if err := registry.Register(rule); err != nil {
		t.Fatalf("failed to register rule with expression: %v", err)
	}

	bad := domain.Rule{
		ID:         "bad-expr",
		Event:      "other",
		Expression: "this is not CEL !!!",
		Enabled:    true,
	}
	if err := registry.Register(bad); err == nil {
		t.Error("expected error for invalid CEL expression")
	}

	notBool := domain.Rule{
		ID:         "not-bool",
		Event:      "other",
		Expression: `"just a string"`,
		Enabled:    true,
	}
	if err := registry.Register(notBool); err == nil {
		t.Error("expected error for non-bool expression")
	}
}

func TestEnableDisableRemove(t *testing.T) {
	registry, _ := NewRegistry()

	if !registry.Disable("sale_completed") {
		t.Error("expected disable to succeed for registered rule")
	}
	rule, _ := registry.Get("sale_completed")
	if rule.Enabled {
		t.Error("expected rule to be disabled")
	}

	if !registry.Enable("sale_completed") {
		t.Error("expected enable to succeed")
	}
	rule, _ = registry.Get("sale_completed")
	if !rule.Enabled {
		t.Error("expected rule to be enabled")
	}

	if !registry.Remove("sale_completed") {
		t.Error("expected remove to succeed")
	}
	if _, ok := registry.Get("sale_completed"); ok {
		t.Error("expected rule to be gone after remove")
	}

	if registry.Enable("never_registered") {
		t.Error("expected enable to fail for unknown event type")
	}
	if registry.Remove("never_registered") {
		t.Error("expected remove to fail for unknown event type")
	}
}

func TestListSortedByEvent(t *testing.T) {
	registry, _ := NewRegistry()

	rules := registry.List()
	if len(rules) != 3 {
		t.Fatalf("expected 3 default rules, got %d", len(rules))
	}
	for i := 1; i < len(rules); i++ {
		if rules[i-1].Event > rules[i].Event {
			t.Errorf("expected list sorted by event type, got %s before %s", rules[i-1].Event, rules[i].Event)
		}
	}
}
