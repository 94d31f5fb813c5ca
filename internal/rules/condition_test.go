package rules

import (
	"testing"

	"github.com/opensource-retail/kestrel/internal/domain"
)

func TestEqualsOperator(t *testing.T) {
	data := map[string]interface{}{
		"status": "completed",
		"amount": 50.0,
	}

	cond := domain.Condition{Field: "status", Operator: domain.OpEquals, Value: "completed"}
	if !EvaluateCondition(cond, data) {
		t.Error("expected status equals completed to match")
	}

	cond.Value = "pending"
	if EvaluateCondition(cond, data) {
		t.Error("expected status equals pending to not match")
	}

	// Rule-authored int against JSON float64
	cond = domain.Condition{Field: "amount", Operator: domain.OpEquals, Value: 50}
	if !EvaluateCondition(cond, data) {
		t.Error("expected numeric equality across int and float64")
	}
}

func TestContainsOperator(t *testing.T) {
	data := map[string]interface{}{"email": "buyer@example.com"}

	cond := domain.Condition{Field: "email", Operator: domain.OpContains, Value: "@example"}
	if !EvaluateCondition(cond, data) {
		t.Error("expected substring match")
	}

	cond.Value = "@other"
	if EvaluateCondition(cond, data) {
		t.Error("expected no substring match")
	}
}

func TestGreaterLessOperators(t *testing.T) {
	data := map[string]interface{}{
		"total_amount": 100.0,
		"quantity":     "3",
		"note":         "n/a",
	}

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"greater match", domain.Condition{Field: "total_amount", Operator: domain.OpGreater, Value: 50}, true},
		{"greater no match", domain.Condition{Field: "total_amount", Operator: domain.OpGreater, Value: 100}, false},
		{"less match", domain.Condition{Field: "total_amount", Operator: domain.OpLess, Value: 200}, true},
		{"numeric string coerced", domain.Condition{Field: "quantity", Operator: domain.OpGreater, Value: 2}, true},
		{"non-numeric fails closed", domain.Condition{Field: "note", Operator: domain.OpGreater, Value: 0}, false},
		{"missing field fails closed", domain.Condition{Field: "discount", Operator: domain.OpGreater, Value: -1}, false},
	}

	for _, tt := range tests {
		if got := EvaluateCondition(tt.cond, data); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExistsOperator(t *testing.T) {
	data := map[string]interface{}{
		"reason":  "damaged",
		"comment": nil,
	}

	if !EvaluateCondition(domain.Condition{Field: "reason", Operator: domain.OpExists}, data) {
		t.Error("expected present field to exist")
	}
	if EvaluateCondition(domain.Condition{Field: "comment", Operator: domain.OpExists}, data) {
		t.Error("expected null field to not exist")
	}
	if EvaluateCondition(domain.Condition{Field: "missing", Operator: domain.OpExists}, data) {
		t.Error("expected absent field to not exist")
	}
}

func TestUnknownOperatorFailsClosed(t *testing.T) {
	data := map[string]interface{}{"status": "completed"}
	cond := domain.Condition{Field: "status", Operator: "matches", Value: "completed"}
	if EvaluateCondition(cond, data) {
		t.Error("unknown operator must evaluate false")
	}
}

func TestNestedFieldResolution(t *testing.T) {
	data := map[string]interface{}{
		"customer": map[string]interface{}{
			"address": map[string]interface{}{"country": "DE"},
		},
		"items": []interface{}{
			map[string]interface{}{"product_id": "sku-1"},
			map[string]interface{}{"product_id": "sku-2"},
		},
	}

	cond := domain.Condition{Field: "customer.address.country", Operator: domain.OpEquals, Value: "DE"}
	if !EvaluateCondition(cond, data) {
		t.Error("expected nested map walk to resolve")
	}

	cond = domain.Condition{Field: "items.1.product_id", Operator: domain.OpEquals, Value: "sku-2"}
	if !EvaluateCondition(cond, data) {
		t.Error("expected array index walk to resolve")
	}

	// Missing intermediate key resolves to absent, not an error
	cond = domain.Condition{Field: "customer.phone.prefix", Operator: domain.OpEquals, Value: "+49"}
	if EvaluateCondition(cond, data) {
		t.Error("expected missing intermediate key to not match")
	}
}
