package rules

import (
	"context"
	"fmt"
	"testing"

	"github.com/opensource-retail/kestrel/internal/domain"
)

func testEvent(data map[string]interface{}) *domain.Event {
	return &domain.Event{
		Type:           "sale_completed",
		OrganizationID: "org-1",
		Data:           data,
	}
}

func TestDispatchUnknownActionType(t *testing.T) {
	d := NewDispatcher()

	result := d.Dispatch(context.Background(), domain.Action{Type: "send_sms"}, testEvent(nil))
	if result.Success {
		t.Error("expected failure for unregistered action type")
	}
	if result.Error == "" {
		t.Error("expected error message for unregistered action type")
	}
	if result.Action != "send_sms" {
		t.Errorf("expected action name in result, got %q", result.Action)
	}
}

func TestDispatchAllIsolatesFailures(t *testing.T) {
	d := NewDispatcher()
	d.RegisterHandler("ok", func(ctx context.Context, a domain.Action, e *domain.Event) (string, error) {
		return "done", nil
	})
	d.RegisterHandler("fails", func(ctx context.Context, a domain.Action, e *domain.Event) (string, error) {
		return "", fmt.Errorf("collaborator unavailable")
	})
	d.RegisterHandler("panics", func(ctx context.Context, a domain.Action, e *domain.Event) (string, error) {
		panic("handler bug")
	})

	actions := []domain.Action{
		{Type: "ok"},
		{Type: "fails"},
		{Type: "panics"},
		{Type: "ok"},
	}

	results := d.DispatchAll(context.Background(), actions, testEvent(nil))
	if len(results) != len(actions) {
		t.Fatalf("expected %d results, got %d", len(actions), len(results))
	}

	if !results[0].Success || !results[3].Success {
		t.Error("expected surrounding actions to succeed")
	}
	if results[1].Success {
		t.Error("expected failing handler to produce failed result")
	}
	if results[2].Success {
		t.Error("expected panicking handler to produce failed result")
	}
	if results[2].Error == "" {
		t.Error("expected panic to be reported in result error")
	}
}

func TestBuiltinHandlersWithoutCollaborators(t *testing.T) {
	d := NewDispatcher()
	h := &Handlers{}
	h.RegisterDefaults(d)

	event := testEvent(map[string]interface{}{
		"product_id":   "sku-9",
		"customer_id":  "cust-1",
		"total_amount": 42.5,
		"reason":       "damaged",
	})

	for _, actionType := range []string{
		"update_inventory", "adjust_stock", "update_customer_rfm",
		"generate_receipt", "process_refund", "audit_log",
	} {
		result := d.Dispatch(context.Background(), domain.Action{Type: actionType}, event)
		if !result.Success {
			t.Errorf("%s: expected success without collaborators, got %q", actionType, result.Error)
		}
	}
}

func TestAdjustStockRequiresReason(t *testing.T) {
	h := &Handlers{}

	_, err := h.AdjustStock(context.Background(), domain.Action{Type: "adjust_stock"}, testEvent(map[string]interface{}{}))
	if err == nil {
		t.Error("expected error when reason is missing")
	}
}

func TestProcessRefundReadsAmount(t *testing.T) {
	h := &Handlers{}

	msg, err := h.ProcessRefund(context.Background(), domain.Action{Type: "process_refund"},
		testEvent(map[string]interface{}{"total_amount": 19.99}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "refund of 19.99 queued" {
		t.Errorf("unexpected message: %q", msg)
	}
}
