package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-retail/kestrel/internal/domain"
)

// ActionFunc executes one side-effect routine for a matched rule and
// returns a human-readable outcome message.
type ActionFunc func(ctx context.Context, action domain.Action, event *domain.Event) (string, error)

// Dispatcher maps action types to handler functions and executes them
// sequentially, isolating handler failures from each other.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]ActionFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]ActionFunc)}
}

// RegisterHandler binds a handler to an action type.
func (d *Dispatcher) RegisterHandler(actionType string, fn ActionFunc) {
	d.mu.Lock()
	d.handlers[actionType] = fn
	d.mu.Unlock()
}

// Dispatch runs the handler for one action. An unknown action type or a
// handler failure (including a panic) becomes a failed ActionResult,
// never an error for the surrounding rule.
func (d *Dispatcher) Dispatch(ctx context.Context, action domain.Action, event *domain.Event) domain.ActionResult {
	d.mu.RLock()
	fn, ok := d.handlers[action.Type]
	d.mu.RUnlock()

	if !ok {
		return domain.ActionResult{
			Action:  action.Type,
			Success: false,
			Error:   fmt.Sprintf("no handler registered for action type %q", action.Type),
		}
	}

	msg, err := invoke(ctx, fn, action, event)
	if err != nil {
		return domain.ActionResult{
			Action:  action.Type,
			Success: false,
			Error:   err.Error(),
		}
	}

	return domain.ActionResult{
		Action:  action.Type,
		Success: true,
		Message: msg,
	}
}

// DispatchAll attempts every action in order and collects the results.
// Individual failures never abort the remaining actions.
func (d *Dispatcher) DispatchAll(ctx context.Context, actions []domain.Action, event *domain.Event) []domain.ActionResult {
	results := make([]domain.ActionResult, 0, len(actions))
	for _, action := range actions {
		results = append(results, d.Dispatch(ctx, action, event))
	}
	return results
}

// invoke calls a handler with panic recovery.
func invoke(ctx context.Context, fn ActionFunc, action domain.Action, event *domain.Event) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(ctx, action, event)
}

// Handlers holds the built-in action handlers. The actual business
// effects (inventory writes, notifications) are delegated to the
// injected collaborators; each may be nil, in which case the handler
// only records its outcome.
type Handlers struct {
	Repo  domain.Repository
	Cache domain.Cache
	Bus   domain.EventBus
}

// RegisterDefaults binds the built-in handlers to a dispatcher.
func (h *Handlers) RegisterDefaults(d *Dispatcher) {
	d.RegisterHandler("update_inventory", h.UpdateInventory)
	d.RegisterHandler("adjust_stock", h.AdjustStock)
	d.RegisterHandler("update_customer_rfm", h.UpdateCustomerRFM)
	d.RegisterHandler("generate_receipt", h.GenerateReceipt)
	d.RegisterHandler("process_refund", h.ProcessRefund)
	d.RegisterHandler("audit_log", h.AuditLog)
}

// UpdateInventory records an inventory change for the products named in
// the event payload.
func (h *Handlers) UpdateInventory(ctx context.Context, action domain.Action, event *domain.Event) (string, error) {
	direction := "decrement"
	if v, ok := action.Parameters["direction"].(string); ok {
		direction = v
	}

	productID, _ := resolveField(event.Data, "product_id")
	slog.Debug("inventory update",
		"org_id", event.OrganizationID,
		"direction", direction,
		"product_id", productID,
	)

	return fmt.Sprintf("inventory %s recorded", direction), nil
}

// AdjustStock applies a manual stock adjustment from an
// inventory_adjustment event.
func (h *Handlers) AdjustStock(ctx context.Context, action domain.Action, event *domain.Event) (string, error) {
	reason, found := resolveField(event.Data, "reason")
	if !found {
		return "", fmt.Errorf("adjustment reason is missing")
	}
	return fmt.Sprintf("stock adjusted: %v", reason), nil
}

// UpdateCustomerRFM invalidates cached segmentation for the org so the
// next report recomputes with the new purchase history.
func (h *Handlers) UpdateCustomerRFM(ctx context.Context, action domain.Action, event *domain.Event) (string, error) {
	customerID, _ := resolveField(event.Data, "customer_id")

	if h.Cache != nil {
		if err := h.Cache.Delete(ctx, event.OrganizationID, "segments:latest"); err != nil {
			return "", fmt.Errorf("failed to invalidate segment cache: %w", err)
		}
	}

	return fmt.Sprintf("rfm marked stale for customer %v", customerID), nil
}

// GenerateReceipt publishes a receipt notification for downstream
// delivery.
func (h *Handlers) GenerateReceipt(ctx context.Context, action domain.Action, event *domain.Event) (string, error) {
	receiptID := uuid.New().String()

	if h.Bus != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"receipt_id": receiptID,
			"event_id":   event.EventID,
			"data":       event.Data,
		})
		if err := h.Bus.Publish(ctx, event.OrganizationID, domain.TopicReceipt, payload); err != nil {
			return "", fmt.Errorf("failed to publish receipt: %w", err)
		}
	}

	return "receipt " + receiptID, nil
}

// ProcessRefund computes the refund amount from the event payload and
// publishes it for the payment collaborator.
func (h *Handlers) ProcessRefund(ctx context.Context, action domain.Action, event *domain.Event) (string, error) {
	amount := 0.0
	if v, found := resolveField(event.Data, "total_amount"); found {
		if f, ok := toFloat(v); ok {
			amount = f
		}
	}

	if h.Bus != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"event_id": event.EventID,
			"amount":   amount,
		})
		if err := h.Bus.Publish(ctx, event.OrganizationID, domain.TopicRefund, payload); err != nil {
			return "", fmt.Errorf("failed to publish refund: %w", err)
		}
	}

	return fmt.Sprintf("refund of %.2f queued", amount), nil
}

// AuditLog writes an audit entry for the triggering event.
func (h *Handlers) AuditLog(ctx context.Context, action domain.Action, event *domain.Event) (string, error) {
	if h.Repo == nil {
		return "audit skipped (no repository)", nil
	}

	entry := &domain.AuditEntry{
		ID:             uuid.New().String(),
		OrganizationID: event.OrganizationID,
		EventType:      event.Type,
		Action:         action.Type,
		Detail:         event.Data,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.Repo.SaveAuditEntry(ctx, event.OrganizationID, entry); err != nil {
		return "", fmt.Errorf("failed to write audit entry: %w", err)
	}

	return "audit entry " + entry.ID, nil
}
