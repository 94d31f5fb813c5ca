// Package worker provides async event processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-retail/kestrel/internal/domain"
	"github.com/opensource-retail/kestrel/internal/rules"
)

// counterWindow is the sliding window for per-org processed-event counters.
const counterWindow = time.Hour

// Worker processes events asynchronously from the EventBus.
type Worker struct {
	bus    domain.EventBus
	repo   domain.Repository
	cache  domain.Cache
	engine *rules.Engine

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// OrgIDs is the list of orgs to process (empty = global subscription)
	OrgIDs []string

	// WorkerCount is the number of concurrent workers per org
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, cache domain.Cache, engine *rules.Engine) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		cache:  cache,
		engine: engine,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing events for the given orgs.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.OrgIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, orgID := range cfg.OrgIDs {
		if err := w.startOrgWorker(orgID); err != nil {
			slog.Error("failed to start worker for org",
				"org_id", orgID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"org_count", len(cfg.OrgIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all orgs (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicEventReceived, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startOrgWorker starts workers for a specific org.
func (w *Worker) startOrgWorker(orgID string) error {
	sub, err := w.bus.Subscribe(w.ctx, orgID, domain.TopicEventReceived, func(ctx context.Context, msg *domain.Message) error {
		return w.processEvent(ctx, orgID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("org worker started",
		"org_id", orgID,
		"topic", domain.TopicEventReceived,
	)

	return nil
}

// handleMessage handles messages from the global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processEvent(ctx, msg.OrgID, msg)
}

// processEvent runs an event through the rule engine and records the outcome.
func (w *Worker) processEvent(ctx context.Context, orgID string, msg *domain.Message) error {
	start := time.Now()

	var event domain.Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		slog.Error("failed to parse event message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use event org if provided
	if event.OrganizationID == "" {
		event.OrganizationID = orgID
	}
	orgID = event.OrganizationID

	eventID := event.EventID
	if eventID == "" {
		eventID = msg.ID
	}

	slog.Debug("processing event",
		"event_id", eventID,
		"event_type", event.Type,
		"org_id", orgID,
	)

	result := w.engine.ProcessEvent(ctx, &event)

	if w.repo != nil && orgID != "" {
		if err := w.repo.SaveEngineResult(ctx, orgID, eventID, result); err != nil {
			slog.Error("failed to save engine result",
				"event_id", eventID,
				"error", err,
			)
		}
	}

	if w.cache != nil && orgID != "" {
		if _, err := w.cache.IncrementCounter(ctx, orgID, "events_processed", counterWindow); err != nil {
			slog.Debug("failed to increment event counter",
				"org_id", orgID,
				"error", err,
			)
		}
	}

	resultPayload, _ := json.Marshal(result)
	outTopic := domain.TopicEventProcessed
	if result.Error != "" {
		outTopic = domain.TopicEventFailed
	}

	if orgID != "" {
		if err := w.bus.Publish(ctx, orgID, outTopic, resultPayload); err != nil {
			slog.Error("failed to publish engine result",
				"event_id", eventID,
				"topic", outTopic,
				"error", err,
			)
		}
	}

	slog.Info("event processed",
		"event_id", eventID,
		"event_type", event.Type,
		"org_id", orgID,
		"matched", result.Success,
		"reason", result.Reason,
		"actions_executed", result.ActionsExecuted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
