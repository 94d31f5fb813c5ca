package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opensource-retail/kestrel/internal/analytics"
	"github.com/opensource-retail/kestrel/internal/domain"
	"github.com/opensource-retail/kestrel/internal/rules"
	"github.com/opensource-retail/kestrel/internal/segment"
)

// counterWindow is the sliding window for per-org processed-event counters.
const counterWindow = time.Hour

// Handler holds dependencies for API handlers.
type Handler struct {
	repo        domain.Repository
	cache       domain.Cache
	bus         domain.EventBus
	engine      *rules.Engine
	segments    *segment.Service
	reports     *analytics.Processor
	eventSchema *jsonschema.Schema
	version     string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, segments *segment.Service, reports *analytics.Processor, version string) *Handler {
	schema, err := compileEventSchema()
	if err != nil {
		// The schema is a compile-time constant; failure here means a
		// programming error, so surface it loudly and skip validation.
		slog.Error("event schema unavailable", "error", err)
	}

	return &Handler{
		repo:        repo,
		cache:       cache,
		bus:         bus,
		engine:      engine,
		segments:    segments,
		reports:     reports,
		eventSchema: schema,
		version:     version,
	}
}

// ProcessEvent handles POST /events requests: validate the webhook
// payload, run it through the rule engine, persist and publish the result.
func (h *Handler) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)

	var raw interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if h.eventSchema != nil {
		if err := h.eventSchema.Validate(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid event payload: " + err.Error(),
			})
			return
		}
	}

	// Re-decode the validated payload into the typed event.
	data, _ := json.Marshal(raw)
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid event payload",
		})
		return
	}

	if event.OrganizationID == "" {
		event.OrganizationID = orgID
	}

	eventID := event.EventID
	if eventID == "" {
		eventID = uuid.New().String()
	}

	result := h.engine.ProcessEvent(ctx, &event)

	if h.repo != nil {
		if err := h.repo.SaveEngineResult(ctx, orgID, eventID, result); err != nil {
			slog.Error("failed to save engine result", "event_id", eventID, "error", err)
		}
	}

	if h.cache != nil {
		if _, err := h.cache.IncrementCounter(ctx, orgID, "events_processed", counterWindow); err != nil {
			slog.Debug("failed to increment event counter", "org_id", orgID, "error", err)
		}
	}

	if h.bus != nil {
		payload, _ := json.Marshal(result)
		topic := domain.TopicEventProcessed
		if result.Error != "" {
			topic = domain.TopicEventFailed
		}
		if err := h.bus.Publish(ctx, orgID, topic, payload); err != nil {
			slog.Error("failed to publish engine result", "event_id", eventID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"eventId": eventID,
		"result":  result,
	})
}

// GetEngineResult retrieves a processed-event record by ID.
func (h *Handler) GetEngineResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	resultID := chi.URLParam(r, "id")

	if resultID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "result id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	result, err := h.repo.GetEngineResult(ctx, orgID, resultID)
	if err != nil {
		slog.Error("failed to get engine result", "id", resultID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "result not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateTransaction handles POST /transactions requests.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)

	var req domain.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.CustomerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "customer_id is required",
		})
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "type is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	record := req.ToRecord(orgID)
	if err := h.repo.SaveTransaction(ctx, orgID, record); err != nil {
		slog.Error("failed to save transaction", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save transaction",
		})
		return
	}

	// New history invalidates the cached segmentation batch.
	if h.cache != nil {
		_ = h.cache.Delete(ctx, orgID, "segments:latest")
	}

	writeJSON(w, http.StatusCreated, record)
}

// GetTransaction retrieves a transaction by ID.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)
	txID := chi.URLParam(r, "id")

	if txID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	tx, err := h.repo.GetTransaction(ctx, orgID, txID)
	if err != nil {
		slog.Error("failed to get transaction", "id", txID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "transaction not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// GetSegments handles GET /segments requests. The optional "days" query
// parameter bounds the transaction window.
func (h *Handler) GetSegments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)

	if h.segments == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "segmentation not available",
		})
		return
	}

	since := analytics.Window(queryInt(r, "days"))

	segments, err := h.segments.SegmentsFor(ctx, orgID, since)
	if err != nil {
		slog.Error("failed to compute segments", "org_id", orgID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to compute segments",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": segments,
		"count":    len(segments),
	})
}

// GetSalesReport handles GET /analytics/sales requests.
func (h *Handler) GetSalesReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := GetOrgID(ctx)

	if h.repo == nil || h.reports == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "analytics not available",
		})
		return
	}

	since := analytics.Window(queryInt(r, "days"))

	transactions, err := h.repo.ListTransactions(ctx, orgID, since)
	if err != nil {
		slog.Error("failed to list transactions", "org_id", orgID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load transactions",
		})
		return
	}

	var segments []domain.CustomerSegment
	if h.segments != nil {
		if segs, err := h.segments.SegmentsFor(ctx, orgID, since); err == nil {
			segments = segs
		}
	}

	report := h.reports.Process(ctx, &analytics.ReportInput{
		OrgID:        orgID,
		Transactions: transactions,
		Segments:     segments,
	})

	writeJSON(w, http.StatusOK, report)
}

// ListRules returns all registered rules sorted by event type.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	registered := h.engine.Registry().List()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": registered,
		"count": len(registered),
	})
}

// GetRule retrieves the rule registered for an event type.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	eventType := chi.URLParam(r, "event")

	rule, ok := h.engine.Registry().Get(eventType)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no rule registered for event type",
		})
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// CreateRule registers a rule, replacing any rule already bound to the
// same event type.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if rule.Event == "" || rule.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "event and name are required",
		})
		return
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := h.engine.Registry().Register(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid rule: " + err.Error(),
		})
		return
	}

	slog.Info("rule registered", "id", rule.ID, "event", rule.Event)
	writeJSON(w, http.StatusCreated, rule)
}

// EnableRule enables the rule for an event type.
func (h *Handler) EnableRule(w http.ResponseWriter, r *http.Request) {
	h.setRuleEnabled(w, r, true)
}

// DisableRule disables the rule for an event type without removing it.
func (h *Handler) DisableRule(w http.ResponseWriter, r *http.Request) {
	h.setRuleEnabled(w, r, false)
}

func (h *Handler) setRuleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	eventType := chi.URLParam(r, "event")

	var ok bool
	if enabled {
		ok = h.engine.Registry().Enable(eventType)
	} else {
		ok = h.engine.Registry().Disable(eventType)
	}

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no rule registered for event type",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event":   eventType,
		"enabled": enabled,
	})
}

// DeleteRule removes the rule for an event type.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	eventType := chi.URLParam(r, "event")

	if !h.engine.Registry().Remove(eventType) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no rule registered for event type",
		})
		return
	}

	slog.Info("rule removed", "event", eventType)
	writeJSON(w, http.StatusOK, map[string]string{
		"event": eventType,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
