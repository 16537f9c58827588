package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dropshipping-service/internal/metrics"
	"dropshipping-service/internal/models"
)

const maxLoggedValueLen = 2000

// BudgetStore is the persistence surface the gate needs for budget accounting
type BudgetStore interface {
	GetSupplier(ctx context.Context, id uuid.UUID) (*models.SupplierAccount, error)
	IncrementRequests(ctx context.Context, id uuid.UUID) error
}

// CallLogStore persists one log row per outbound API call
type CallLogStore interface {
	LogCall(ctx context.Context, log *models.ApiCallLog) error
}

// CallResult is what a gated call reports back for logging
type CallResult struct {
	StatusCode int
	Request    models.JSONB
	Response   models.JSONB
}

// GatedFunc performs the actual network call
type GatedFunc func(ctx context.Context) (*CallResult, error)

// RequestGate serializes outbound calls per supplier, enforces the daily
// request budget before any network activity, and records every attempted
// call. Failed calls still consume budget and are still logged.
type RequestGate struct {
	budgets BudgetStore
	logs    CallLogStore
	logger  *zap.Logger

	// Post-call pause keeps the supplier from flagging us as a bot
	minDelay time.Duration
	maxDelay time.Duration

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewRequestGate creates a gate with the default 1-2s post-call pause
func NewRequestGate(budgets BudgetStore, logs CallLogStore, logger *zap.Logger) *RequestGate {
	return &RequestGate{
		budgets:  budgets,
		logs:     logs,
		logger:   logger,
		minDelay: 1 * time.Second,
		maxDelay: 2 * time.Second,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetDelay overrides the post-call pause window
func (g *RequestGate) SetDelay(min, max time.Duration) {
	g.minDelay = min
	g.maxDelay = max
}

func (g *RequestGate) supplierLock(id uuid.UUID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	return l
}

// Do executes fn under the supplier's budget. When the budget is exhausted the
// call is refused before fn runs, without consuming budget or writing a log row.
func (g *RequestGate) Do(ctx context.Context, supplierID uuid.UUID, endpoint, method string, fn GatedFunc) (*CallResult, error) {
	lock := g.supplierLock(supplierID)
	lock.Lock()
	defer lock.Unlock()

	supplier, err := g.budgets.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("load supplier %s: %w", supplierID, err)
	}
	if !supplier.HasBudget() {
		g.logger.Warn("request refused: daily budget exhausted",
			zap.String("supplier_id", supplierID.String()),
			zap.String("endpoint", endpoint),
			zap.Int("requests_today", supplier.RequestsToday),
			zap.Int("daily_limit", supplier.DailyRequestLimit))
		return nil, fmt.Errorf("%s: %w", supplier.DisplayName, ErrRateLimitExceeded)
	}

	start := time.Now()
	result, callErr := fn(ctx)
	latency := time.Since(start)
	metrics.ApiCallLatency.WithLabelValues(string(supplier.SupplierType)).Observe(latency.Seconds())

	// Budget accounting and the audit row happen regardless of call outcome
	if err := g.budgets.IncrementRequests(ctx, supplierID); err != nil {
		g.logger.Error("failed to increment request counter",
			zap.String("supplier_id", supplierID.String()), zap.Error(err))
	}

	logRow := &models.ApiCallLog{
		SupplierID: supplierID,
		Endpoint:   endpoint,
		Method:     method,
		LatencyMs:  latency.Milliseconds(),
	}
	if result != nil {
		logRow.StatusCode = result.StatusCode
		logRow.Request = truncateJSONB(result.Request)
		logRow.Response = truncateJSONB(result.Response)
	}
	if callErr != nil {
		logRow.ErrorMessage = callErr.Error()
	}
	if err := g.logs.LogCall(ctx, logRow); err != nil {
		g.logger.Error("failed to persist api call log",
			zap.String("supplier_id", supplierID.String()), zap.Error(err))
	}

	g.pause(ctx)

	return result, callErr
}

// pause blocks between calls, honoring context cancellation
func (g *RequestGate) pause(ctx context.Context) {
	if g.maxDelay <= 0 {
		return
	}
	delay := g.minDelay
	if g.maxDelay > g.minDelay {
		delay += time.Duration(rand.Int63n(int64(g.maxDelay - g.minDelay)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// truncateJSONB caps oversized string values so log rows stay bounded
func truncateJSONB(m models.JSONB) models.JSONB {
	if m == nil {
		return models.JSONB{}
	}
	out := make(models.JSONB, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && len(s) > maxLoggedValueLen {
			out[k] = s[:maxLoggedValueLen] + "...(truncated)"
			continue
		}
		out[k] = v
	}
	return out
}
