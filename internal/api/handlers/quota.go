package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
)

const msgQuotaSyncUnavailable = "The eBay usage service is currently unavailable. Please try again later."

// QuotaSyncer pulls eBay's own view of the daily call count into the local
// limiter.
type QuotaSyncer interface {
	SyncQuota(ctx context.Context) error
}

// QuotaHandler reports the daily eBay call budget and, when a syncer is
// configured, reconciles it with eBay on demand.
type QuotaHandler struct {
	rl   *ebay.RateLimiter
	sync QuotaSyncer
	log  *slog.Logger
}

// QuotaOption configures a QuotaHandler.
type QuotaOption func(*QuotaHandler)

// WithQuotaSyncer enables POST /api/v1/quota/sync.
func WithQuotaSyncer(s QuotaSyncer) QuotaOption {
	return func(h *QuotaHandler) {
		h.sync = s
	}
}

// WithQuotaLogger sets the logger for sync failures. Nil is ignored.
func WithQuotaLogger(l *slog.Logger) QuotaOption {
	return func(h *QuotaHandler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewQuotaHandler creates a QuotaHandler over rl. A nil rl reports an
// unlimited budget.
func NewQuotaHandler(rl *ebay.RateLimiter, opts ...QuotaOption) *QuotaHandler {
	h := &QuotaHandler{rl: rl, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// QuotaBody is the daily budget as the API reports it.
type QuotaBody struct {
	DailyLimit int64     `json:"daily_limit" example:"5000"                 doc:"Configured daily eBay call limit, 0 when unlimited"`
	DailyUsed  int64     `json:"daily_used"  example:"142"                  doc:"Calls charged in the current 24-hour window"`
	Remaining  int64     `json:"remaining"   example:"4858"                 doc:"Calls left before searches are refused"`
	Exhausted  bool      `json:"exhausted"   example:"false"                doc:"True when searches fail with rate_limited until reset"`
	ResetAt    time.Time `json:"reset_at"    example:"2026-06-16T14:30:00Z" doc:"When the current window expires"`
}

// QuotaOutput wraps QuotaBody for huma.
type QuotaOutput struct {
	Body QuotaBody
}

// GetQuota returns the current daily budget.
func (h *QuotaHandler) GetQuota(_ context.Context, _ *struct{}) (*QuotaOutput, error) {
	return &QuotaOutput{Body: h.snapshot()}, nil
}

// SyncQuota asks eBay for its count, folds it into the limiter and returns
// the result. Upstream detail stays in the log.
func (h *QuotaHandler) SyncQuota(ctx context.Context, _ *struct{}) (*QuotaOutput, error) {
	if err := h.sync.SyncQuota(ctx); err != nil {
		h.log.Warn("quota sync failed", "error", err)
		return nil, huma.Error503ServiceUnavailable(msgQuotaSyncUnavailable)
	}
	return &QuotaOutput{Body: h.snapshot()}, nil
}

func (h *QuotaHandler) snapshot() QuotaBody {
	if h.rl == nil {
		return QuotaBody{}
	}
	q := h.rl.Quota()
	return QuotaBody{
		DailyLimit: q.Limit,
		DailyUsed:  q.Used,
		Remaining:  q.Remaining,
		Exhausted:  q.Limit > 0 && q.Remaining == 0,
		ResetAt:    q.ResetAt,
	}
}

// RegisterQuotaRoutes registers the quota endpoints with the Huma API. The
// sync operation is only mounted when a syncer is configured.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get eBay API quota status",
		Description: "Returns the daily eBay call usage, remaining budget and window reset time.",
		Tags:        []string{"ebay"},
	}, h.GetQuota)

	if h.sync == nil {
		return
	}
	huma.Register(api, huma.Operation{
		OperationID: "sync-quota",
		Method:      http.MethodPost,
		Path:        "/api/v1/quota/sync",
		Summary:     "Reconcile quota with eBay",
		Description: "Reads eBay's own daily count for the Browse API and raises the local count to match.",
		Tags:        []string{"ebay"},
	}, h.SyncQuota)
}
