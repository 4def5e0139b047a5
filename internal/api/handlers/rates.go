package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/product-aggregator/internal/store"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// RateSnapshotter exposes the exchange rate snapshot in use.
// *exchange.Converter satisfies it.
type RateSnapshotter interface {
	Snapshot(ctx context.Context) (*domain.ExchangeRateSnapshot, error)
}

// RatesHandler serves the current exchange rates and, when a store is
// configured, the stored snapshot history.
type RatesHandler struct {
	rates RateSnapshotter
	store store.Store
}

// NewRatesHandler creates a new RatesHandler. st may be nil.
func NewRatesHandler(rates RateSnapshotter, st store.Store) *RatesHandler {
	return &RatesHandler{rates: rates, store: st}
}

// RateSnapshotView is one exchange rate snapshot.
type RateSnapshotView struct {
	Base      string             `json:"base"       example:"USD"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at" example:"2026-06-01T12:00:00Z"`
}

// RatesOutput is the response body for the current rates endpoint.
type RatesOutput struct {
	Body struct {
		RateSnapshotView
		AgeSeconds int64 `json:"age_seconds" doc:"Seconds since the snapshot was fetched"`
	}
}

// GetRates returns the snapshot currently used for conversion, fetching
// one if none is fresh.
func (h *RatesHandler) GetRates(ctx context.Context, _ *struct{}) (*RatesOutput, error) {
	snap, err := h.rates.Snapshot(ctx)
	if err != nil {
		return nil, huma.Error503ServiceUnavailable("Currency conversion is currently unavailable. Please try again later.")
	}

	out := &RatesOutput{}
	out.Body.RateSnapshotView = snapshotView(snap)
	out.Body.AgeSeconds = int64(snap.Age(time.Now()).Seconds())
	return out, nil
}

// RateHistoryInput filters the snapshot history.
type RateHistoryInput struct {
	Base   string `query:"base"   doc:"Base currency" example:"USD"`
	Limit  int    `query:"limit"  minimum:"0" maximum:"500" doc:"Page size (default 24)"`
	Offset int    `query:"offset" minimum:"0"`
}

// RateHistoryOutput is a page of stored snapshots.
type RateHistoryOutput struct {
	Body struct {
		Snapshots []RateSnapshotView `json:"snapshots"`
		Total     int                `json:"total"`
	}
}

// ListRateHistory returns stored snapshots, newest first.
func (h *RatesHandler) ListRateHistory(ctx context.Context, input *RateHistoryInput) (*RateHistoryOutput, error) {
	if h.store == nil {
		return nil, huma.Error404NotFound("Rate history requires a configured database.")
	}

	q := &store.SnapshotQuery{Limit: input.Limit, Offset: input.Offset}
	if input.Base != "" {
		q.Base = &input.Base
	}

	snaps, total, err := h.store.ListRateSnapshots(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing rate snapshots failed")
	}

	out := &RateHistoryOutput{}
	out.Body.Snapshots = make([]RateSnapshotView, 0, len(snaps))
	for i := range snaps {
		out.Body.Snapshots = append(out.Body.Snapshots, snapshotView(&snaps[i]))
	}
	out.Body.Total = total
	return out, nil
}

func snapshotView(s *domain.ExchangeRateSnapshot) RateSnapshotView {
	return RateSnapshotView{Base: s.Base, Rates: s.Rates, FetchedAt: s.FetchedAt}
}

// RegisterRatesRoutes registers exchange rate endpoints with the Huma API.
func RegisterRatesRoutes(api huma.API, h *RatesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-rates",
		Method:      http.MethodGet,
		Path:        "/api/v1/rates",
		Summary:     "Get current exchange rates",
		Tags:        []string{"rates"},
		Errors:      []int{http.StatusServiceUnavailable},
	}, h.GetRates)

	huma.Register(api, huma.Operation{
		OperationID: "list-rate-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/rates/history",
		Summary:     "List stored exchange rate snapshots",
		Tags:        []string{"rates"},
		Errors:      []int{http.StatusNotFound},
	}, h.ListRateHistory)
}
