// Package main implements a mock upstream server for local development.
// It serves the eBay OAuth token endpoint, the Browse search endpoint and
// an exchange rate endpoint from JSON fixtures, so product-aggregator can
// run without real credentials.
package main

import (
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

//go:embed testdata/search_response.json
var defaultSearchFixture []byte

//go:embed testdata/rates_usd.json
var defaultRatesFixture []byte

type browseAPIResponse struct {
	ItemSummaries []json.RawMessage `json:"itemSummaries"`
	Total         int               `json:"total"`
	Offset        int               `json:"offset"`
	Limit         int               `json:"limit"`
	Next          string            `json:"next,omitempty"`
}

type itemSummary struct {
	Title string `json:"title"`
}

type ratesFixture struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "", "path to search response fixture (default: embedded)")
	ratesFile := flag.String("rates", "", "path to USD rates fixture (default: embedded)")
	throttleEvery := flag.Int("throttle-every", 0, "answer every Nth search with 429 (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	rates, err := loadRates(*ratesFile)
	if err != nil {
		logger.Error("failed to load rates", "path", *ratesFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixtures", "items", len(fixture.ItemSummaries), "currencies", len(rates.ConversionRates))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock upstream server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, fixture, rates, *throttleEvery)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, fixture *browseAPIResponse, rates *ratesFixture, throttleEvery int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /identity/v1/oauth2/token", tokenHandler(logger))
	mux.Handle("GET /buy/browse/v1/item_summary/search", throttle(throttleEvery, searchHandler(logger, fixture)))
	mux.HandleFunc("GET /v6/latest/{base}", ratesHandler(logger, rates))
	mux.HandleFunc("GET /latest/{base}", ratesHandler(logger, rates))
	return mux
}

func loadFixture(path string) (*browseAPIResponse, error) {
	data := defaultSearchFixture
	if path != "" {
		var err error
		data, err = os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading fixture: %w", err)
		}
	}
	var resp browseAPIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &resp, nil
}

func loadRates(path string) (*ratesFixture, error) {
	data := defaultRatesFixture
	if path != "" {
		var err error
		data, err = os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading rates: %w", err)
		}
	}
	var r ratesFixture
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing rates: %w", err)
	}
	if r.ConversionRates[r.BaseCode] == 0 {
		return nil, fmt.Errorf("rates fixture has no entry for its base %q", r.BaseCode)
	}
	return &r, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func tokenHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Validate Basic Auth header is present (don't verify creds).
		if _, _, ok := r.BasicAuth(); !ok {
			logger.Warn("token request missing Basic Auth header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             "invalid_client",
				"error_description": "client authentication failed",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "mock-token-v1-" + strconv.FormatInt(int64(os.Getpid()), 16),
			"expires_in":   7200,
			"token_type":   "Application Access Token",
		})
		logger.Info("issued mock token")
	}
}

// throttle answers every nth request with 429 and a Retry-After header.
func throttle(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	var count atomic.Int64
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if count.Add(1)%int64(n) == 0 {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"errors": []map[string]any{{"errorId": 2001, "message": "Too many requests"}},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// matchesAll reports whether title contains every word of the query.
func matchesAll(title string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(title, w) {
			return false
		}
	}
	return true
}

func searchHandler(logger *slog.Logger, fixture *browseAPIResponse) http.HandlerFunc {
	// Pre-parse titles for filtering.
	type indexedItem struct {
		raw   json.RawMessage
		title string
	}
	items := make([]indexedItem, 0, len(fixture.ItemSummaries))
	for _, raw := range fixture.ItemSummaries {
		var s itemSummary
		//nolint:errcheck,gosec // fixture data is trusted; title extraction is best-effort
		json.Unmarshal(raw, &s)
		items = append(items, indexedItem{raw: raw, title: strings.ToLower(s.Title)})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"errors": []map[string]any{{"errorId": 1001, "message": "Invalid access token"}},
			})
			return
		}

		q := r.URL.Query().Get("q")
		words := strings.Fields(strings.ToLower(q))

		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
			offset = v
		}

		var matched []json.RawMessage
		for _, item := range items {
			if matchesAll(item.title, words) {
				matched = append(matched, item.raw)
			}
		}

		total := len(matched)

		if offset >= len(matched) {
			matched = nil
		} else {
			end := min(offset+limit, len(matched))
			matched = matched[offset:end]
		}

		next := ""
		if offset+limit < total {
			next = fmt.Sprintf("/buy/browse/v1/item_summary/search?q=%s&offset=%d&limit=%d",
				q, offset+limit, limit)
		}

		resp := browseAPIResponse{
			ItemSummaries: matched,
			Total:         total,
			Offset:        offset,
			Limit:         limit,
			Next:          next,
		}

		// Return empty array instead of null when no results.
		if resp.ItemSummaries == nil {
			resp.ItemSummaries = []json.RawMessage{}
		}

		writeJSON(w, http.StatusOK, resp)
		logger.Info("search", "query", q, "matched", total, "returned", len(matched), "offset", offset, "limit", limit)
	}
}

// ratesHandler serves the fixture rates rebased onto the requested base.
func ratesHandler(logger *slog.Logger, fixture *ratesFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := strings.ToUpper(r.PathValue("base"))

		pivot, ok := fixture.ConversionRates[base]
		if !ok || pivot == 0 {
			writeJSON(w, http.StatusOK, map[string]string{
				"result":     "error",
				"error-type": "unsupported-code",
			})
			return
		}

		rebased := make(map[string]float64, len(fixture.ConversionRates))
		for code, rate := range fixture.ConversionRates {
			rebased[code] = rate / pivot
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"result":           "success",
			"base_code":        base,
			"conversion_rates": rebased,
		})
		logger.Info("rates", "base", base)
	}
}
