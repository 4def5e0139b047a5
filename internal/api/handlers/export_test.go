package handlers_test

import (
	"encoding/csv"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-aggregator/internal/api/handlers"
	"github.com/donaldgifford/product-aggregator/internal/api/handlers/mocks"
	"github.com/donaldgifford/product-aggregator/internal/engine"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

func TestExportHandler_Export(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 9, 30, 15, 0, time.UTC)
	cached := &domain.CachedResults{
		Request:  domain.SearchRequest{Query: "laptop", Currency: "EUR"},
		Products: []domain.NormalizedProduct{laptop()},
		StoredAt: now,
	}
	noData := &engine.SearchError{
		Kind:    engine.KindNoData,
		Message: "No search results to export. Run a search first.",
	}

	tests := []struct {
		name            string
		query           string
		setupMock       func(*mocks.MockSearcher)
		wantStatus      int
		wantType        string
		wantDisposition string
		wantBody        string
	}{
		{
			name:  "default csv",
			query: "",
			setupMock: func(m *mocks.MockSearcher) {
				m.EXPECT().Export(mock.Anything, "s1").Return(cached, nil).Once()
			},
			wantStatus:      http.StatusOK,
			wantType:        "text/csv",
			wantDisposition: `attachment; filename="ebay_products_20260601_093015.csv"`,
			wantBody:        "ThinkPad T480",
		},
		{
			name:  "json",
			query: "?format=json",
			setupMock: func(m *mocks.MockSearcher) {
				m.EXPECT().Export(mock.Anything, "s1").Return(cached, nil).Once()
			},
			wantStatus:      http.StatusOK,
			wantType:        "application/json",
			wantDisposition: `attachment; filename="ebay_products_20260601_093015.json"`,
			wantBody:        `"Product Title": "ThinkPad T480"`,
		},
		{
			name:  "excel",
			query: "?format=excel",
			setupMock: func(m *mocks.MockSearcher) {
				m.EXPECT().Export(mock.Anything, "s1").Return(cached, nil).Once()
			},
			wantStatus:      http.StatusOK,
			wantType:        "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			wantDisposition: `attachment; filename="ebay_products_20260601_093015.xlsx"`,
			wantBody:        "PK",
		},
		{
			name:       "unknown format is 400",
			query:      "?format=pdf",
			setupMock:  func(_ *mocks.MockSearcher) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Unsupported export format",
		},
		{
			name:  "no cached results is 404",
			query: "?format=csv",
			setupMock: func(m *mocks.MockSearcher) {
				m.EXPECT().Export(mock.Anything, "s1").Return(nil, noData).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "Run a search first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := mocks.NewMockSearcher(t)
			tt.setupMock(m)

			api := newTestAPI(t)
			handlers.RegisterExportRoutes(api, handlers.NewExportHandler(
				m, handlers.WithExportNowFunc(func() time.Time { return now }),
			))

			resp := api.Get("/api/v1/export"+tt.query, session("s1"))
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)

			if tt.wantType != "" {
				assert.Contains(t, resp.Header().Get("Content-Type"), tt.wantType)
				assert.Equal(t, tt.wantDisposition, resp.Header().Get("Content-Disposition"))
			}
		})
	}
}

func TestExportHandler_CSVRows(t *testing.T) {
	t.Parallel()

	m := mocks.NewMockSearcher(t)
	m.EXPECT().Export(mock.Anything, "s1").Return(&domain.CachedResults{
		Products: []domain.NormalizedProduct{laptop(), laptop()},
	}, nil).Once()

	api := newTestAPI(t)
	handlers.RegisterExportRoutes(api, handlers.NewExportHandler(m))

	resp := api.Get("/api/v1/export?format=csv", session("s1"))
	require.Equal(t, http.StatusOK, resp.Code)

	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Product Title", rows[0][0])
	assert.Equal(t, "73.60", rows[1][1])
}
