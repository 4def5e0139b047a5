package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/product-aggregator/internal/api/middleware"
	"github.com/donaldgifford/product-aggregator/internal/export"
)

// ExportHandler renders the session's last result set as a file.
type ExportHandler struct {
	searcher Searcher
	nowFunc  func() time.Time
}

// ExportHandlerOption configures the ExportHandler.
type ExportHandlerOption func(*ExportHandler)

// WithExportNowFunc overrides the clock used for export filenames.
func WithExportNowFunc(f func() time.Time) ExportHandlerOption {
	return func(h *ExportHandler) {
		h.nowFunc = f
	}
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(s Searcher, opts ...ExportHandlerOption) *ExportHandler {
	h := &ExportHandler{searcher: s, nowFunc: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ExportInput selects the export format.
type ExportInput struct {
	Format string `query:"format" default:"csv" doc:"csv, json or excel" example:"csv"`
}

// ExportOutput is a downloadable file.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// Export writes the session's most recent search results in the requested
// format.
func (h *ExportHandler) Export(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
	format, err := export.ParseFormat(input.Format)
	if err != nil {
		return nil, huma.Error400BadRequest(
			fmt.Sprintf("Unsupported export format %q; use csv, json or excel.", input.Format),
		)
	}

	results, err := h.searcher.Export(ctx, middleware.SessionFromContext(ctx))
	if err != nil {
		return nil, searchError(err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, results.Products); err != nil {
		if errors.Is(err, export.ErrNoData) {
			return nil, huma.Error404NotFound("No search results to export. Run a search first.")
		}
		return nil, huma.Error500InternalServerError("Export failed.")
	}

	return &ExportOutput{
		ContentType:        format.ContentType(),
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", export.Filename(format, h.nowFunc())),
		Body:               buf.Bytes(),
	}, nil
}

// RegisterExportRoutes registers export endpoints with the Huma API.
func RegisterExportRoutes(api huma.API, h *ExportHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "export-results",
		Method:      http.MethodGet,
		Path:        "/api/v1/export",
		Summary:     "Export last search results",
		Description: "Returns the caller's most recent search results as a CSV, JSON or Excel file.",
		Tags:        []string{"export"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, h.Export)
}
