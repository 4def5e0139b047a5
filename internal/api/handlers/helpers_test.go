package handlers_test

import (
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/donaldgifford/product-aggregator/internal/api/middleware"
)

const sessionHeader = "X-Test-Session"

// newTestAPI returns a humatest API that binds the X-Test-Session header
// to the request session, the way the session middleware does in the
// server.
func newTestAPI(t *testing.T) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		if s := ctx.Header(sessionHeader); s != "" {
			ctx = huma.WithContext(ctx, middleware.WithSession(ctx.Context(), s))
		}
		next(ctx)
	})
	return api
}

func session(id string) string {
	return sessionHeader + ": " + id
}
