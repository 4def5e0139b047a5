package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type sessionKey struct{}

const (
	sessionContextKey = "session_id"
	sessionMaxAge     = 24 * time.Hour
)

// DefaultSessionCookie is the cookie name used when none is configured.
const DefaultSessionCookie = "pa_session"

// Session returns Echo middleware that scopes each browser to its own
// result set. A request without a valid session cookie is issued a new
// random ID, which is stored on the echo context and on the request
// context so huma handlers can read it back with SessionFromContext.
func Session(cookieName string) echo.MiddlewareFunc {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(cookieName); err == nil {
				if _, perr := uuid.Parse(ck.Value); perr == nil {
					id = ck.Value
				}
			}

			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(sessionContextKey, id)
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), id)))

			return next(c)
		}
	}
}

// SessionID returns the session bound to the echo context, or "".
func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionContextKey).(string)
	return id
}

// WithSession returns ctx carrying the given session ID.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the session stored by Session, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
