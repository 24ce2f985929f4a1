package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/table_order/pkg/tokens"
)

const sessionKey = "session_claims"

type SessionMiddleware struct {
	Secret []byte
}

func NewSessionMiddleware(secret []byte) *SessionMiddleware {
	return &SessionMiddleware{Secret: secret}
}

// RequireSession accepts the session token from an Authorization bearer
// header or, when no bearer header is sent, the cartSession cookie.
func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, fromCookie := sessionToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
		}

		claims, err := tokens.SessionClaimsFromToken(raw, m.Secret)
		if err != nil {
			if fromCookie {
				c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/"))
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
		}

		c.Set(sessionKey, claims)
		return next(c)
	}
}

// sessionToken must agree with csrf.BearerAuthenticated: a request that skips
// the CSRF check is authenticated by its bearer token only.
func sessionToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if v, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(v), false
	}
	if ck, err := c.Cookie(tokens.SessionCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

// SessionFromContext returns the claims stored by RequireSession.
func SessionFromContext(c echo.Context) (*tokens.SessionClaims, bool) {
	claims, ok := c.Get(sessionKey).(*tokens.SessionClaims)
	return claims, ok && claims != nil
}
