package tokens

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookie = "cartSession"

// SessionClaims identify one table session opened by a QR scan. The cart of
// the session is stored under the token ID.
type SessionClaims struct {
	Slug              string `json:"slug"`
	ConsumptionMethod string `json:"consumption_method"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) SessionID() string {
	return c.ID
}

func NewSessionToken(secret []byte, slug, method string, exp time.Time) (string, *SessionClaims, error) {
	if len(secret) == 0 {
		return "", nil, errors.New("session secret is empty")
	}
	claims := &SessionClaims{
		Slug:              slug,
		ConsumptionMethod: method,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func SessionClaimsFromToken(tokenStr string, secret []byte) (*SessionClaims, error) {
	var claims SessionClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.ID == "" {
		return nil, errors.New("invalid session token")
	}
	return &claims, nil
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
	}
}
