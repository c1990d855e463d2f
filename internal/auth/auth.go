// Package auth adapts the external authentication collaborator. Token
// issuance and watchlist persistence live in that service; this package
// only validates tokens presented on incoming requests.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderName is the token header the dashboard client sends.
const HeaderName = "x-auth-token"

// ErrUnauthorized is returned for missing or invalid tokens.
var ErrUnauthorized = errors.New("missing or invalid auth token")

// TokenValidator is the contract with the external auth service.
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// StaticValidator accepts a single shared token. Stand-in deployment
// mode for environments without the auth collaborator.
type StaticValidator struct {
	Token string
}

func (v *StaticValidator) Validate(_ context.Context, token string) error {
	if token == "" || token != v.Token {
		return ErrUnauthorized
	}
	return nil
}

// Middleware rejects requests whose x-auth-token header fails
// validation.
func Middleware(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderName)
		if token == "" {
			deny(c)
			return
		}
		if err := v.Validate(c.Request.Context(), token); err != nil {
			deny(c)
			return
		}
		c.Next()
	}
}

func deny(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"msg":   "Authorization denied",
		"error": "unauthorized",
	})
}
