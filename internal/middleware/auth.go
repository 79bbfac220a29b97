package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bookmed-api/internal/model"
)

const contextActor = "actor"

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate verifies the JWT token and sets the actor in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.resolve(c)
		if !ok {
			return
		}
		c.Set(contextActor, claims)
		c.Next()
	}
}

func (m *AuthMiddleware) resolve(c *gin.Context) (*model.TokenClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "missing authorization header")
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		abortUnauthorized(c, "invalid authorization format")
		return nil, false
	}

	claims, err := m.validator.ValidateToken(c.Request.Context(), parts[1])
	if err != nil {
		abortUnauthorized(c, "invalid token")
		return nil, false
	}
	return claims, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: message,
		TraceID: c.GetString(ContextRequestID),
	})
}

// CurrentActor returns the authenticated caller set by Authenticate, or
// nil on unauthenticated routes.
func CurrentActor(c *gin.Context) *model.TokenClaims {
	if v, ok := c.Get(contextActor); ok {
		if claims, ok := v.(*model.TokenClaims); ok {
			return claims
		}
	}
	return nil
}
