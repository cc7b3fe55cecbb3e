package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const claimsKey ctxKey = 1

const (
	userIDKey = "auth.user_id"

	// DevUserHeader names the caller when verification is disabled.
	DevUserHeader = "X-User-ID"
)

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// UserID returns the authenticated user of the request.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// Middleware verifies the bearer token and stores its subject as the request user.
// With disabled set, the user is taken from DevUserHeader instead.
func Middleware(v Verifier, disabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claims Claims
		if disabled {
			claims.Subject = strings.TrimSpace(c.GetHeader(DevUserHeader))
		} else {
			tok := bearerToken(c.GetHeader("Authorization"))
			if tok == "" {
				unauthorized(c)
				return
			}
			var err error
			if claims, err = v.Verify(tok); err != nil {
				unauthorized(c)
				return
			}
		}
		if claims.Subject == "" {
			unauthorized(c)
			return
		}
		c.Set(userIDKey, claims.Subject)
		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"data":  nil,
		"error": gin.H{"code": "UNAUTHORIZED", "message": "Unauthorized"},
		"meta":  nil,
	})
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
