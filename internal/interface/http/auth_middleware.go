package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/complaint-intake/internal/domain/auth"
)

const functionKeyHeader = "x-functions-key"

// authMiddleware accepts a function key (header or code query parameter) or a bearer token.
func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil || !svc.Enabled() {
			setClaims(c, auth.Claims{Subject: "anonymous", Method: auth.MethodAnonymous})
			c.Next()
			return
		}

		key := c.GetHeader(functionKeyHeader)
		if key == "" {
			key = c.Query("code")
		}
		if key != "" {
			claims, err := svc.ValidateFunctionKey(c.Request.Context(), key)
			if err != nil {
				abort(c, fromDomain(err, "auth_failed"))
				return
			}
			setClaims(c, claims)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, newAPIError(http.StatusUnauthorized, "unauthorized", "missing credentials", nil))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, newAPIError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			abort(c, fromDomain(err, "auth_failed"))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

const authClaimsKey = "auth_claims"

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(authClaimsKey, claims)
}

// getClaims returns the caller identity recorded by authMiddleware.
func getClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}
