package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET, POST, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-Functions-Key"
	corsExposeHeaders = "Retry-After"
	corsMaxAge        = "600"
)

// corsMiddleware lets browser intake forms call the API from the configured origins.
// No origins, or a "*" entry, allows any origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAny := len(origins) == 0
	allowed := make(map[string]string, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			allowAny = true
			continue
		}
		if origin != "" {
			allowed[strings.ToLower(origin)] = origin
		}
	}

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		requestOrigin := c.GetHeader("Origin")
		switch {
		case allowAny:
			headers.Set("Access-Control-Allow-Origin", "*")
		case requestOrigin != "":
			headers.Add("Vary", "Origin")
			if _, ok := allowed[strings.ToLower(requestOrigin)]; ok {
				headers.Set("Access-Control-Allow-Origin", requestOrigin)
			}
		}
		headers.Set("Access-Control-Allow-Methods", corsAllowMethods)
		headers.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		headers.Set("Access-Control-Expose-Headers", corsExposeHeaders)

		if c.Request.Method == http.MethodOptions {
			headers.Set("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
