package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// ["*"] allows all origins; an empty list denies all cross-origin
	// requests.
	AllowOrigins []string

	// AllowCredentials indicates whether requests may include cookies.
	// When enabled the specific origin is echoed instead of "*".
	AllowCredentials bool
}

// CORS returns a gin middleware handling Cross-Origin Resource Sharing for
// the JSON API. The session cookie is the credential, so AllowCredentials
// should be enabled whenever a non-wildcard origin list is configured.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	allowMethods := strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	allowHeaders := "Origin, Content-Type, Accept, X-Requested-With, X-CSRF-Token"

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || len(cfg.AllowOrigins) == 0 {
			c.Next()
			return
		}

		// Vary on Origin so caches keep per-origin responses apart.
		c.Writer.Header().Add("Vary", "Origin")

		switch {
		case cfg.AllowOrigins[0] == "*" && len(cfg.AllowOrigins) == 1:
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Origin", origin)
			} else {
				c.Header("Access-Control-Allow-Origin", "*")
			}
		case originAllowed(cfg.AllowOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
		default:
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		c.Header("Access-Control-Max-Age", "86400")
		if cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
