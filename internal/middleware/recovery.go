package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pairview/pairview/internal/domain"
)

// Recovery returns a gin middleware that recovers from panics, logs the
// panic value with a stack trace, and answers with either the errors/500.html
// page (when the client accepts HTML) or the standard JSON error envelope.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", err),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				c.Abort()

				if acceptsHTML(c) {
					renderHTMLError(c)
				} else {
					c.JSON(http.StatusInternalServerError, gin.H{
						"code":    domain.CodeInternal,
						"message": "internal server error",
						"data":    nil,
					})
				}
			}
		}()
		c.Next()
	}
}

// renderHTMLError renders errors/500.html, falling back to plain text when
// no HTML renderer is configured.
func renderHTMLError(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}
