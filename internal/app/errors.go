package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pairview/pairview/internal/pkg"
)

// errorTemplates maps HTTP status codes to error page templates. Codes
// without an entry render errors/500.html.
var errorTemplates = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// renderError answers with an error page for browsers and a pkg.Response
// envelope for API clients. Content negotiation is on the Accept header;
// an explicit application/json wins over the browser wildcard.
func renderError(c *gin.Context, code int, message string) {
	accept := strings.ToLower(c.GetHeader("Accept"))
	wantsJSON := strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")

	if !wantsJSON && acceptsHTML(c) {
		renderErrorPage(c, code)
		return
	}
	c.JSON(code, pkg.Response{Code: code, Message: message})
}

// renderErrorPage executes the error template for code. Template execution
// panics inside gin when the renderer cannot resolve the page, so a recover
// guard downgrades to a plain text status line.
func renderErrorPage(c *gin.Context, code int) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(code, "text/plain; charset=utf-8",
				[]byte(fmt.Sprintf("%d %s", code, defaultStatusText(code))))
		}
	}()

	page, ok := errorTemplates[code]
	if !ok {
		page = errorTemplates[http.StatusInternalServerError]
	}
	c.HTML(code, page, gin.H{})
}

// acceptsHTML reports whether the client accepts an HTML response. Browsers
// send text/html or */*; an absent Accept header is treated as a browser.
func acceptsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "*/*") ||
		strings.TrimSpace(accept) == ""
}

// defaultStatusText labels the plain text fallback. http.StatusText covers
// every mapped code; unmapped codes get a generic label instead of an empty
// string.
func defaultStatusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Error"
}
