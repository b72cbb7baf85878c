package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/pairview/pairview/internal/domain"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type staticHTMLRender struct {
	body string
}

func (r staticHTMLRender) Instance(string, any) render.Render {
	return render.Data{ContentType: "text/html; charset=utf-8", Data: []byte(r.body)}
}

func setupRecoveryRouter(logger *slog.Logger, htmlRenderer render.HTMLRender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(logger))
	if htmlRenderer != nil {
		r.HTMLRender = htmlRenderer
	}
	r.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestRecovery_NoPanic_PassesThrough(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupRecoveryRouter(newTestLogger(&logBuf), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %q", w.Body.String())
	}
	if logBuf.Len() != 0 {
		t.Errorf("expected no log output, got %q", logBuf.String())
	}
}

func TestRecovery_Panic_JSONResponse(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupRecoveryRouter(newTestLogger(&logBuf), nil)

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	if code, ok := body["code"].(float64); !ok || int(code) != domain.CodeInternal {
		t.Errorf("expected code %d, got %v", domain.CodeInternal, body["code"])
	}
	if msg, _ := body["message"].(string); msg != "internal server error" {
		t.Errorf("expected generic message, got %v", body["message"])
	}

	// The panic value and stack must be logged, not sent to the client.
	if !strings.Contains(logBuf.String(), "test panic") {
		t.Error("expected panic value in log output")
	}
	if strings.Contains(w.Body.String(), "test panic") {
		t.Error("panic value leaked into the response body")
	}
}

func TestRecovery_Panic_HTMLResponse(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupRecoveryRouter(newTestLogger(&logBuf), staticHTMLRender{body: "<h1>Something went wrong</h1>"})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Something went wrong") {
		t.Errorf("expected error page body, got %q", w.Body.String())
	}
}

func TestRecovery_Panic_HTMLFallbackWithoutRenderer(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupRecoveryRouter(newTestLogger(&logBuf), nil)

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "500 Internal Server Error") {
		t.Errorf("expected plain text fallback, got %q", w.Body.String())
	}
}
