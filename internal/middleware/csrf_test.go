package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const csrfTestSecret = "csrf-test-secret"

func newCSRFEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CSRF(secret))
	engine.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	engine.POST("/submit", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return engine
}

func fetchCSRFToken(t *testing.T, engine *gin.Engine) (token string, cookie *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /form: expected 200, got %d", w.Code)
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "_csrf_token" {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("expected _csrf_token cookie")
	}
	token = w.Body.String()
	if token == "" || token != cookie.Value {
		t.Fatalf("expected context token to match cookie, got %q vs %q", token, cookie.Value)
	}
	return token, cookie
}

func TestCSRF_GetIssuesToken(t *testing.T) {
	engine := newCSRFEngine(csrfTestSecret)

	token, cookie := fetchCSRFToken(t, engine)
	if !strings.Contains(token, ".") {
		t.Fatalf("expected nonce.signature format, got %q", token)
	}
	if cookie.HttpOnly {
		t.Fatal("CSRF cookie must be readable by the page")
	}
}

func TestCSRF_PostWithFormTokenPasses(t *testing.T) {
	engine := newCSRFEngine(csrfTestSecret)
	token, cookie := fetchCSRFToken(t, engine)

	form := url.Values{"_csrf_token": {token}}
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCSRF_PostWithHeaderTokenPasses(t *testing.T) {
	engine := newCSRFEngine(csrfTestSecret)
	token, cookie := fetchCSRFToken(t, engine)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCSRF_PostRejections(t *testing.T) {
	engine := newCSRFEngine(csrfTestSecret)
	token, cookie := fetchCSRFToken(t, engine)

	otherEngine := newCSRFEngine("a-different-secret")
	foreignToken, foreignCookie := fetchCSRFToken(t, otherEngine)

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no_cookie_no_token", func(r *http.Request) {}},
		{"cookie_without_token", func(r *http.Request) {
			r.AddCookie(cookie)
		}},
		{"token_without_cookie", func(r *http.Request) {
			r.Header.Set("X-CSRF-Token", token)
		}},
		{"foreign_signature", func(r *http.Request) {
			r.AddCookie(foreignCookie)
			r.Header.Set("X-CSRF-Token", foreignToken)
		}},
		{"mismatched_pair", func(r *http.Request) {
			r.AddCookie(cookie)
			r.Header.Set("X-CSRF-Token", token+"x")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/submit", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			if w.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", w.Code)
			}
		})
	}
}

func TestCSRF_EmptySecretFailsClosed(t *testing.T) {
	engine := newCSRFEngine("   ")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
