package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CookieCodec issues and verifies the signed browser-context cookie. The
// cookie carries only the opaque context ID; everything else lives in the
// session store. HS256 with the configured secret keeps the ID tamper-proof
// so one visitor cannot point their cookie at another visitor's record.
type CookieCodec struct {
	name   string
	secret []byte
	secure bool
}

// NewCookieCodec creates a codec for the named cookie signed with secret.
// secure controls the cookie's Secure flag (true in release mode).
func NewCookieCodec(name string, secret string, secure bool) *CookieCodec {
	return &CookieCodec{
		name:   name,
		secret: []byte(secret),
		secure: secure,
	}
}

// contextClaims is the JWT payload of the context cookie.
type contextClaims struct {
	jwt.RegisteredClaims
}

// Issue signs contextID into a cookie value.
func (cc *CookieCodec) Issue(contextID string) (string, error) {
	claims := contextClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  contextID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cc.secret)
	if err != nil {
		return "", fmt.Errorf("sign context cookie: %w", err)
	}
	return signed, nil
}

// Verify checks the signature of a cookie value and returns the context ID.
func (cc *CookieCodec) Verify(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &contextClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cc.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid context cookie: %w", err)
	}
	claims, ok := token.Claims.(*contextClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid context cookie claims")
	}
	return claims.Subject, nil
}

// ContextID extracts and verifies the context ID from the request's cookie.
// A missing or invalid cookie returns ("", false).
func (cc *CookieCodec) ContextID(c *gin.Context) (string, bool) {
	value, err := c.Cookie(cc.name)
	if err != nil || value == "" {
		return "", false
	}
	id, err := cc.Verify(value)
	if err != nil {
		return "", false
	}
	return id, true
}

// Write sets the signed context cookie on the response. The cookie is a
// session cookie (no Max-Age); the stored record's expiry, not the cookie,
// decides validity.
func (cc *CookieCodec) Write(c *gin.Context, contextID string) error {
	value, err := cc.Issue(contextID)
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cc.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Drop expires the context cookie on the response.
func (cc *CookieCodec) Drop(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cc.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
