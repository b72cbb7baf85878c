// Package identity talks to the identity service: the remote system of record
// for credentials. The shell only consumes its HTTP contract; Client maps the
// wire-level outcomes onto the domain error taxonomy.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pairview/pairview/internal/domain"
)

// dateLayout is the wire format for dateOfBirth.
const dateLayout = "2006-01-02"

// Result is a successful authentication outcome: the opaque bearer token and
// the profile snapshot returned by the identity service.
type Result struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

// RegisterInput carries the registration fields forwarded to the identity
// service. Callers must have passed the credential validator; the client
// forwards without re-checking shape.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth time.Time
	Gender      string
	UserType    string
}

// Client issues login and register calls against the identity service.
type Client interface {
	Login(ctx context.Context, email, password string) (*Result, error)
	Register(ctx context.Context, in RegisterInput) (*Result, error)
}

// HTTPClient implements Client over the identity service's JSON contract:
//
//	POST <base>/auth/login    {email, password}            -> 200 {token, user} | 401 | 5xx
//	POST <base>/auth/register {name, email, password, ...} -> 201 {token, user} | 409 | 422 | 5xx
//
// There is no automatic retry; retries are the caller's responsibility and
// registration is not idempotent (a repeat must surface the conflict).
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
}

// NewHTTPClient creates an HTTPClient for the given base URL and per-request
// timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	UserType    string `json:"userType"`
}

// errorBody is the identity service's best-effort error payload.
type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// Login authenticates the credentials against the identity service.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Result, error) {
	return c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, http.StatusOK)
}

// Register creates a new account at the identity service.
func (c *HTTPClient) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	return c.post(ctx, "/auth/register", registerRequest{
		Name:        in.Name,
		Email:       in.Email,
		Password:    in.Password,
		DateOfBirth: in.DateOfBirth.Format(dateLayout),
		Gender:      in.Gender,
		UserType:    in.UserType,
	}, http.StatusCreated)
}

// post sends the request and maps the response to a Result or a domain error.
func (c *HTTPClient) post(ctx context.Context, path string, body any, wantStatus int) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "encode identity request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "build identity request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		// No response reached the server: transport failure.
		return nil, domain.NewAppError(domain.CodeNetwork, "identity service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == wantStatus {
		var result Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.Token == "" {
			return nil, domain.NewAppError(domain.CodeServer, "malformed identity response", err)
		}
		return &result, nil
	}

	return nil, mapStatus(resp.StatusCode, resp.Body)
}

// mapStatus converts an identity service error response into a domain error.
func mapStatus(status int, body io.Reader) *domain.AppError {
	switch {
	case status == http.StatusUnauthorized:
		// Generic on purpose: must not reveal whether the email exists.
		return domain.NewAppError(domain.CodeUnauthorized, domain.ErrUnauthorized.Message, nil)
	case status == http.StatusConflict:
		return domain.NewAppError(domain.CodeConflict, "email already in use", nil)
	case status == http.StatusUnprocessableEntity:
		var eb errorBody
		msg := "registration rejected by identity service"
		if err := json.NewDecoder(body).Decode(&eb); err == nil && eb.Message != "" {
			msg = eb.Message
		}
		return &domain.AppError{Code: domain.CodeValidation, Field: eb.Field, Message: msg}
	case status >= 500:
		return domain.NewAppError(domain.CodeServer, fmt.Sprintf("identity service error (status %d)", status), nil)
	default:
		return domain.NewAppError(domain.CodeServer, fmt.Sprintf("unexpected identity response (status %d)", status), nil)
	}
}
