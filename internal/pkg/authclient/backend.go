package authclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// AuthBackend is the credential backend behind a Session
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	CurrentUser(ctx context.Context, token string) (*User, error)
	Refresh(ctx context.Context, token, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, token, refreshToken string) error
	ListUsers(ctx context.Context, token string) ([]User, error)
	UpdateUserRole(ctx context.Context, token, email, role string) (*User, error)
	UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*User, error)
}

// RESTBackend talks to the LMS HTTP API
type RESTBackend struct {
	client *resty.Client
}

var _ AuthBackend = (*RESTBackend)(nil)

// RESTOption configures a RESTBackend
type RESTOption func(*resty.Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) RESTOption {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetries retries transport failures with backoff
func WithRetries(count int) RESTOption {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second)
	}
}

// NewRESTBackend creates a backend for the API at baseURL
func NewRESTBackend(baseURL string, opts ...RESTOption) *RESTBackend {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(client)
	}
	return &RESTBackend{client: client}
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call[T any](ctx context.Context, b *RESTBackend, method, path, token string, body any) (T, error) {
	var (
		out    envelope[T]
		apiErr errorEnvelope
		zero   T
	)

	req := b.client.R().SetContext(ctx).SetResult(&out).SetError(&apiErr)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return zero, &APIError{StatusCode: resp.StatusCode(), Code: apiErr.Error.Code, Message: msg}
	}
	return out.Data, nil
}

// Login implements AuthBackend
func (b *RESTBackend) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return call[*AuthResult](ctx, b, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register implements AuthBackend
func (b *RESTBackend) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	return call[*AuthResult](ctx, b, http.MethodPost, "/auth/register", "", in)
}

// CurrentUser implements AuthBackend
func (b *RESTBackend) CurrentUser(ctx context.Context, token string) (*User, error) {
	return call[*User](ctx, b, http.MethodGet, "/auth/user", token, nil)
}

// Refresh implements AuthBackend. The server accepts either the refresh token or a still valid access token.
func (b *RESTBackend) Refresh(ctx context.Context, token, refreshToken string) (*AuthResult, error) {
	return call[*AuthResult](ctx, b, http.MethodPost, "/auth/refresh", token, map[string]string{
		"refresh_token": refreshToken,
	})
}

// Logout implements AuthBackend
func (b *RESTBackend) Logout(ctx context.Context, token, refreshToken string) error {
	_, err := call[any](ctx, b, http.MethodPost, "/auth/logout", token, map[string]string{
		"refresh_token": refreshToken,
	})
	return err
}

// ListUsers implements AuthBackend
func (b *RESTBackend) ListUsers(ctx context.Context, token string) ([]User, error) {
	return call[[]User](ctx, b, http.MethodGet, "/auth/admin/users", token, nil)
}

// UpdateUserRole implements AuthBackend
func (b *RESTBackend) UpdateUserRole(ctx context.Context, token, email, role string) (*User, error) {
	return call[*User](ctx, b, http.MethodPut, "/auth/admin/users/role-by-email", token, map[string]string{
		"email": email,
		"role":  role,
	})
}

// UpdateProfile implements AuthBackend
func (b *RESTBackend) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*User, error) {
	return call[*User](ctx, b, http.MethodPatch, "/auth/user", token, update)
}
