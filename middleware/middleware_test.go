package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/MrEthical07/tenantauth"
	"github.com/MrEthical07/tenantauth/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type userStore map[string]tenantauth.CredentialRecord

func (s userStore) GetByUsername(_ context.Context, username string) (tenantauth.CredentialRecord, error) {
	for _, rec := range s {
		if rec.Username == username {
			return rec, nil
		}
	}
	return tenantauth.CredentialRecord{}, tenantauth.ErrUserNotFound
}

func (s userStore) GetByID(_ context.Context, id string) (tenantauth.CredentialRecord, error) {
	rec, ok := s[id]
	if !ok {
		return tenantauth.CredentialRecord{}, tenantauth.ErrUserNotFound
	}
	return rec, nil
}

func newEngine(t *testing.T) (*tenantauth.Engine, userStore) {
	t.Helper()

	cfg := tenantauth.DefaultConfig()
	cfg.JWT.Secret = []byte("middleware-test-secret")
	cfg.Password.BcryptCost = bcrypt.MinCost

	users := userStore{}
	engine, err := tenantauth.New().WithConfig(cfg).WithUserStore(users).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	hash, err := engine.HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	users["u-admin"] = tenantauth.CredentialRecord{UserID: "u-admin", TenantID: "acme", Username: "admin", PasswordHash: hash, Role: tenantauth.RoleAdmin, IsActive: true}
	users["u-user"] = tenantauth.CredentialRecord{UserID: "u-user", TenantID: "acme", Username: "user", PasswordHash: hash, Role: tenantauth.RoleUser, IsActive: true}
	return engine, users
}

func accessToken(t *testing.T, engine *tenantauth.Engine, username string) string {
	t.Helper()
	pair, err := engine.Login(context.Background(), username, "Passw0rd!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return pair.AccessToken
}

func detail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return body["detail"]
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	_, _ = w.Write([]byte(p.UserID))
})

func TestAuthenticate(t *testing.T) {
	engine, _ := newEngine(t)
	token := accessToken(t, engine, "user")
	handler := middleware.Authenticate(engine)(okHandler)

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{"valid", "Bearer " + token, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + token, http.StatusOK, ""},
		{"missing", "", http.StatusUnauthorized, "Missing authorization header"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "Invalid authentication scheme"},
		{"three fields", "Bearer " + token + " extra", http.StatusUnauthorized, "Invalid authorization header format"},
		{"tampered", "Bearer " + token + "x", http.StatusUnauthorized, "Invalid token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if tc.status == http.StatusOK && rr.Body.String() != "u-user" {
				t.Fatalf("expected principal in context, got %q", rr.Body.String())
			}
			if tc.status == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Fatal("expected Bearer challenge")
			}
			if tc.detail != "" && detail(t, rr) != tc.detail {
				t.Fatalf("expected detail %q, got %q", tc.detail, detail(t, rr))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	engine, _ := newEngine(t)
	handler := middleware.Chain(
		middleware.Authenticate(engine),
		middleware.RequireRole(engine, tenantauth.RoleAdmin),
	)(okHandler)

	for _, tc := range []struct {
		user   string
		status int
	}{
		{"admin", http.StatusOK},
		{"user", http.StatusForbidden},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, engine, tc.user))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.user, tc.status, rr.Code)
		}
	}
}

func TestAdmitSharesBudgetAcrossPathParameters(t *testing.T) {
	engine, _ := newEngine(t)
	token := accessToken(t, engine, "user")

	mux := http.NewServeMux()
	chain := middleware.Chain(middleware.Authenticate(engine), middleware.Admit(engine))
	mux.Handle("GET /items/{id}", chain(okHandler))
	mux.Handle("POST /items", chain(okHandler))

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 10; i++ {
		rr := do(http.MethodGet, fmt.Sprintf("/items/%d", i))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
		if got := rr.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(9-i) {
			t.Fatalf("request %d: expected remaining %d, got %s", i, 9-i, got)
		}
		if rr.Header().Get("X-RateLimit-Limit") != "10" {
			t.Fatalf("unexpected limit header %q", rr.Header().Get("X-RateLimit-Limit"))
		}
	}

	rr := do(http.MethodGet, "/items/99")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	retry, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 60 {
		t.Fatalf("unexpected Retry-After %q", rr.Header().Get("Retry-After"))
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected X-RateLimit-Reset on rejection")
	}
	if detail(t, rr) != "Rate limit exceeded" {
		t.Fatalf("unexpected detail %q", detail(t, rr))
	}

	if rr := do(http.MethodPost, "/items"); rr.Code != http.StatusOK {
		t.Fatalf("expected another operation to have its own budget, got %d", rr.Code)
	}
}

func TestOperationKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/42", http.NoBody)
	if got := middleware.OperationKey(req); got != "GET /api/v1/users/42" {
		t.Fatalf("expected raw path without a pattern, got %q", got)
	}
	req.Pattern = "GET /api/v1/users/{id}"
	if got := middleware.OperationKey(req); got != "GET /api/v1/users/{id}" {
		t.Fatalf("unexpected key %q", got)
	}
	req.Pattern = "/api/v1/users/{id}"
	if got := middleware.OperationKey(req); got != "GET /api/v1/users/{id}" {
		t.Fatalf("unexpected key for a method-less pattern %q", got)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{tenantauth.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: %w", tenantauth.ErrUnauthenticated, tenantauth.ErrTokenExpired), http.StatusUnauthorized},
		{tenantauth.ErrTokenRevoked, http.StatusUnauthorized},
		{tenantauth.ErrForbidden, http.StatusForbidden},
		{tenantauth.ErrAccountDisabled, http.StatusForbidden},
		{tenantauth.ErrNotFound, http.StatusNotFound},
		{tenantauth.ErrConflict, http.StatusConflict},
		{&tenantauth.RateLimitError{RetryAfter: time.Second}, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := middleware.StatusCode(tc.err); got != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, got)
		}
	}
}

func TestDetail(t *testing.T) {
	unauth := func(cause error) error {
		return fmt.Errorf("%w: %w", tenantauth.ErrUnauthenticated, cause)
	}
	tests := []struct {
		err  error
		want string
	}{
		{tenantauth.ErrInvalidCredentials, "Invalid username or password"},
		{unauth(tenantauth.ErrMissingCredential), "Missing authorization header"},
		{unauth(tenantauth.ErrInvalidScheme), "Invalid authentication scheme"},
		{unauth(tenantauth.ErrMalformedCredential), "Invalid authorization header format"},
		{unauth(tenantauth.ErrTokenExpired), "Token has expired"},
		{unauth(tenantauth.ErrTokenRevoked), "Token has been revoked"},
		{unauth(tenantauth.ErrWrongKind), "Invalid token type"},
		{unauth(tenantauth.ErrTokenSignatureInvalid), "Invalid token"},
		{unauth(tenantauth.ErrTokenMalformed), "Invalid token"},
		{unauth(tenantauth.ErrUserUnavailable), "User not found or inactive"},
		{tenantauth.ErrAccountDisabled, "User account is deactivated"},
		{tenantauth.ErrForbidden, "Admin access required"},
		{&tenantauth.RateLimitError{RetryAfter: time.Second}, "Rate limit exceeded"},
		{tenantauth.ErrNotFound, "Not found"},
		{errors.New("boom"), "Internal server error"},
	}
	for _, tc := range tests {
		if got := middleware.Detail(tc.err); got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.err, tc.want, got)
		}
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rr := httptest.NewRecorder()
	middleware.WriteError(rr, errors.New("redis: connection refused at 10.0.0.3"))
	if rr.Code != http.StatusInternalServerError || detail(t, rr) != "Internal server error" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}

func TestThrottle(t *testing.T) {
	th := middleware.NewThrottler(middleware.ThrottleConfig{PerSecond: 1, Burst: 2, IdleTTL: time.Minute})
	handler := th.Middleware()(okHandler)

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if do("192.0.2.1:1000") != http.StatusOK || do("192.0.2.1:1001") != http.StatusOK {
		t.Fatal("expected burst to be admitted")
	}
	if code := do("192.0.2.1:1002"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := do("192.0.2.2:1000"); code != http.StatusOK {
		t.Fatalf("expected another client to be unaffected, got %d", code)
	}

	if th.Len() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", th.Len())
	}
	if n := th.Sweep(time.Now().Add(2 * time.Minute)); n != 2 || th.Len() != 0 {
		t.Fatalf("expected idle buckets to be swept, got %d left %d", n, th.Len())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "198.51.100.7:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := middleware.ClientIP(req, false); got != "198.51.100.7" {
		t.Fatalf("expected remote host, got %q", got)
	}
	if got := middleware.ClientIP(req, true); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
}

func TestRequestIDAndAccessLog(t *testing.T) {
	var seen string
	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.AccessLog(zerolog.Nop()),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))
	if seen == "" || rr.Header().Get(middleware.RequestIDHeader) != seen {
		t.Fatalf("expected minted id to be echoed, got %q and %q", seen, rr.Header().Get(middleware.RequestIDHeader))
	}
	if len(seen) != 26 {
		t.Fatalf("expected a ULID, got %q", seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "caller-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen != "caller-id" || rr.Code != http.StatusTeapot {
		t.Fatalf("expected incoming id to be kept, got %q", seen)
	}
}

func TestRecover(t *testing.T) {
	handler := middleware.Recover(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
