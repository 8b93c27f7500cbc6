package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/tenantauth"
	"github.com/MrEthical07/tenantauth/internal/stores"
	"github.com/MrEthical07/tenantauth/metrics/export/prometheus"
	"github.com/MrEthical07/tenantauth/middleware"
	"github.com/rs/zerolog"
)

// Version is reported by /health.
const Version = "2.0.0"

// Store is the tenant and user persistence the handlers need.
// [stores.Memory] implements it.
type Store interface {
	tenantauth.UserStore
	RegisterTenant(ctx context.Context, name string, admin stores.NewUser) (stores.Tenant, tenantauth.CredentialRecord, error)
	CreateUser(ctx context.Context, in stores.NewUser) (tenantauth.CredentialRecord, error)
	UpdateUser(ctx context.Context, userID string, patch stores.UserPatch) (tenantauth.CredentialRecord, error)
	Deactivate(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, tenantID string, opts stores.ListOptions) (stores.Page, error)
	ListTenants(ctx context.Context) []stores.Tenant
	Stats(ctx context.Context) stores.Stats
}

// Options configures a [Server]. Zero values select the defaults.
type Options struct {
	Environment     string
	DefaultPageSize int
	MaxPageSize     int
	MaxBodyBytes    int64
	Throttle        middleware.ThrottleConfig
	Logger          zerolog.Logger
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// HTTPMetrics instruments every request when set.
	HTTPMetrics *prometheus.HTTPMetrics
	Now         func() time.Time
}

const (
	defaultPageSize     = 20
	defaultMaxPageSize  = 100
	defaultMaxBodyBytes = 1 << 20
)

// Server holds the handlers' dependencies.
type Server struct {
	engine    *tenantauth.Engine
	store     Store
	opts      Options
	logger    zerolog.Logger
	throttler *middleware.Throttler
}

// New returns a server over engine and store.
func New(engine *tenantauth.Engine, store Store, opts Options) (*Server, error) {
	if engine == nil {
		return nil, tenantauth.ErrEngineNotReady
	}
	if store == nil {
		return nil, errors.New("httpapi: store required")
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = defaultMaxPageSize
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		return nil, errors.New("httpapi: MaxPageSize below DefaultPageSize")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Environment == "" {
		opts.Environment = "dev"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Server{
		engine:    engine,
		store:     store,
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "httpapi").Logger(),
		throttler: middleware.NewThrottler(opts.Throttle),
	}, nil
}

// Throttler exposes the /auth throttle so the caller can sweep idle buckets.
func (s *Server) Throttler() *middleware.Throttler {
	return s.throttler
}

// Handler returns the routed handler wrapped in request id, access log,
// panic recovery and, when configured, HTTP metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	if s.opts.HTTPMetrics != nil {
		h = s.opts.HTTPMetrics.Instrument(h)
	}
	return middleware.Chain(
		middleware.RequestID(),
		middleware.AccessLog(s.opts.Logger),
		middleware.Recover(s.opts.Logger),
	)(h)
}

func (s *Server) routes(mux *http.ServeMux) {
	throttled := s.throttler.Middleware()
	authed := middleware.Authenticate(s.engine)
	api := middleware.Chain(authed, middleware.Admit(s.engine))
	admin := middleware.Chain(api, middleware.RequireRole(s.engine, tenantauth.RoleAdmin))

	mux.HandleFunc("GET /health", s.health)

	mux.Handle("POST /auth/register", throttled(http.HandlerFunc(s.register)))
	mux.Handle("POST /auth/login", throttled(http.HandlerFunc(s.login)))
	mux.Handle("POST /auth/refresh", throttled(http.HandlerFunc(s.refresh)))
	mux.Handle("POST /auth/logout", middleware.Chain(throttled, authed)(http.HandlerFunc(s.logout)))

	mux.Handle("GET /api/v1/users", api(http.HandlerFunc(s.listUsers)))
	mux.Handle("POST /api/v1/users", admin(http.HandlerFunc(s.createUser)))
	mux.Handle("GET /api/v1/users/{id}", api(http.HandlerFunc(s.getUser)))
	mux.Handle("PUT /api/v1/users/{id}", api(http.HandlerFunc(s.updateUser)))
	mux.Handle("PATCH /api/v1/users/{id}", api(http.HandlerFunc(s.updateUser)))
	mux.Handle("DELETE /api/v1/users/{id}", admin(http.HandlerFunc(s.deleteUser)))

	mux.Handle("GET /api/v1/admin/tenants", admin(http.HandlerFunc(s.listTenants)))
	mux.Handle("GET /api/v1/admin/stats", admin(http.HandlerFunc(s.stats)))

	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"timestamp":   s.opts.Now().UTC().Format(time.RFC3339Nano),
		"environment": s.opts.Environment,
		"version":     Version,
	})
}
