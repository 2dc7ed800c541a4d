package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/profile-api/internal/api/middleware"
	"github.com/phrazzld/profile-api/internal/config"
	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/schema"
	"github.com/phrazzld/profile-api/internal/service/auth"
	"github.com/phrazzld/profile-api/internal/store"
	"github.com/phrazzld/profile-api/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators a Server is built from.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
	Users  store.UsersRepository
	Tokens auth.TokenService

	// Hasher defaults to bcrypt at its default cost.
	Hasher auth.PasswordHasher

	// Reporter receives unknown errors in production. Defaults to a
	// redacting LogReporter.
	Reporter Reporter

	// Registry collects the server's metrics and backs /metrics. Defaults to
	// a fresh registry with Go runtime and process collectors.
	Registry *prometheus.Registry

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP service. All of its state is built by NewServer; it
// holds no package-level mutable state, so several can coexist in one process.
type Server struct {
	logger    *slog.Logger
	validator *schema.Validator
	errors    *ErrorHandler
	tokens    auth.TokenService
	cookies   *auth.RefreshCookies
	metrics   *middleware.Metrics
	limiter   *middleware.RateLimiter
	registry  *prometheus.Registry
	now       func() time.Time

	registerUser   *usecase.Register
	authenticate   *usecase.Authenticate
	getUserProfile *usecase.GetUserProfile

	router http.Handler
}

// NewServer wires the validator, error handler, auth module, use cases and
// routes. Route schemas are compiled here, so a bad declaration fails at
// startup rather than on first request.
func NewServer(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, errors.New("api: logger is required")
	case deps.Users == nil:
		return nil, errors.New("api: users repository is required")
	case deps.Tokens == nil:
		return nil, errors.New("api: token service is required")
	}

	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewBcryptHasher(0)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = LogReporter{Logger: deps.Logger}
	}

	errorHandler, err := NewErrorHandler(deps.Config.Server.IsProduction(), reporter, registry)
	if err != nil {
		return nil, err
	}
	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("api: failed to register HTTP metrics: %w", err)
	}

	s := &Server{
		logger:    deps.Logger,
		validator: schema.NewValidator(),
		errors:    errorHandler,
		tokens:    deps.Tokens,
		cookies:   auth.NewRefreshCookies(deps.Config.Auth),
		metrics:   metrics,
		limiter: middleware.NewRateLimiter(
			deps.Config.RateLimit.RequestsPerSecond,
			deps.Config.RateLimit.Burst,
			errorHandler.Handle,
		),
		registry: registry,
		now:      now,

		registerUser:   usecase.NewRegister(deps.Users, hasher),
		authenticate:   usecase.NewAuthenticate(deps.Users, hasher),
		getUserProfile: usecase.NewGetUserProfile(deps.Users),
	}
	s.router = s.routes()

	return s, nil
}

// Handler returns the root handler to pass to an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.metrics.Instrument)
	r.Use(middleware.Trace(s.logger))
	r.Use(middleware.Recoverer(s.errors.Handle))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.errors.Handle(w, r, domain.ErrResourceNotFound.WithDetail("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.errors.Handle(w, r, domain.ErrResourceNotFound.WithDetail("method %s not allowed on %s", r.Method, r.URL.Path))
	})

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Method(http.MethodPost, "/users",
		newEndpoint[registerRequest, noContent](s, endpointOptions{status: http.StatusCreated}, s.register))

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Method(http.MethodPost, "/sessions",
			newEndpoint[sessionRequest, tokenResponse](s, endpointOptions{}, s.createSession))
		r.Method(http.MethodPatch, auth.RefreshCookiePath,
			newEndpoint[noInput, tokenResponse](s, endpointOptions{onError: s.clearRejectedRefreshCookie}, s.refreshToken))
	})

	r.Method(http.MethodGet, "/me",
		newEndpoint[noInput, userProfileResponse](s, endpointOptions{requiresAuth: true}, s.me))
	r.Method(http.MethodGet, "/users/{id}",
		newEndpoint[getUserRequest, userProfileResponse](s, endpointOptions{requiresAuth: true}, s.getUser))

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Error("failed to write health check response", "error", err)
	}
}
