package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/profile-api/internal/api/middleware"
	"github.com/phrazzld/profile-api/internal/api/shared"
	"github.com/phrazzld/profile-api/internal/domain"
	"github.com/phrazzld/profile-api/internal/platform/logger"
	"github.com/phrazzld/profile-api/internal/redact"
	"github.com/phrazzld/profile-api/internal/schema"
	"github.com/phrazzld/profile-api/internal/service/auth"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrorKind is the class an error falls into for rendering. The set is closed:
// anything Classify does not recognise is KindUnknown.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindInvalidToken
	KindDomain
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidToken:
		return "invalid_token"
	case KindDomain:
		return "domain"
	case KindRateLimited:
		return "rate_limited"
	}
	return "unknown"
}

type domainResponse struct {
	status  int
	message string
}

// domainResponses maps every enumerated domain error code to its response.
// A domain.Error whose code is missing here is rendered as unknown.
var domainResponses = map[domain.Code]domainResponse{
	domain.CodeResourceNotFound:   {http.StatusNotFound, "Resource not found"},
	domain.CodeUserAlreadyExists:  {http.StatusConflict, "E-mail already exists"},
	domain.CodeInvalidCredentials: {http.StatusBadRequest, "Invalid credentials"},
}

// Stable response messages.
const (
	MessageValidation   = "Validation error"
	MessageInvalidToken = "Invalid token"
	MessageRateLimited  = "Too many requests"
	MessageInternal     = "Internal server error"
)

// Classify assigns err to an ErrorKind. The first matching rule wins.
// Serialization failures are checked before validation failures because a
// SerializationError may wrap the ValidationError that caused it, and a bad
// response is a server fault.
func Classify(err error) ErrorKind {
	var (
		serErr    *schema.SerializationError
		valErr    *schema.ValidationError
		domainErr *domain.Error
	)

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &serErr):
		return KindUnknown
	case errors.As(err, &valErr):
		return KindValidation
	case errors.Is(err, auth.ErrInvalidToken):
		return KindInvalidToken
	case errors.As(err, &domainErr):
		if _, ok := domainResponses[domainErr.Code]; ok {
			return KindDomain
		}
		return KindUnknown
	case errors.Is(err, middleware.ErrRateLimited):
		return KindRateLimited
	}
	return KindUnknown
}

// render returns the status and body sent for err.
func render(kind ErrorKind, err error) (int, shared.ErrorResponse) {
	switch kind {
	case KindValidation:
		var valErr *schema.ValidationError
		errors.As(err, &valErr)
		return http.StatusBadRequest, shared.ErrorResponse{
			Message: MessageValidation,
			Issues:  valErr.Fields(),
		}
	case KindInvalidToken:
		return http.StatusUnauthorized, shared.ErrorResponse{Message: MessageInvalidToken}
	case KindDomain:
		var domainErr *domain.Error
		errors.As(err, &domainErr)
		resp := domainResponses[domainErr.Code]
		return resp.status, shared.ErrorResponse{Message: resp.message}
	case KindRateLimited:
		return http.StatusTooManyRequests, shared.ErrorResponse{Message: MessageRateLimited}
	}
	return http.StatusInternalServerError, shared.ErrorResponse{Message: MessageInternal}
}

var errNilError = errors.New("error handler invoked with nil error")

// Report is an unknown error forwarded to an external collector.
type Report struct {
	TraceID string
	Method  string
	Path    string
	// UserID is the authenticated caller, empty for anonymous requests.
	UserID string
	Err    error
}

// Reporter forwards unknown errors to an external observability collector in
// production.
type Reporter interface {
	Report(ctx context.Context, report Report)
}

// LogReporter is the default Reporter. It logs a redacted record so no
// credentials or personal data reach the log sink.
type LogReporter struct {
	Logger *slog.Logger
}

// Report implements Reporter.
func (r LogReporter) Report(ctx context.Context, report Report) {
	log := r.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}
	log.ErrorContext(ctx, "unhandled error",
		"trace_id", report.TraceID,
		"method", report.Method,
		"path", report.Path,
		"user_id", report.UserID,
		"error", redact.Error(report.Err),
		"error_type", fmt.Sprintf("%T", report.Err))
}

// ErrorHandler is the single terminal stage for failed requests.
type ErrorHandler struct {
	production bool
	reporter   Reporter
	errors     *prometheus.CounterVec
}

// NewErrorHandler creates an ErrorHandler and registers its error counter
// with reg. In production, unknown errors go to reporter; otherwise they are
// logged in full.
func NewErrorHandler(production bool, reporter Reporter, reg prometheus.Registerer) (*ErrorHandler, error) {
	if reporter == nil {
		reporter = LogReporter{}
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Failed requests by error kind.",
	}, []string{"kind"})
	if err := reg.Register(counter); err != nil {
		return nil, fmt.Errorf("failed to register error counter: %w", err)
	}

	return &ErrorHandler{
		production: production,
		reporter:   reporter,
		errors:     counter,
	}, nil
}

// Handle classifies err and writes the matching response. If a response has
// already been started for r, the error is logged and nothing is written.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errNilError
	}
	kind := Classify(err)
	status, body := render(kind, err)
	h.errors.WithLabelValues(kind.String()).Inc()

	h.report(r, kind, status, err)

	gw := shared.Guard(w, r)
	if gw.Written() {
		logger.FromContext(r.Context()).Error("error after response was sent; dropping error response",
			"status_code", gw.Status(),
			"error_kind", kind.String())
		return
	}
	shared.RespondWithJSON(gw, r, status, body)
}

// report sends err to the operator channel that fits its kind. Caller-fixable
// errors are routine and logged at debug, except rate limiting which is an
// operational concern.
func (h *ErrorHandler) report(r *http.Request, kind ErrorKind, status int, err error) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var userID string
	if caller, ok := auth.CallerFromContext(ctx); ok {
		userID = caller.Subject
	}

	if kind != KindUnknown {
		level := slog.LevelDebug
		if kind == KindRateLimited {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "request failed",
			"status_code", status,
			"error_kind", kind.String(),
			"error", redact.Error(err),
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", userID)
		return
	}

	if h.production {
		h.reporter.Report(ctx, Report{
			TraceID: shared.GetTraceID(ctx),
			Method:  r.Method,
			Path:    r.URL.Path,
			UserID:  userID,
			Err:     err,
		})
		return
	}

	attrs := []any{
		"error", err.Error(),
		"error_type", fmt.Sprintf("%T", err),
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", userID,
	}
	var panicErr *middleware.PanicError
	if errors.As(err, &panicErr) {
		attrs = append(attrs, "stack", string(panicErr.Stack))
	}
	log.Error("unhandled error", attrs...)
}
