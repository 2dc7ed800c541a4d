package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"

	"github.com/phrazzld/profile-api/internal/api/shared"
	"github.com/phrazzld/profile-api/internal/schema"
	"github.com/phrazzld/profile-api/internal/service/auth"
)

// Call is what an endpoint's handler receives once validation and
// authentication have passed.
type Call[In any] struct {
	Input In

	// Caller is set only on endpoints that require authentication.
	Caller auth.Caller

	// Request is the inbound request. Handlers use it to hand opaque
	// credentials to the auth module, never to read input.
	Request *http.Request

	// Response is used to attach cookies. Headers set on it are sent only if
	// the result serializes; writing a body through it fails.
	Response http.ResponseWriter
}

var errHandlerWrite = errors.New("handlers must not write a response body")

// stagedResponse collects headers set by a handler until the endpoint knows
// the request succeeded.
type stagedResponse struct {
	header http.Header
}

func (s *stagedResponse) Header() http.Header { return s.header }

func (s *stagedResponse) Write([]byte) (int, error) { return 0, errHandlerWrite }

func (s *stagedResponse) WriteHeader(int) {}

// applyTo copies the staged headers onto w.
func (s *stagedResponse) applyTo(w http.ResponseWriter) {
	for key, values := range s.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
}

// HandlerFunc runs a use case for a validated call and returns a result to
// be shaped by the endpoint's response schema.
type HandlerFunc[In any] func(ctx context.Context, call Call[In]) (any, error)

// Endpoint runs the request pipeline for one route: validate, authenticate,
// use case, serialize, respond. The first failure goes to the error handler.
type Endpoint[In, Out any] struct {
	request      *schema.Schema[In]
	response     *schema.ResponseSchema[Out]
	requiresAuth bool
	status       int
	emptyBody    bool
	tokens       auth.TokenService
	errors       *ErrorHandler
	handle       HandlerFunc[In]
	onError      func(w http.ResponseWriter, err error)
}

// endpointOptions describes one route.
type endpointOptions struct {
	requiresAuth bool
	status       int

	// onError runs before the error handler when the handler fails. It may
	// only set headers.
	onError func(w http.ResponseWriter, err error)
}

// newEndpoint compiles In and Out and returns the route's handler. It panics
// on an invalid schema; routes are declared once while the server is built.
// An Out with no fields produces a response with no body.
func newEndpoint[In, Out any](s *Server, opts endpointOptions, handle HandlerFunc[In]) *Endpoint[In, Out] {
	status := opts.status
	if status == 0 {
		status = http.StatusOK
	}

	return &Endpoint[In, Out]{
		request:      schema.MustCompile[In](s.validator),
		response:     schema.MustCompileResponse[Out](s.validator),
		requiresAuth: opts.requiresAuth,
		status:       status,
		emptyBody:    reflect.TypeOf((*Out)(nil)).Elem().NumField() == 0,
		tokens:       s.tokens,
		errors:       s.errors,
		handle:       handle,
		onError:      opts.onError,
	}
}

// ServeHTTP implements http.Handler.
func (e *Endpoint[In, Out]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := e.request.Parse(r)
	if err != nil {
		e.errors.Handle(w, r, err)
		return
	}

	var caller auth.Caller
	if e.requiresAuth {
		caller, err = auth.Authenticate(ctx, e.tokens, r)
		if err != nil {
			e.errors.Handle(w, r, err)
			return
		}
		ctx = auth.WithCaller(ctx, caller)
		r = r.WithContext(ctx)
	}

	staged := &stagedResponse{header: make(http.Header)}
	result, err := e.handle(ctx, Call[In]{
		Input:    in,
		Caller:   caller,
		Request:  r,
		Response: staged,
	})
	if err != nil {
		if e.onError != nil {
			e.onError(w, err)
		}
		e.errors.Handle(w, r, err)
		return
	}

	if e.emptyBody {
		staged.applyTo(w)
		shared.RespondWithStatus(w, e.status)
		return
	}

	out, err := e.response.Serialize(result)
	if err != nil {
		e.errors.Handle(w, r, err)
		return
	}
	staged.applyTo(w)
	shared.RespondWithJSON(w, r, e.status, out)
}
