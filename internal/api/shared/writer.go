package shared

import (
	"net/http"

	"github.com/phrazzld/profile-api/internal/platform/logger"
)

// GuardedWriter enforces one response per request. The first WriteHeader
// wins; later attempts to start another response are logged and dropped.
// It also remembers the status for instrumentation.
type GuardedWriter struct {
	http.ResponseWriter
	r       *http.Request
	status  int
	written bool
}

// Guard wraps w in a GuardedWriter, or returns w itself if it already is one.
func Guard(w http.ResponseWriter, r *http.Request) *GuardedWriter {
	if gw, ok := w.(*GuardedWriter); ok {
		return gw
	}
	return &GuardedWriter{ResponseWriter: w, r: r, status: http.StatusOK}
}

// WriteHeader implements http.ResponseWriter.
func (w *GuardedWriter) WriteHeader(status int) {
	if w.written {
		logger.FromContext(w.r.Context()).Error("response already started; dropping status",
			"status_code", w.status,
			"dropped_status_code", status,
			"path", w.r.URL.Path)
		return
	}
	w.written = true
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write implements http.ResponseWriter.
func (w *GuardedWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Written reports whether a response has been started.
func (w *GuardedWriter) Written() bool {
	return w.written
}

// Status returns the status code sent, or 200 if none was sent explicitly.
func (w *GuardedWriter) Status() int {
	return w.status
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *GuardedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
