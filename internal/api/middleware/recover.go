package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// ErrorFunc hands a request's failure to the terminal error handler.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// PanicError is a recovered panic. It is never caller-fixable.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recoverer converts panics in later handlers into errors passed to onPanic.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer(onPanic ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				onPanic(w, r, &PanicError{Value: rec, Stack: debug.Stack()})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
