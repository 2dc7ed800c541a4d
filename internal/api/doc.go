// Package api is the HTTP surface of the service.
//
// NewServer builds everything a request needs up front: the schema validator,
// the terminal error handler, the refresh cookie settings, metrics, the rate
// limiter, the use cases and the router. Each route is an Endpoint that runs
// validate, authenticate, use case, serialize and respond in that order; the
// first failure is passed to ErrorHandler.Handle, which maps it through the
// closed ErrorKind taxonomy to a status and a stable JSON body.
package api
