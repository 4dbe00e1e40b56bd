// Package httpserver builds the process's http.Server. Timeouts here bound
// connection handling only; the API routes carry their own request timeout in
// the middleware chain, and an admitted erasure run is never cut short.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the given router.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
