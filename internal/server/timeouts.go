// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadHeaderTimeout – abort slow-loris headers (5 s)
//   • ReadTimeout       – cap request bodies, logo uploads included (30 s)
//   • WriteTimeout      – cap total response time; must exceed the slowest
//                         upstream API call, so it is configurable
//   • IdleTimeout       – close keep-alives on idle clients (60 s)
//
// This helper centralises those defaults so cmd/web doesn't repeat boilerplate.
//

package server

import (
	"net/http"
	"time"
)

// Defaults used by New.
const (
	ReadHeaderTimeout   = 5 * time.Second
	ReadTimeout         = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	IdleTimeout         = 60 * time.Second
)

// New constructs an *http.Server.  A non-positive writeTimeout selects
// DefaultWriteTimeout.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       IdleTimeout,
	}
}
