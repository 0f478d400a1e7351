package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"zaplens/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	// Slow marks access log lines at warn when a request takes at least this long
	Slow time.Duration
	// Timeout bounds a request; snapshots enrich synchronously so keep it above the enrichment timeouts
	Timeout time.Duration
	// Origins restricts CORS; empty allows any
	Origins []string
}

// CommonStack returns the baseline middleware slice for the versioned API
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 45 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.Correlate(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow}),
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.Origins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}
