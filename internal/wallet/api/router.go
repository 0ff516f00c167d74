package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ecowallet/internal/common/metrics"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// RouterConfig wires the handlers served by NewRouter. A nil handler leaves
// its routes out.
type RouterConfig struct {
	Wallets        *WalletHandler
	Ledger         *LedgerHandler
	Ready          ReadinessCheck
	Environment    string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP router. Middleware chain: metrics -> correlation ->
// handler.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.Middleware, CorrelationMiddleware(cfg.RequestTimeout))

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ready", readyHandler(cfg.Environment, cfg.Ready)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	if cfg.Wallets != nil {
		cfg.Wallets.RegisterRoutes(r)
	}
	if cfg.Ledger != nil {
		cfg.Ledger.RegisterRoutes(r)
	}
	return r
}

// healthHandler returns basic health status.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readyHandler checks if the backing store is available.
func readyHandler(environment string, check ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ready",
			"environment": environment,
		})
	}
}
