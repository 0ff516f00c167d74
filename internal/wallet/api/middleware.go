package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ecowallet/internal/common/logging"
	vo "ecowallet/internal/common/value_objects"
)

// CorrelationHeader carries the correlation ID across services.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationMiddleware adds a correlation ID, the user ID of the route and a
// request timeout to each request.
func CorrelationMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			corrID, err := vo.ParseCorrelationID(r.Header.Get(CorrelationHeader))
			if err != nil {
				corrID = vo.NewCorrelationID()
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ctx = logging.WithCorrelationID(ctx, corrID)
			if userID, err := vo.ParseUserID(mux.Vars(r)["userID"]); err == nil {
				ctx = logging.WithUserID(ctx, userID)
			}

			w.Header().Set(CorrelationHeader, corrID.String())

			logging.InfoContext(ctx, "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
