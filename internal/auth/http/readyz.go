package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/concierge/internal/auth/store"
	"github.com/aussiebroadwan/concierge/pkg/httpx"
)

// ReadyzHandler is the readiness probe: it checks the database before
// reporting ready, so load balancers stop routing when storage is down.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{Database: "ok"}
		status := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
