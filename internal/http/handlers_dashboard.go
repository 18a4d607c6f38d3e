package http

import (
	"net/http"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/services"
)

// handleDashboard activates the dashboard, so every fetch reflects the latest
// stored data, then returns the view for ?period= and ?month=.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseDashboardQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.dashboard.Activate(r.Context())
	writeJSON(w, http.StatusOK, s.dashboard.View(r.Context(), q))
}

func (s *Server) handleActivateDashboard(w http.ResponseWriter, r *http.Request) {
	s.dashboard.Activate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func parseDashboardQuery(r *http.Request) (services.DashboardQuery, error) {
	query := r.URL.Query()
	period, err := core.ParsePeriod(query.Get("period"))
	if err != nil {
		return services.DashboardQuery{}, err
	}

	month := sanitizeInput(query.Get("month"))
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return services.DashboardQuery{}, errInvalidMonth
		}
	}
	return services.DashboardQuery{Period: period, Month: month}, nil
}
