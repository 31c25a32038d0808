package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/clientpulse/internal/analytics"
	"github.com/clientpulse/pkg/models"
)

// parseRange reads start_date and end_date query parameters. Both are
// required, RFC3339, and end must not precede start by more than the
// caller cares to compute (a reversed range yields zeroed metrics, not
// an error).
func parseRange(r *http.Request) (models.TimeRange, error) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start_date"))
	if err != nil {
		return models.TimeRange{}, err
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end_date"))
	if err != nil {
		return models.TimeRange{}, err
	}
	return models.TimeRange{Start: start, End: end}, nil
}

func parseFilters(r *http.Request) analytics.Filters {
	q := r.URL.Query()
	return analytics.Filters{
		PlanType:              q.Get("plan_type"),
		SuccessPackage:        q.Get("success_package"),
		ImplementationManager: q.Get("implementation_manager"),
		Status:                q.Get("status"),
	}
}

// handleSummary serves the merged analytics summary for a range.
func (g *Gateway) handleSummary(w http.ResponseWriter, r *http.Request) {
	timeRange, err := parseRange(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_RANGE",
			"start_date and end_date must be RFC3339 timestamps", err.Error())
		return
	}
	filters := parseFilters(r)

	if g.cache != nil {
		if cached, found, err := g.cache.GetSummary(r.Context(), timeRange, filters); err != nil {
			log.Printf("Summary cache read failed: %v", err)
		} else if found {
			writeSuccessResponse(w, cached, &APIMeta{Cached: true})
			return
		}
	}

	summary, err := g.engine.Summary(r.Context(), timeRange, filters)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "SUMMARY_FAILED",
			"Failed to compute analytics summary", err.Error())
		return
	}

	if g.cache != nil {
		if err := g.cache.SetSummary(r.Context(), timeRange, filters, summary); err != nil {
			log.Printf("Summary cache write failed: %v", err)
		}
	}

	writeSuccessResponse(w, summary, &APIMeta{Total: len(summary.Clients)})
}

// handleActivity serves either a plain activity report for an explicit
// range or, when week_start is given, a week-over-week comparison.
func (g *Gateway) handleActivity(w http.ResponseWriter, r *http.Request) {
	if weekStartParam := r.URL.Query().Get("week_start"); weekStartParam != "" {
		weekStart, err := time.Parse(time.RFC3339, weekStartParam)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_WEEK_START",
				"week_start must be an RFC3339 timestamp", err.Error())
			return
		}

		comparison, err := g.engine.WeekOverWeek(r.Context(), weekStart)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, "ACTIVITY_FAILED",
				"Failed to compute week-over-week activity", err.Error())
			return
		}

		writeSuccessResponse(w, comparison, nil)
		return
	}

	timeRange, err := parseRange(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_RANGE",
			"start_date and end_date must be RFC3339 timestamps", err.Error())
		return
	}

	report, err := g.engine.Activity(r.Context(), timeRange)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "ACTIVITY_FAILED",
			"Failed to compute activity report", err.Error())
		return
	}

	writeSuccessResponse(w, report, &APIMeta{Total: len(report.Clients)})
}

// handleClientProgress serves a client's milestone completion.
func (g *Gateway) handleClientProgress(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["id"]
	if clientID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_CLIENT_ID",
			"Client id is required", "")
		return
	}

	progress, err := g.engine.ClientProgress(r.Context(), clientID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "PROGRESS_FAILED",
			"Failed to compute client progress", err.Error())
		return
	}

	writeSuccessResponse(w, progress, nil)
}

// handleSuggestPlaybooks serves playbook suggestions for a free-text
// situation.
func (g *Gateway) handleSuggestPlaybooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_QUERY",
			"Query parameter q is required", "")
		return
	}

	suggestions, err := g.suggester.Suggest(r.Context(), query)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "SUGGEST_FAILED",
			"Failed to suggest playbooks", err.Error())
		return
	}

	writeSuccessResponse(w, suggestions, &APIMeta{Total: len(suggestions)})
}

// handleMetrics serves gateway request metrics.
func (g *Gateway) handleMetrics(w http.ResponseWriter, r *http.Request) {
	g.metrics.mu.Lock()
	snapshot := GatewayMetrics{
		RequestsTotal:    g.metrics.RequestsTotal,
		AverageLatency:   g.metrics.AverageLatency,
		RequestsByPath:   make(map[string]int64, len(g.metrics.RequestsByPath)),
		RequestsByMethod: make(map[string]int64, len(g.metrics.RequestsByMethod)),
		RequestsByStatus: make(map[int]int64, len(g.metrics.RequestsByStatus)),
		LastRequest:      g.metrics.LastRequest,
	}
	for k, v := range g.metrics.RequestsByPath {
		snapshot.RequestsByPath[k] = v
	}
	for k, v := range g.metrics.RequestsByMethod {
		snapshot.RequestsByMethod[k] = v
	}
	for k, v := range g.metrics.RequestsByStatus {
		snapshot.RequestsByStatus[k] = v
	}
	g.metrics.mu.Unlock()

	writeSuccessResponse(w, &snapshot, nil)
}
