package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/totem-api/internal/api/shared"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/service"
)

// DashboardHandler serves the aggregate views of the admin dashboard.
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService service.DashboardService, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger.With("component", "dashboard_handler"),
	}
}

// Routes mounts the dashboard endpoints under /api/dashboard.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Get("/totems-by-region", h.totemsBy("regions"))
	r.Get("/totems-by-institution", h.totemsBy("institutions"))
	r.Get("/totems-by-category", h.totemsBy("categories"))
	r.Get("/recent-notifications", h.RecentNotifications)
	r.Get("/activity-stats", h.ActivityStats)
	r.Get("/system-health", h.SystemHealth)
}

// Stats handles GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Stats(r.Context(), shared.PrincipalFromContext(r.Context()))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute dashboard stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

func (h *DashboardHandler) totemsBy(parent string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := h.dashboardService.TotemsBy(r.Context(), shared.PrincipalFromContext(r.Context()), parent)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to count totems")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, totals)
	}
}

// RecentNotifications handles GET /api/dashboard/recent-notifications?limit=N.
func (h *DashboardHandler) RecentNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := getQueryInt(r, "limit")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.dashboardService.RecentNotifications(r.Context(),
		shared.PrincipalFromContext(r.Context()), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

// ActivityStats handles GET /api/dashboard/activity-stats?days=N.
func (h *DashboardHandler) ActivityStats(w http.ResponseWriter, r *http.Request) {
	days, err := getQueryInt(r, "days")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	stats, err := h.dashboardService.ActivityStats(r.Context(), shared.PrincipalFromContext(r.Context()), days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute activity stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// SystemHealth handles GET /api/dashboard/system-health. An unhealthy
// report is still written in full, with status 503.
func (h *DashboardHandler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.dashboardService.SystemHealth(r.Context(), shared.PrincipalFromContext(r.Context()))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check system health")
		return
	}

	status := http.StatusOK
	if health.Status != domain.HealthHealthy {
		status = http.StatusServiceUnavailable
	}
	shared.RespondWithJSON(w, r, status, health)
}
