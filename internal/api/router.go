package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/totem-api/internal/api/middleware"
	"github.com/phrazzld/totem-api/internal/service"
	"github.com/phrazzld/totem-api/internal/service/auth"
)

// RouterDeps holds everything the route tree needs.
type RouterDeps struct {
	Logger           *slog.Logger
	JWTService       auth.JWTService
	EntityService    service.EntityService
	ConfigService    service.ConfigService
	AccountService   service.AccountService
	DashboardService service.DashboardService // /api/dashboard is mounted only when set
	// DB is pinged by /health when set.
	DB Pinger
}

// NewRouter builds the chi route tree of the HTTP API.
func NewRouter(deps RouterDeps) chi.Router {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(log))
	r.Use(chimiddleware.Recoverer)

	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.JWTService)
	authHandler := NewAuthHandler(deps.AccountService, log)
	configHandler := NewConfigHandler(deps.ConfigService, log)
	entityHandler := NewEntityHandler(deps.EntityService, log)

	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.DB))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/auth", authHandler.Routes)
		r.Route("/config", configHandler.Routes)
		if deps.DashboardService != nil {
			r.Route("/dashboard", NewDashboardHandler(deps.DashboardService, log).Routes)
		}
		entityHandler.Routes(r)
	})

	return r
}
