package main

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/phrazzld/totem-api/internal/api"
)

// setupRouter creates the route tree and wraps it with CORS and response
// compression.
func (app *application) setupRouter() http.Handler {
	deps := api.RouterDeps{
		Logger:           app.logger,
		JWTService:       app.jwtService,
		EntityService:    app.entityService,
		ConfigService:    app.configService,
		AccountService:   app.accountService,
		DashboardService: app.dashboardService,
	}
	if app.db != nil {
		deps.DB = app.db
	}
	router := api.NewRouter(deps)

	return withCORS(handlers.CompressHandler(router), app.config.Server.CORSAllowedOrigins)
}

// withCORS allows the admin frontend origins to call the API with a bearer token.
func withCORS(h http.Handler, origins []string) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.ExposedHeaders([]string{"Content-Length"}),
		handlers.MaxAge(600),
	)(h)
}
