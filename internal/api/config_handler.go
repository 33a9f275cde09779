package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/totem-api/internal/api/shared"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/service"
)

// ConfigHandler handles the /api/config endpoints.
type ConfigHandler struct {
	configService service.ConfigService
	logger        *slog.Logger
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configService service.ConfigService, logger *slog.Logger) *ConfigHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigHandler{
		configService: configService,
		logger:        logger.With("component", "config_handler"),
	}
}

// Routes mounts the configuration endpoints on r.
func (h *ConfigHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/", h.UpdateMany)
	r.Get("/categories", h.Categories)
	r.Get("/{key}", h.Get)
	r.Put("/{key}", h.Update)
	r.Put("/{key}/reset", h.Reset)
	r.Delete("/{key}", h.Delete)
}

// List handles GET /api/config?category=.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.configService.List(r.Context(), shared.PrincipalFromContext(r.Context()),
		r.URL.Query().Get("category"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list configuration")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, listing)
}

// Categories handles GET /api/config/categories.
func (h *ConfigHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.configService.Categories(r.Context(), shared.PrincipalFromContext(r.Context()))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list configuration categories")
		return
	}
	if categories == nil {
		categories = []domain.CategoryCount{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, categories)
}

// Get handles GET /api/config/{key}.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.configService.Get(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get configuration")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// Create handles POST /api/config.
func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConfigRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	view, err := h.configService.Create(r.Context(), shared.PrincipalFromContext(r.Context()), service.CreateConfigInput{
		Key:         req.Key,
		Value:       req.Value,
		Type:        req.Type,
		Description: req.Description,
		Category:    req.Category,
		Editable:    req.Editable,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create configuration")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("configuration created",
		slog.String("key", req.Key))

	shared.RespondWithJSON(w, r, http.StatusCreated, view)
}

// Update handles PUT /api/config/{key}.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	view, err := h.configService.Update(r.Context(), shared.PrincipalFromContext(r.Context()),
		chi.URLParam(r, "key"), req.Value)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update configuration")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// UpdateMany handles PUT /api/config with a batch of entries.
func (h *ConfigHandler) UpdateMany(w http.ResponseWriter, r *http.Request) {
	var req BatchConfigRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	updates := make([]domain.ConfigUpdate, len(req.Entries))
	for i, e := range req.Entries {
		updates[i] = domain.ConfigUpdate{Key: e.Key, Value: e.Value}
	}

	views, err := h.configService.UpdateMany(r.Context(), shared.PrincipalFromContext(r.Context()), updates)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update configuration")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("configuration batch updated",
		slog.Int("count", len(views)))

	shared.RespondWithJSON(w, r, http.StatusOK, views)
}

// Reset handles PUT /api/config/{key}/reset.
func (h *ConfigHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.configService.Reset(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset configuration")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// Delete handles DELETE /api/config/{key}.
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.configService.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), key); err != nil {
		HandleAPIError(w, r, err, "Failed to delete configuration")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Configuration deleted"})
}
