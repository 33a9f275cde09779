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

// EntityHandler exposes the generic CRUD operations of every registered entity.
type EntityHandler struct {
	entityService service.EntityService
	logger        *slog.Logger
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityService service.EntityService, logger *slog.Logger) *EntityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityHandler{
		entityService: entityService,
		logger:        logger.With("component", "entity_handler"),
	}
}

// Routes mounts the entity endpoints. It is mounted last under /api so the
// fixed auth and config routes take precedence over {entity}.
func (h *EntityHandler) Routes(r chi.Router) {
	r.Get("/{entity}", h.List)
	r.Post("/{entity}", h.Create)
	r.Get("/{entity}/{id}", h.Get)
	r.Patch("/{entity}/{id}", h.Update)
	r.Delete("/{entity}/{id}", h.Delete)
	r.Get("/{entity}/{id}/{sub}", h.ListRelated)
	r.Put("/{entity}/{id}/{sub}", h.Perform)
}

// List handles GET /api/{entity}.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")

	records, err := h.entityService.List(r.Context(), shared.PrincipalFromContext(r.Context()), entity)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list records")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

// Get handles GET /api/{entity}/{id}.
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	record, err := h.entityService.Get(r.Context(), shared.PrincipalFromContext(r.Context()), entity, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get record")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// Create handles POST /api/{entity}.
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	payload, err := shared.DecodePayload(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	record, err := h.entityService.Create(r.Context(), shared.PrincipalFromContext(r.Context()), entity, payload)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create record")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("record created",
		slog.String("entity", entity))

	shared.RespondWithJSON(w, r, http.StatusCreated, record)
}

// Update handles PATCH /api/{entity}/{id}.
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	payload, err := shared.DecodePayload(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	record, err := h.entityService.Update(r.Context(), shared.PrincipalFromContext(r.Context()), entity, id, payload)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update record")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// Delete handles DELETE /api/{entity}/{id}.
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.entityService.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), entity, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete record")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("record deleted",
		slog.String("entity", entity),
		slog.Int64("id", id))

	w.WriteHeader(http.StatusNoContent)
}

// ListRelated handles GET /api/{entity}/{id}/{relation}.
func (h *EntityHandler) ListRelated(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.entityService.ListRelated(r.Context(), shared.PrincipalFromContext(r.Context()),
		entity, id, chi.URLParam(r, "sub"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list related records")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

// Perform handles PUT /api/{entity}/{id}/{action}, e.g. /api/user_chats/3/close.
func (h *EntityHandler) Perform(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	action := chi.URLParam(r, "sub")
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	record, err := h.entityService.Perform(r.Context(), shared.PrincipalFromContext(r.Context()), entity, id, action)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to apply action")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("record action applied",
		slog.String("entity", entity),
		slog.String("action", action),
		slog.Int64("id", id))

	shared.RespondWithJSON(w, r, http.StatusOK, record)
}
