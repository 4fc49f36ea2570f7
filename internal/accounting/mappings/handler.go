package mappings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type mappingsResponse struct {
	Data    []AccountMapping `json:"data"`
	Missing []Role           `json:"missing"`
}

// MountRoutes expects to be mounted under /companies/{id}/account-roles.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/", h.Set)
	r.Post("/bootstrap", h.Bootstrap)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	current, err := h.service.List(r.Context(), companyID)
	if err != nil {
		httpx.Fail(w, r, h.logger, "list account roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, mappingsResponse{Data: current, Missing: Missing(current)})
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SetMappingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	current, err := h.service.Set(r.Context(), companyID, req)
	if err != nil {
		httpx.Fail(w, r, h.logger, "set account roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, mappingsResponse{Data: current, Missing: Missing(current)})
}

func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	current, err := h.service.Bootstrap(r.Context(), companyID)
	if err != nil {
		httpx.Fail(w, r, h.logger, "bootstrap account roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, mappingsResponse{Data: current, Missing: Missing(current)})
}
