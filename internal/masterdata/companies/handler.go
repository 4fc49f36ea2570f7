package companies

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/interco/internal/masterdata/shared"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/interco/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches company routes; nested ledger routes are mounted by
// their own packages under /companies/{id}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := httpx.QueryInt64(r, "tenantId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := internalShared.AuthorizeTenant(r.Context(), tenantID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, limit, err := httpx.QueryPage(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, limit = internalShared.NormalizePage(page, limit)
	filters := shared.ListFilters{
		Page:     page,
		Limit:    limit,
		Search:   r.URL.Query().Get("search"),
		SortBy:   r.URL.Query().Get("sort"),
		SortDir:  r.URL.Query().Get("dir"),
		TenantID: tenantID,
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err == nil {
			filters.IsActive = &active
		}
	}

	companies, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.Fail(w, r, h.logger, "list companies failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, internalShared.Page[Company]{
		Data:       companies,
		Pagination: internalShared.NewPagination(page, limit, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get company failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := internalShared.AuthorizeTenant(r.Context(), req.TenantID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create company failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.Fail(w, r, h.logger, "deactivate company failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
