package documents

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

// Handler serves document reads.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes under /documents.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{kind}", h.list)
	r.Get("/{kind}/summary", h.summary)
	r.Get("/{kind}/{id}", h.show)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companyID, err := httpx.QueryInt64(r, "companyId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, limit, err := httpx.QueryPage(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), kind, ListFilters{
		CompanyID: companyID,
		Status:    r.URL.Query().Get("status"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		httpx.Fail(w, r, h.logger, "list documents", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companyID, err := httpx.QueryInt64(r, "companyId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), kind, companyID)
	if err != nil {
		httpx.Fail(w, r, h.logger, "summarise documents", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Get(r.Context(), kind, id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}
