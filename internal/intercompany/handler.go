package intercompany

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
	"github.com/odyssey-erp/interco/internal/shared"
)

// IdempotencyModule prefixes the scope of Idempotency-Key values for creations.
const IdempotencyModule = "intercompany.create"

// IdempotencyScope returns the per-tenant scope for creation keys.
func IdempotencyScope(tenantID int64) string {
	return IdempotencyModule + ":" + strconv.FormatInt(tenantID, 10)
}

// IdempotencyGuard rejects replayed request keys.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Handler exposes the service over HTTP.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency IdempotencyGuard
}

// NewHandler builds a Handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyGuard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers routes under /intercompany-transactions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/summary", h.summary)
	r.Post("/match", h.match)
	r.Get("/{id}", h.show)
	r.Put("/{id}/status", h.setStatus)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.AuthorizeTenant(r.Context(), req.TenantID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	scope := IdempotencyScope(req.TenantID)
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, scope); err != nil {
			httpx.Fail(w, r, h.logger, "idempotency check", err)
			return
		}
	}
	created, err := h.service.Create(r.Context(), input, shared.ActorFromContext(r.Context()))
	if err != nil {
		if key != "" && h.idempotency != nil {
			if delErr := h.idempotency.Delete(r.Context(), key, scope); delErr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		httpx.Fail(w, r, h.logger, "create intercompany transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := httpx.QueryInt64(r, "tenantId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if p, ok := shared.PrincipalFromContext(r.Context()); ok && tenantID == 0 {
		tenantID = p.TenantID
	}
	if err := shared.AuthorizeTenant(r.Context(), tenantID); err != nil {
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
	result, err := h.service.List(r.Context(), ListFilters{
		TenantID:  tenantID,
		CompanyID: companyID,
		Status:    Status(r.URL.Query().Get("status")),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		httpx.Fail(w, r, h.logger, "list intercompany transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	tenantID, err := httpx.QueryInt64(r, "tenantId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.AuthorizeTenant(r.Context(), tenantID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), tenantID)
	if err != nil {
		httpx.Fail(w, r, h.logger, "summarise intercompany transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.SetStatus(r.Context(), t.ID, Status(req.Status), shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.Fail(w, r, h.logger, "set intercompany status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	for _, id := range []int64{req.SourceTransactionID, req.TargetTransactionID} {
		t, err := h.service.Get(r.Context(), id)
		if err != nil {
			httpx.Fail(w, r, h.logger, "match intercompany transactions", err)
			return
		}
		if err := shared.AuthorizeTenant(r.Context(), t.TenantID); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	result, err := h.service.Match(r.Context(), req.SourceTransactionID, req.TargetTransactionID, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.Fail(w, r, h.logger, "match intercompany transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request) (Transaction, bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return Transaction{}, false
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get intercompany transaction", err)
		return Transaction{}, false
	}
	if err := shared.AuthorizeTenant(r.Context(), t.TenantID); err != nil {
		httpx.RespondError(w, err)
		return Transaction{}, false
	}
	return t, true
}
