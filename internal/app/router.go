package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/interco/internal/accounting/accounts"
	"github.com/odyssey-erp/interco/internal/accounting/journals"
	"github.com/odyssey-erp/interco/internal/accounting/mappings"
	"github.com/odyssey-erp/interco/internal/auth"
	"github.com/odyssey-erp/interco/internal/documents"
	"github.com/odyssey-erp/interco/internal/intercompany"
	"github.com/odyssey-erp/interco/internal/masterdata/companies"
	"github.com/odyssey-erp/interco/internal/observability"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
	"github.com/odyssey-erp/interco/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthService         *auth.Service
	CompaniesHandler    *companies.Handler
	AccountsHandler     *accounts.Handler
	MappingsHandler     *mappings.Handler
	JournalsHandler     *journals.Handler
	DocumentsHandler    *documents.Handler
	IntercompanyHandler *intercompany.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "method not allowed on this route")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if params.Config != nil && params.Config.APIAuthEnabled && params.AuthService != nil {
			r.Use(auth.Middleware(params.AuthService, params.Logger))
		}

		if params.CompaniesHandler != nil {
			r.Route("/companies", func(r chi.Router) {
				params.CompaniesHandler.MountRoutes(r)
				if params.AccountsHandler != nil {
					r.Route("/{id}/accounts", params.AccountsHandler.MountRoutes)
				}
				if params.MappingsHandler != nil {
					r.Route("/{id}/account-roles", params.MappingsHandler.MountRoutes)
				}
			})
		}
		if params.JournalsHandler != nil {
			r.Route("/journal-entries", params.JournalsHandler.MountRoutes)
		}
		if params.DocumentsHandler != nil {
			r.Route("/documents", params.DocumentsHandler.MountRoutes)
		}
		if params.IntercompanyHandler != nil {
			r.Route("/intercompany-transactions", params.IntercompanyHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
