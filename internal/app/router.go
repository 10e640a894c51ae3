package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jumuiya-app/jumuiya/internal/finance/accounts"
	"github.com/jumuiya-app/jumuiya/internal/finance/expenses"
	"github.com/jumuiya-app/jumuiya/internal/finance/export"
	"github.com/jumuiya-app/jumuiya/internal/finance/invoices"
	"github.com/jumuiya-app/jumuiya/internal/finance/ledger"
	"github.com/jumuiya-app/jumuiya/internal/finance/payments"
	"github.com/jumuiya-app/jumuiya/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AccountsHandler *accounts.Handler
	LedgerHandler   *ledger.Handler
	ExportHandler   *export.Handler
	PaymentsHandler *payments.Handler
	InvoicesHandler *invoices.Handler
	ExpensesHandler *expenses.Handler
	JobsHandler     *jobs.Handler
}

// NewRouter constructs the chi.Router with Jumuiya defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/finance", func(fin chi.Router) {
			if params.AccountsHandler != nil {
				params.AccountsHandler.MountRoutes(fin)
			}
			if params.LedgerHandler != nil {
				params.LedgerHandler.MountRoutes(fin)
			}
			if params.ExportHandler != nil {
				params.ExportHandler.MountRoutes(fin)
			}
		})
		if params.PaymentsHandler != nil {
			api.Route("/payments", params.PaymentsHandler.MountRoutes)
		}
		if params.InvoicesHandler != nil {
			api.Route("/invoices", params.InvoicesHandler.MountRoutes)
		}
		if params.ExpensesHandler != nil {
			api.Route("/expenses", params.ExpensesHandler.MountRoutes)
		}
		if params.JobsHandler != nil {
			api.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
