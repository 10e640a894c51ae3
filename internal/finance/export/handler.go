package export

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jumuiya-app/jumuiya/internal/finance/ledger"
	"github.com/jumuiya-app/jumuiya/internal/platform/httpx"
)

// Handler streams CSV downloads of transactions and summaries.
type Handler struct {
	logger  *slog.Logger
	service *ledger.Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *ledger.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches export routes under the finance prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions/export.csv", h.transactionsCSV)
	r.Get("/summary/export.csv", h.summaryCSV)
}

func (h *Handler) transactionsCSV(w http.ResponseWriter, r *http.Request) {
	f, err := ledger.FilterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	transactions, err := h.service.List(r.Context(), f)
	if err != nil {
		h.respondError(w, "export transactions", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := WriteTransactionsCSV(w, transactions); err != nil {
		h.logger.Error("write transactions csv", slog.Any("error", err))
	}
}

func (h *Handler) summaryCSV(w http.ResponseWriter, r *http.Request) {
	f, err := ledger.SummaryFilterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summarize(r.Context(), f)
	if err != nil {
		h.respondError(w, "export summary", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.csv"`)
	if err := WriteSummaryCSV(w, summary); err != nil {
		h.logger.Error("write summary csv", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
