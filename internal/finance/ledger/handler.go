package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jumuiya-app/jumuiya/internal/platform/httpx"
	"github.com/jumuiya-app/jumuiya/internal/shared"
)

// Handler exposes the ledger over JSON HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches transaction and summary routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
	r.Get("/summary", h.summary)
}

type createTransactionRequest struct {
	AccountID   int64           `json:"accountId" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" validate:"required,oneof=income expense"`
	Date        *time.Time      `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	PaymentID   *int64          `json:"paymentId" validate:"omitempty,gt=0"`
	InvoiceID   *int64          `json:"invoiceId" validate:"omitempty,gt=0"`
	ExpenseID   *int64          `json:"expenseId" validate:"omitempty,gt=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err.Error()))
		return
	}

	in := CreateInput{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Type:        TransactionType(req.Type),
		Category:    req.Category,
		Description: req.Description,
		PaymentID:   req.PaymentID,
		InvoiceID:   req.InvoiceID,
		ExpenseID:   req.ExpenseID,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	res, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

type updateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type" validate:"omitempty,oneof=income expense"`
	Date        *time.Time       `json:"date"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err.Error()))
		return
	}

	in := UpdateInput{
		ID:          id,
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Type != nil {
		t := TransactionType(*req.Type)
		in.Type = &t
	}

	res, err := h.service.Update(r.Context(), in)
	if err != nil {
		h.respondError(w, "update transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.respondError(w, "remove transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	trx, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, trx)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := FilterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	trxs, err := h.service.List(r.Context(), f)
	if err != nil {
		h.respondError(w, "list transactions", err)
		return
	}
	if trxs == nil {
		trxs = []Transaction{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": trxs})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	f, err := SummaryFilterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summarize(r.Context(), f)
	if err != nil {
		h.respondError(w, "summarize", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed id", shared.ErrValidation)
	}
	return id, nil
}

// FilterFromQuery parses the closed listing filter from URL parameters.
func FilterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	var f Filter
	if raw := q.Get("accountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Filter{}, fmt.Errorf("%w: malformed accountId", shared.ErrValidation)
		}
		f.AccountID = &id
	}
	if raw := q.Get("type"); raw != "" {
		t := TransactionType(raw)
		if !t.Valid() {
			return Filter{}, ErrInvalidType
		}
		f.Type = &t
	}
	f.Category = q.Get("category")
	var err error
	if f.From, f.To, err = dateRange(q.Get("startDate"), q.Get("endDate")); err != nil {
		return Filter{}, err
	}
	if raw := q.Get("limit"); raw != "" {
		f.Page.Limit, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("offset"); raw != "" {
		f.Page.Offset, _ = strconv.Atoi(raw)
	}
	return f, nil
}

// SummaryFilterFromQuery parses the summary window from URL parameters.
func SummaryFilterFromQuery(r *http.Request) (SummaryFilter, error) {
	q := r.URL.Query()
	var f SummaryFilter
	if raw := q.Get("accountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return SummaryFilter{}, fmt.Errorf("%w: malformed accountId", shared.ErrValidation)
		}
		f.AccountID = &id
	}
	var err error
	if f.From, f.To, err = dateRange(q.Get("startDate"), q.Get("endDate")); err != nil {
		return SummaryFilter{}, err
	}
	return f, nil
}

func dateRange(start, end string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if start != "" {
		if from, err = time.Parse("2006-01-02", start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: malformed startDate", shared.ErrValidation)
		}
	}
	if end != "" {
		if to, err = time.Parse("2006-01-02", end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: malformed endDate", shared.ErrValidation)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
