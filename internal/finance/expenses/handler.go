package expenses

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

// Handler exposes expenses over JSON HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
}

type submitExpenseRequest struct {
	Title      string          `json:"title" validate:"required"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	IncurredAt *time.Time      `json:"incurredAt"`
	Note       string          `json:"note"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err.Error()))
		return
	}
	in := SubmitInput{Title: req.Title, Category: req.Category, Amount: req.Amount, Note: req.Note}
	if req.IncurredAt != nil {
		in.IncurredAt = *req.IncurredAt
	}
	e, err := h.service.Submit(r.Context(), in)
	if err != nil {
		h.respondError(w, "submit expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

type approveExpenseRequest struct {
	AccountID  int64 `json:"accountId" validate:"required,gt=0"`
	ApprovedBy int64 `json:"approvedBy" validate:"required,gt=0"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req approveExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrValidation, err.Error()))
		return
	}
	e, err := h.service.Approve(r.Context(), id, req.AccountID, req.ApprovedBy)
	if err != nil {
		h.respondError(w, "approve expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Reject(r.Context(), id)
	if err != nil {
		h.respondError(w, "reject expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list expenses", err)
		return
	}
	if list == nil {
		list = []Expense{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": list})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed id", shared.ErrValidation)
	}
	return id, nil
}
