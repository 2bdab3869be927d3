/*
handlers.go - HTTP API handlers for the daily cash ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, input validation, and delegates to the domain service.

ENDPOINTS:
  Businesses:
    GET    /api/businesses                 List tenants
    POST   /api/businesses                 Create tenant
    GET    /api/businesses/{id}            Get tenant
    GET    /api/businesses/{id}/days       List ledger days
    POST   /api/businesses/{id}/days       Open a ledger day

  Days:
    GET    /api/days/{id}                  Day read model with aggregation
    POST   /api/days/{id}/sales            Record a sale
    POST   /api/days/{id}/expenses         Record a manual expense
    POST   /api/days/{id}/payments         Record a debt payment
    POST   /api/days/{id}/close            Close the day (admin)

  Sales:
    POST   /api/sales/{id}/revert          Soft-void a sale (admin)

  Admin:
    POST   /api/admin/repair-bounds        Timezone boundary repair
    POST   /api/admin/reconcile            Totals reconciliation

ERROR HANDLING:
  Domain errors map onto HTTP status:
  - 400: invalid operation / malformed input
  - 403: privilege required
  - 404: not found
  - 409: closed ledger, conflicting open day
  - 422: reconciliation drift
  - 500: internal errors

ACTOR IDENTITY:
  The authenticated actor arrives via X-Actor-ID / X-Actor-Role headers,
  populated by the session layer in front of this service. Missing headers
  default to an anonymous operator, which the admin-gated operations reject.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *ledger.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new handler around the ledger service.
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		Service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func actorFrom(r *http.Request) ledger.Actor {
	actor := ledger.Actor{
		ID:   r.Header.Get("X-Actor-ID"),
		Role: ledger.Role(r.Header.Get("X-Actor-Role")),
	}
	if actor.Role == "" {
		actor.Role = ledger.RoleOperator
	}
	return actor
}

// =============================================================================
// BUSINESS HANDLERS
// =============================================================================

// ListBusinesses returns all tenants.
func (h *Handler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.Service.Businesses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list businesses", err)
		return
	}

	dtos := make([]BusinessDTO, len(businesses))
	for i, b := range businesses {
		dtos[i] = toBusinessDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBusiness registers a tenant.
func (h *Handler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	var req CreateBusinessRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.Service.CreateBusiness(r.Context(), req.Name, req.Timezone)
	if err != nil {
		h.writeDomainError(w, "Failed to create business", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBusinessDTO(*b))
}

// GetBusiness returns a single tenant.
func (h *Handler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	id := ledger.BusinessID(chi.URLParam(r, "id"))

	b, err := h.Service.Business(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get business", err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessDTO(*b))
}

// =============================================================================
// DAY LIFECYCLE HANDLERS
// =============================================================================

// OpenDay opens a new ledger day for a business.
// POST /api/businesses/{id}/days
func (h *Handler) OpenDay(w http.ResponseWriter, r *http.Request) {
	businessID := ledger.BusinessID(chi.URLParam(r, "id"))

	day, err := h.Service.OpenDay(r.Context(), businessID)
	if err != nil {
		h.writeDomainError(w, "Failed to open ledger day", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDayDTO(*day))
}

// GetOpenDay returns the business's currently open day.
// GET /api/businesses/{id}/open-day
func (h *Handler) GetOpenDay(w http.ResponseWriter, r *http.Request) {
	businessID := ledger.BusinessID(chi.URLParam(r, "id"))

	day, err := h.Service.OpenDayFor(r.Context(), businessID)
	if err != nil {
		h.writeDomainError(w, "Failed to get open ledger day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(*day))
}

// ListDays returns a business's ledger days, newest first.
// GET /api/businesses/{id}/days
func (h *Handler) ListDays(w http.ResponseWriter, r *http.Request) {
	businessID := ledger.BusinessID(chi.URLParam(r, "id"))

	days, err := h.Service.Days(r.Context(), businessID)
	if err != nil {
		h.writeDomainError(w, "Failed to list ledger days", err)
		return
	}

	dtos := make([]LedgerDayDTO, len(days))
	for i, d := range days {
		dtos[i] = toDayDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDay returns the day read model with its aggregation.
// GET /api/days/{id}
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	dayID := ledger.LedgerDayID(chi.URLParam(r, "id"))

	day, agg, err := h.Service.Day(r.Context(), dayID)
	if err != nil {
		h.writeDomainError(w, "Failed to get ledger day", err)
		return
	}

	computed, _ := agg.TotalSales.Float64()
	writeJSON(w, http.StatusOK, DayDetailDTO{
		Day:           toDayDTO(*day),
		LineItems:     toLineItemDTOs(agg.LineItems),
		ComputedTotal: computed,
	})
}

// CloseDay performs the one-way closing transition.
// POST /api/days/{id}/close
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	dayID := ledger.LedgerDayID(chi.URLParam(r, "id"))

	var req CloseDayRequest
	// The close body is optional; an empty body means "no final adjustments".
	// EOF is tolerated rather than checking ContentLength, which chunked
	// requests report as -1.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	input := ledger.CloseDayInput{}
	for _, e := range req.Expenses {
		input.Expenses = append(input.Expenses, toExpense(e))
	}
	for _, e := range req.SupplierPayments {
		input.SupplierPayments = append(input.SupplierPayments, toExpense(e))
	}

	day, err := h.Service.CloseDay(r.Context(), dayID, input, actorFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to close ledger day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(*day))
}

// =============================================================================
// SALE / EXPENSE / PAYMENT HANDLERS
// =============================================================================

// RecordSale records a sale against an open day.
// POST /api/days/{id}/sales
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	dayID := ledger.LedgerDayID(chi.URLParam(r, "id"))

	var req RecordSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	sale, err := h.Service.RecordSale(r.Context(), dayID, ledger.SaleInput{
		PaymentMethod: ledger.PaymentMethod(req.PaymentMethod),
		Items:         toItems(req.Items),
		Total:         decimal.NewFromFloat(req.Total),
		AmountPaid:    decimal.NewFromFloat(req.AmountPaid),
		AmountDebt:    decimal.NewFromFloat(req.AmountDebt),
		ClientID:      ledger.ClientID(req.ClientID),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(*sale))
}

// RecordExpense appends a manual expense to an open day.
// POST /api/days/{id}/expenses
func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	dayID := ledger.LedgerDayID(chi.URLParam(r, "id"))

	var req RecordExpenseRequest
	if !h.decode(w, r, &req) {
		return
	}

	day, err := h.Service.RecordExpense(r.Context(), dayID, toExpense(req))
	if err != nil {
		h.writeDomainError(w, "Failed to record expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDayDTO(*day))
}

// RecordDebtPayment records a client settling prior debt.
// POST /api/days/{id}/payments
func (h *Handler) RecordDebtPayment(w http.ResponseWriter, r *http.Request) {
	dayID := ledger.LedgerDayID(chi.URLParam(r, "id"))

	var req RecordDebtPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.Service.RecordDebtPayment(r.Context(), dayID,
		ledger.ClientID(req.ClientID), decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.writeDomainError(w, "Failed to record debt payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtPaymentDTO(*payment))
}

// RevertSale soft-voids a sale and re-derives its day's total.
// POST /api/sales/{id}/revert
func (h *Handler) RevertSale(w http.ResponseWriter, r *http.Request) {
	saleID := ledger.SaleID(chi.URLParam(r, "id"))

	sale, err := h.Service.RevertSale(r.Context(), saleID, actorFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to revert sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RepairBounds runs the idempotent timezone boundary repair.
// POST /api/admin/repair-bounds
func (h *Handler) RepairBounds(w http.ResponseWriter, r *http.Request) {
	var req RepairRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.Service.RepairDayBounds(r.Context(), ledger.BusinessID(req.BusinessID), actorFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to repair day bounds", err)
		return
	}
	writeJSON(w, http.StatusOK, RepairResultDTO{Scanned: result.Scanned, Repaired: result.Repaired})
}

// Reconcile recomputes day totals and reports drift.
// POST /api/admin/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req RepairRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.Service.ReconcileTotals(r.Context(), ledger.BusinessID(req.BusinessID), req.Repair, actorFrom(r))
	if err != nil && !errors.Is(err, ledger.ErrReconciliation) {
		h.writeDomainError(w, "Failed to reconcile totals", err)
		return
	}

	dto := ReconcileResultDTO{Scanned: result.Scanned, Repaired: result.Repaired}
	for _, d := range result.Diverged {
		stored, _ := d.Stored.Float64()
		computed, _ := d.Computed.Float64()
		dto.Diverged = append(dto.Diverged, DriftDTO{DayID: string(d.DayID), Stored: stored, Computed: computed})
	}

	status := http.StatusOK
	if errors.Is(err, ledger.ErrReconciliation) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, dto)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError translates ledger error kinds into HTTP statuses.
// Client-caused failures are the caller's problem and only get logged at
// the transport layer; anything else is an internal error worth an alert.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	if !ledger.IsClientError(err) && !ledger.IsNotFound(err) && !errors.Is(err, ledger.ErrReconciliation) {
		h.log.Error().Err(err).Msg(message)
	}

	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrClosedLedger), errors.Is(err, ledger.ErrOpenDayExists):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, ledger.ErrPrivilege):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, ledger.ErrInvalidOperation):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, ledger.ErrReconciliation):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
