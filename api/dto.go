/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags checked in handlers
  before any domain call. The ledger core re-validates domain rules, so the
  engine stays safe without the HTTP layer.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateBusinessRequest registers a tenant.
type CreateBusinessRequest struct {
	Name     string `json:"name" validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

// SaleItemRequest is one line of a sale.
type SaleItemRequest struct {
	Name      string  `json:"name" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// RecordSaleRequest creates a sale against an open day.
type RecordSaleRequest struct {
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer"`
	Items         []SaleItemRequest `json:"items" validate:"dive"`
	Total         float64           `json:"total" validate:"required,gt=0"`
	AmountPaid    float64           `json:"amount_paid" validate:"gte=0"`
	AmountDebt    float64           `json:"amount_debt" validate:"gte=0"`
	ClientID      string            `json:"client_id,omitempty"`
}

// RecordExpenseRequest appends a manual expense.
type RecordExpenseRequest struct {
	Description       string  `json:"description" validate:"required"`
	Amount            float64 `json:"amount" validate:"required"`
	IsSupplierPayment bool    `json:"is_supplier_payment"`
}

// RecordDebtPaymentRequest records a client settling prior debt.
type RecordDebtPaymentRequest struct {
	ClientID string  `json:"client_id" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
}

// CloseDayRequest carries the final adjustments merged at closing.
type CloseDayRequest struct {
	Expenses         []RecordExpenseRequest `json:"extra_expenses,omitempty" validate:"dive"`
	SupplierPayments []RecordExpenseRequest `json:"supplier_payments,omitempty" validate:"dive"`
}

// RepairRequest targets one business for an admin repair run.
type RepairRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	Repair     bool   `json:"repair,omitempty"` // reconcile only: write back recomputed totals
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// BusinessDTO represents a tenant.
type BusinessDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timezone  string `json:"timezone"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ExpenseDTO is one embedded expense row.
type ExpenseDTO struct {
	Description       string  `json:"description"`
	Amount            float64 `json:"amount"`
	IsSupplierPayment bool    `json:"is_supplier_payment"`
}

// LedgerDayDTO is the day read model for the dashboard.
type LedgerDayDTO struct {
	ID         string       `json:"id"`
	BusinessID string       `json:"business_id"`
	DayStart   string       `json:"day_start"`
	DayEnd     string       `json:"day_end"`
	Status     string       `json:"status"`
	TotalSales float64      `json:"total_sales"`
	Expenses   []ExpenseDTO `json:"extra_expenses"`
	ClosedAt   string       `json:"closed_at,omitempty"`
	ClosedBy   string       `json:"closed_by,omitempty"`
}

// LineItemDTO is one normalized activity row. Kind discriminates sales from
// debt collections; locked rows must not be edited through the sale paths.
type LineItemDTO struct {
	Kind          string            `json:"kind"`
	ID            string            `json:"id"`
	At            string            `json:"at"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Amount        float64           `json:"amount"`
	Items         []SaleItemRequest `json:"items,omitempty"`
	ClientID      string            `json:"client_id,omitempty"`
	Locked        bool              `json:"locked,omitempty"`
}

// DayDetailDTO bundles the day with its aggregation.
type DayDetailDTO struct {
	Day       LedgerDayDTO  `json:"day"`
	LineItems []LineItemDTO `json:"line_items"`

	// ComputedTotal is the aggregation engine's figure; it should match
	// day.total_sales.
	ComputedTotal float64 `json:"computed_total"`
}

// SaleDTO represents a stored sale.
type SaleDTO struct {
	ID            string  `json:"id"`
	LedgerDayID   string  `json:"ledger_day_id"`
	ClientID      string  `json:"client_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	PaymentMethod string  `json:"payment_method"`
	Total         float64 `json:"total"`
	AmountPaid    float64 `json:"amount_paid"`
	AmountDebt    float64 `json:"amount_debt"`
	Reverted      bool    `json:"reverted"`
}

// DebtPaymentDTO represents a stored debt collection.
type DebtPaymentDTO struct {
	ID          string  `json:"id"`
	LedgerDayID string  `json:"ledger_day_id"`
	ClientID    string  `json:"client_id"`
	Amount      float64 `json:"amount"`
	At          string  `json:"at"`
}

// RepairResultDTO summarizes a bounds-repair run.
type RepairResultDTO struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
}

// DriftDTO is one diverging day found by reconciliation.
type DriftDTO struct {
	DayID    string  `json:"day_id"`
	Stored   float64 `json:"stored"`
	Computed float64 `json:"computed"`
}

// ReconcileResultDTO summarizes a reconciliation run.
type ReconcileResultDTO struct {
	Scanned  int        `json:"scanned"`
	Diverged []DriftDTO `json:"diverged"`
	Repaired int        `json:"repaired"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

func toBusinessDTO(b ledger.Business) BusinessDTO {
	return BusinessDTO{
		ID:        string(b.ID),
		Name:      b.Name,
		Timezone:  b.Timezone,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

func toDayDTO(d ledger.LedgerDay) LedgerDayDTO {
	total, _ := d.TotalSales.Float64()
	dto := LedgerDayDTO{
		ID:         string(d.ID),
		BusinessID: string(d.BusinessID),
		DayStart:   d.DayStart.UTC().Format(rfc3339Milli),
		DayEnd:     d.DayEnd.UTC().Format(rfc3339Milli),
		Status:     string(d.Status),
		TotalSales: total,
		Expenses:   make([]ExpenseDTO, 0, len(d.Expenses)),
		ClosedBy:   d.ClosedBy,
	}
	for _, e := range d.Expenses {
		amount, _ := e.Amount.Float64()
		dto.Expenses = append(dto.Expenses, ExpenseDTO{
			Description:       e.Description,
			Amount:            amount,
			IsSupplierPayment: e.IsSupplierPayment,
		})
	}
	if d.ClosedAt != nil {
		dto.ClosedAt = d.ClosedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toLineItemDTOs(items []ledger.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for i, it := range items {
		amount, _ := it.Amount.Float64()
		dto := LineItemDTO{
			Kind:          string(it.Kind),
			ID:            it.ID,
			At:            it.At.UTC().Format(rfc3339Milli),
			PaymentMethod: string(it.PaymentMethod),
			Amount:        amount,
			ClientID:      string(it.ClientID),
			Locked:        it.Locked,
		}
		for _, si := range it.Items {
			price, _ := si.UnitPrice.Float64()
			dto.Items = append(dto.Items, SaleItemRequest{Name: si.Name, Quantity: si.Quantity, UnitPrice: price})
		}
		out[i] = dto
	}
	return out
}

func toSaleDTO(s ledger.Sale) SaleDTO {
	total, _ := s.Total.Float64()
	paid, _ := s.AmountPaid.Float64()
	debt, _ := s.AmountDebt.Float64()
	return SaleDTO{
		ID:            string(s.ID),
		LedgerDayID:   string(s.LedgerDayID),
		ClientID:      string(s.ClientID),
		CreatedAt:     s.CreatedAt.UTC().Format(rfc3339Milli),
		PaymentMethod: string(s.PaymentMethod),
		Total:         total,
		AmountPaid:    paid,
		AmountDebt:    debt,
		Reverted:      s.Reverted,
	}
}

func toDebtPaymentDTO(p ledger.DebtPayment) DebtPaymentDTO {
	amount, _ := p.Amount.Float64()
	return DebtPaymentDTO{
		ID:          string(p.ID),
		LedgerDayID: string(p.LedgerDayID),
		ClientID:    string(p.ClientID),
		Amount:      amount,
		At:          p.At.UTC().Format(rfc3339Milli),
	}
}

func toItems(items []SaleItemRequest) []ledger.SaleItem {
	out := make([]ledger.SaleItem, len(items))
	for i, it := range items {
		out[i] = ledger.SaleItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: decimal.NewFromFloat(it.UnitPrice),
		}
	}
	return out
}

func toExpense(r RecordExpenseRequest) ledger.Expense {
	return ledger.Expense{
		Description:       r.Description,
		Amount:            decimal.NewFromFloat(r.Amount),
		IsSupplierPayment: r.IsSupplierPayment,
	}
}
