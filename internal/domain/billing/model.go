package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/pkg/money"
)

var (
	// ErrNoBill is returned by operations that need a persisted bill when the
	// session has none yet.
	ErrNoBill = errors.New("no bill exists for this encounter")

	// ErrNoItems is returned when saving a bill without any line items.
	ErrNoItems = errors.New("bill has no items")

	// ErrItemNotFound is returned when a mutation targets an unknown line item.
	ErrItemNotFound = errors.New("bill item not found")

	// ErrEmptyPackage is returned when adding a package with no component
	// procedures.
	ErrEmptyPackage = errors.New("package has no procedures")
)

// ValidPaymentModes enumerates the accepted payment modes.
var ValidPaymentModes = map[string]bool{
	"cash": true, "card": true, "upi": true, "insurance": true, "other": true,
}

// Bill maps to the bill table. Monetary fields are NUMERIC columns.
type Bill struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	EncounterID     uuid.UUID       `db:"encounter_id" json:"encounter_id"`
	BillNumber      string          `db:"bill_number" json:"bill_number"`
	PatientName     string          `db:"patient_name" json:"patient_name"`
	Status          string          `db:"status" json:"status"`
	Discount        decimal.Decimal `db:"discount" json:"discount"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	ReceivedAmount  decimal.Decimal `db:"received_amount" json:"received_amount"`
	PaymentMode     string          `db:"payment_mode" json:"payment_mode"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// BillItem maps to the bill_item table. SystemCalculatedPrice is the catalog
// price snapshotted when the line was added and never changes afterwards;
// UnitPrice is what the cashier actually charges. IsPriceOverridden and
// TotalPrice are derived and kept current by Recompute.
type BillItem struct {
	ID                    uuid.UUID       `db:"id" json:"id"`
	BillID                uuid.UUID       `db:"bill_id" json:"bill_id"`
	Kind                  string          `db:"kind" json:"kind"`
	RefID                 *uuid.UUID      `db:"ref_id" json:"ref_id,omitempty"`
	Name                  string          `db:"name" json:"name"`
	Quantity              int             `db:"quantity" json:"quantity"`
	SystemCalculatedPrice decimal.Decimal `db:"system_calculated_price" json:"system_calculated_price"`
	UnitPrice             decimal.Decimal `db:"unit_price" json:"unit_price"`
	IsPriceOverridden     bool            `db:"is_price_overridden" json:"is_price_overridden"`
	TotalPrice            string          `db:"total_price" json:"total_price"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
}

// Recompute refreshes the derived fields from quantity and unit price.
// TotalPrice is rendered with exactly two decimal places.
func (it *BillItem) Recompute() {
	qty := decimal.NewFromInt(int64(it.Quantity))
	it.TotalPrice = money.Format(money.Round2(it.UnitPrice.Mul(qty)))
	it.IsPriceOverridden = !it.UnitPrice.Equal(it.SystemCalculatedPrice)
}

// Total returns the line total as a decimal.
func (it *BillItem) Total() decimal.Decimal {
	return money.Round2(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
}

// Summary is the computed money view of a bill: per-line totals rolled up,
// the linked discount pair, and payment state.
type Summary struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ReceivedAmount  decimal.Decimal `json:"received_amount"`
	BalanceAmount   decimal.Decimal `json:"balance_amount"`
	PaymentMode     string          `json:"payment_mode"`
	ItemCount       int             `json:"item_count"`
}

// ComputeSummary rolls up line totals and applies the discount. The payable
// total never goes below zero even when the discount exceeds the subtotal.
func ComputeSummary(items []*BillItem, discount, received decimal.Decimal, paymentMode string) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total())
	}
	subtotal = money.Round2(subtotal)
	discount = money.Round2(discount)

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Summary{
		Subtotal:        subtotal,
		Discount:        discount,
		DiscountPercent: money.PercentFrom(discount, subtotal),
		TotalAmount:     total,
		ReceivedAmount:  money.Round2(received),
		BalanceAmount:   money.Round2(total.Sub(received)),
		PaymentMode:     paymentMode,
		ItemCount:       len(items),
	}
}
