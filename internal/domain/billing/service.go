package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/encounter"
	"github.com/hms/hms/internal/domain/requisition"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/money"
)

type Service struct {
	bills        Repository
	requisitions requisition.Repository
	encounters   encounter.Repository
	pool         *pgxpool.Pool
}

func NewService(bills Repository, reqs requisition.Repository, encs encounter.Repository, pool *pgxpool.Pool) *Service {
	return &Service{bills: bills, requisitions: reqs, encounters: encs, pool: pool}
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, s.pool, fn)
}

var validStatuses = map[string]bool{
	"open": true, "paid": true, "cancelled": true,
}

// BillUpdate is a partial update of a bill. Nil fields are left untouched.
// Payment fields are written separately from metadata so a failed metadata
// write never clobbers payment state.
type BillUpdate struct {
	PatientName     *string          `json:"patient_name,omitempty"`
	Status          *string          `json:"status,omitempty"`
	Discount        *decimal.Decimal `json:"discount,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	ReceivedAmount  *decimal.Decimal `json:"received_amount,omitempty"`
	PaymentMode     *string          `json:"payment_mode,omitempty"`
}

func (u *BillUpdate) hasMetadata() bool {
	return u.PatientName != nil || u.Status != nil || u.Discount != nil ||
		u.DiscountPercent != nil || u.Notes != nil
}

func (u *BillUpdate) hasPayment() bool {
	return u.ReceivedAmount != nil || u.PaymentMode != nil
}

func (s *Service) CreateBill(ctx context.Context, b *Bill) error {
	if b.EncounterID == uuid.Nil {
		return fmt.Errorf("encounter_id is required")
	}
	if b.Status == "" {
		b.Status = "open"
	}
	if !validStatuses[b.Status] {
		return fmt.Errorf("invalid bill status: %s", b.Status)
	}
	if b.PaymentMode == "" {
		b.PaymentMode = "cash"
	}
	if !ValidPaymentModes[b.PaymentMode] {
		return fmt.Errorf("invalid payment mode: %s", b.PaymentMode)
	}
	if b.Discount.IsNegative() || b.ReceivedAmount.IsNegative() {
		return fmt.Errorf("amounts cannot be negative")
	}
	if b.BillNumber == "" {
		b.BillNumber = newBillNumber()
	}
	b.Discount = money.Round2(b.Discount)
	b.DiscountPercent = money.Round2(b.DiscountPercent)
	b.ReceivedAmount = money.Round2(b.ReceivedAmount)
	return s.bills.Create(ctx, b)
}

func newBillNumber() string {
	id := uuid.New()
	return fmt.Sprintf("BILL-%s-%s", time.Now().Format("20060102"), id.String()[:8])
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) GetBillByEncounter(ctx context.Context, encounterID uuid.UUID) (*Bill, error) {
	return s.bills.GetByEncounter(ctx, encounterID)
}

func (s *Service) ListBills(ctx context.Context, limit, offset int) ([]*Bill, int, error) {
	return s.bills.List(ctx, limit, offset)
}

// UpdateBill applies a partial update. Metadata fields and payment fields are
// written in separate statements, payment last.
func (s *Service) UpdateBill(ctx context.Context, id uuid.UUID, upd BillUpdate) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.PatientName != nil {
		b.PatientName = *upd.PatientName
	}
	if upd.Status != nil {
		if !validStatuses[*upd.Status] {
			return nil, fmt.Errorf("invalid bill status: %s", *upd.Status)
		}
		b.Status = *upd.Status
	}
	if upd.Discount != nil {
		if upd.Discount.IsNegative() {
			return nil, fmt.Errorf("discount cannot be negative")
		}
		b.Discount = money.Round2(*upd.Discount)
	}
	if upd.DiscountPercent != nil {
		b.DiscountPercent = money.Round2(*upd.DiscountPercent)
	}
	if upd.Notes != nil {
		b.Notes = upd.Notes
	}
	if upd.ReceivedAmount != nil {
		if upd.ReceivedAmount.IsNegative() {
			return nil, fmt.Errorf("received amount cannot be negative")
		}
		b.ReceivedAmount = money.Round2(*upd.ReceivedAmount)
	}
	if upd.PaymentMode != nil {
		if !ValidPaymentModes[*upd.PaymentMode] {
			return nil, fmt.Errorf("invalid payment mode: %s", *upd.PaymentMode)
		}
		b.PaymentMode = *upd.PaymentMode
	}

	if upd.hasMetadata() {
		if err := s.bills.Update(ctx, b); err != nil {
			return nil, err
		}
	}
	if upd.hasPayment() {
		if err := s.bills.UpdatePayment(ctx, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// -- Items --

func (s *Service) CreateBillItem(ctx context.Context, item *BillItem) error {
	if item.BillID == uuid.Nil {
		return fmt.Errorf("bill_id is required")
	}
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if item.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if item.UnitPrice.IsNegative() || item.SystemCalculatedPrice.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	return s.bills.CreateItem(ctx, item)
}

// UpdateBillItem changes quantity and unit price. The system calculated
// price snapshot is never touched.
func (s *Service) UpdateBillItem(ctx context.Context, id uuid.UUID, quantity int, unitPrice decimal.Decimal) (*BillItem, error) {
	item, err := s.bills.GetItem(ctx, id)
	if err != nil {
		return nil, ErrItemNotFound
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}
	item.Quantity = quantity
	item.UnitPrice = unitPrice
	if err := s.bills.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteBillItem removes a line item and releases any requisitions that were
// marked billed against it.
func (s *Service) DeleteBillItem(ctx context.Context, id uuid.UUID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.requisitions.MarkUnbilled(ctx, id); err != nil {
			return err
		}
		return s.bills.DeleteItem(ctx, id)
	})
}

func (s *Service) GetBillItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	return s.bills.GetItems(ctx, billID)
}

// DeleteBill removes a bill with all its line items, releasing every
// requisition billed against them.
func (s *Service) DeleteBill(ctx context.Context, id uuid.UUID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		items, err := s.bills.GetItems(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := s.requisitions.MarkUnbilled(ctx, it.ID); err != nil {
				return err
			}
		}
		if err := s.bills.DeleteItems(ctx, id); err != nil {
			return err
		}
		return s.bills.Delete(ctx, id)
	})
}

// ReplaceItems deletes every line item on the bill and recreates the given
// set in one transaction. Requisition links to the old items are released
// first; recreated lines that originate from requisitions re-link them.
func (s *Service) ReplaceItems(ctx context.Context, billID uuid.UUID, items []*BillItem) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		old, err := s.bills.GetItems(ctx, billID)
		if err != nil {
			return err
		}
		for _, it := range old {
			if err := s.requisitions.MarkUnbilled(ctx, it.ID); err != nil {
				return err
			}
		}
		if err := s.bills.DeleteItems(ctx, billID); err != nil {
			return err
		}
		for _, it := range items {
			it.BillID = billID
			if err := s.bills.CreateItem(ctx, it); err != nil {
				return err
			}
			if it.Kind == "requisition" && it.RefID != nil {
				if err := s.requisitions.MarkBilled(ctx, *it.RefID, it.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SyncResult reports what a clinical charge sync did.
type SyncResult struct {
	BillID     uuid.UUID `json:"bill_id"`
	ItemsAdded int       `json:"items_added"`
}

// SyncClinicalCharges pulls the encounter's unbilled requisitions onto its
// bill. A missing bill is created first, outside the item transaction, so a
// later sync failure still leaves the bill in place. The item copy and the
// billed markers commit atomically.
func (s *Service) SyncClinicalCharges(ctx context.Context, encounterID uuid.UUID) (*SyncResult, error) {
	bill, err := s.bills.GetByEncounter(ctx, encounterID)
	switch {
	case errors.Is(err, ErrNoBill):
		enc, encErr := s.encounters.GetByID(ctx, encounterID)
		if encErr != nil {
			return nil, fmt.Errorf("encounter not found: %w", encErr)
		}
		bill = &Bill{EncounterID: encounterID, PatientName: enc.PatientName}
		if err := s.CreateBill(ctx, bill); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	added := 0
	err = s.inTx(ctx, func(ctx context.Context) error {
		unbilled, err := s.requisitions.ListUnbilled(ctx, encounterID)
		if err != nil {
			return err
		}
		for _, req := range unbilled {
			refID := req.ID
			item := &BillItem{
				BillID:                bill.ID,
				Kind:                  "requisition",
				RefID:                 &refID,
				Name:                  req.Name,
				Quantity:              1,
				SystemCalculatedPrice: req.Price,
				UnitPrice:             req.Price,
			}
			if err := s.bills.CreateItem(ctx, item); err != nil {
				return err
			}
			if err := s.requisitions.MarkBilled(ctx, req.ID, item.ID); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &SyncResult{BillID: bill.ID, ItemsAdded: added}, nil
}
