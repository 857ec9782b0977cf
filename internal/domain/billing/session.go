package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/requisition"
	"github.com/hms/hms/pkg/money"
)

// Session reconciles an in-memory working copy of one encounter's bill with
// the backend. A session starts in draft mode when the encounter has no bill
// yet; the first Sync or Save persists the bill and the session stays in
// persisted mode from then on.
//
// In draft mode mutations are local only. In persisted mode every mutation
// is applied optimistically and rolled back if the backend write fails.
// All operations on one session are serialized by its mutex. Failed backend
// calls are never retried.
type Session struct {
	mu sync.Mutex

	backend     Backend
	encounterID uuid.UUID
	patientName string

	bill  *Bill // nil while drafting
	items []*BillItem

	discount decimal.Decimal
	received decimal.Decimal
	payMode  string
	notes    *string
}

// NewSession starts a draft session for an encounter that has no bill yet.
func NewSession(backend Backend, encounterID uuid.UUID, patientName string) *Session {
	return &Session{
		backend:     backend,
		encounterID: encounterID,
		patientName: patientName,
		payMode:     "cash",
	}
}

// LoadSession opens a session for an encounter, adopting its persisted bill
// and items when one exists and starting a fresh draft when the encounter has
// none. Any other lookup failure is returned, not mistaken for a draft.
func LoadSession(ctx context.Context, backend Backend, encounterID uuid.UUID, patientName string) (*Session, error) {
	s := NewSession(backend, encounterID, patientName)
	bill, err := backend.GetBill(ctx, encounterID)
	if errors.Is(err, ErrNoBill) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	items, err := backend.GetBillItems(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	s.adopt(bill, items)
	return s, nil
}

func (s *Session) adopt(bill *Bill, items []*BillItem) {
	s.bill = bill
	s.patientName = bill.PatientName
	s.discount = bill.Discount
	s.received = bill.ReceivedAmount
	s.payMode = bill.PaymentMode
	s.notes = bill.Notes
	s.items = s.items[:0]
	for _, it := range items {
		cp := *it
		cp.Recompute()
		s.items = append(s.items, &cp)
	}
}

// IsDraft reports whether the session has no persisted bill yet.
func (s *Session) IsDraft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bill == nil
}

// BillID returns the persisted bill's id, or uuid.Nil while drafting.
func (s *Session) BillID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bill == nil {
		return uuid.Nil
	}
	return s.bill.ID
}

// Items returns a copy of the current line items.
func (s *Session) Items() []*BillItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*BillItem, len(s.items))
	for i, it := range s.items {
		cp := *it
		out[i] = &cp
	}
	return out
}

// Summary computes the money view of the working copy.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeSummary(s.items, s.discount, s.received, s.payMode)
}

// AddItem appends one line. The unit price defaults to the system calculated
// price when unset. Persisted sessions write through to the backend and drop
// the line again if the write fails.
func (s *Session) AddItem(ctx context.Context, it *BillItem) (*BillItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.Name == "" {
		return nil, fmt.Errorf("item name is required")
	}
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	if it.UnitPrice.IsZero() && !it.SystemCalculatedPrice.IsZero() {
		it.UnitPrice = it.SystemCalculatedPrice
	}
	if it.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}

	cp := *it
	cp.ID = uuid.New()
	cp.Recompute()

	if s.bill == nil {
		s.items = append(s.items, &cp)
		return &cp, nil
	}

	cp.BillID = s.bill.ID
	s.items = append(s.items, &cp)

	req := cp
	srv, err := s.backend.CreateBillItem(ctx, &req)
	if err != nil {
		s.items = s.items[:len(s.items)-1]
		return nil, err
	}
	// The backend assigns the authoritative id; the optimistic copy's
	// temporary id must not survive.
	created := *srv
	created.Recompute()
	s.items[len(s.items)-1] = &created
	return &created, nil
}

// AddPackage expands a package into one line per component procedure and
// adds them as a single batch. A package with no components is rejected. In
// persisted mode the whole batch stands or falls together: if any backend
// create fails, lines created so far are deleted again and the working copy
// reverts.
func (s *Session) AddPackage(ctx context.Context, packageID uuid.UUID) ([]*BillItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg, err := s.backend.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if len(pkg.Procedures) == 0 {
		return nil, ErrEmptyPackage
	}

	batch := make([]*BillItem, 0, len(pkg.Procedures))
	for _, pp := range pkg.Procedures {
		procID := pp.ProcedureID
		it := &BillItem{
			ID:                    uuid.New(),
			Kind:                  "procedure",
			RefID:                 &procID,
			Name:                  pp.Name,
			Quantity:              1,
			SystemCalculatedPrice: pp.Price,
			UnitPrice:             pp.Price,
		}
		it.Recompute()
		batch = append(batch, it)
	}

	if s.bill == nil {
		s.items = append(s.items, batch...)
		return batch, nil
	}

	prevLen := len(s.items)
	s.items = append(s.items, batch...)

	var created []*BillItem
	for i, it := range batch {
		it.BillID = s.bill.ID
		req := *it
		srv, err := s.backend.CreateBillItem(ctx, &req)
		if err != nil {
			// Roll back with the server-assigned ids, not the optimistic
			// ones. Best effort: the batch is already failed, a delete
			// error cannot improve the outcome.
			for _, c := range created {
				_ = s.backend.DeleteBillItem(ctx, c.ID)
			}
			s.items = s.items[:prevLen]
			return nil, fmt.Errorf("adding package item %d of %d: %w", i+1, len(batch), err)
		}
		cp := *srv
		cp.Recompute()
		created = append(created, &cp)
		s.items[prevLen+i] = &cp
	}
	return created, nil
}

// UpdateItemQuantity changes a line's quantity, rolling back on a failed
// backend write.
func (s *Session) UpdateItemQuantity(ctx context.Context, id uuid.UUID, quantity int) (*BillItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}
	return s.updateItem(ctx, id, func(it *BillItem) {
		it.Quantity = quantity
	})
}

// UpdateItemUnitPrice overrides a line's unit price. The system calculated
// price snapshot is untouched, which is what flags the override.
func (s *Session) UpdateItemUnitPrice(ctx context.Context, id uuid.UUID, unitPrice decimal.Decimal) (*BillItem, error) {
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}
	return s.updateItem(ctx, id, func(it *BillItem) {
		it.UnitPrice = unitPrice
	})
}

func (s *Session) updateItem(ctx context.Context, id uuid.UUID, mutate func(*BillItem)) (*BillItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrItemNotFound
	}

	prev := *s.items[idx]
	next := prev
	mutate(&next)
	next.Recompute()
	s.items[idx] = &next

	if s.bill == nil {
		return &next, nil
	}

	if _, err := s.backend.UpdateBillItem(ctx, &next); err != nil {
		s.items[idx] = &prev
		return nil, err
	}
	return &next, nil
}

// RemoveItem drops a line, restoring it in place if the backend delete fails.
func (s *Session) RemoveItem(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrItemNotFound
	}

	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	if s.bill == nil {
		return nil
	}

	if err := s.backend.DeleteBillItem(ctx, id); err != nil {
		s.items = append(s.items, nil)
		copy(s.items[idx+1:], s.items[idx:])
		s.items[idx] = removed
		return err
	}
	return nil
}

func (s *Session) indexOf(id uuid.UUID) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// SetDiscount sets the discount as an absolute amount. The percent shown in
// the summary is derived from it.
func (s *Session) SetDiscount(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("discount cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discount = money.Round2(d)
	return nil
}

// SetDiscountPercent sets the discount as a percentage of the current
// subtotal. The absolute amount is computed once, here; it does not track
// later item changes.
func (s *Session) SetDiscountPercent(pct decimal.Decimal) error {
	if pct.IsNegative() {
		return fmt.Errorf("discount percent cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	subtotal := decimal.Zero
	for _, it := range s.items {
		subtotal = subtotal.Add(it.Total())
	}
	s.discount = money.PercentOf(subtotal, money.Round2(pct))
	return nil
}

func (s *Session) SetReceivedAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("received amount cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = money.Round2(amount)
	return nil
}

func (s *Session) SetPaymentMode(mode string) error {
	if !ValidPaymentModes[mode] {
		return fmt.Errorf("invalid payment mode: %s", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payMode = mode
	return nil
}

// SetPatientName overrides the patient name written on the next Save.
func (s *Session) SetPatientName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patientName = name
}

func (s *Session) SetNotes(notes *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = notes
}

// SetLocalState replaces the whole working copy without touching the
// backend. It carries a client-submitted bill state into the session before
// a Save.
func (s *Session) SetLocalState(items []*BillItem, discount, received decimal.Decimal, paymentMode string, notes *string) error {
	if !ValidPaymentModes[paymentMode] {
		return fmt.Errorf("invalid payment mode: %s", paymentMode)
	}
	if discount.IsNegative() || received.IsNegative() {
		return fmt.Errorf("amounts cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
	for _, it := range items {
		cp := *it
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		if cp.Quantity < 1 {
			cp.Quantity = 1
		}
		cp.Recompute()
		s.items = append(s.items, &cp)
	}
	s.discount = money.Round2(discount)
	s.received = money.Round2(received)
	s.payMode = paymentMode
	s.notes = notes
	return nil
}

// PendingCharges reports the encounter's clinical charges not yet on any
// bill, for showing what a Sync would pull in.
func (s *Session) PendingCharges(ctx context.Context) (*requisition.UnbilledSummary, error) {
	return s.backend.GetUnbilledRequisitions(ctx, s.encounterID)
}

// Sync pulls the encounter's unbilled clinical charges onto the bill. A
// draft session persists its bill first; that transition sticks even when
// the sync itself fails. After a successful sync the whole working copy is
// reloaded from the backend.
func (s *Session) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bill == nil {
		if err := s.createBill(ctx); err != nil {
			return nil, err
		}
	}

	res, err := s.backend.SyncClinicalCharges(ctx, s.encounterID)
	if err != nil {
		return nil, err
	}

	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// Save persists the full working copy. A draft session creates its bill
// first. Items are written with the delete-all-recreate contract: metadata
// first, then every existing server line is deleted and the working copy
// recreated, and payment fields are written last.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return ErrNoItems
	}

	if s.bill == nil {
		if err := s.createBill(ctx); err != nil {
			return err
		}
	}

	summary := ComputeSummary(s.items, s.discount, s.received, s.payMode)

	status := s.bill.Status
	if status == "" {
		status = "open"
	}
	upd := BillUpdate{
		PatientName:     &s.patientName,
		Status:          &status,
		Discount:        &summary.Discount,
		DiscountPercent: &summary.DiscountPercent,
		Notes:           s.notes,
	}
	if _, err := s.backend.UpdateBill(ctx, s.bill.ID, upd); err != nil {
		return err
	}

	serverItems, err := s.backend.GetBillItems(ctx, s.bill.ID)
	if err != nil {
		return err
	}
	for _, it := range serverItems {
		if err := s.backend.DeleteBillItem(ctx, it.ID); err != nil {
			return err
		}
	}
	for _, it := range s.items {
		cp := *it
		cp.BillID = s.bill.ID
		if _, err := s.backend.CreateBillItem(ctx, &cp); err != nil {
			return err
		}
	}

	payUpd := BillUpdate{
		ReceivedAmount: &summary.ReceivedAmount,
		PaymentMode:    &summary.PaymentMode,
	}
	if _, err := s.backend.UpdateBill(ctx, s.bill.ID, payUpd); err != nil {
		return err
	}

	return s.reload(ctx)
}

func (s *Session) createBill(ctx context.Context) error {
	bill := &Bill{
		EncounterID: s.encounterID,
		PatientName: s.patientName,
		Status:      "open",
		PaymentMode: s.payMode,
	}
	created, err := s.backend.CreateBill(ctx, bill)
	if err != nil {
		return err
	}
	s.bill = created
	return nil
}

func (s *Session) reload(ctx context.Context) error {
	bill, err := s.backend.GetBill(ctx, s.encounterID)
	if err != nil {
		return err
	}
	items, err := s.backend.GetBillItems(ctx, bill.ID)
	if err != nil {
		return err
	}
	s.adopt(bill, items)
	return nil
}
