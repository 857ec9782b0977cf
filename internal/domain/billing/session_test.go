package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/catalog"
	"github.com/hms/hms/internal/domain/requisition"
)

// fakeBackend is an in-memory Backend with per-call failure injection and a
// call log for asserting write ordering.
type fakeBackend struct {
	mu sync.Mutex

	bills    map[uuid.UUID]*Bill       // keyed by encounter id
	items    map[uuid.UUID][]*BillItem // keyed by bill id
	packages map[uuid.UUID]*catalog.PackageDetail
	unbilled map[uuid.UUID][]*requisition.Requisition

	failCreateBill   bool
	failCreateItemAt int // fail the Nth CreateBillItem call (1-based), 0 = never
	failUpdateItem   bool
	failDeleteItem   bool
	failSync         bool
	failGetBill      bool
	failUnbilled     bool

	createItemCalls int
	updateItemCalls int
	deleteItemCalls int
	callLog         []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bills:    make(map[uuid.UUID]*Bill),
		items:    make(map[uuid.UUID][]*BillItem),
		packages: make(map[uuid.UUID]*catalog.PackageDetail),
		unbilled: make(map[uuid.UUID][]*requisition.Requisition),
	}
}

func (f *fakeBackend) log(op string) {
	f.callLog = append(f.callLog, op)
}

func (f *fakeBackend) CreateBill(_ context.Context, b *Bill) (*Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("CreateBill")
	if f.failCreateBill {
		return nil, fmt.Errorf("backend: create bill failed")
	}
	cp := *b
	cp.ID = uuid.New()
	if cp.Status == "" {
		cp.Status = "open"
	}
	f.bills[cp.EncounterID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeBackend) UpdateBill(_ context.Context, id uuid.UUID, upd BillUpdate) (*Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if upd.hasPayment() {
		f.log("UpdateBill(payment)")
	} else {
		f.log("UpdateBill(metadata)")
	}
	for _, b := range f.bills {
		if b.ID != id {
			continue
		}
		if upd.PatientName != nil {
			b.PatientName = *upd.PatientName
		}
		if upd.Status != nil {
			b.Status = *upd.Status
		}
		if upd.Discount != nil {
			b.Discount = *upd.Discount
		}
		if upd.DiscountPercent != nil {
			b.DiscountPercent = *upd.DiscountPercent
		}
		if upd.Notes != nil {
			b.Notes = upd.Notes
		}
		if upd.ReceivedAmount != nil {
			b.ReceivedAmount = *upd.ReceivedAmount
		}
		if upd.PaymentMode != nil {
			b.PaymentMode = *upd.PaymentMode
		}
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("bill not found")
}

func (f *fakeBackend) GetBill(_ context.Context, encounterID uuid.UUID) (*Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGetBill {
		return nil, fmt.Errorf("backend: get bill failed")
	}
	b, ok := f.bills[encounterID]
	if !ok {
		return nil, ErrNoBill
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBackend) CreateBillItem(_ context.Context, item *BillItem) (*BillItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createItemCalls++
	f.log("CreateItem")
	if f.failCreateItemAt > 0 && f.createItemCalls == f.failCreateItemAt {
		return nil, fmt.Errorf("backend: create item failed")
	}
	cp := *item
	cp.ID = uuid.New()
	cp.Recompute()
	f.items[cp.BillID] = append(f.items[cp.BillID], &cp)
	out := cp
	return &out, nil
}

func (f *fakeBackend) UpdateBillItem(_ context.Context, item *BillItem) (*BillItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateItemCalls++
	f.log("UpdateItem")
	if f.failUpdateItem {
		return nil, fmt.Errorf("backend: update item failed")
	}
	for _, list := range f.items {
		for i, it := range list {
			if it.ID == item.ID {
				cp := *item
				cp.Recompute()
				list[i] = &cp
				out := cp
				return &out, nil
			}
		}
	}
	return nil, fmt.Errorf("item not found")
}

func (f *fakeBackend) DeleteBillItem(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteItemCalls++
	f.log("DeleteItem")
	if f.failDeleteItem {
		return fmt.Errorf("backend: delete item failed")
	}
	for billID, list := range f.items {
		for i, it := range list {
			if it.ID == id {
				f.items[billID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("item not found")
}

func (f *fakeBackend) GetBillItems(_ context.Context, billID uuid.UUID) ([]*BillItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*BillItem
	for _, it := range f.items[billID] {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBackend) SyncClinicalCharges(_ context.Context, encounterID uuid.UUID) (*SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("Sync")
	if f.failSync {
		return nil, fmt.Errorf("backend: sync failed")
	}
	bill, ok := f.bills[encounterID]
	if !ok {
		return nil, fmt.Errorf("bill not found")
	}
	added := 0
	for _, req := range f.unbilled[encounterID] {
		refID := req.ID
		it := &BillItem{
			ID:                    uuid.New(),
			BillID:                bill.ID,
			Kind:                  "requisition",
			RefID:                 &refID,
			Name:                  req.Name,
			Quantity:              1,
			SystemCalculatedPrice: req.Price,
			UnitPrice:             req.Price,
		}
		it.Recompute()
		f.items[bill.ID] = append(f.items[bill.ID], it)
		added++
	}
	f.unbilled[encounterID] = nil
	return &SyncResult{BillID: bill.ID, ItemsAdded: added}, nil
}

func (f *fakeBackend) GetUnbilledRequisitions(_ context.Context, encounterID uuid.UUID) (*requisition.UnbilledSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUnbilled {
		return nil, fmt.Errorf("backend: unbilled lookup failed")
	}
	reqs := f.unbilled[encounterID]
	total := decimal.Zero
	for _, r := range reqs {
		total = total.Add(r.Price)
	}
	return &requisition.UnbilledSummary{
		Requisitions:       reqs,
		TotalUnbilledItems: len(reqs),
		EstimatedAmount:    total,
	}, nil
}

func (f *fakeBackend) GetPackage(_ context.Context, id uuid.UUID) (*catalog.PackageDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pkg, ok := f.packages[id]
	if !ok {
		return nil, fmt.Errorf("package not found")
	}
	return pkg, nil
}

func (f *fakeBackend) addPackage(name string, prices ...string) uuid.UUID {
	id := uuid.New()
	detail := &catalog.PackageDetail{Package: catalog.Package{ID: id, Name: name}}
	for i, p := range prices {
		detail.Procedures = append(detail.Procedures, &catalog.PackageProcedure{
			ID:          uuid.New(),
			PackageID:   id,
			ProcedureID: uuid.New(),
			Name:        fmt.Sprintf("%s step %d", name, i+1),
			Price:       decimal.RequireFromString(p),
		})
	}
	f.packages[id] = detail
	return id
}

func testItem(name, price string) *BillItem {
	return &BillItem{
		Name:                  name,
		Quantity:              1,
		SystemCalculatedPrice: decimal.RequireFromString(price),
		UnitPrice:             decimal.RequireFromString(price),
	}
}

// -- Loading --

func TestLoadSession_NoBillStartsDraft(t *testing.T) {
	f := newFakeBackend()
	s, err := LoadSession(context.Background(), f, uuid.New(), "Asha Rao")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.IsDraft() {
		t.Error("expected a draft session when the encounter has no bill")
	}
}

func TestLoadSession_PropagatesLookupFailure(t *testing.T) {
	f := newFakeBackend()
	f.failGetBill = true
	if _, err := LoadSession(context.Background(), f, uuid.New(), "Asha Rao"); err == nil {
		t.Error("a failed bill lookup must not silently open a draft")
	}
}

// -- Draft mode --

func TestSession_DraftMutationsAreLocal(t *testing.T) {
	f := newFakeBackend()
	s := NewSession(f, uuid.New(), "Asha Rao")

	if !s.IsDraft() {
		t.Fatal("new session must start in draft mode")
	}
	if _, err := s.AddItem(context.Background(), testItem("CBC", "350.00")); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if f.createItemCalls != 0 {
		t.Errorf("draft add must not hit the backend, got %d calls", f.createItemCalls)
	}
	if len(s.Items()) != 1 {
		t.Errorf("expected 1 local item, got %d", len(s.Items()))
	}
}

func TestSession_DraftUpdateAndRemove(t *testing.T) {
	f := newFakeBackend()
	s := NewSession(f, uuid.New(), "Asha Rao")
	ctx := context.Background()

	it, err := s.AddItem(ctx, testItem("X-Ray", "500.00"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.UpdateItemQuantity(ctx, it.ID, 3); err != nil {
		t.Fatalf("update qty: %v", err)
	}
	if got := s.Summary().Subtotal.StringFixed(2); got != "1500.00" {
		t.Errorf("expected subtotal 1500.00, got %s", got)
	}
	if err := s.RemoveItem(ctx, it.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(s.Items()) != 0 {
		t.Error("expected empty working copy after remove")
	}
	if f.updateItemCalls != 0 || f.deleteItemCalls != 0 {
		t.Error("draft mutations must not hit the backend")
	}
}

// -- Persisted mode: optimistic apply, rollback on failure --

func persistedSession(t *testing.T, f *fakeBackend) (*Session, uuid.UUID) {
	t.Helper()
	encID := uuid.New()
	s := NewSession(f, encID, "Asha Rao")
	if _, err := s.AddItem(context.Background(), testItem("Consult", "200.00")); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("initial save: %v", err)
	}
	if s.IsDraft() {
		t.Fatal("session must be persisted after save")
	}
	return s, encID
}

func TestSession_AddItem_WriteThrough(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)

	it, err := s.AddItem(context.Background(), testItem("CBC", "350.00"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	server, _ := f.GetBillItems(context.Background(), s.BillID())
	found := false
	for _, sv := range server {
		if sv.ID == it.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected added item to exist on the backend with its server id")
	}
}

func TestSession_AddItem_RollbackOnFailure(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)

	before := len(s.Items())
	f.failCreateItemAt = f.createItemCalls + 1
	if _, err := s.AddItem(context.Background(), testItem("CBC", "350.00")); err == nil {
		t.Fatal("expected add to fail")
	}
	if len(s.Items()) != before {
		t.Errorf("expected working copy rolled back to %d items, got %d", before, len(s.Items()))
	}
}

func TestSession_UpdateItem_RollbackOnFailure(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)
	it := s.Items()[0]

	f.failUpdateItem = true
	if _, err := s.UpdateItemQuantity(context.Background(), it.ID, 5); err == nil {
		t.Fatal("expected update to fail")
	}
	got := s.Items()[0]
	if got.Quantity != it.Quantity {
		t.Errorf("expected quantity rolled back to %d, got %d", it.Quantity, got.Quantity)
	}
	if f.updateItemCalls != 1 {
		t.Errorf("failed update must not be retried, got %d calls", f.updateItemCalls)
	}
}

func TestSession_UpdateUnitPrice_SetsOverride(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)
	it := s.Items()[0]

	updated, err := s.UpdateItemUnitPrice(context.Background(), it.ID, dec("180.00"))
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	if !updated.IsPriceOverridden {
		t.Error("expected override flag set")
	}
	if got := updated.SystemCalculatedPrice.StringFixed(2); got != "200.00" {
		t.Errorf("system price must stay 200.00, got %s", got)
	}
	if updated.TotalPrice != "180.00" {
		t.Errorf("expected total 180.00, got %s", updated.TotalPrice)
	}
}

func TestSession_RemoveItem_RollbackRestoresPosition(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)
	ctx := context.Background()
	if _, err := s.AddItem(ctx, testItem("CBC", "350.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddItem(ctx, testItem("X-Ray", "500.00")); err != nil {
		t.Fatalf("add: %v", err)
	}

	target := s.Items()[1]
	f.failDeleteItem = true
	if err := s.RemoveItem(ctx, target.ID); err == nil {
		t.Fatal("expected remove to fail")
	}
	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items after rollback, got %d", len(items))
	}
	if items[1].ID != target.ID {
		t.Error("expected removed item restored at its original position")
	}
}

// -- Packages --

func TestSession_AddPackage_EmptyRejected(t *testing.T) {
	f := newFakeBackend()
	pkgID := f.addPackage("Empty Bundle")
	s := NewSession(f, uuid.New(), "Asha Rao")

	if _, err := s.AddPackage(context.Background(), pkgID); err != ErrEmptyPackage {
		t.Errorf("expected ErrEmptyPackage, got %v", err)
	}
	if len(s.Items()) != 0 {
		t.Error("expected no items added")
	}
}

func TestSession_AddPackage_Draft(t *testing.T) {
	f := newFakeBackend()
	pkgID := f.addPackage("Maternity", "18000.00", "5000.00", "2000.00")
	s := NewSession(f, uuid.New(), "Asha Rao")

	batch, err := s.AddPackage(context.Background(), pkgID)
	if err != nil {
		t.Fatalf("add package: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(batch))
	}
	if got := s.Summary().Subtotal.StringFixed(2); got != "25000.00" {
		t.Errorf("expected subtotal 25000.00, got %s", got)
	}
	if f.createItemCalls != 0 {
		t.Error("draft package add must not hit the backend")
	}
}

func TestSession_AddPackage_AdoptsServerIDs(t *testing.T) {
	f := newFakeBackend()
	pkgID := f.addPackage("Maternity", "18000.00", "5000.00")
	s, _ := persistedSession(t, f)

	batch, err := s.AddPackage(context.Background(), pkgID)
	if err != nil {
		t.Fatalf("add package: %v", err)
	}

	server, _ := f.GetBillItems(context.Background(), s.BillID())
	serverIDs := make(map[uuid.UUID]bool, len(server))
	for _, it := range server {
		serverIDs[it.ID] = true
	}
	for _, it := range batch {
		if !serverIDs[it.ID] {
			t.Errorf("line %q carries id %s unknown to the backend", it.Name, it.ID)
		}
	}
	for _, it := range s.Items() {
		if !serverIDs[it.ID] {
			t.Errorf("working copy item %q holds a stale id %s", it.Name, it.ID)
		}
	}
}

func TestSession_AddPackage_BatchRollback(t *testing.T) {
	f := newFakeBackend()
	pkgID := f.addPackage("Maternity", "18000.00", "5000.00", "2000.00")
	s, _ := persistedSession(t, f)

	before := len(s.Items())
	serverBefore, _ := f.GetBillItems(context.Background(), s.BillID())

	// Fail the second create of the batch
	f.failCreateItemAt = f.createItemCalls + 2
	if _, err := s.AddPackage(context.Background(), pkgID); err == nil {
		t.Fatal("expected package add to fail")
	}

	if len(s.Items()) != before {
		t.Errorf("expected working copy rolled back to %d items, got %d", before, len(s.Items()))
	}
	serverAfter, _ := f.GetBillItems(context.Background(), s.BillID())
	if len(serverAfter) != len(serverBefore) {
		t.Errorf("expected backend items rolled back to %d, got %d", len(serverBefore), len(serverAfter))
	}
}

// -- Sync --

func TestSession_Sync_CreatesBillFirst(t *testing.T) {
	f := newFakeBackend()
	encID := uuid.New()
	f.unbilled[encID] = []*requisition.Requisition{
		{ID: uuid.New(), EncounterID: encID, Kind: "lab", Name: "CBC", Price: dec("350.00")},
	}
	s := NewSession(f, encID, "Asha Rao")

	res, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if s.IsDraft() {
		t.Error("expected session persisted after sync")
	}
	if res.ItemsAdded != 1 {
		t.Errorf("expected 1 item added, got %d", res.ItemsAdded)
	}
	items := s.Items()
	if len(items) != 1 || items[0].Name != "CBC" {
		t.Errorf("expected reloaded working copy with synced item, got %+v", items)
	}
}

func TestSession_Sync_FailureLeavesCreatedBill(t *testing.T) {
	f := newFakeBackend()
	encID := uuid.New()
	s := NewSession(f, encID, "Asha Rao")

	f.failSync = true
	if _, err := s.Sync(context.Background()); err == nil {
		t.Fatal("expected sync to fail")
	}
	if s.IsDraft() {
		t.Error("bill created before the failed sync must remain")
	}
	if _, err := f.GetBill(context.Background(), encID); err != nil {
		t.Error("expected bill to exist on the backend")
	}
}

func TestSession_Sync_NoRetry(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)

	f.failSync = true
	if _, err := s.Sync(context.Background()); err == nil {
		t.Fatal("expected sync to fail")
	}
	syncs := 0
	for _, op := range f.callLog {
		if op == "Sync" {
			syncs++
		}
	}
	if syncs != 1 {
		t.Errorf("failed sync must not be retried, got %d calls", syncs)
	}
}

// -- Save --

func TestSession_Save_RequiresItems(t *testing.T) {
	f := newFakeBackend()
	s := NewSession(f, uuid.New(), "Asha Rao")
	if err := s.Save(context.Background()); err != ErrNoItems {
		t.Errorf("expected ErrNoItems, got %v", err)
	}
}

func TestSession_Save_DraftTransitionIsOneWay(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)

	// Further saves reuse the bill instead of creating another
	if _, err := s.AddItem(context.Background(), testItem("CBC", "350.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("second save: %v", err)
	}
	creates := 0
	for _, op := range f.callLog {
		if op == "CreateBill" {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("expected exactly one CreateBill, got %d", creates)
	}
}

func TestSession_Save_PaymentFieldsLast(t *testing.T) {
	f := newFakeBackend()
	s, _ := persistedSession(t, f)

	if err := s.SetDiscount(dec("20.00")); err != nil {
		t.Fatalf("set discount: %v", err)
	}
	if err := s.SetReceivedAmount(dec("100.00")); err != nil {
		t.Fatalf("set received: %v", err)
	}
	if err := s.SetPaymentMode("upi"); err != nil {
		t.Fatalf("set mode: %v", err)
	}

	f.callLog = nil
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Expected shape: UpdateBill(metadata), DeleteItem*, CreateItem*, UpdateBill(payment)
	if len(f.callLog) < 3 {
		t.Fatalf("unexpected call log: %v", f.callLog)
	}
	if f.callLog[0] != "UpdateBill(metadata)" {
		t.Errorf("expected metadata update first, got %v", f.callLog)
	}
	if f.callLog[len(f.callLog)-1] != "UpdateBill(payment)" {
		t.Errorf("expected payment update last, got %v", f.callLog)
	}
	sawPayment := false
	for _, op := range f.callLog {
		if op == "UpdateBill(payment)" {
			sawPayment = true
		}
		if sawPayment && (op == "CreateItem" || op == "DeleteItem") {
			t.Errorf("item writes after payment update: %v", f.callLog)
		}
	}
}

func TestSession_Save_RewritesItemSet(t *testing.T) {
	f := newFakeBackend()
	s, encID := persistedSession(t, f)
	ctx := context.Background()

	if _, err := s.AddItem(ctx, testItem("CBC", "350.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	bill, err := f.GetBill(ctx, encID)
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	server, _ := f.GetBillItems(ctx, bill.ID)
	if len(server) != 2 {
		t.Fatalf("expected backend to hold exactly the working copy (2 items), got %d", len(server))
	}
}

func TestSession_Save_PersistsPaymentState(t *testing.T) {
	f := newFakeBackend()
	s, encID := persistedSession(t, f)

	if err := s.SetDiscount(dec("50.00")); err != nil {
		t.Fatalf("set discount: %v", err)
	}
	if err := s.SetReceivedAmount(dec("150.00")); err != nil {
		t.Fatalf("set received: %v", err)
	}
	if err := s.SetPaymentMode("card"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	bill, _ := f.GetBill(context.Background(), encID)
	if got := bill.Discount.StringFixed(2); got != "50.00" {
		t.Errorf("expected discount 50.00, got %s", got)
	}
	if got := bill.ReceivedAmount.StringFixed(2); got != "150.00" {
		t.Errorf("expected received 150.00, got %s", got)
	}
	if bill.PaymentMode != "card" {
		t.Errorf("expected payment mode card, got %s", bill.PaymentMode)
	}
}

// -- Discount linkage --

func TestSession_DiscountPercentDerivesAmount(t *testing.T) {
	f := newFakeBackend()
	s := NewSession(f, uuid.New(), "Asha Rao")
	ctx := context.Background()

	if _, err := s.AddItem(ctx, testItem("Package", "1000.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.SetDiscountPercent(dec("12.5")); err != nil {
		t.Fatalf("set percent: %v", err)
	}
	sum := s.Summary()
	if got := sum.Discount.StringFixed(2); got != "125.00" {
		t.Errorf("expected discount 125.00, got %s", got)
	}
	if got := sum.DiscountPercent.StringFixed(2); got != "12.50" {
		t.Errorf("expected percent 12.50, got %s", got)
	}
	if got := sum.TotalAmount.StringFixed(2); got != "875.00" {
		t.Errorf("expected total 875.00, got %s", got)
	}
}

// -- Concurrency --

func TestSession_ConcurrentMutationsSerialized(t *testing.T) {
	f := newFakeBackend()
	s := NewSession(f, uuid.New(), "Asha Rao")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, _ = s.AddItem(context.Background(), testItem(fmt.Sprintf("item-%d", i), "10.00"))
		}(i)
	}
	wg.Wait()

	if len(s.Items()) != n {
		t.Errorf("expected %d items, got %d", n, len(s.Items()))
	}
	if got := s.Summary().Subtotal.StringFixed(2); got != "500.00" {
		t.Errorf("expected subtotal 500.00, got %s", got)
	}
}
