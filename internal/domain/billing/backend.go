package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/catalog"
	"github.com/hms/hms/internal/domain/requisition"
)

// Backend is everything a reconciliation session needs from the outside
// world. The production implementation sits on the billing, catalog and
// requisition services; tests substitute failure-injecting fakes.
type Backend interface {
	CreateBill(ctx context.Context, b *Bill) (*Bill, error)
	UpdateBill(ctx context.Context, id uuid.UUID, upd BillUpdate) (*Bill, error)
	GetBill(ctx context.Context, encounterID uuid.UUID) (*Bill, error)
	CreateBillItem(ctx context.Context, item *BillItem) (*BillItem, error)
	UpdateBillItem(ctx context.Context, item *BillItem) (*BillItem, error)
	DeleteBillItem(ctx context.Context, id uuid.UUID) error
	GetBillItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error)
	SyncClinicalCharges(ctx context.Context, encounterID uuid.UUID) (*SyncResult, error)
	GetUnbilledRequisitions(ctx context.Context, encounterID uuid.UUID) (*requisition.UnbilledSummary, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*catalog.PackageDetail, error)
}

type serviceBackend struct {
	bills        *Service
	catalogs     *catalog.Service
	requisitions *requisition.Service
}

// NewServiceBackend adapts the domain services into a session Backend.
func NewServiceBackend(bills *Service, catalogs *catalog.Service, reqs *requisition.Service) Backend {
	return &serviceBackend{bills: bills, catalogs: catalogs, requisitions: reqs}
}

func (sb *serviceBackend) CreateBill(ctx context.Context, b *Bill) (*Bill, error) {
	if err := sb.bills.CreateBill(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (sb *serviceBackend) UpdateBill(ctx context.Context, id uuid.UUID, upd BillUpdate) (*Bill, error) {
	return sb.bills.UpdateBill(ctx, id, upd)
}

func (sb *serviceBackend) GetBill(ctx context.Context, encounterID uuid.UUID) (*Bill, error) {
	return sb.bills.GetBillByEncounter(ctx, encounterID)
}

func (sb *serviceBackend) CreateBillItem(ctx context.Context, item *BillItem) (*BillItem, error) {
	if err := sb.bills.CreateBillItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (sb *serviceBackend) UpdateBillItem(ctx context.Context, item *BillItem) (*BillItem, error) {
	return sb.bills.UpdateBillItem(ctx, item.ID, item.Quantity, item.UnitPrice)
}

func (sb *serviceBackend) DeleteBillItem(ctx context.Context, id uuid.UUID) error {
	return sb.bills.DeleteBillItem(ctx, id)
}

func (sb *serviceBackend) GetBillItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	return sb.bills.GetBillItems(ctx, billID)
}

func (sb *serviceBackend) SyncClinicalCharges(ctx context.Context, encounterID uuid.UUID) (*SyncResult, error) {
	return sb.bills.SyncClinicalCharges(ctx, encounterID)
}

func (sb *serviceBackend) GetUnbilledRequisitions(ctx context.Context, encounterID uuid.UUID) (*requisition.UnbilledSummary, error) {
	return sb.requisitions.GetUnbilled(ctx, encounterID)
}

func (sb *serviceBackend) GetPackage(ctx context.Context, id uuid.UUID) (*catalog.PackageDetail, error) {
	return sb.catalogs.GetPackage(ctx, id)
}
