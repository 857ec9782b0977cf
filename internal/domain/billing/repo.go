package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetByEncounter(ctx context.Context, encounterID uuid.UUID) (*Bill, error)
	Update(ctx context.Context, b *Bill) error
	UpdatePayment(ctx context.Context, b *Bill) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Bill, int, error)
	// Items
	CreateItem(ctx context.Context, item *BillItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*BillItem, error)
	UpdateItem(ctx context.Context, item *BillItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DeleteItems(ctx context.Context, billID uuid.UUID) error
	GetItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error)
}
