package requisition

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Requisition) error
	GetByID(ctx context.Context, id uuid.UUID) (*Requisition, error)
	ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*Requisition, error)
	ListUnbilled(ctx context.Context, encounterID uuid.UUID) ([]*Requisition, error)
	MarkBilled(ctx context.Context, id uuid.UUID, billItemID uuid.UUID) error
	MarkUnbilled(ctx context.Context, billItemID uuid.UUID) error
}
