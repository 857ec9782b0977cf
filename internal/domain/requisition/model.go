package requisition

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requisition maps to the requisition table: a lab test or procedure ordered
// during an encounter that has not necessarily been billed yet. Name and
// price are snapshotted from the catalog at order time.
type Requisition struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	EncounterID uuid.UUID       `db:"encounter_id" json:"encounter_id"`
	Kind        string          `db:"kind" json:"kind"`
	RefID       uuid.UUID       `db:"ref_id" json:"ref_id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Billed      bool            `db:"billed" json:"billed"`
	BillItemID  *uuid.UUID      `db:"bill_item_id" json:"bill_item_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// UnbilledSummary aggregates an encounter's requisitions that have not been
// attached to a bill yet.
type UnbilledSummary struct {
	Requisitions       []*Requisition  `json:"requisitions"`
	TotalUnbilledItems int             `json:"total_unbilled_items"`
	EstimatedAmount    decimal.Decimal `json:"estimated_amount"`
}
