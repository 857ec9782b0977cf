package requisition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/pkg/money"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validKinds = map[string]bool{
	"lab": true, "procedure": true,
}

func (s *Service) Create(ctx context.Context, r *Requisition) error {
	if r.EncounterID == uuid.Nil {
		return fmt.Errorf("encounter_id is required")
	}
	if !validKinds[r.Kind] {
		return fmt.Errorf("invalid requisition kind: %s", r.Kind)
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	r.Price = money.Round2(r.Price)
	return s.repo.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Requisition, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*Requisition, error) {
	return s.repo.ListByEncounter(ctx, encounterID)
}

// GetUnbilled returns the encounter's requisitions still awaiting billing,
// with a count and the estimated amount at snapshotted prices.
func (s *Service) GetUnbilled(ctx context.Context, encounterID uuid.UUID) (*UnbilledSummary, error) {
	items, err := s.repo.ListUnbilled(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range items {
		total = total.Add(r.Price)
	}
	return &UnbilledSummary{
		Requisitions:       items,
		TotalUnbilledItems: len(items),
		EstimatedAmount:    money.Round2(total),
	}, nil
}

func (s *Service) MarkBilled(ctx context.Context, id, billItemID uuid.UUID) error {
	return s.repo.MarkBilled(ctx, id, billItemID)
}

// MarkUnbilled releases any requisitions pointing at the given bill item so
// they show up as unbilled again.
func (s *Service) MarkUnbilled(ctx context.Context, billItemID uuid.UUID) error {
	return s.repo.MarkUnbilled(ctx, billItemID)
}
