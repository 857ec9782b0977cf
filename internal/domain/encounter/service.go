package encounter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validTypes = map[string]bool{
	"opd": true, "ipd": true,
}

var validStatuses = map[string]bool{
	"active": true, "discharged": true, "cancelled": true,
}

func (s *Service) Create(ctx context.Context, e *Encounter) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if !validTypes[e.Type] {
		return fmt.Errorf("invalid encounter type: %s", e.Type)
	}
	if e.Status == "" {
		e.Status = "active"
	}
	if !validStatuses[e.Status] {
		return fmt.Errorf("invalid encounter status: %s", e.Status)
	}
	if e.AdmittedAt.IsZero() {
		e.AdmittedAt = time.Now()
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, e *Encounter) error {
	if e.Status != "" && !validStatuses[e.Status] {
		return fmt.Errorf("invalid encounter status: %s", e.Status)
	}
	return s.repo.Update(ctx, e)
}

// Discharge marks an active encounter discharged. Discharging a cancelled or
// already discharged encounter is rejected.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != "active" {
		return nil, fmt.Errorf("cannot discharge encounter with status %s", e.Status)
	}
	now := time.Now()
	e.Status = "discharged"
	e.DischargedAt = &now
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Encounter, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, fmt.Errorf("invalid encounter status: %s", status)
	}
	return s.repo.List(ctx, status, limit, offset)
}
