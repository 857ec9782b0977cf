package encounter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	encounters map[uuid.UUID]*Encounter
}

func newMockRepo() *mockRepo {
	return &mockRepo{encounters: make(map[uuid.UUID]*Encounter)}
}

func (m *mockRepo) Create(_ context.Context, e *Encounter) error {
	e.ID = uuid.New()
	cp := *e
	m.encounters[e.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Encounter, error) {
	e, ok := m.encounters[id]
	if !ok {
		return nil, fmt.Errorf("encounter not found")
	}
	cp := *e
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, e *Encounter) error {
	if _, ok := m.encounters[e.ID]; !ok {
		return fmt.Errorf("encounter not found")
	}
	cp := *e
	m.encounters[e.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	var items []*Encounter
	for _, e := range m.encounters {
		if e.PatientID == patientID {
			items = append(items, e)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) List(_ context.Context, status string, limit, offset int) ([]*Encounter, int, error) {
	var items []*Encounter
	for _, e := range m.encounters {
		if status == "" || e.Status == status {
			items = append(items, e)
		}
	}
	return items, len(items), nil
}

func TestCreate_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())
	e := &Encounter{PatientID: uuid.New(), PatientName: "Asha Rao", Type: "opd"}

	if err := svc.Create(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Status != "active" {
		t.Errorf("expected default status active, got %s", e.Status)
	}
	if e.AdmittedAt.IsZero() {
		t.Error("expected admitted_at to be defaulted")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	cases := []struct {
		name string
		enc  Encounter
	}{
		{"missing patient", Encounter{PatientName: "X", Type: "opd"}},
		{"missing name", Encounter{PatientID: uuid.New(), Type: "opd"}},
		{"bad type", Encounter{PatientID: uuid.New(), PatientName: "X", Type: "er"}},
		{"bad status", Encounter{PatientID: uuid.New(), PatientName: "X", Type: "ipd", Status: "open"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := tc.enc
			if err := svc.Create(context.Background(), &enc); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDischarge(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	e := &Encounter{PatientID: uuid.New(), PatientName: "Asha Rao", Type: "ipd", AdmittedAt: time.Now()}
	if err := svc.Create(context.Background(), e); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Discharge(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if got.Status != "discharged" {
		t.Errorf("expected discharged, got %s", got.Status)
	}
	if got.DischargedAt == nil {
		t.Error("expected discharged_at to be set")
	}

	// Second discharge is rejected
	if _, err := svc.Discharge(context.Background(), e.ID); err == nil {
		t.Error("expected error discharging twice")
	}
}

func TestList_InvalidStatus(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, _, err := svc.List(context.Background(), "open", 10, 0); err == nil {
		t.Error("expected error for invalid status filter")
	}
}
