package encounter

import (
	"time"

	"github.com/google/uuid"
)

// Encounter maps to the encounter table. An encounter is a single patient
// visit, either an outpatient consult (opd) or an inpatient admission (ipd).
type Encounter struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName  string     `db:"patient_name" json:"patient_name"`
	Type         string     `db:"type" json:"type"`
	Status       string     `db:"status" json:"status"`
	DoctorName   *string    `db:"doctor_name" json:"doctor_name,omitempty"`
	Department   *string    `db:"department" json:"department,omitempty"`
	AdmittedAt   time.Time  `db:"admitted_at" json:"admitted_at"`
	DischargedAt *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
