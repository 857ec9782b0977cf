package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Investigation maps to the investigation table: an orderable lab test with
// its standard price.
type Investigation struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	Category  *string         `db:"category" json:"category,omitempty"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Procedure maps to the procedure table: an orderable clinical procedure
// with its standard price.
type Procedure struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	Category  *string         `db:"category" json:"category,omitempty"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Package maps to the package table: a bundle of procedures sold at a
// combined package price.
type Package struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// PackageProcedure maps to the package_procedure junction table.
type PackageProcedure struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PackageID   uuid.UUID       `db:"package_id" json:"package_id"`
	ProcedureID uuid.UUID       `db:"procedure_id" json:"procedure_id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

// PackageDetail is a package with its component procedures resolved. A
// stored package may have zero components; callers composing bills decide
// whether such a package is usable.
type PackageDetail struct {
	Package
	Procedures []*PackageProcedure `json:"procedures"`
}
