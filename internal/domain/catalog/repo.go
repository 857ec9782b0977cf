package catalog

import (
	"context"

	"github.com/google/uuid"
)

type InvestigationRepository interface {
	Create(ctx context.Context, inv *Investigation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Investigation, error)
	Update(ctx context.Context, inv *Investigation) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Investigation, int, error)
}

type ProcedureRepository interface {
	Create(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error)
	Update(ctx context.Context, p *Procedure) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Procedure, int, error)
}

type PackageRepository interface {
	Create(ctx context.Context, p *Package) error
	GetByID(ctx context.Context, id uuid.UUID) (*Package, error)
	Update(ctx context.Context, p *Package) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Package, int, error)
	// Components
	AddProcedure(ctx context.Context, pp *PackageProcedure) error
	GetProcedures(ctx context.Context, packageID uuid.UUID) ([]*PackageProcedure, error)
	RemoveProcedure(ctx context.Context, id uuid.UUID) error
}
