package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

type Service struct {
	investigations InvestigationRepository
	procedures     ProcedureRepository
	packages       PackageRepository
}

func NewService(inv InvestigationRepository, proc ProcedureRepository, pkg PackageRepository) *Service {
	return &Service{investigations: inv, procedures: proc, packages: pkg}
}

// -- Investigation --

func (s *Service) CreateInvestigation(ctx context.Context, inv *Investigation) error {
	if inv.Name == "" {
		return fmt.Errorf("name is required")
	}
	if inv.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	inv.Price = money.Round2(inv.Price)
	return s.investigations.Create(ctx, inv)
}

func (s *Service) GetInvestigation(ctx context.Context, id uuid.UUID) (*Investigation, error) {
	return s.investigations.GetByID(ctx, id)
}

func (s *Service) UpdateInvestigation(ctx context.Context, inv *Investigation) error {
	if inv.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	inv.Price = money.Round2(inv.Price)
	return s.investigations.Update(ctx, inv)
}

func (s *Service) ListInvestigations(ctx context.Context, activeOnly bool, limit, offset int) ([]*Investigation, int, error) {
	return s.investigations.List(ctx, activeOnly, limit, offset)
}

// -- Procedure --

func (s *Service) CreateProcedure(ctx context.Context, p *Procedure) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	p.Price = money.Round2(p.Price)
	return s.procedures.Create(ctx, p)
}

func (s *Service) GetProcedure(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return s.procedures.GetByID(ctx, id)
}

func (s *Service) UpdateProcedure(ctx context.Context, p *Procedure) error {
	if p.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	p.Price = money.Round2(p.Price)
	return s.procedures.Update(ctx, p)
}

func (s *Service) ListProcedures(ctx context.Context, activeOnly bool, limit, offset int) ([]*Procedure, int, error) {
	return s.procedures.List(ctx, activeOnly, limit, offset)
}

// -- Package --

func (s *Service) CreatePackage(ctx context.Context, p *Package) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	p.Price = money.Round2(p.Price)
	return s.packages.Create(ctx, p)
}

// GetPackage returns a package with its component procedures resolved.
func (s *Service) GetPackage(ctx context.Context, id uuid.UUID) (*PackageDetail, error) {
	p, err := s.packages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	procs, err := s.packages.GetProcedures(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PackageDetail{Package: *p, Procedures: procs}, nil
}

func (s *Service) UpdatePackage(ctx context.Context, p *Package) error {
	if p.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	p.Price = money.Round2(p.Price)
	return s.packages.Update(ctx, p)
}

func (s *Service) ListPackages(ctx context.Context, activeOnly bool, limit, offset int) ([]*Package, int, error) {
	return s.packages.List(ctx, activeOnly, limit, offset)
}

// AddPackageProcedure attaches a procedure to a package, snapshotting the
// procedure's name and current price onto the component row.
func (s *Service) AddPackageProcedure(ctx context.Context, packageID, procedureID uuid.UUID) (*PackageProcedure, error) {
	if _, err := s.packages.GetByID(ctx, packageID); err != nil {
		return nil, fmt.Errorf("package not found: %w", err)
	}
	proc, err := s.procedures.GetByID(ctx, procedureID)
	if err != nil {
		return nil, fmt.Errorf("procedure not found: %w", err)
	}
	pp := &PackageProcedure{
		PackageID:   packageID,
		ProcedureID: procedureID,
		Name:        proc.Name,
		Price:       proc.Price,
	}
	if err := s.packages.AddProcedure(ctx, pp); err != nil {
		return nil, err
	}
	return pp, nil
}

func (s *Service) RemovePackageProcedure(ctx context.Context, id uuid.UUID) error {
	return s.packages.RemoveProcedure(ctx, id)
}
