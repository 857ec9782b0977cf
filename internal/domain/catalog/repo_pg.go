package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Investigation Repository ===========

type investigationRepoPG struct{ pool *pgxpool.Pool }

func NewInvestigationRepoPG(pool *pgxpool.Pool) InvestigationRepository {
	return &investigationRepoPG{pool: pool}
}

const invCols = `id, code, name, category, price, active, created_at, updated_at`

func scanInvestigation(row pgx.Row) (*Investigation, error) {
	var inv Investigation
	err := row.Scan(&inv.ID, &inv.Code, &inv.Name, &inv.Category, &inv.Price,
		&inv.Active, &inv.CreatedAt, &inv.UpdatedAt)
	return &inv, err
}

func (r *investigationRepoPG) Create(ctx context.Context, inv *Investigation) error {
	inv.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO investigation (id, code, name, category, price, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		inv.ID, inv.Code, inv.Name, inv.Category, inv.Price, inv.Active)
	return err
}

func (r *investigationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Investigation, error) {
	return scanInvestigation(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+invCols+` FROM investigation WHERE id = $1`, id))
}

func (r *investigationRepoPG) Update(ctx context.Context, inv *Investigation) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE investigation SET code=$2, name=$3, category=$4, price=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		inv.ID, inv.Code, inv.Name, inv.Category, inv.Price, inv.Active)
	return err
}

func (r *investigationRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Investigation, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM investigation`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+invCols+` FROM investigation`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Investigation
	for rows.Next() {
		inv, err := scanInvestigation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	return items, total, nil
}

// =========== Procedure Repository ===========

type procedureRepoPG struct{ pool *pgxpool.Pool }

func NewProcedureRepoPG(pool *pgxpool.Pool) ProcedureRepository {
	return &procedureRepoPG{pool: pool}
}

const procCols = `id, code, name, category, price, active, created_at, updated_at`

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Price,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *procedureRepoPG) Create(ctx context.Context, p *Procedure) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO procedure (id, code, name, category, price, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Code, p.Name, p.Category, p.Price, p.Active)
	return err
}

func (r *procedureRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return scanProcedure(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+procCols+` FROM procedure WHERE id = $1`, id))
}

func (r *procedureRepoPG) Update(ctx context.Context, p *Procedure) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE procedure SET code=$2, name=$3, category=$4, price=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Code, p.Name, p.Category, p.Price, p.Active)
	return err
}

func (r *procedureRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Procedure, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM procedure`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+procCols+` FROM procedure`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// =========== Package Repository ===========

type packageRepoPG struct{ pool *pgxpool.Pool }

func NewPackageRepoPG(pool *pgxpool.Pool) PackageRepository {
	return &packageRepoPG{pool: pool}
}

const pkgCols = `id, code, name, price, active, created_at, updated_at`

func scanPackage(row pgx.Row) (*Package, error) {
	var p Package
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *packageRepoPG) Create(ctx context.Context, p *Package) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO package (id, code, name, price, active)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Code, p.Name, p.Price, p.Active)
	return err
}

func (r *packageRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Package, error) {
	return scanPackage(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+pkgCols+` FROM package WHERE id = $1`, id))
}

func (r *packageRepoPG) Update(ctx context.Context, p *Package) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE package SET code=$2, name=$3, price=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Code, p.Name, p.Price, p.Active)
	return err
}

func (r *packageRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Package, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM package`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+pkgCols+` FROM package`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *packageRepoPG) AddProcedure(ctx context.Context, pp *PackageProcedure) error {
	pp.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO package_procedure (id, package_id, procedure_id, name, price)
		VALUES ($1,$2,$3,$4,$5)`,
		pp.ID, pp.PackageID, pp.ProcedureID, pp.Name, pp.Price)
	return err
}

func (r *packageRepoPG) GetProcedures(ctx context.Context, packageID uuid.UUID) ([]*PackageProcedure, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, package_id, procedure_id, name, price
		FROM package_procedure WHERE package_id = $1 ORDER BY name`, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PackageProcedure
	for rows.Next() {
		var pp PackageProcedure
		if err := rows.Scan(&pp.ID, &pp.PackageID, &pp.ProcedureID, &pp.Name, &pp.Price); err != nil {
			return nil, err
		}
		items = append(items, &pp)
	}
	return items, nil
}

func (r *packageRepoPG) RemoveProcedure(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM package_procedure WHERE id = $1`, id)
	return err
}
