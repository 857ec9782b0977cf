package requisition

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reqCols = `id, encounter_id, kind, ref_id, name, price, billed, bill_item_id, created_at`

func scanRequisition(row pgx.Row) (*Requisition, error) {
	var req Requisition
	err := row.Scan(&req.ID, &req.EncounterID, &req.Kind, &req.RefID, &req.Name,
		&req.Price, &req.Billed, &req.BillItemID, &req.CreatedAt)
	return &req, err
}

func (r *repoPG) Create(ctx context.Context, req *Requisition) error {
	req.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO requisition (id, encounter_id, kind, ref_id, name, price, billed)
		VALUES ($1,$2,$3,$4,$5,$6,false)`,
		req.ID, req.EncounterID, req.Kind, req.RefID, req.Name, req.Price)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Requisition, error) {
	return scanRequisition(r.conn(ctx).QueryRow(ctx, `SELECT `+reqCols+` FROM requisition WHERE id = $1`, id))
}

func (r *repoPG) ListByEncounter(ctx context.Context, encounterID uuid.UUID) ([]*Requisition, error) {
	return r.list(ctx, `SELECT `+reqCols+` FROM requisition WHERE encounter_id = $1 ORDER BY created_at`, encounterID)
}

func (r *repoPG) ListUnbilled(ctx context.Context, encounterID uuid.UUID) ([]*Requisition, error) {
	return r.list(ctx, `SELECT `+reqCols+` FROM requisition WHERE encounter_id = $1 AND NOT billed ORDER BY created_at`, encounterID)
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Requisition, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Requisition
	for rows.Next() {
		req, err := scanRequisition(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, nil
}

func (r *repoPG) MarkBilled(ctx context.Context, id uuid.UUID, billItemID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE requisition SET billed = true, bill_item_id = $2 WHERE id = $1`, id, billItemID)
	return err
}

func (r *repoPG) MarkUnbilled(ctx context.Context, billItemID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE requisition SET billed = false, bill_item_id = NULL WHERE bill_item_id = $1`, billItemID)
	return err
}
