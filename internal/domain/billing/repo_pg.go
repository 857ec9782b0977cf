package billing

import (
	"context"
	"errors"

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

const billCols = `id, encounter_id, bill_number, patient_name, status,
	discount, discount_percent, received_amount, payment_mode, notes,
	created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.EncounterID, &b.BillNumber, &b.PatientName, &b.Status,
		&b.Discount, &b.DiscountPercent, &b.ReceivedAmount, &b.PaymentMode, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, encounter_id, bill_number, patient_name, status,
			discount, discount_percent, received_amount, payment_mode, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		b.ID, b.EncounterID, b.BillNumber, b.PatientName, b.Status,
		b.Discount, b.DiscountPercent, b.ReceivedAmount, b.PaymentMode, b.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`, id))
}

func (r *repoPG) GetByEncounter(ctx context.Context, encounterID uuid.UUID) (*Bill, error) {
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE encounter_id = $1`, encounterID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoBill
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) Update(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET patient_name=$2, status=$3, discount=$4, discount_percent=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.PatientName, b.Status, b.Discount, b.DiscountPercent, b.Notes)
	return err
}

func (r *repoPG) UpdatePayment(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET received_amount=$2, payment_mode=$3, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.ReceivedAmount, b.PaymentMode)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+` FROM bill ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}

const itemCols = `id, bill_id, kind, ref_id, name, quantity,
	system_calculated_price, unit_price, is_price_overridden, total_price, created_at`

func scanItem(row pgx.Row) (*BillItem, error) {
	var it BillItem
	err := row.Scan(&it.ID, &it.BillID, &it.Kind, &it.RefID, &it.Name, &it.Quantity,
		&it.SystemCalculatedPrice, &it.UnitPrice, &it.IsPriceOverridden, &it.TotalPrice, &it.CreatedAt)
	return &it, err
}

func (r *repoPG) CreateItem(ctx context.Context, item *BillItem) error {
	item.ID = uuid.New()
	item.Recompute()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_item (id, bill_id, kind, ref_id, name, quantity,
			system_calculated_price, unit_price, is_price_overridden, total_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		item.ID, item.BillID, item.Kind, item.RefID, item.Name, item.Quantity,
		item.SystemCalculatedPrice, item.UnitPrice, item.IsPriceOverridden, item.TotalPrice)
	return err
}

func (r *repoPG) GetItem(ctx context.Context, id uuid.UUID) (*BillItem, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM bill_item WHERE id = $1`, id))
}

func (r *repoPG) UpdateItem(ctx context.Context, item *BillItem) error {
	item.Recompute()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill_item SET quantity=$2, unit_price=$3, is_price_overridden=$4, total_price=$5
		WHERE id = $1`,
		item.ID, item.Quantity, item.UnitPrice, item.IsPriceOverridden, item.TotalPrice)
	return err
}

func (r *repoPG) DeleteItem(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill_item WHERE id = $1`, id)
	return err
}

func (r *repoPG) DeleteItems(ctx context.Context, billID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill_item WHERE bill_id = $1`, billID)
	return err
}

func (r *repoPG) GetItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM bill_item WHERE bill_id = $1 ORDER BY created_at`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BillItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
