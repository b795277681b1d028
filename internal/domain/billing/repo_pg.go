package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Account Repository ===========

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

const accountCols = `id, account_id, patient_id, name, email, status, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.AccountID, &a.PatientID, &a.Name, &a.Email, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	return &a, err
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO billing_account (id, account_id, patient_id, name, email, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.AccountID, a.PatientID, a.Name, a.Email, a.Status)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAccountExists
	}
	return err
}

func (r *accountRepoPG) GetByPatientID(ctx context.Context, patientID string) (*Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountCols+` FROM billing_account WHERE patient_id = $1`, patientID))
}

func (r *accountRepoPG) UpdateStatus(ctx context.Context, patientID string, status AccountStatus) (*Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE billing_account SET status = $2, updated_at = NOW()
		WHERE patient_id = $1
		RETURNING `+accountCols, patientID, status))
}

// =========== Bill Repository ===========

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

const billCols = `id, patient_id, bill_date, total_amount, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.PatientID, &b.BillDate, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	return &b, err
}

func (r *billRepoPG) AddCharge(ctx context.Context, patientID string, amount float64, description string, chargeDate time.Time) (*Bill, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var billID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO bill (id, patient_id, bill_date, total_amount)
		VALUES ($1,$2,$3,0)
		ON CONFLICT (patient_id, bill_date) DO UPDATE SET updated_at = NOW()
		RETURNING id`, uuid.New(), patientID, chargeDate).Scan(&billID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO charge (id, bill_id, amount, description, charge_date)
		VALUES ($1,$2,$3,$4,$5)`,
		uuid.New(), billID, amount, description, chargeDate)
	if err != nil {
		return nil, err
	}

	// Recompute instead of adding in place so concurrent writers converge.
	bill, err := scanBill(tx.QueryRow(ctx, `
		UPDATE bill SET total_amount = (SELECT COALESCE(SUM(amount), 0) FROM charge WHERE bill_id = $1),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+billCols, billID))
	if err != nil {
		return nil, err
	}

	bill.Charges, err = loadCharges(ctx, tx, billID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *billRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bill WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+billCols+` FROM bill WHERE patient_id = $1 ORDER BY bill_date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
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
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, b := range items {
		if b.Charges, err = loadCharges(ctx, r.pool, b.ID); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *billRepoPG) GetByPatientAndDate(ctx context.Context, patientID string, billDate time.Time) (*Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE patient_id = $1 AND bill_date = $2`, patientID, billDate))
	if err != nil {
		return nil, err
	}
	if b.Charges, err = loadCharges(ctx, r.pool, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func loadCharges(ctx context.Context, q querier, billID uuid.UUID) ([]*Charge, error) {
	rows, err := q.Query(ctx, `
		SELECT id, bill_id, amount, description, charge_date, created_at
		FROM charge WHERE bill_id = $1 ORDER BY created_at`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var charges []*Charge
	for rows.Next() {
		var c Charge
		if err := rows.Scan(&c.ID, &c.BillID, &c.Amount, &c.Description, &c.ChargeDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, &c)
	}
	return charges, rows.Err()
}
