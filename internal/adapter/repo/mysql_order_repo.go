package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

// Insert writes the order row and its line items in one transaction.
func (r *MySQLOrderRepo) Insert(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (id,user_id,street,city,state,zip_code,country,payment_method,
tax_price,shipping_price,total_price,is_paid,is_delivered,status,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.UserID,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.ZipCode, o.ShippingAddress.Country,
		string(o.PaymentMethod), o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.IsPaid, o.IsDelivered, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return translateErr(err)
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx, `
INSERT INTO order_items (order_id,product_id,name,quantity,price,image)
VALUES (?,?,?,?,?,?)`,
			o.ID, it.ProductID, it.Name, it.Quantity, it.Price, nullStr(it.Image))
		if err != nil {
			return translateErr(err)
		}
	}
	return tx.Commit()
}

const orderCols = `id,user_id,street,city,state,zip_code,country,payment_method,
tax_price,shipping_price,total_price,is_paid,paid_at,is_delivered,delivered_at,status,created_at,updated_at`

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE id=?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.Order, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id=?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+orderCols+` FROM orders WHERE user_id=?
ORDER BY created_at DESC
LIMIT ? OFFSET ?`, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// MarkPaid flips the order into processing; rows == 0 means the order is
// missing or past the payable states.
func (r *MySQLOrderRepo) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET is_paid = 1, paid_at = ?, status = 'processing', updated_at = NOW()
WHERE id = ? AND status IN ('pending','processing')`, at, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CancelIf guards against double restock: only one caller ever observes
// the transition succeed.
func (r *MySQLOrderRepo) CancelIf(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status = 'cancelled', updated_at = NOW()
WHERE id = ? AND status <> 'cancelled' AND is_delivered = 0`, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLOrderRepo) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT product_id,name,quantity,price,image FROM order_items
WHERE order_id=? ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Items = []domain.OrderItem{}
	for rows.Next() {
		var (
			it    domain.OrderItem
			image sql.NullString
		)
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price, &image); err != nil {
			return err
		}
		it.Image = image.String
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                   domain.Order
		payMethod, status   string
		paidAt, deliveredAt sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.UserID,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode, &o.ShippingAddress.Country,
		&payMethod, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &paidAt, &o.IsDelivered, &deliveredAt,
		&status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = domain.PaymentMethod(payMethod)
	o.Status = domain.Status(status)
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if deliveredAt.Valid {
		o.DeliveredAt = &deliveredAt.Time
	}
	return &o, nil
}

var _ usecase.OrderStore = (*MySQLOrderRepo)(nil)
