package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
)

const (
	DeliveryPending    = "pending"
	DeliveryProcessing = "processing"
	DeliveryDelivered  = "delivered"
	DeliveryFailed     = "failed"
)

type OrderRow struct {
	ID                string
	BuyerID           string
	ProductID         string
	Amount            decimal.Decimal
	Status            string
	DeliveryStatus    string
	PaymentVerifiedAt *time.Time
	BankTransactionID string
	BankAmount        decimal.NullDecimal
	DeliveryNotes     string
	DeliveredAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderParams describes a new pending order. ID and CreatedAt are generated
// when left empty.
type OrderParams struct {
	ID        string
	BuyerID   string
	ProductID string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

func CreateOrder(ctx context.Context, q Querier, p OrderParams) (string, error) {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO orders (id, buyer_id, product_id, amount, status, delivery_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'pending', 'pending', ?, ?)`,
		id, p.BuyerID, p.ProductID, p.Amount, formatTime(created), formatTime(created),
	)
	return id, err
}

const orderColumns = `id, buyer_id, product_id, amount, status, delivery_status, payment_verified_at,
	bank_transaction_id, bank_amount, delivery_notes, delivered_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*OrderRow, error) {
	var o OrderRow
	var verifiedAt, bankTxID, notes, deliveredAt sql.NullString
	var createdAt, updatedAt string
	err := s.Scan(
		&o.ID, &o.BuyerID, &o.ProductID, &o.Amount, &o.Status, &o.DeliveryStatus, &verifiedAt,
		&bankTxID, &o.BankAmount, &notes, &deliveredAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentVerifiedAt = nullTime(verifiedAt)
	o.BankTransactionID = bankTxID.String
	o.DeliveryNotes = notes.String
	o.DeliveredAt = nullTime(deliveredAt)
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	return &o, nil
}

func OrderByID(ctx context.Context, q Querier, id string) (*OrderRow, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

// PendingOrderByID returns the order only while it is still awaiting payment.
func PendingOrderByID(ctx context.Context, q Querier, id string) (*OrderRow, error) {
	o, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE id = ? AND status = 'pending' AND payment_verified_at IS NULL`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

// PaidOrderByID returns the order only once it has been paid.
func PaidOrderByID(ctx context.Context, q Querier, id string) (*OrderRow, error) {
	o, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? AND status = 'paid'`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

// RecentPendingOrders returns up to limit unpaid orders, newest first. Ties on
// created_at are broken by id so the scan order is deterministic.
func RecentPendingOrders(ctx context.Context, q Querier, limit int) ([]*OrderRow, error) {
	return recentOrders(ctx, q, `status = 'pending' AND payment_verified_at IS NULL`, limit)
}

// RecentPaidOrders returns up to limit paid orders in the same order as
// RecentPendingOrders.
func RecentPaidOrders(ctx context.Context, q Querier, limit int) ([]*OrderRow, error) {
	return recentOrders(ctx, q, `status = 'paid'`, limit)
}

func recentOrders(ctx context.Context, q Querier, where string, limit int) ([]*OrderRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE `+where+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*OrderRow
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// MarkOrderPaid performs the pending → paid transition as a compare-and-swap.
// Returns false when the order was no longer pending and unverified, meaning
// another transaction already claimed it.
func MarkOrderPaid(ctx context.Context, q Querier, orderID, bankTransactionID string, bankAmount decimal.Decimal, at time.Time) (bool, error) {
	ts := formatTime(at)
	res, err := q.ExecContext(ctx,
		`UPDATE orders
		 SET status = 'paid', delivery_status = 'pending', payment_verified_at = ?,
		     bank_transaction_id = ?, bank_amount = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending' AND payment_verified_at IS NULL`,
		ts, bankTransactionID, bankAmount, ts, orderID,
	)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// SetDeliveryStatus records the fulfillment outcome. It never touches the
// payment status.
func SetDeliveryStatus(ctx context.Context, q Querier, orderID, status, note string) error {
	now := formatTime(time.Now())
	var deliveredAt sql.NullString
	if status == DeliveryDelivered {
		deliveredAt = nullString(now)
	}
	res, err := q.ExecContext(ctx,
		`UPDATE orders
		 SET delivery_status = ?, delivery_notes = ?, delivered_at = COALESCE(?, delivered_at), updated_at = ?
		 WHERE id = ?`,
		status, nullString(note), deliveredAt, now, orderID,
	)
	if err != nil {
		return err
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
