package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

func AddLicenseKey(ctx context.Context, q Querier, productID, keyValue string) (string, error) {
	id := uuid.New().String()
	_, err := q.ExecContext(ctx,
		`INSERT INTO license_keys (id, product_id, key_value, is_used, created_at) VALUES (?, ?, ?, 0, ?)`,
		id, productID, keyValue, formatTime(time.Now()),
	)
	return id, err
}

// ClaimLicenseKey atomically takes the oldest unused key of a product and
// assigns it to the order. The outer is_used = 0 predicate keeps the claim
// exclusive even if two writers select the same candidate row.
func ClaimLicenseKey(ctx context.Context, q Querier, productID, orderID string) (string, error) {
	now := formatTime(time.Now())
	var key string
	err := q.QueryRowContext(ctx,
		`UPDATE license_keys
		 SET is_used = 1, assigned_order_id = ?, used_at = ?
		 WHERE id = (
		     SELECT id FROM license_keys
		     WHERE product_id = ? AND is_used = 0
		     ORDER BY created_at, id
		     LIMIT 1
		 ) AND is_used = 0
		 RETURNING key_value`,
		orderID, now, productID,
	).Scan(&key)
	if err == sql.ErrNoRows {
		return "", ErrNoLicenseKey
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

func CountAvailableLicenseKeys(ctx context.Context, q Querier, productID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM license_keys WHERE product_id = ? AND is_used = 0`, productID,
	).Scan(&n)
	return n, err
}

// LicenseKeysByOrder lists every key assigned to the order.
func LicenseKeysByOrder(ctx context.Context, q Querier, orderID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT key_value FROM license_keys WHERE assigned_order_id = ? ORDER BY used_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
