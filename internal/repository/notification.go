package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type NotificationRow struct {
	ID        string
	UserID    string
	OrderID   string
	Kind      string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

func InsertNotification(ctx context.Context, q Querier, userID, orderID, kind, title, message string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, order_id, kind, title, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		uuid.New().String(), userID, nullString(orderID), kind, title, message, formatTime(time.Now()),
	)
	return err
}

func NotificationsByOrder(ctx context.Context, q Querier, orderID string) ([]NotificationRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, user_id, order_id, kind, title, message, is_read, created_at
		 FROM notifications WHERE order_id = ? ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []NotificationRow
	for rows.Next() {
		var n NotificationRow
		var oid sql.NullString
		var isRead int
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &oid, &n.Kind, &n.Title, &n.Message, &isRead, &createdAt); err != nil {
			return nil, err
		}
		n.OrderID = oid.String
		n.IsRead = isRead == 1
		n.CreatedAt = parseTime(createdAt)
		list = append(list, n)
	}
	return list, rows.Err()
}
