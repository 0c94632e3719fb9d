package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnmatchedRow is an audit record of a transfer that needs a human to resolve.
type UnmatchedRow struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	Reference     string          `json:"reference,omitempty"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Account       string          `json:"account,omitempty"`
	TransactedAt  string          `json:"transacted_at,omitempty"`
	Reason        string          `json:"reason"`
	OrderID       string          `json:"order_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InsertUnmatchedTransaction records why a transfer could not be applied.
// orderID is empty when no order was identified at all.
func InsertUnmatchedTransaction(ctx context.Context, q Querier, p BankTransactionParams, reason, orderID string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO unmatched_transactions
		 (id, transaction_id, reference, description, amount, account, transacted_at, reason, order_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), p.TransactionID, nullString(p.Reference), p.Description, p.Amount,
		nullString(p.Account), nullString(p.TransactedAt), reason, nullString(orderID), formatTime(time.Now()),
	)
	return err
}

// ListUnmatchedTransactions returns the newest audit rows first.
func ListUnmatchedTransactions(ctx context.Context, q Querier, limit int) ([]UnmatchedRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, transaction_id, reference, description, amount, account, transacted_at, reason, order_id, created_at
		 FROM unmatched_transactions
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []UnmatchedRow
	for rows.Next() {
		var u UnmatchedRow
		var reference, account, transactedAt, orderID sql.NullString
		var createdAt string
		if err := rows.Scan(&u.ID, &u.TransactionID, &reference, &u.Description, &u.Amount, &account,
			&transactedAt, &u.Reason, &orderID, &createdAt); err != nil {
			return nil, err
		}
		u.Reference = reference.String
		u.Account = account.String
		u.TransactedAt = transactedAt.String
		u.OrderID = orderID.String
		u.CreatedAt = parseTime(createdAt)
		list = append(list, u)
	}
	return list, rows.Err()
}

func UnmatchedByTxID(ctx context.Context, q Querier, transactionID string) ([]UnmatchedRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, reason, order_id FROM unmatched_transactions WHERE transaction_id = ? ORDER BY created_at`,
		transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []UnmatchedRow
	for rows.Next() {
		var u UnmatchedRow
		var orderID sql.NullString
		if err := rows.Scan(&u.ID, &u.Reason, &orderID); err != nil {
			return nil, err
		}
		u.TransactionID = transactionID
		u.OrderID = orderID.String
		list = append(list, u)
	}
	return list, rows.Err()
}
