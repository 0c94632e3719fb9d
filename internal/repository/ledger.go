package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankTransactionRow is the ledger copy of an incoming bank transfer.
type BankTransactionRow struct {
	ID             string          `json:"id"`
	TransactionID  string          `json:"transaction_id"`
	Reference      string          `json:"reference,omitempty"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Account        string          `json:"account,omitempty"`
	TransactedAt   string          `json:"transacted_at,omitempty"`
	MatchedOrderID string          `json:"matched_order_id,omitempty"`
	MatchedAt      *time.Time      `json:"matched_at,omitempty"`
	Processed      bool            `json:"processed"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BankTransactionParams carries the raw fields of a transfer as received.
type BankTransactionParams struct {
	TransactionID string
	Reference     string
	Description   string
	Amount        decimal.Decimal
	Account       string
	TransactedAt  string
}

// InsertBankTransaction records the transfer once. It returns false, without
// error, when a row with the same transaction id already exists.
func InsertBankTransaction(ctx context.Context, q Querier, p BankTransactionParams) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO bank_transactions
		 (id, transaction_id, reference, description, amount, account, transacted_at, processed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		uuid.New().String(), p.TransactionID, nullString(p.Reference), p.Description, p.Amount,
		nullString(p.Account), nullString(p.TransactedAt), formatTime(time.Now()),
	)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// LinkBankTransaction attaches the matched order and flags the row processed.
func LinkBankTransaction(ctx context.Context, q Querier, transactionID, orderID string, at time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE bank_transactions SET matched_order_id = ?, matched_at = ?, processed = 1 WHERE transaction_id = ?`,
		orderID, formatTime(at), transactionID,
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

func BankTransactionByTxID(ctx context.Context, q Querier, transactionID string) (*BankTransactionRow, error) {
	var b BankTransactionRow
	var reference, account, transactedAt, matchedOrderID, matchedAt sql.NullString
	var processed int
	var createdAt string
	err := q.QueryRowContext(ctx,
		`SELECT id, transaction_id, reference, description, amount, account, transacted_at,
		        matched_order_id, matched_at, processed, created_at
		 FROM bank_transactions WHERE transaction_id = ?`, transactionID,
	).Scan(&b.ID, &b.TransactionID, &reference, &b.Description, &b.Amount, &account, &transactedAt,
		&matchedOrderID, &matchedAt, &processed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Reference = reference.String
	b.Account = account.String
	b.TransactedAt = transactedAt.String
	b.MatchedOrderID = matchedOrderID.String
	b.MatchedAt = nullTime(matchedAt)
	b.Processed = processed == 1
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}

func CountBankTransactions(ctx context.Context, q Querier, transactionID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bank_transactions WHERE transaction_id = ?`, transactionID,
	).Scan(&n)
	return n, err
}
