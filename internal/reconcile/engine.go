// Package reconcile applies incoming bank transfers to pending orders: it
// records each transfer once, matches it to an order, verifies the amount,
// marks the order paid and triggers fulfillment.
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tapi/api/internal/delivery"
	"tapi/api/internal/logger"
	"tapi/api/internal/matching"
	"tapi/api/internal/metrics"
	"tapi/api/internal/notify"
	"tapi/api/internal/repository"
)

// Transaction is one bank transfer as reported by the webhook sender.
type Transaction struct {
	ID          string
	Reference   string
	Description string
	Account     string
	When        string
	Amount      decimal.Decimal
}

func (t Transaction) params() repository.BankTransactionParams {
	return repository.BankTransactionParams{
		TransactionID: t.ID,
		Reference:     t.Reference,
		Description:   t.Description,
		Amount:        t.Amount,
		Account:       t.Account,
		TransactedAt:  t.When,
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, order *repository.OrderRow) delivery.Result
}

type Notifier interface {
	PaymentConfirmed(ctx context.Context, c notify.Confirmation)
}

// OrderFinder resolves a description to an order inside the engine's
// transaction.
type OrderFinder interface {
	Find(ctx context.Context, q repository.Querier, description string) (*Match, error)
}

type Engine struct {
	db         *sql.DB
	tolerance  Tolerance
	dispatcher Dispatcher
	notifier   Notifier
	finder     OrderFinder
	now        func() time.Time
}

func NewEngine(db *sql.DB, tolerance Tolerance, dispatcher Dispatcher, notifier Notifier, scanLimit int) *Engine {
	return &Engine{
		db:         db,
		tolerance:  tolerance,
		dispatcher: dispatcher,
		notifier:   notifier,
		finder:     Finder{ScanLimit: scanLimit},
		now:        time.Now,
	}
}

// Process reconciles one transaction. Business outcomes are reported in the
// Result; a returned error means nothing was committed and the sender should
// retry.
func (e *Engine) Process(ctx context.Context, t Transaction) (Result, error) {
	start := time.Now()
	res, err := e.process(ctx, t)
	metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("error").Inc()
		logger.Errorf("[RECONCILE] transaction_id=%s error=%v", t.ID, err)
		return Result{}, err
	}
	metrics.TransactionsTotal.WithLabelValues(string(res.Status)).Inc()
	logger.Infof("[RECONCILE] transaction_id=%s status=%s order_id=%s", t.ID, res.Status, res.OrderID)
	return res, nil
}

func (e *Engine) process(ctx context.Context, t Transaction) (Result, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	params := t.params()
	inserted, err := repository.InsertBankTransaction(ctx, tx, params)
	if err != nil {
		return Result{}, fmt.Errorf("record transaction: %w", err)
	}
	if !inserted {
		return Result{Status: StatusAlreadyProcessed, TransactionID: t.ID, Message: "transaction already processed"}, nil
	}

	match, err := e.finder.Find(ctx, tx, t.Description)
	switch {
	case errors.Is(err, matching.ErrNoOrderID):
		return e.unmatched(ctx, tx, params, ReasonNoOrderID, "", Result{
			Status:        StatusNoOrderFound,
			TransactionID: t.ID,
			Message:       ReasonNoOrderID,
		})
	case errors.Is(err, matching.ErrNoMatch):
		return e.unmatched(ctx, tx, params, ReasonNoOrder, "", Result{
			Status:        StatusOrderNotFound,
			TransactionID: t.ID,
			Message:       err.Error(),
		})
	case err != nil:
		return Result{}, fmt.Errorf("find order: %w", err)
	}

	order := match.Order
	expected, received := order.Amount, t.Amount
	if match.AlreadyPaid {
		return e.conflict(ctx, tx, params, order.ID, t, expected, received)
	}
	if !e.tolerance.Accepts(expected, received) {
		reason := fmt.Sprintf("amount mismatch: expected %s, received %s", expected.String(), received.String())
		return e.unmatched(ctx, tx, params, reason, order.ID, Result{
			Status:        StatusAmountMismatch,
			TransactionID: t.ID,
			OrderID:       order.ID,
			Expected:      &expected,
			Received:      &received,
			Message:       reason,
		})
	}

	now := e.now()
	ok, err := repository.MarkOrderPaid(ctx, tx, order.ID, t.ID, received, now)
	if err != nil {
		return Result{}, fmt.Errorf("mark order %s paid: %w", order.ID, err)
	}
	if !ok {
		return e.conflict(ctx, tx, params, order.ID, t, expected, received)
	}
	if err := repository.LinkBankTransaction(ctx, tx, t.ID, order.ID, now); err != nil {
		return Result{}, fmt.Errorf("link transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}

	logger.Infof("[RECONCILE] order_id=%s paid by transaction_id=%s rule=%s", order.ID, t.ID, match.Rule)

	order.Status = repository.OrderPaid
	order.DeliveryStatus = repository.DeliveryPending
	order.PaymentVerifiedAt = &now
	order.BankTransactionID = t.ID
	order.BankAmount = decimal.NewNullDecimal(received)

	// The payment is durable from here on; nothing below may fail the request.
	detached := context.WithoutCancel(ctx)
	dres := e.dispatcher.Dispatch(detached, order)
	e.notifier.PaymentConfirmed(detached, notify.Confirmation{
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		ProductID: order.ProductID,
		Amount:    received,
		Delivery:  dres,
	})

	return Result{
		Status:        StatusProcessed,
		TransactionID: t.ID,
		OrderID:       order.ID,
		Expected:      &expected,
		Received:      &received,
		Message:       "payment confirmed",
		Delivery:      &dres,
	}, nil
}

// conflict records a transfer for an order some other transaction has paid.
func (e *Engine) conflict(ctx context.Context, tx *sql.Tx, p repository.BankTransactionParams, orderID string, t Transaction, expected, received decimal.Decimal) (Result, error) {
	return e.unmatched(ctx, tx, p, ReasonAlreadyPaid, orderID, Result{
		Status:        StatusOrderAlreadyPaid,
		TransactionID: t.ID,
		OrderID:       orderID,
		Expected:      &expected,
		Received:      &received,
		Message:       ReasonAlreadyPaid,
	})
}

// unmatched stores the audit row and commits the ledger entry with it so a
// redelivery answers already_processed.
func (e *Engine) unmatched(ctx context.Context, tx *sql.Tx, p repository.BankTransactionParams, reason, orderID string, res Result) (Result, error) {
	if err := repository.InsertUnmatchedTransaction(ctx, tx, p, reason, orderID); err != nil {
		return Result{}, fmt.Errorf("record unmatched transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	logger.Warnf("[RECONCILE] transaction_id=%s unmatched: %s", p.TransactionID, reason)
	return res, nil
}
