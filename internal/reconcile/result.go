package reconcile

import (
	"github.com/shopspring/decimal"

	"tapi/api/internal/delivery"
)

// Status is the outcome reported back to the webhook sender for one
// transaction.
type Status string

const (
	StatusAlreadyProcessed Status = "already_processed"
	StatusNoOrderFound     Status = "no_order_found"
	StatusOrderNotFound    Status = "order_not_found"
	StatusAmountMismatch   Status = "amount_mismatch"
	StatusOrderAlreadyPaid Status = "order_already_paid"
	StatusProcessed        Status = "processed_successfully"
	StatusTestWebhook      Status = "test_webhook"
	StatusIgnored          Status = "ignored"
)

// Unmatched reasons stored in the audit table.
const (
	ReasonNoOrderID   = "no order id found in description"
	ReasonNoOrder     = "no pending order matches description"
	ReasonAlreadyPaid = "order already paid by another transaction"
)

type Result struct {
	Status        Status           `json:"status"`
	TransactionID string           `json:"transaction_id,omitempty"`
	OrderID       string           `json:"order_id,omitempty"`
	Expected      *decimal.Decimal `json:"expected,omitempty"`
	Received      *decimal.Decimal `json:"received,omitempty"`
	Message       string           `json:"message,omitempty"`
	Delivery      *delivery.Result `json:"delivery,omitempty"`
}
