package casso

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tapi/api/internal/reconcile"
)

var ErrMissingData = errors.New("payload has no transaction data")

// Envelope is the body Casso posts: a status code and one or many
// transactions.
type Envelope struct {
	Error int          `json:"error"`
	Data  Transactions `json:"data"`
}

// Transactions accepts either a single object or an array.
type Transactions []Transaction

func (ts *Transactions) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*ts = nil
		return nil
	case b[0] == '[':
		var list []Transaction
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*ts = list
		return nil
	default:
		var one Transaction
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*ts = Transactions{one}
		return nil
	}
}

// Text holds a JSON value sent as either a string or a number.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*t = Text(n.String())
	return nil
}

type Transaction struct {
	ID                   Text            `json:"id"`
	Tid                  Text            `json:"tid"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	When                 string          `json:"when"`
	BankSubAccID         Text            `json:"bank_sub_acc_id"`
	SubAccID             Text            `json:"subAccId"`
	CorresponsiveAccount Text            `json:"corresponsiveAccount"`
}

// IsTest reports whether Casso sent this as a connectivity check rather than
// a real transfer.
func (t Transaction) IsTest() bool {
	return t.ID == "0" || t.Amount.IsZero() || strings.Contains(strings.ToLower(t.Description), "test")
}

// Account returns the first account identifier present.
func (t Transaction) Account() string {
	for _, a := range []Text{t.BankSubAccID, t.SubAccID, t.CorresponsiveAccount} {
		if a != "" {
			return string(a)
		}
	}
	return ""
}

func (t Transaction) toReconcile() reconcile.Transaction {
	return reconcile.Transaction{
		ID:          string(t.ID),
		Reference:   string(t.Tid),
		Description: t.Description,
		Account:     t.Account(),
		When:        t.When,
		Amount:      t.Amount,
	}
}

// ParseEnvelope decodes a webhook body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, ErrMissingData
	}
	return &env, nil
}

// AllTests reports whether every transaction in the envelope is a test.
func (e *Envelope) AllTests() bool {
	for _, t := range e.Data {
		if !t.IsTest() {
			return false
		}
	}
	return true
}
