// Package notify stores in-app notifications for confirmed payments.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"tapi/api/internal/delivery"
	"tapi/api/internal/logger"
	"tapi/api/internal/metrics"
	"tapi/api/internal/repository"
)

const (
	KindPaymentConfirmed = "payment_confirmed"
	KindNewSale          = "new_sale"
)

// Confirmation is what the emitter needs to tell buyer and seller about a
// paid order.
type Confirmation struct {
	OrderID   string
	BuyerID   string
	ProductID string
	Amount    decimal.Decimal
	Delivery  delivery.Result
}

// Emitter writes notifications off the request path. Failures are logged and
// counted, never reported to the caller.
type Emitter struct {
	db *sql.DB
	wg sync.WaitGroup
}

func NewEmitter(db *sql.DB) *Emitter {
	return &Emitter{db: db}
}

// PaymentConfirmed schedules the buyer and seller notifications and returns
// immediately.
func (e *Emitter) PaymentConfirmed(ctx context.Context, c Confirmation) {
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.store(ctx, c); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			logger.Errorf("[NOTIFY] order_id=%s error=%v", c.OrderID, err)
		}
	}()
}

// Wait blocks until every scheduled emission has finished.
func (e *Emitter) Wait() {
	e.wg.Wait()
}

func (e *Emitter) store(ctx context.Context, c Confirmation) error {
	product, err := repository.ProductByID(ctx, e.db, c.ProductID)
	if err != nil {
		return fmt.Errorf("load product %s: %w", c.ProductID, err)
	}

	buyerTitle, buyerMsg := buyerMessage(product.Name, c)
	sellerTitle, sellerMsg := sellerMessage(product.Name, c)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := repository.InsertNotification(ctx, tx, c.BuyerID, c.OrderID, KindPaymentConfirmed, buyerTitle, buyerMsg); err != nil {
		return fmt.Errorf("buyer notification: %w", err)
	}
	if err := repository.InsertNotification(ctx, tx, product.SellerID, c.OrderID, KindNewSale, sellerTitle, sellerMsg); err != nil {
		return fmt.Errorf("seller notification: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Debugf("[NOTIFY] order_id=%s buyer=%s seller=%s", c.OrderID, c.BuyerID, product.SellerID)
	return nil
}

func buyerMessage(productName string, c Confirmation) (string, string) {
	title := "Payment confirmed"
	switch {
	case c.Delivery.Err() != nil:
		return title, fmt.Sprintf("We received %s for %q. Delivery could not be completed automatically; the seller will follow up.",
			c.Amount.String(), productName)
	case c.Delivery.DeliveryStatus == repository.DeliveryDelivered:
		return title, fmt.Sprintf("We received %s for %q. Your order has been delivered. %s",
			c.Amount.String(), productName, c.Delivery.Message)
	default:
		return title, fmt.Sprintf("We received %s for %q. The seller is preparing your order.",
			c.Amount.String(), productName)
	}
}

func sellerMessage(productName string, c Confirmation) (string, string) {
	title := "New paid order"
	switch {
	case c.Delivery.Err() != nil:
		return title, fmt.Sprintf("Order %s for %q was paid but automatic delivery failed: %s. Please deliver it manually.",
			c.OrderID, productName, c.Delivery.Error)
	case c.Delivery.DeliveryStatus == repository.DeliveryDelivered:
		return title, fmt.Sprintf("Order %s for %q was paid and delivered automatically.", c.OrderID, productName)
	default:
		return title, fmt.Sprintf("Order %s for %q was paid and needs manual processing.", c.OrderID, productName)
	}
}
