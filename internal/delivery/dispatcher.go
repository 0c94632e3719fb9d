// Package delivery fulfills paid orders with a strategy chosen by product type.
package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tapi/api/internal/logger"
	"tapi/api/internal/metrics"
	"tapi/api/internal/repository"
)

var (
	ErrMissingFile     = errors.New("product has no file to deliver")
	ErrProductNotFound = errors.New("product not found")
)

const ManualNote = "requires manual processing"

// Result describes what happened to a paid order's fulfillment. A non-empty
// Error never implies the payment was reverted.
type Result struct {
	ProductType    repository.ProductType `json:"product_type,omitempty"`
	Automated      bool                   `json:"automated"`
	DeliveryStatus string                 `json:"delivery_status"`
	Message        string                 `json:"message,omitempty"`
	Error          string                 `json:"error,omitempty"`

	err error
}

// Err returns the fulfillment failure, if any.
func (r Result) Err() error { return r.err }

// Strategy delivers one product type. Business failures go in Result with
// the store changes they imply; a returned error rolls those changes back.
type Strategy interface {
	Deliver(ctx context.Context, q repository.Querier, order *repository.OrderRow, product *repository.ProductRow) (Result, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, q repository.Querier, order *repository.OrderRow, product *repository.ProductRow) (Result, error)

func (f StrategyFunc) Deliver(ctx context.Context, q repository.Querier, order *repository.OrderRow, product *repository.ProductRow) (Result, error) {
	return f(ctx, q, order, product)
}

// Dispatcher routes paid orders to the strategy registered for their
// product type. Unknown types fall back to manual processing.
type Dispatcher struct {
	db         *sql.DB
	strategies map[repository.ProductType]Strategy
	fallback   Strategy
}

func NewDispatcher(db *sql.DB) *Dispatcher {
	manual := StrategyFunc(deliverManually)
	return &Dispatcher{
		db: db,
		strategies: map[repository.ProductType]Strategy{
			repository.ProductFileDownload:           StrategyFunc(deliverFile),
			repository.ProductLicenseKey:             StrategyFunc(deliverLicenseKey),
			repository.ProductSharedAccount:          manual,
			repository.ProductUpgradeAccountNoPass:   manual,
			repository.ProductUpgradeAccountWithPass: manual,
			repository.ProductService:                manual,
		},
		fallback: manual,
	}
}

// Register replaces the strategy for a product type.
func (d *Dispatcher) Register(typ repository.ProductType, s Strategy) {
	d.strategies[typ] = s
}

// Dispatch fulfills a paid order. Each strategy runs in its own transaction so
// a claimed resource and the order note commit together.
func (d *Dispatcher) Dispatch(ctx context.Context, order *repository.OrderRow) Result {
	product, err := repository.ProductByID(ctx, d.db, order.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrProductNotFound
		}
		return d.finish(order, "", failure(order.DeliveryStatus, fmt.Errorf("load product %s: %w", order.ProductID, err)))
	}

	s, ok := d.strategies[product.Type]
	if !ok {
		s = d.fallback
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return d.finish(order, product.Type, failure(order.DeliveryStatus, fmt.Errorf("begin delivery: %w", err)))
	}
	defer tx.Rollback()

	res, err := s.Deliver(ctx, tx, order, product)
	if err != nil {
		return d.finish(order, product.Type, failure(order.DeliveryStatus, err))
	}
	if err := tx.Commit(); err != nil {
		return d.finish(order, product.Type, failure(order.DeliveryStatus, fmt.Errorf("commit delivery: %w", err)))
	}
	return d.finish(order, product.Type, res)
}

func (d *Dispatcher) finish(order *repository.OrderRow, typ repository.ProductType, res Result) Result {
	res.ProductType = typ
	outcome := "delivered"
	switch {
	case res.err != nil:
		outcome = "failed"
		logger.Errorf("[DELIVERY] order_id=%s type=%s error=%v", order.ID, typ, res.err)
	case !res.Automated:
		outcome = "manual"
		logger.Infof("[DELIVERY] order_id=%s type=%s requires manual processing", order.ID, typ)
	default:
		logger.Infof("[DELIVERY] order_id=%s type=%s delivered", order.ID, typ)
	}
	metrics.DeliveriesTotal.WithLabelValues(string(typ), outcome).Inc()
	return res
}

func failure(status string, err error) Result {
	return Result{DeliveryStatus: status, Error: err.Error(), err: err}
}

func deliverFile(ctx context.Context, q repository.Querier, order *repository.OrderRow, product *repository.ProductRow) (Result, error) {
	if product.FileURL == "" {
		if err := repository.SetDeliveryStatus(ctx, q, order.ID, repository.DeliveryFailed, ErrMissingFile.Error()); err != nil {
			return Result{}, fmt.Errorf("mark delivery failed: %w", err)
		}
		return Result{Automated: true, DeliveryStatus: repository.DeliveryFailed, Error: ErrMissingFile.Error(), err: ErrMissingFile}, nil
	}

	note := "Download link: " + product.FileURL
	if err := repository.SetDeliveryStatus(ctx, q, order.ID, repository.DeliveryDelivered, note); err != nil {
		return Result{}, fmt.Errorf("mark delivered: %w", err)
	}
	return Result{Automated: true, DeliveryStatus: repository.DeliveryDelivered, Message: note}, nil
}

func deliverLicenseKey(ctx context.Context, q repository.Querier, order *repository.OrderRow, product *repository.ProductRow) (Result, error) {
	key, err := repository.ClaimLicenseKey(ctx, q, product.ID, order.ID)
	if errors.Is(err, repository.ErrNoLicenseKey) {
		// delivery_status stays pending until the seller restocks
		return Result{Automated: true, DeliveryStatus: order.DeliveryStatus, Error: err.Error(), err: err}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("claim license key: %w", err)
	}

	note := "License key: " + key
	if err := repository.SetDeliveryStatus(ctx, q, order.ID, repository.DeliveryDelivered, note); err != nil {
		return Result{}, fmt.Errorf("mark delivered: %w", err)
	}
	return Result{Automated: true, DeliveryStatus: repository.DeliveryDelivered, Message: note}, nil
}

func deliverManually(ctx context.Context, q repository.Querier, order *repository.OrderRow, product *repository.ProductRow) (Result, error) {
	if err := repository.SetDeliveryStatus(ctx, q, order.ID, repository.DeliveryProcessing, ManualNote); err != nil {
		return Result{}, fmt.Errorf("mark processing: %w", err)
	}
	return Result{Automated: false, DeliveryStatus: repository.DeliveryProcessing, Message: ManualNote}, nil
}
