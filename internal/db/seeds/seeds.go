package seeds

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tapi/api/internal/repository"
)

// Fixed ids so transfers can be sent by hand against a seeded database.
const (
	SellerID         = "seed-seller-1"
	BuyerID          = "seed-buyer-1"
	EbookOrderID     = "a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890"
	LicenseOrderID   = "b2c3d4e5-f6a7-4890-b1c2-d3e4f5a6b7c8"
	AccountOrderID   = "c3d4e5f6-a7b8-4901-c2d3-e4f5a6b7c8d9"
	ServiceOrderID   = "d4e5f6a7-b8c9-4012-d3e4-f5a6b7c8d9e0"
	NoStockOrderID   = "e5f6a7b8-c9d0-4123-e4f5-a6b7c8d9e0f1"
	seedUserEmailFmt = "%s@seed.tapi.local"
)

// Run clears seed-related data and inserts fresh seed data.
// Safe to run multiple times (resets to seed state).
func Run(db *sql.DB) error {
	if err := clear(db); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := insert(context.Background(), db); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func clear(db *sql.DB) error {
	tables := []string{
		"notifications", "unmatched_transactions", "bank_transactions",
		"license_keys", "orders", "products", "users",
	}
	for _, t := range tables {
		if _, err := db.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("delete %s: %w", t, err)
		}
	}
	return nil
}

func insert(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format("2006-01-02T15:04:05.000000Z07:00")
	users := []struct {
		id   string
		name string
		role string
	}{
		{SellerID, "Tran Van Seller", repository.RoleSeller},
		{BuyerID, "Nguyen Thi Buyer", repository.RoleBuyer},
	}
	for _, u := range users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, email, role, created_at) VALUES (?, ?, ?, ?, ?)`,
			u.id, u.name, fmt.Sprintf(seedUserEmailFmt, u.id), u.role, now,
		); err != nil {
			return fmt.Errorf("user %s: %w", u.id, err)
		}
	}

	products := []struct {
		name    string
		typ     repository.ProductType
		price   int64
		fileURL string
		keys    []string
		orderID string
	}{
		{"Go Concurrency Ebook", repository.ProductFileDownload, 100000, "https://cdn.tapi.local/files/go-concurrency.pdf", nil, EbookOrderID},
		{"Editor Pro License", repository.ProductLicenseKey, 250000, "", []string{"EDPRO-1111-AAAA", "EDPRO-2222-BBBB", "EDPRO-3333-CCCC"}, LicenseOrderID},
		{"Streaming Family Slot", repository.ProductSharedAccount, 60000, "", nil, AccountOrderID},
		{"Logo Design", repository.ProductService, 1500000, "", nil, ServiceOrderID},
		{"Sold Out License", repository.ProductLicenseKey, 90000, "", nil, NoStockOrderID},
	}
	for i, p := range products {
		productID, err := repository.CreateProduct(ctx, tx, repository.ProductParams{
			SellerID: SellerID,
			Name:     p.name,
			Type:     p.typ,
			Price:    decimal.NewFromInt(p.price),
			FileURL:  p.fileURL,
		})
		if err != nil {
			return fmt.Errorf("product %s: %w", p.name, err)
		}
		for _, k := range p.keys {
			if _, err := repository.AddLicenseKey(ctx, tx, productID, k); err != nil {
				return fmt.Errorf("license key %s: %w", k, err)
			}
		}
		if _, err := repository.CreateOrder(ctx, tx, repository.OrderParams{
			ID:        p.orderID,
			BuyerID:   BuyerID,
			ProductID: productID,
			Amount:    decimal.NewFromInt(p.price),
			CreatedAt: time.Now().Add(-time.Duration(len(products)-i) * time.Minute),
		}); err != nil {
			return fmt.Errorf("order %s: %w", p.orderID, err)
		}
	}

	return tx.Commit()
}
