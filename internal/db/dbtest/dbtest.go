// Package dbtest opens migrated throwaway SQLite databases and inserts the
// marketplace rows the webhook engine reads.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tapi/api/internal/db"
	"tapi/api/internal/repository"
)

// Open creates a migrated database under t.TempDir(), closed on cleanup.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return conn
}

// Fixture holds a seller, a buyer and one product of the requested type.
type Fixture struct {
	DB       *sql.DB
	SellerID string
	BuyerID  string
	Product  *repository.ProductRow
}

var userSeq atomic.Int64

// NewFixture inserts a seller, a buyer and a product.
func NewFixture(t *testing.T, conn *sql.DB, typ repository.ProductType, price int64, fileURL string) *Fixture {
	t.Helper()
	ctx := context.Background()

	n := userSeq.Add(1)
	sellerID, err := repository.CreateUser(ctx, conn, "Seller", fmt.Sprintf("seller-%d@example.com", n), repository.RoleSeller)
	if err != nil {
		t.Fatalf("Failed to create seller: %v", err)
	}
	buyerID, err := repository.CreateUser(ctx, conn, "Buyer", fmt.Sprintf("buyer-%d@example.com", n), repository.RoleBuyer)
	if err != nil {
		t.Fatalf("Failed to create buyer: %v", err)
	}
	productID, err := repository.CreateProduct(ctx, conn, repository.ProductParams{
		SellerID: sellerID,
		Name:     string(typ) + " product",
		Type:     typ,
		Price:    decimal.NewFromInt(price),
		FileURL:  fileURL,
	})
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	product, err := repository.ProductByID(ctx, conn, productID)
	if err != nil {
		t.Fatalf("Failed to load product: %v", err)
	}
	return &Fixture{DB: conn, SellerID: sellerID, BuyerID: buyerID, Product: product}
}

// PendingOrder inserts a pending order for the fixture product. An empty id
// generates one; age shifts created_at into the past.
func (f *Fixture) PendingOrder(t *testing.T, id string, age time.Duration) string {
	t.Helper()
	orderID, err := repository.CreateOrder(context.Background(), f.DB, repository.OrderParams{
		ID:        id,
		BuyerID:   f.BuyerID,
		ProductID: f.Product.ID,
		Amount:    f.Product.Price,
		CreatedAt: time.Now().Add(-age),
	})
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return orderID
}

// LicenseKeys adds keys for the fixture product.
func (f *Fixture) LicenseKeys(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if _, err := repository.AddLicenseKey(context.Background(), f.DB, f.Product.ID, k); err != nil {
			t.Fatalf("Failed to add license key %s: %v", k, err)
		}
	}
}

// Order reloads an order by id.
func Order(t *testing.T, conn *sql.DB, id string) *repository.OrderRow {
	t.Helper()
	o, err := repository.OrderByID(context.Background(), conn, id)
	if err != nil {
		t.Fatalf("Failed to load order %s: %v", id, err)
	}
	return o
}
