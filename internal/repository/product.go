package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType selects how an order is fulfilled once paid.
type ProductType string

const (
	ProductFileDownload           ProductType = "file_download"
	ProductLicenseKey             ProductType = "license_key_delivery"
	ProductSharedAccount          ProductType = "shared_account"
	ProductUpgradeAccountNoPass   ProductType = "upgrade_account_no_pass"
	ProductUpgradeAccountWithPass ProductType = "upgrade_account_with_pass"
	ProductService                ProductType = "service"
)

type ProductRow struct {
	ID        string
	SellerID  string
	Name      string
	Type      ProductType
	Price     decimal.Decimal
	FileURL   string
	CreatedAt time.Time
}

type ProductParams struct {
	SellerID string
	Name     string
	Type     ProductType
	Price    decimal.Decimal
	FileURL  string
}

func CreateProduct(ctx context.Context, q Querier, p ProductParams) (string, error) {
	id := uuid.New().String()
	_, err := q.ExecContext(ctx,
		`INSERT INTO products (id, seller_id, name, type, price, file_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.SellerID, p.Name, string(p.Type), p.Price, nullString(p.FileURL), formatTime(time.Now()),
	)
	return id, err
}

func ProductByID(ctx context.Context, q Querier, id string) (*ProductRow, error) {
	var p ProductRow
	var typ, createdAt string
	var fileURL sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, seller_id, name, type, price, file_url, created_at FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.SellerID, &p.Name, &typ, &p.Price, &fileURL, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Type = ProductType(typ)
	p.FileURL = fileURL.String
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}
