package admin_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"tapi/api/internal/admin"
	"tapi/api/internal/db/dbtest"
	"tapi/api/internal/repository"
)

func seedUnmatched(t *testing.T, conn repository.Querier, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		p := repository.BankTransactionParams{
			TransactionID: fmt.Sprintf("U%03d", i),
			Description:   "chuyen khoan",
			Amount:        decimal.NewFromInt(10000),
		}
		if err := repository.InsertUnmatchedTransaction(context.Background(), conn, p, "no order id found in description", ""); err != nil {
			t.Fatalf("InsertUnmatchedTransaction() error: %v", err)
		}
	}
}

func TestListUnmatched(t *testing.T) {
	conn := dbtest.Open(t)
	seedUnmatched(t, conn, 5)
	h := admin.NewHandler(conn)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCount int
	}{
		{"default limit", "", http.StatusOK, 5},
		{"explicit limit", "?limit=2", http.StatusOK, 2},
		{"capped limit", "?limit=100000", http.StatusOK, 5},
		{"invalid limit", "?limit=abc", http.StatusBadRequest, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ListUnmatched(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/unmatched"+tt.query, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var out struct {
				Unmatched []repository.UnmatchedRow `json:"unmatched"`
				Count     int                       `json:"count"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Count != tt.wantCount || len(out.Unmatched) != tt.wantCount {
				t.Errorf("count = %d (%d rows), want %d", out.Count, len(out.Unmatched), tt.wantCount)
			}
		})
	}
}

func TestGetTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	if _, err := repository.InsertBankTransaction(ctx, conn, repository.BankTransactionParams{
		TransactionID: "FT1",
		Description:   "DH a1b2c3d4",
		Amount:        decimal.NewFromInt(50000),
	}); err != nil {
		t.Fatalf("InsertBankTransaction() error: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/admin/transactions/{transactionID}", admin.NewHandler(conn).GetTransaction)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/transactions/FT1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got repository.BankTransactionRow
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TransactionID != "FT1" || !got.Amount.Equal(decimal.NewFromInt(50000)) || got.Processed {
		t.Errorf("transaction = %+v", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/transactions/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	conn := dbtest.Open(t)
	h := admin.NewHandler(conn)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	conn.Close()
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status after close = %d, want 503", rec.Code)
	}
}
