package casso

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantN   int
		wantID  Text
		wantAmt int64
		wantErr bool
	}{
		{"single object numeric id", `{"error":0,"data":{"id":123,"description":"DH abc","amount":100000}}`, 1, "123", 100000, false},
		{"array string id", `{"error":0,"data":[{"id":"FT24","amount":"50000"},{"id":2,"amount":1}]}`, 2, "FT24", 50000, false},
		{"missing data", `{"error":0}`, 0, "", 0, true},
		{"null data", `{"error":0,"data":null}`, 0, "", 0, true},
		{"empty array", `{"error":0,"data":[]}`, 0, "", 0, true},
		{"malformed", `{"error":0,"data":`, 0, "", 0, true},
		{"bad id type", `{"error":0,"data":{"id":true}}`, 0, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEnvelope() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEnvelope() error: %v", err)
			}
			if len(env.Data) != tt.wantN {
				t.Fatalf("transactions = %d, want %d", len(env.Data), tt.wantN)
			}
			if env.Data[0].ID != tt.wantID {
				t.Errorf("id = %q, want %q", env.Data[0].ID, tt.wantID)
			}
			if !env.Data[0].Amount.Equal(decimal.NewFromInt(tt.wantAmt)) {
				t.Errorf("amount = %s, want %d", env.Data[0].Amount, tt.wantAmt)
			}
		})
	}
}

func TestTransactionIsTest(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"zero id", Transaction{ID: "0", Amount: decimal.NewFromInt(1000)}, true},
		{"zero amount", Transaction{ID: "55", Amount: decimal.Zero}, true},
		{"test description", Transaction{ID: "55", Amount: decimal.NewFromInt(1000), Description: "Casso TEST webhook"}, true},
		{"real transfer", Transaction{ID: "55", Amount: decimal.NewFromInt(1000), Description: "DH a1b2c3d4"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.IsTest(); got != tt.want {
				t.Errorf("IsTest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransactionAccount(t *testing.T) {
	tx := Transaction{SubAccID: "999", CorresponsiveAccount: "111"}
	if got := tx.Account(); got != "999" {
		t.Errorf("Account() = %q, want 999", got)
	}
	tx.BankSubAccID = "777"
	if got := tx.Account(); got != "777" {
		t.Errorf("Account() = %q, want 777", got)
	}
}
