package casso_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"tapi/api/internal/casso"
	"tapi/api/internal/config"
	"tapi/api/internal/db/dbtest"
	"tapi/api/internal/delivery"
	"tapi/api/internal/notify"
	"tapi/api/internal/reconcile"
	"tapi/api/internal/repository"
)

const (
	secret  = "s3cret"
	orderID = "a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890"
)

func testConfig() *config.Config {
	return &config.Config{CassoWebhookSecret: secret, WebhookMaxBodyBytes: 1 << 16}
}

type setup struct {
	fixture *dbtest.Fixture
	handler *casso.Handler
	emitter *notify.Emitter
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	conn := dbtest.Open(t)
	f := dbtest.NewFixture(t, conn, repository.ProductFileDownload, 100000, "https://cdn.example.com/ebook.pdf")
	f.PendingOrder(t, orderID, 0)

	emitter := notify.NewEmitter(conn)
	tolerance := reconcile.Tolerance{Min: decimal.NewFromInt(1000), Percent: decimal.RequireFromString("0.01")}
	engine := reconcile.NewEngine(conn, tolerance, delivery.NewDispatcher(conn), emitter, 50)
	t.Cleanup(emitter.Wait)
	return &setup{fixture: f, handler: casso.NewHandler(engine, testConfig()), emitter: emitter}
}

func post(h http.HandlerFunc, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/casso", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func signed(body string) map[string]string {
	return map[string]string{"X-Casso-Signature": "sha256=" + casso.Sign(secret, []byte(body))}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandleWebhookProcessesPayment(t *testing.T) {
	s := newSetup(t)
	body := `{"error":0,"data":[{"id":9001,"tid":"FT2401","description":"DH a1b2c3d4e5f67890a1b2c3d4e5f67890","amount":100000,"when":"2024-05-01 10:00:00","subAccId":"0123"}]}`

	rec := post(s.handler.HandleWebhook, body, signed(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decode(t, rec)
	if out["status"] != string(reconcile.StatusProcessed) || out["order_id"] != orderID || out["transaction_id"] != "9001" {
		t.Errorf("response = %v", out)
	}
	d, ok := out["delivery"].(map[string]interface{})
	if !ok || d["delivery_status"] != repository.DeliveryDelivered {
		t.Errorf("delivery = %v", out["delivery"])
	}

	order := dbtest.Order(t, s.fixture.DB, orderID)
	if order.Status != repository.OrderPaid || order.DeliveryStatus != repository.DeliveryDelivered {
		t.Errorf("order status=%q delivery_status=%q", order.Status, order.DeliveryStatus)
	}
	ledger, err := repository.BankTransactionByTxID(context.Background(), s.fixture.DB, "9001")
	if err != nil {
		t.Fatalf("BankTransactionByTxID() error: %v", err)
	}
	if ledger.Reference != "FT2401" || ledger.Account != "0123" {
		t.Errorf("ledger = %+v", ledger)
	}

	again := post(s.handler.HandleWebhook, body, signed(body))
	if got := decode(t, again)["status"]; again.Code != http.StatusOK || got != string(reconcile.StatusAlreadyProcessed) {
		t.Errorf("redelivery = %d %v", again.Code, got)
	}
}

func TestHandleWebhookRejections(t *testing.T) {
	valid := `{"error":0,"data":{"id":77,"description":"DH a1b2c3d4e5f67890a1b2c3d4e5f67890","amount":100000}}`
	tests := []struct {
		name     string
		method   string
		body     string
		headers  map[string]string
		wantCode int
	}{
		{"wrong method", http.MethodGet, "", nil, http.StatusMethodNotAllowed},
		{"malformed json", http.MethodPost, `{"error":0,"data":`, nil, http.StatusBadRequest},
		{"missing data", http.MethodPost, `{"error":0}`, nil, http.StatusBadRequest},
		{"no signature", http.MethodPost, valid, nil, http.StatusUnauthorized},
		{"wrong secret", http.MethodPost, valid, map[string]string{"Signature": casso.Sign("other", []byte(valid))}, http.StatusUnauthorized},
		{"empty id", http.MethodPost, `{"error":0,"data":{"id":"","description":"DH a1b2c3d4","amount":5000}}`, signed(`{"error":0,"data":{"id":"","description":"DH a1b2c3d4","amount":5000}}`), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSetup(t)
			req := httptest.NewRequest(tt.method, "/v1/webhooks/casso", bytes.NewBufferString(tt.body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			s.handler.HandleWebhook(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if _, ok := decode(t, rec)["error"]; !ok {
				t.Errorf("response has no error field: %s", rec.Body.String())
			}
			n, err := repository.CountBankTransactions(context.Background(), s.fixture.DB, "77")
			if err != nil || n != 0 {
				t.Errorf("ledger rows = %d, %v; want none", n, err)
			}
		})
	}
}

func TestHandleWebhookMissingSecret(t *testing.T) {
	cfg := testConfig()
	cfg.CassoWebhookSecret = ""
	h := casso.NewHandler(nil, cfg)

	rec := post(h.HandleWebhook, `{"error":0,"data":{"id":0,"amount":0}}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleWebhookTestPayloadSkipsSignature(t *testing.T) {
	s := newSetup(t)
	body := `{"error":0,"data":{"id":1234,"description":"giao dich thu","amount":0}}`

	rec := post(s.handler.HandleWebhook, body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["status"]; got != string(reconcile.StatusTestWebhook) {
		t.Errorf("status = %v, want test_webhook", got)
	}
	n, err := repository.CountBankTransactions(context.Background(), s.fixture.DB, "1234")
	if err != nil || n != 0 {
		t.Errorf("ledger rows = %d, %v; want none", n, err)
	}
}

func TestHandleWebhookSenderError(t *testing.T) {
	s := newSetup(t)
	body := `{"error":1,"data":{"id":55,"description":"DH a1b2c3d4e5f67890a1b2c3d4e5f67890","amount":100000}}`

	rec := post(s.handler.HandleWebhook, body, signed(body))
	if got := decode(t, rec)["status"]; rec.Code != http.StatusOK || got != string(reconcile.StatusIgnored) {
		t.Errorf("response = %d %v, want 200 ignored", rec.Code, got)
	}
	if o := dbtest.Order(t, s.fixture.DB, orderID); o.Status != repository.OrderPending {
		t.Errorf("order status = %q, want pending", o.Status)
	}
}

func TestHandleWebhookBatch(t *testing.T) {
	s := newSetup(t)
	body := `{"error":0,"data":[
		{"id":0,"description":"test","amount":0},
		{"id":"A1","description":"chuyen khoan","amount":20000},
		{"id":"A2","description":"DH a1b2c3d4e5f67890a1b2c3d4e5f67890","amount":100000}
	]}`

	rec := post(s.handler.HandleWebhook, body, signed(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Results []reconcile.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []reconcile.Status{reconcile.StatusTestWebhook, reconcile.StatusNoOrderFound, reconcile.StatusProcessed}
	if len(out.Results) != len(want) {
		t.Fatalf("results = %d, want %d", len(out.Results), len(want))
	}
	for i, w := range want {
		if out.Results[i].Status != w {
			t.Errorf("results[%d].status = %q, want %q", i, out.Results[i].Status, w)
		}
	}
}

type brokenProcessor struct{}

func (brokenProcessor) Process(context.Context, reconcile.Transaction) (reconcile.Result, error) {
	return reconcile.Result{}, errors.New("database is locked")
}

func TestHandleWebhookInfrastructureError(t *testing.T) {
	h := casso.NewHandler(brokenProcessor{}, testConfig())
	body := `{"error":0,"data":{"id":88,"description":"DH a1b2c3d4","amount":5000}}`

	rec := post(h.HandleWebhook, body, signed(body))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleWebhookBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.WebhookMaxBodyBytes = 16
	h := casso.NewHandler(brokenProcessor{}, cfg)

	rec := post(h.HandleWebhook, `{"error":0,"data":{"id":88,"description":"long enough to overflow"}}`, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}
