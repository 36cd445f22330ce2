package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apphttp "github.com/toikobi401/SWP391-HotelManagement-sub002/internal/http"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/invoices"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("ARCHIVE_LOCAL_DIR", t.TempDir())

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&invoices.Invoice{},
		&payments.Payment{},
		&payments.PaymentLog{},
		&payments.PaymentRefund{},
		&payments.BankEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return apphttp.NewRouter(logger, db), db
}

func seedInvoice(t *testing.T, db *gorm.DB, id, total int64) {
	t.Helper()
	inv := invoices.Invoice{
		ID: id, GuestName: "Tran Thi B", TotalAmount: total,
		PaymentStatus: invoices.StatusPending,
		CreatedAt:     time.Now(), UpdatedAt: time.Now(),
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	return rr, decode(t, rr)
}

func getJSON(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(rr, req)
	return rr, decode(t, rr)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestGenerateValidation(t *testing.T) {
	r, _ := setupRouter(t)

	rr, body := postJSON(t, r, "/api/payments/vietqr/generate", map[string]any{"amount": 100000})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
}

func TestGenerateUnknownInvoice(t *testing.T) {
	r, _ := setupRouter(t)

	rr, body := postJSON(t, r, "/api/payments/vietqr/generate", map[string]any{
		"invoiceId": 99, "amount": 100000,
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if body["success"] != false {
		t.Fatalf("success = %v", body["success"])
	}
}

func TestGenerateWebhookStatusFlow(t *testing.T) {
	r, db := setupRouter(t)
	seedInvoice(t, db, 10, 100000)

	rr, body := postJSON(t, r, "/api/payments/vietqr/generate", map[string]any{
		"invoiceId": 10, "amount": 100000, "description": "dat phong",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("generate status = %d body=%s", rr.Code, rr.Body.String())
	}
	paymentID, _ := body["paymentId"].(string)
	if paymentID == "" {
		t.Fatalf("missing paymentId in %v", body)
	}
	if body["qrCodeUrl"] == "" {
		t.Fatalf("missing qrCodeUrl")
	}

	// caller-supplied account details must not leak into the QR link
	time.Sleep(5 * time.Millisecond)
	rr2, body2 := postJSON(t, r, "/api/payments/vietqr/generate", map[string]any{
		"invoiceId": 10, "amount": 100000, "bankId": "999999", "accountNo": "attacker",
	})
	if rr2.Code != http.StatusOK {
		t.Fatalf("generate2 status = %d", rr2.Code)
	}
	if url, _ := body2["qrCodeUrl"].(string); bytes.Contains([]byte(url), []byte("attacker")) {
		t.Fatalf("caller-supplied account leaked into qr url: %s", url)
	}

	rr, body = postJSON(t, r, "/api/payments/webhook/bank-notification", map[string]any{
		"transactionId": "T1", "amount": 100000, "content": "HOTELHUB INV10",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("webhook status = %d body=%s", rr.Code, rr.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("webhook success = %v", body["success"])
	}

	// duplicate delivery answers 400 with a success flag, never a 500
	rr, body = postJSON(t, r, "/api/payments/webhook/bank-notification", map[string]any{
		"transactionId": "T1", "amount": 100000, "content": "HOTELHUB INV10",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate webhook status = %d", rr.Code)
	}
	if body["success"] != false {
		t.Fatalf("duplicate webhook success = %v", body["success"])
	}

	// the second (most recent) payment completed; check via its status page
	p2, _ := body2["paymentId"].(string)
	rr, body = getJSON(t, r, "/api/payments/status/"+p2)
	if rr.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rr.Code)
	}
	payment, _ := body["payment"].(map[string]any)
	if payment["status"] != payments.StatusCompleted {
		t.Fatalf("payment status = %v, want completed", payment["status"])
	}
	// models serialize with camelCase keys, matching the envelope
	if _, ok := payment["Status"]; ok {
		t.Fatalf("payment serialized with Go-cased keys: %v", payment)
	}
	if payment["invoiceId"] != float64(10) {
		t.Fatalf("payment invoiceId = %v", payment["invoiceId"])
	}
	invoice, _ := body["invoice"].(map[string]any)
	if invoice["paymentStatus"] != invoices.StatusPartial {
		t.Fatalf("invoice status = %v, want Partial", invoice["paymentStatus"])
	}
}

func TestWebhookInvalidContentFormat(t *testing.T) {
	r, db := setupRouter(t)
	seedInvoice(t, db, 10, 100000)

	rr, body := postJSON(t, r, "/api/payments/webhook/bank-notification", map[string]any{
		"transactionId": "T9", "amount": 100000, "content": "INVALID TEXT",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if body["success"] != false {
		t.Fatalf("success = %v", body["success"])
	}
	msg, _ := body["message"].(string)
	if !bytes.Contains([]byte(msg), []byte("missing HOTELHUB INV pattern")) {
		t.Fatalf("message = %q", msg)
	}
}

func TestRetryPendingPaymentRejected(t *testing.T) {
	r, db := setupRouter(t)
	seedInvoice(t, db, 3, 50000)

	rr, body := postJSON(t, r, "/api/payments/vietqr/generate", map[string]any{
		"invoiceId": 3, "amount": 50000,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("generate status = %d", rr.Code)
	}
	pid, _ := body["paymentId"].(string)

	// only failed or cancelled payments can be re-armed
	rr, body = postJSON(t, r, "/api/payments/retry/"+pid, map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("retry status = %d, want 400", rr.Code)
	}
	if body["success"] != false {
		t.Fatalf("success = %v", body["success"])
	}
}

func TestRefundEligibilityUnknownPayment(t *testing.T) {
	r, _ := setupRouter(t)

	rr, body := getJSON(t, r, "/api/payments/no-such-id/refund-eligibility")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if body["success"] != false {
		t.Fatalf("success = %v", body["success"])
	}
}
