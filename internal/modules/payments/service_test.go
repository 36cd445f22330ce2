package payments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
)

func TestCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := payments.NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, payments.CreatePaymentInput{InvoiceID: 1, Method: payments.MethodVietQR, Amount: 0})
	if !errors.Is(err, payments.ErrInvalidAmount) {
		t.Fatalf("zero amount: expected ErrInvalidAmount, got %v", err)
	}

	_, err = svc.Create(ctx, payments.CreatePaymentInput{InvoiceID: 1, Method: "paypal", Amount: 1000})
	if !errors.Is(err, payments.ErrInvalidMethod) {
		t.Fatalf("bad method: expected ErrInvalidMethod, got %v", err)
	}
}

func TestCreateInitializesPending(t *testing.T) {
	db := setupTestDB(t)
	svc := payments.NewService(db)
	seedInvoice(t, db, 1, 100000)

	p := seedPayment(t, db, svc, 1, 100000)
	if p.Status != payments.StatusPending {
		t.Fatalf("status = %s, want pending", p.Status)
	}
	if p.RetryCount != 0 {
		t.Fatalf("retry count = %d, want 0", p.RetryCount)
	}
	if p.ExpiryDate == nil {
		t.Fatalf("expiry date not set")
	}
	if got := countLogs(t, db, p.ID, payments.LogCreated); got != 1 {
		t.Fatalf("created log rows = %d, want 1", got)
	}
}

func TestUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := payments.NewService(db)
	ctx := context.Background()
	seedInvoice(t, db, 1, 100000)
	p := seedPayment(t, db, svc, 1, 100000)

	if _, err := svc.UpdateStatus(ctx, p.ID, "settled", nil); !errors.Is(err, payments.ErrInvalidStatus) {
		t.Fatalf("invalid status: expected ErrInvalidStatus, got %v", err)
	}

	affected, err := svc.UpdateStatus(ctx, "no-such-id", payments.StatusProcessing, nil)
	if err != nil {
		t.Fatalf("unknown id: %v", err)
	}
	if affected {
		t.Fatalf("unknown id reported affected")
	}

	txn := "T1"
	affected, err = svc.UpdateStatus(ctx, p.ID, payments.StatusCompleted, &txn)
	if err != nil || !affected {
		t.Fatalf("complete: affected=%v err=%v", affected, err)
	}

	got := paymentByID(t, db, p.ID)
	if got.Status != payments.StatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if got.PaymentDate == nil {
		t.Fatalf("payment date not stamped on completion")
	}
	if got.TransactionID == nil || *got.TransactionID != "T1" {
		t.Fatalf("transaction id = %v", got.TransactionID)
	}
}

// A pending payment past its expiry is cancelled by the next status read.
func TestGetLazyExpiry(t *testing.T) {
	db := setupTestDB(t)
	svc := payments.NewService(db)
	ctx := context.Background()
	seedInvoice(t, db, 1, 100000)
	p := seedPayment(t, db, svc, 1, 100000)

	past := time.Now().Add(-time.Minute)
	if err := db.Model(&payments.Payment{}).Where("id = ?", p.ID).
		Update("expiry_date", past).Error; err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != payments.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	if !got.IsExpired(time.Now()) {
		t.Fatalf("IsExpired = false after lazy expiry")
	}
	if n := countLogs(t, db, p.ID, payments.LogExpired); n != 1 {
		t.Fatalf("expired log rows = %d, want 1", n)
	}

	// second read must not log again
	if _, err := svc.Get(ctx, p.ID); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if n := countLogs(t, db, p.ID, payments.LogExpired); n != 1 {
		t.Fatalf("expired log rows after second read = %d, want 1", n)
	}
}

func TestRetry(t *testing.T) {
	db := setupTestDB(t)
	svc := payments.NewService(db)
	ctx := context.Background()
	seedInvoice(t, db, 1, 100000)
	p := seedPayment(t, db, svc, 1, 100000)

	if _, err := svc.Retry(ctx, p.ID, time.Minute); !errors.Is(err, payments.ErrRetryExhausted) {
		t.Fatalf("retry of pending payment: expected ErrRetryExhausted, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, p.ID, payments.StatusFailed, nil); err != nil {
		t.Fatalf("fail payment: %v", err)
	}

	for i := 1; i <= payments.MaxRetries; i++ {
		got, err := svc.Retry(ctx, p.ID, time.Minute)
		if err != nil {
			t.Fatalf("retry %d: %v", i, err)
		}
		if got.Status != payments.StatusPending {
			t.Fatalf("retry %d: status = %s", i, got.Status)
		}
		if got.RetryCount != i {
			t.Fatalf("retry %d: count = %d", i, got.RetryCount)
		}
		if _, err := svc.UpdateStatus(ctx, p.ID, payments.StatusFailed, nil); err != nil {
			t.Fatalf("re-fail payment: %v", err)
		}
	}

	if _, err := svc.Retry(ctx, p.ID, time.Minute); !errors.Is(err, payments.ErrRetryExhausted) {
		t.Fatalf("4th retry: expected ErrRetryExhausted, got %v", err)
	}
}
