package payments_test

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/invoices"
	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/payments"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func seedInvoice(t *testing.T, db *gorm.DB, id, total int64) invoices.Invoice {
	t.Helper()
	inv := invoices.Invoice{
		ID:            id,
		GuestName:     "Nguyen Van A",
		TotalAmount:   total,
		PaymentStatus: invoices.StatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func seedPayment(t *testing.T, db *gorm.DB, svc *payments.Service, invoiceID, amount int64) payments.Payment {
	t.Helper()
	p, err := svc.Create(context.Background(), payments.CreatePaymentInput{
		InvoiceID: invoiceID,
		Method:    payments.MethodVietQR,
		Amount:    amount,
		ExpiresIn: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func invoiceStatus(t *testing.T, db *gorm.DB, id int64) string {
	t.Helper()
	var inv invoices.Invoice
	if err := db.First(&inv, "id = ?", id).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	return inv.PaymentStatus
}

func paymentByID(t *testing.T, db *gorm.DB, id string) payments.Payment {
	t.Helper()
	var p payments.Payment
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	return p
}

func countLogs(t *testing.T, db *gorm.DB, paymentID, action string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&payments.PaymentLog{}).
		Where("payment_id = ? AND action = ?", paymentID, action).
		Count(&n).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}
