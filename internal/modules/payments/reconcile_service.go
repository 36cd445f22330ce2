package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/invoices"
)

// AmountTolerance is the matching slack between the stored payment amount
// and the notified amount, in VND (rounding/fee slack).
const AmountTolerance = 1000

// BankEvent records every accepted bank notification. The unique
// transaction_id index makes webhook processing explicitly idempotent: a
// bank retrying a delivery is acknowledged as a duplicate without touching
// payment state.
type BankEvent struct {
	ID            string         `gorm:"type:char(36);primaryKey"`
	TransactionID string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_bank_events_transaction_id"`
	Payload       datatypes.JSON `gorm:"type:json"`
	ReceivedAt    time.Time      `gorm:"precision:3;not null"`
	ProcessedAt   *time.Time     `gorm:"precision:3"`
}

func (BankEvent) TableName() string { return "bank_events" }

// BankNotification is an untrusted "money arrived" signal, delivered by
// webhook or reported manually.
type BankNotification struct {
	TransactionID string
	Amount        int64
	Content       string
	AccountNo     string
	BankCode      string
	Timestamp     string
}

// ReconcileService turns bank notifications into completed payments exactly
// once. Every multi-statement mutation runs inside a single transaction;
// the status='pending' predicate on the completing update is what stops two
// concurrent deliveries from finishing the same payment twice.
type ReconcileService struct {
	db       *gorm.DB
	provider BankProvider
	logger   *slog.Logger

	// PollAttempts bounds the simulated probe loop on the auto-poll path.
	PollAttempts int
}

func NewReconcileService(db *gorm.DB, provider BankProvider) *ReconcileService {
	return &ReconcileService{db: db, provider: provider, logger: slog.Default(), PollAttempts: 3}
}

func (s *ReconcileService) SetLogger(logger *slog.Logger) { s.logger = logger }

// HandleBankNotification processes one webhook delivery.
//
// Inside one transaction: dedupe by transaction id, parse the memo, match
// the most recent pending payment for that invoice within the amount
// tolerance, complete it, mark the invoice Partial and append the
// webhook_received log. Any failure rolls the whole delivery back; nothing
// partially commits.
func (s *ReconcileService) HandleBankNotification(ctx context.Context, n BankNotification, raw []byte) error {
	if n.TransactionID == "" {
		return errors.New("missing transactionId")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&BankEvent{}).
			Where("transaction_id = ?", n.TransactionID).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrDuplicateNotification
		}

		now := time.Now()
		ev := BankEvent{
			ID:            uuid.NewString(),
			TransactionID: n.TransactionID,
			Payload:       rawPayload(raw, n),
			ReceivedAt:    now,
		}
		if err := tx.Create(&ev).Error; err != nil {
			if isDup(err) {
				// lost the race with a concurrent delivery of the same txn
				return ErrDuplicateNotification
			}
			return err
		}

		p, err := s.applyNotification(tx, n, raw)
		if err != nil {
			return err
		}

		processed := time.Now()
		if err := tx.Model(&BankEvent{}).
			Where("id = ?", ev.ID).
			Updates(map[string]any{"processed_at": &processed}).Error; err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "bank notification reconciled",
			"transaction_id", n.TransactionID, "payment_id", p.ID, "invoice_id", p.InvoiceID)
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "bank notification rejected",
			"transaction_id", n.TransactionID, "err", err)
	}
	return err
}

// applyNotification matches and completes; runs inside the caller's tx.
func (s *ReconcileService) applyNotification(tx *gorm.DB, n BankNotification, raw []byte) (Payment, error) {
	invoiceID, err := ParseMemo(n.Content)
	if err != nil {
		return Payment{}, fmt.Errorf("invalid content format: %w", err)
	}

	// most recently created pending payment within tolerance
	var p Payment
	err = tx.
		Where("invoice_id = ? AND status = ? AND ABS(amount - ?) < ?",
			invoiceID, StatusPending, n.Amount, AmountTolerance).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Payment{}, ErrNoMatchingPayment
		}
		return Payment{}, err
	}

	now := time.Now()
	updates := map[string]any{
		"status":         StatusCompleted,
		"transaction_id": n.TransactionID,
		"payment_date":   now,
		"updated_at":     now,
	}
	if n.BankCode != "" {
		updates["bank_code"] = n.BankCode
	}

	res := tx.Model(&Payment{}).
		Where("id = ? AND status = ?", p.ID, StatusPending).
		Updates(updates)
	if res.Error != nil {
		return Payment{}, res.Error
	}
	if res.RowsAffected == 0 {
		// completed by a concurrent delivery between match and update
		return Payment{}, ErrNoMatchingPayment
	}

	// The webhook only confirms that a transfer arrived, not that the
	// invoice is settled, so it marks Partial. Paid is reserved for the
	// manual and force-verify paths.
	if err := invoices.MarkPaymentStatus(tx, p.InvoiceID, invoices.StatusPartial, now); err != nil {
		return Payment{}, err
	}

	// webhook_received is part of the atomic boundary, unlike every other
	// log write in this package.
	entry := PaymentLog{
		ID:        uuid.NewString(),
		PaymentID: p.ID,
		Action:    LogWebhookReceived,
		Details:   rawPayload(raw, n),
		CreatedAt: now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return Payment{}, err
	}

	p.Status = StatusCompleted
	return p, nil
}

type VerifyInput struct {
	PaymentID     string
	TransactionID string
	Amount        int64
	Content       string
}

// VerifyManual reconciles a transfer reported by a human. The caller names
// the payment; the parser only validates that the memo references the same
// invoice. Completion, invoice propagation and logging run in one
// transaction, the same pattern as the webhook path.
func (s *ReconcileService) VerifyManual(ctx context.Context, in VerifyInput) (Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", in.PaymentID).Error; err != nil {
			return err
		}
		if p.Status == StatusCompleted {
			return ErrAlreadyCompleted
		}

		invoiceID, err := ParseMemo(in.Content)
		if err != nil {
			return fmt.Errorf("invalid content format: %w", err)
		}
		if invoiceID != p.InvoiceID {
			return ErrMemoMismatch
		}
		if diff := p.Amount - in.Amount; diff >= AmountTolerance || diff <= -AmountTolerance {
			return ErrAmountMismatch
		}

		now := time.Now()
		res := tx.Model(&Payment{}).
			Where("id = ? AND status <> ?", p.ID, StatusCompleted).
			Updates(map[string]any{
				"status":         StatusCompleted,
				"transaction_id": in.TransactionID,
				"payment_date":   now,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCompleted
		}

		if err := invoices.MarkPaymentStatus(tx, p.InvoiceID, invoices.StatusPaid, now); err != nil {
			return err
		}

		p.Status = StatusCompleted
		p.TransactionID = &in.TransactionID
		p.PaymentDate = &now
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	appendLog(ctx, s.db, s.logger, p.ID, LogVerified, map[string]any{
		"transaction_id": in.TransactionID,
		"amount":         in.Amount,
		"content":        in.Content,
	})
	return p, nil
}

// ForceVerify unconditionally completes a payment (admin/testing escape
// hatch). Idempotent when already completed.
func (s *ReconcileService) ForceVerify(ctx context.Context, paymentID string) (Payment, error) {
	var p Payment
	var already bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", paymentID).Error; err != nil {
			return err
		}
		if p.Status == StatusCompleted {
			already = true
			return nil
		}

		now := time.Now()
		txnID := "FORCE-" + uuid.NewString()
		res := tx.Model(&Payment{}).
			Where("id = ? AND status <> ?", p.ID, StatusCompleted).
			Updates(map[string]any{
				"status":         StatusCompleted,
				"transaction_id": txnID,
				"payment_date":   now,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			already = true
			return nil
		}

		if err := invoices.MarkPaymentStatus(tx, p.InvoiceID, invoices.StatusPaid, now); err != nil {
			return err
		}

		p.Status = StatusCompleted
		p.TransactionID = &txnID
		p.PaymentDate = &now
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	if !already {
		appendLog(ctx, s.db, s.logger, p.ID, LogForceVerified, nil)
	}
	return p, nil
}

// CheckWithProvider is the auto-poll fallback when no webhook arrives: a
// bounded number of probes against the bank provider, reusing the webhook
// completion semantics (invoice Partial) on a positive probe.
func (s *ReconcileService) CheckWithProvider(ctx context.Context, paymentID string) (bool, Payment, error) {
	var p Payment
	if err := s.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error; err != nil {
		return false, Payment{}, err
	}
	if p.Status == StatusCompleted {
		return true, p, nil
	}
	if p.Status != StatusPending {
		return false, p, nil
	}

	memo := TransferMemo(p.InvoiceID)
	for i := 0; i < s.PollAttempts; i++ {
		res, err := s.provider.CheckTransaction(ctx, memo, p.Amount)
		if err != nil {
			if ctx.Err() != nil {
				return false, p, ctx.Err()
			}
			s.logger.WarnContext(ctx, "bank provider check failed",
				"payment_id", p.ID, "attempt", i+1, "err", err)
			continue
		}
		if !res.Found {
			continue
		}

		n := BankNotification{
			TransactionID: res.TransactionID,
			Amount:        res.Amount,
			Content:       memo,
		}
		if err := s.HandleBankNotification(ctx, n, nil); err != nil {
			return false, p, err
		}
		if err := s.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error; err != nil {
			return false, Payment{}, err
		}
		return true, p, nil
	}
	return false, p, nil
}

func rawPayload(raw []byte, n BankNotification) datatypes.JSON {
	if len(raw) > 0 && json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	b, _ := json.Marshal(map[string]any{
		"transactionId": n.TransactionID,
		"amount":        n.Amount,
		"content":       n.Content,
		"accountNo":     n.AccountNo,
		"bankCode":      n.BankCode,
		"timestamp":     n.Timestamp,
	})
	return datatypes.JSON(b)
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
