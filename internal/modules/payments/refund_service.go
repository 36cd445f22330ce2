package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/modules/invoices"
)

// RefundService owns the payment_refunds ledger. Eligibility is computed
// from the ledger itself; the sum of refunds in {pending, processing,
// completed} never exceeds the payment amount because every create
// re-validates inside a transaction, whatever the caller clamped.
type RefundService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRefundService(db *gorm.DB) *RefundService {
	return &RefundService{db: db, logger: slog.Default()}
}

func (s *RefundService) SetLogger(logger *slog.Logger) { s.logger = logger }

type Eligibility struct {
	CanRefund       bool   `json:"canRefund"`
	PaymentAmount   int64  `json:"paymentAmount"`
	TotalRefunded   int64  `json:"totalRefunded"`
	AvailableAmount int64  `json:"availableRefundAmount"`
	Reason          string `json:"reason"`
}

func (s *RefundService) CheckEligibility(ctx context.Context, paymentID string) (Eligibility, error) {
	var p Payment
	if err := s.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error; err != nil {
		return Eligibility{}, err
	}
	return s.eligibility(s.db.WithContext(ctx), p)
}

// eligibility computes against whatever db handle the caller passes, so
// CreateRefund can re-run it inside its own transaction.
func (s *RefundService) eligibility(db *gorm.DB, p Payment) (Eligibility, error) {
	var total int64
	err := db.Model(&PaymentRefund{}).
		Where("payment_id = ? AND status IN ?", p.ID, refundEligibilityStatuses).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return Eligibility{}, err
	}

	available := p.Amount - total
	if available < 0 {
		available = 0
	}

	e := Eligibility{
		PaymentAmount:   p.Amount,
		TotalRefunded:   total,
		AvailableAmount: available,
	}
	switch {
	case p.Status != StatusCompleted:
		e.Reason = "payment not completed"
	case available == 0:
		e.Reason = "fully refunded already"
	default:
		e.CanRefund = true
		e.Reason = "eligible"
	}
	return e, nil
}

type CreateRefundInput struct {
	PaymentID   string
	Amount      int64 // zero => full available amount
	Reason      string
	ProcessedBy string
}

// CreateRefund records a refund request in pending status. No money moves
// and the payment row is untouched at request time.
func (s *RefundService) CreateRefund(ctx context.Context, in CreateRefundInput) (PaymentRefund, error) {
	var ref PaymentRefund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Payment
		if err := tx.First(&p, "id = ?", in.PaymentID).Error; err != nil {
			return err
		}

		elig, err := s.eligibility(tx, p)
		if err != nil {
			return err
		}
		if !elig.CanRefund {
			return fmt.Errorf("%w: %s", ErrRefundNotEligible, elig.Reason)
		}

		amount := in.Amount
		if amount <= 0 {
			amount = elig.AvailableAmount
		}
		if amount > elig.AvailableAmount {
			return ErrRefundExceedsAvailable
		}

		now := time.Now()
		ref = PaymentRefund{
			ID:        uuid.NewString(),
			PaymentID: p.ID,
			Amount:    amount,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if in.Reason != "" {
			r := in.Reason
			ref.Reason = &r
		}
		if in.ProcessedBy != "" {
			by := in.ProcessedBy
			ref.ProcessedBy = &by
		}
		return tx.Create(&ref).Error
	})
	if err != nil {
		return PaymentRefund{}, err
	}

	appendLog(ctx, s.db, s.logger, ref.PaymentID, LogRefundRequested, map[string]any{
		"refund_id": ref.ID,
		"amount":    ref.Amount,
		"reason":    in.Reason,
	})
	return ref, nil
}

// UpdateRefundStatus moves a refund forward through its state machine.
// Completing a refund stamps refund_date and the external transaction id;
// when completed refunds now cover the whole payment, the same transaction
// flips the payment to refunded and the invoice to Refunded.
func (s *RefundService) UpdateRefundStatus(ctx context.Context, refundID, status string, transactionID *string) (PaymentRefund, error) {
	if !ValidRefundStatus(status) {
		return PaymentRefund{}, ErrInvalidStatus
	}

	var ref PaymentRefund
	var closed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ref, "id = ?", refundID).Error; err != nil {
			return err
		}
		if refundStatusRank[status] < refundStatusRank[ref.Status] ||
			(refundStatusRank[ref.Status] == 2 && status != ref.Status) {
			return ErrRefundBackward
		}

		now := time.Now()
		updates := map[string]any{
			"status":     status,
			"updated_at": now,
		}
		if status == StatusCompleted {
			updates["refund_date"] = now
			if transactionID != nil {
				updates["refund_transaction_id"] = *transactionID
			}
		}
		if err := tx.Model(&PaymentRefund{}).
			Where("id = ?", ref.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		ref.Status = status
		ref.UpdatedAt = now
		if status != StatusCompleted {
			return nil
		}
		ref.RefundDate = &now
		if transactionID != nil {
			ref.RefundTransactionID = transactionID
		}

		// accounting closure: fully refunded payment -> refunded
		var p Payment
		if err := tx.First(&p, "id = ?", ref.PaymentID).Error; err != nil {
			return err
		}
		var completedTotal int64
		if err := tx.Model(&PaymentRefund{}).
			Where("payment_id = ? AND status = ?", p.ID, StatusCompleted).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&completedTotal).Error; err != nil {
			return err
		}
		if completedTotal < p.Amount {
			return nil
		}

		res := tx.Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusCompleted).
			Updates(map[string]any{
				"status":     StatusRefunded,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := invoices.MarkPaymentStatus(tx, p.InvoiceID, invoices.StatusRefunded, now); err != nil {
				return err
			}
			closed = true
		}
		return nil
	})
	if err != nil {
		return PaymentRefund{}, err
	}

	if ref.Status == StatusCompleted {
		appendLog(ctx, s.db, s.logger, ref.PaymentID, LogRefundCompleted, map[string]any{
			"refund_id":      ref.ID,
			"amount":         ref.Amount,
			"fully_refunded": closed,
		})
	}
	return ref, nil
}

func (s *RefundService) ListRefunds(ctx context.Context, paymentID string) ([]PaymentRefund, error) {
	var refs []PaymentRefund
	err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&refs, "payment_id = ?", paymentID).Error
	return refs, err
}
