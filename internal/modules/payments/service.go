package payments

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the payment ledger: the only legitimate writer of payment rows
// outside the reconciliation and refund services.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, logger: slog.Default()}
}

func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

type CreatePaymentInput struct {
	InvoiceID int64
	Method    string
	Amount    int64
	BankCode  *string
	QRCodeURL *string
	ExpiresIn time.Duration // zero => no expiry
	Notes     *string
}

func (s *Service) Create(ctx context.Context, in CreatePaymentInput) (Payment, error) {
	if in.Amount <= 0 {
		return Payment{}, ErrInvalidAmount
	}
	if !ValidMethod(in.Method) {
		return Payment{}, ErrInvalidMethod
	}

	now := time.Now()
	p := Payment{
		ID:         uuid.NewString(),
		InvoiceID:  in.InvoiceID,
		Method:     in.Method,
		Status:     StatusPending,
		Amount:     in.Amount,
		BankCode:   in.BankCode,
		QRCodeURL:  in.QRCodeURL,
		RetryCount: 0,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.ExpiresIn > 0 {
		exp := now.Add(in.ExpiresIn)
		p.ExpiryDate = &exp
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return Payment{}, err
	}

	appendLog(ctx, s.db, s.logger, p.ID, LogCreated, map[string]any{
		"invoice_id": p.InvoiceID,
		"method":     p.Method,
		"amount":     p.Amount,
	})
	return p, nil
}

// UpdateStatus validates against the fixed status set, stamps payment_date
// when completing and always stamps updated_at. Returns whether a row was
// affected; false means the id is unknown, which is not an error.
func (s *Service) UpdateStatus(ctx context.Context, id, status string, transactionID *string) (bool, error) {
	if !ValidStatus(status) {
		return false, ErrInvalidStatus
	}

	now := time.Now()
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if status == StatusCompleted {
		updates["payment_date"] = now
	}
	if transactionID != nil {
		updates["transaction_id"] = *transactionID
	}

	res := s.db.WithContext(ctx).Model(&Payment{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// Get loads a payment and applies lazy expiry: a pending payment past its
// expiry date is transitioned to cancelled before being returned. There is
// no timer doing this proactively.
func (s *Service) Get(ctx context.Context, id string) (Payment, error) {
	var p Payment
	var expired bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}

		now := time.Now()
		if p.Status != StatusPending || !p.IsExpired(now) {
			return nil
		}

		// guarded update: a concurrent completion wins
		res := tx.Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusPending).
			Updates(map[string]any{
				"status":     StatusCancelled,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			p.Status = StatusCancelled
			p.UpdatedAt = now
			expired = true
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	if expired {
		appendLog(ctx, s.db, s.logger, p.ID, LogExpired, map[string]any{
			"expiry_date": p.ExpiryDate,
		})
	}
	return p, nil
}

// Retry re-arms a failed or cancelled payment while retry_count < 3.
func (s *Service) Retry(ctx context.Context, id string, expiresIn time.Duration) (Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if !p.CanRetry() {
			return ErrRetryExhausted
		}

		now := time.Now()
		updates := map[string]any{
			"status":      StatusPending,
			"retry_count": p.RetryCount + 1,
			"updated_at":  now,
		}
		if expiresIn > 0 {
			updates["expiry_date"] = now.Add(expiresIn)
		}

		res := tx.Model(&Payment{}).
			Where("id = ? AND status = ? AND retry_count < ?", p.ID, p.Status, MaxRetries).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRetryExhausted
		}
		return tx.First(&p, "id = ?", id).Error
	})
	if err != nil {
		return Payment{}, err
	}

	appendLog(ctx, s.db, s.logger, p.ID, LogRetried, map[string]any{
		"retry_count": p.RetryCount,
	})
	return p, nil
}

func (s *Service) Logs(ctx context.Context, paymentID string) ([]PaymentLog, error) {
	var logs []PaymentLog
	err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&logs, "payment_id = ?", paymentID).Error
	return logs, err
}

// ChangedSince reports whether the payment's last mutation falls inside the
// given window. Used by the polling endpoints (window = 2 minutes).
func (s *Service) ChangedSince(ctx context.Context, id string, window time.Duration) (bool, error) {
	var p Payment
	if err := s.db.WithContext(ctx).Select("updated_at").First(&p, "id = ?", id).Error; err != nil {
		return false, err
	}
	return time.Since(p.UpdatedAt) <= window, nil
}

// appendLog writes an audit row. Log failures are logged and swallowed:
// observability must never roll back the mutation it observes.
func appendLog(ctx context.Context, db *gorm.DB, logger *slog.Logger, paymentID, action string, details any) {
	var payload datatypes.JSON
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			payload = datatypes.JSON(b)
		}
	}

	entry := PaymentLog{
		ID:        uuid.NewString(),
		PaymentID: paymentID,
		Action:    action,
		Details:   payload,
		CreatedAt: time.Now(),
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "payment log write failed",
				"payment_id", paymentID, "action", action, "err", err)
		}
	}
}
