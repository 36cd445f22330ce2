package payments

import (
	"time"

	"gorm.io/datatypes"
)

// Log actions. One row per state-changing action on a payment.
const (
	LogCreated         = "created"
	LogVerified        = "verified"
	LogFailed          = "failed"
	LogExpired         = "expired"
	LogWebhookReceived = "webhook_received"
	LogForceVerified   = "force_verified"
	LogRetried         = "retried"
	LogRefundRequested = "refund_requested"
	LogRefundCompleted = "refund_completed"
)

// PaymentLog is append-only and exists purely for observability. A failed
// log write must never roll back the payment mutation it describes.
type PaymentLog struct {
	ID        string         `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID string         `gorm:"type:char(36);not null;index:ix_payment_logs_payment_id" json:"paymentId"`
	Action    string         `gorm:"type:varchar(32);not null" json:"action"`
	Details   datatypes.JSON `gorm:"type:json" json:"details"`
	CreatedAt time.Time      `gorm:"precision:3;not null" json:"createdAt"`
}

func (PaymentLog) TableName() string { return "payment_logs" }
