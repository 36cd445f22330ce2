package payments

import "time"

// PaymentRefund is one refund request against a completed payment.
// Rows transition forward only; a cancel is a status change, never a delete.
type PaymentRefund struct {
	ID                  string     `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID           string     `gorm:"type:char(36);not null;index:ix_payment_refunds_payment_id" json:"paymentId"`
	Amount              int64      `gorm:"not null" json:"amount"`
	Reason              *string    `gorm:"type:varchar(255)" json:"reason"`
	Status              string     `gorm:"type:varchar(16);not null" json:"status"`
	RefundTransactionID *string    `gorm:"type:varchar(128)" json:"refundTransactionId"`
	RefundDate          *time.Time `gorm:"precision:3" json:"refundDate"`
	ProcessedBy         *string    `gorm:"type:varchar(128)" json:"processedBy"`
	CreatedAt           time.Time  `gorm:"precision:3;not null" json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"precision:3;not null" json:"updatedAt"`
}

func (PaymentRefund) TableName() string { return "payment_refunds" }

var validRefundStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusCompleted:  true,
	StatusFailed:     true,
	StatusCancelled:  true,
}

func ValidRefundStatus(s string) bool { return validRefundStatuses[s] }

// refundStatusRank orders the refund state machine so transitions can only
// move forward: pending -> processing -> completed|failed|cancelled.
var refundStatusRank = map[string]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
	StatusCancelled:  2,
}

// Refunds in these statuses consume refundable amount; failed and cancelled
// rows do not.
var refundEligibilityStatuses = []string{StatusPending, StatusProcessing, StatusCompleted}
