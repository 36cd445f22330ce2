package invoices

import "time"

// Payment-status values the payment core is allowed to write back.
const (
	StatusPending   = "Pending"
	StatusPartial   = "Partial"
	StatusPaid      = "Paid"
	StatusRefunded  = "Refunded"
	StatusCancelled = "Cancelled"
)

// Invoice is owned by the booking back office; the payment core only reads
// existence/amount and writes PaymentStatus.
type Invoice struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GuestName     string    `gorm:"type:varchar(255);not null" json:"guestName"`
	TotalAmount   int64     `gorm:"not null" json:"totalAmount"`
	PaymentStatus string    `gorm:"type:varchar(16);not null;default:Pending" json:"paymentStatus"`
	CreatedAt     time.Time `gorm:"precision:3;not null" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"precision:3;not null" json:"updatedAt"`
}

func (Invoice) TableName() string { return "invoices" }
