package payments

import "time"

const (
	MethodVietQR = "vietqr"
	MethodVNPay  = "vnpay"
	MethodCash   = "cash"
	MethodCard   = "card"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// MaxRetries bounds how many times a failed or cancelled payment may be
// re-armed back to pending.
const MaxRetries = 3

var validMethods = map[string]bool{
	MethodVietQR: true,
	MethodVNPay:  true,
	MethodCash:   true,
	MethodCard:   true,
}

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusCompleted:  true,
	StatusFailed:     true,
	StatusCancelled:  true,
	StatusRefunded:   true,
}

func ValidMethod(m string) bool { return validMethods[m] }
func ValidStatus(s string) bool { return validStatuses[s] }

// Payment is one funding attempt against an invoice. Amounts are whole VND.
type Payment struct {
	ID            string     `gorm:"type:char(36);primaryKey" json:"id"`
	InvoiceID     int64      `gorm:"not null;index:ix_payments_invoice_id" json:"invoiceId"`
	Method        string     `gorm:"type:varchar(16);not null" json:"method"`
	Status        string     `gorm:"type:varchar(16);not null" json:"status"`
	Amount        int64      `gorm:"not null" json:"amount"`
	TransactionID *string    `gorm:"type:varchar(128)" json:"transactionId"`
	BankCode      *string    `gorm:"type:varchar(16)" json:"bankCode"`
	QRCodeURL     *string    `gorm:"type:varchar(512)" json:"qrCodeUrl"`
	PaymentDate   *time.Time `gorm:"precision:3" json:"paymentDate"`
	ExpiryDate    *time.Time `gorm:"precision:3" json:"expiryDate"`
	RetryCount    int        `gorm:"not null;default:0" json:"retryCount"`
	Notes         *string    `gorm:"type:varchar(255)" json:"notes"`
	CreatedAt     time.Time  `gorm:"precision:3;not null" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"precision:3;not null" json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

// IsExpired is derived on read; nothing proactively cancels an expired
// payment, status reads do it lazily (see Service.Get).
func (p Payment) IsExpired(now time.Time) bool {
	return p.ExpiryDate != nil && now.After(*p.ExpiryDate)
}

func (p Payment) CanRetry() bool {
	return (p.Status == StatusFailed || p.Status == StatusCancelled) && p.RetryCount < MaxRetries
}
