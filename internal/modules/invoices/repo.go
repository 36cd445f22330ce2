package invoices

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Get(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// MarkPaymentStatus writes payment_status on whatever handle the caller
// passes, so the payment services can run it inside their own transactions.
func MarkPaymentStatus(db *gorm.DB, id int64, status string, now time.Time) error {
	res := db.Model(&Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": status,
			"updated_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invoice %d not found", id)
	}
	return nil
}
