package persistence

import (
	"context"
	"time"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/revreport/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBankPaymentRepository implements revenue.BankPaymentStore using GORM
type GormBankPaymentRepository struct {
	db *gorm.DB
}

// NewGormBankPaymentRepository creates a new GormBankPaymentRepository
func NewGormBankPaymentRepository(db *gorm.DB) *GormBankPaymentRepository {
	return &GormBankPaymentRepository{db: db}
}

// ListIncoming returns incoming ledger rows in the period. Soft-deleted rows
// are filtered by GORM; approval, rejection and category rules are applied by
// the loader, not here.
func (r *GormBankPaymentRepository) ListIncoming(ctx context.Context, from, to time.Time) ([]revenue.BankPaymentRow, error) {
	var rows []models.BankPaymentModel
	if err := r.db.WithContext(ctx).
		Where("direction = ?", "in").
		Where("date BETWEEN ? AND ?", from, to).
		Order("date, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]revenue.BankPaymentRow, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// ProductLinks returns the manual product link per payment id.
func (r *GormBankPaymentRepository) ProductLinks(ctx context.Context, paymentIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(paymentIDs))
	if len(paymentIDs) == 0 {
		return out, nil
	}

	var links []models.PaymentProductLinkModel
	if err := r.db.WithContext(ctx).
		Where("payment_id IN ?", paymentIDs).
		Find(&links).Error; err != nil {
		return nil, err
	}

	for _, link := range links {
		out[link.PaymentID] = link.ProductID
	}
	return out, nil
}
