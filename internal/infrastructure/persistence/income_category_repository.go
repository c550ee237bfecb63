package persistence

import (
	"context"
	"errors"

	"github.com/revreport/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// DefaultRefundsCategoryName is the bank income category holding refunds.
const DefaultRefundsCategoryName = "Zwroty"

// GormIncomeCategoryRepository implements revenue.IncomeCategoryStore using
// GORM
type GormIncomeCategoryRepository struct {
	db           *gorm.DB
	categoryName string
}

// NewGormIncomeCategoryRepository creates a new GormIncomeCategoryRepository.
// An empty categoryName falls back to DefaultRefundsCategoryName.
func NewGormIncomeCategoryRepository(db *gorm.DB, categoryName string) *GormIncomeCategoryRepository {
	if categoryName == "" {
		categoryName = DefaultRefundsCategoryName
	}
	return &GormIncomeCategoryRepository{db: db, categoryName: categoryName}
}

// RefundsCategoryID returns the id of the refunds category, or 0 when the
// category does not exist. Callers treat 0 as "exclude nothing".
func (r *GormIncomeCategoryRepository) RefundsCategoryID(ctx context.Context) (int64, error) {
	var category models.IncomeCategoryModel
	err := r.db.WithContext(ctx).
		Where("name = ?", r.categoryName).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return category.ID, nil
}
