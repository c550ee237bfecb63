package persistence

import (
	"context"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/revreport/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCatalogRepository implements revenue.CatalogStore using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// ListProducts returns the full canonical catalog ordered by id.
func (r *GormCatalogRepository) ListProducts(ctx context.Context) ([]revenue.CatalogProduct, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]revenue.CatalogProduct, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
