package persistence

import (
	"context"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/revreport/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProformaRepository implements revenue.ProformaStore using GORM
type GormProformaRepository struct {
	db *gorm.DB
}

// NewGormProformaRepository creates a new GormProformaRepository
func NewGormProformaRepository(db *gorm.DB) *GormProformaRepository {
	return &GormProformaRepository{db: db}
}

// ListByIDs returns the referenced documents with their first linked product.
// Deleted documents are included on purpose: a payment that references a
// since-deleted proforma still belongs to that product's history.
func (r *GormProformaRepository) ListByIDs(ctx context.Context, ids []int64) ([]revenue.ProformaRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var docs []models.ProformaModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("status IN ?", []string{"active", "deleted"}).
		Find(&docs).Error; err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	firstItems, err := r.firstItems(ctx, docs)
	if err != nil {
		return nil, err
	}

	out := make([]revenue.ProformaRow, 0, len(docs))
	for i := range docs {
		row := docs[i].ToDomain()
		if item, ok := firstItems[row.ID]; ok {
			row.ProductID = item.ProductID
			row.ProductName = item.ProductName
		}
		out = append(out, row)
	}
	return out, nil
}

// firstItems returns the lowest-position item per document.
func (r *GormProformaRepository) firstItems(ctx context.Context, docs []models.ProformaModel) (map[int64]models.ProformaItemModel, error) {
	docIDs := make([]int64, 0, len(docs))
	for _, d := range docs {
		docIDs = append(docIDs, d.ID)
	}

	var items []models.ProformaItemModel
	if err := r.db.WithContext(ctx).
		Where("proforma_id IN ?", docIDs).
		Order("proforma_id, position").
		Find(&items).Error; err != nil {
		return nil, err
	}

	out := make(map[int64]models.ProformaItemModel, len(docs))
	for _, item := range items {
		if _, ok := out[item.ProformaID]; !ok {
			out[item.ProformaID] = item
		}
	}
	return out, nil
}
