package persistence

import (
	"context"
	"time"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/revreport/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormGatewayRepository implements revenue.GatewayStore using GORM
type GormGatewayRepository struct {
	db *gorm.DB
}

// NewGormGatewayRepository creates a new GormGatewayRepository
func NewGormGatewayRepository(db *gorm.DB) *GormGatewayRepository {
	return &GormGatewayRepository{db: db}
}

// ListSessions returns checkout sessions paid in the period. Legacy rows
// without a payment status are included; the loader decides what counts.
// Sessions that never recorded a paid timestamp fall back to their creation
// time for the window, otherwise legacy rows could never be returned.
func (r *GormGatewayRepository) ListSessions(ctx context.Context, from, to time.Time) ([]revenue.GatewaySessionRow, error) {
	var rows []models.GatewaySessionModel
	if err := r.db.WithContext(ctx).
		Where("COALESCE(paid_at, created_at) BETWEEN ? AND ?", from, to).
		Order("COALESCE(paid_at, created_at), id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]revenue.GatewaySessionRow, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// ListEventItems returns ticketed-event line items created in the period,
// plus items created earlier whose session was paid inside it. The loader
// re-filters on the joined paid timestamp, so over-fetching here is fine;
// under-fetching would hide items paid long after creation.
func (r *GormGatewayRepository) ListEventItems(ctx context.Context, from, to time.Time) ([]revenue.GatewayEventRow, error) {
	paidInPeriod := r.db.
		Model(&models.GatewaySessionModel{}).
		Select("id").
		Where("paid_at BETWEEN ? AND ?", from, to)

	var rows []models.GatewayEventItemModel
	if err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ? OR session_id IN (?)", from, to, paidInPeriod).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]revenue.GatewayEventRow, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// SessionPaidTimes returns the paid timestamp per session id. Sessions with
// no paid timestamp are omitted.
func (r *GormGatewayRepository) SessionPaidTimes(ctx context.Context, sessionIDs []string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}

	var rows []models.GatewaySessionModel
	if err := r.db.WithContext(ctx).
		Select("id", "paid_at").
		Where("id IN ?", sessionIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.PaidAt != nil && !row.PaidAt.IsZero() {
			out[row.ID] = *row.PaidAt
		}
	}
	return out, nil
}

// RefundedSessionIDs returns the ids of all refunded or deleted sessions.
func (r *GormGatewayRepository) RefundedSessionIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.GatewayRefundModel{}).
		Pluck("session_id", &ids).Error; err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// ProductLinks returns payment link cross-references by link id.
func (r *GormGatewayRepository) ProductLinks(ctx context.Context, ids []int64) (map[int64]revenue.ProductLink, error) {
	out := make(map[int64]revenue.ProductLink, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.GatewayProductLinkModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}
