package revenue

import (
	"context"

	"github.com/revreport/backend/internal/domain/revenue"
	"go.uber.org/zap"
)

// ProformaResolver batch-loads the sales documents referenced by a payment
// set and derives their base-currency equivalents. A failing batch load
// degrades to an empty map; the report then simply carries fewer links.
type ProformaResolver struct {
	store        revenue.ProformaStore
	baseCurrency string
	logger       *zap.Logger
}

// NewProformaResolver creates a resolver over the given accounting store.
func NewProformaResolver(store revenue.ProformaStore, baseCurrency string, logger *zap.Logger) *ProformaResolver {
	return &ProformaResolver{store: store, baseCurrency: baseCurrency, logger: logger}
}

// Resolve returns the referenced proformas keyed by id.
func (r *ProformaResolver) Resolve(ctx context.Context, payments []revenue.Payment) map[int64]*revenue.Proforma {
	ids := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, p := range payments {
		if p.ProformaID <= 0 {
			continue
		}
		if _, dup := seen[p.ProformaID]; dup {
			continue
		}
		seen[p.ProformaID] = struct{}{}
		ids = append(ids, p.ProformaID)
	}
	if len(ids) == 0 {
		return map[int64]*revenue.Proforma{}
	}

	rows, err := r.store.ListByIDs(ctx, ids)
	if err != nil {
		r.logger.Warn("proforma batch load failed, degrading to empty", zap.Error(err))
		return map[int64]*revenue.Proforma{}
	}

	out := make(map[int64]*revenue.Proforma, len(rows))
	for _, row := range rows {
		pf := revenue.BuildProforma(row, r.baseCurrency)
		out[pf.ID] = &pf
	}
	return out
}
