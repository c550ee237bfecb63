package revenue

import (
	"context"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AggregationResult is the grouped view of one payment set.
type AggregationResult struct {
	Groups         []*revenue.ProductGroup
	UnmatchedCount int
}

// AggregationEngine groups payments into product groups and payer aggregates
// and classifies their settlement status. It holds no per-request state; each
// Aggregate call builds fresh maps.
type AggregationEngine struct {
	crm       revenue.CRMClient // optional, nil disables deal enrichment
	tolerance decimal.Decimal
	logger    *zap.Logger
}

// NewAggregationEngine creates an aggregation engine. crm may be nil.
func NewAggregationEngine(crm revenue.CRMClient, tolerance decimal.Decimal, logger *zap.Logger) *AggregationEngine {
	return &AggregationEngine{crm: crm, tolerance: tolerance, logger: logger}
}

// Aggregate runs key resolution and grouping in two phases. Every payment's
// final product key is resolved first with full catalog knowledge, then each
// payment is inserted exactly once. Resolving up front lets a catalog id
// discovered late in the payment list upgrade earlier name-only resolutions
// before any group exists, instead of migrating buckets after the fact.
func (e *AggregationEngine) Aggregate(
	payments []revenue.Payment,
	catalog *revenue.Catalog,
	links map[int64]revenue.ProductLink,
	proformas map[int64]*revenue.Proforma,
) *AggregationResult {
	rc := revenue.NewResolveContext(catalog, links, proformas)

	// Phase 1: resolve every payment's key.
	resolutions := make([]revenue.KeyResolution, len(payments))
	for i, p := range payments {
		resolutions[i] = revenue.ResolveProductKey(p, rc)
	}

	// Upgrade name-only resolutions for which a later payment established
	// the catalog id under the same normalized name.
	for i, res := range resolutions {
		if !res.Matched || res.ProductID != 0 || res.Name == "" {
			continue
		}
		if upgraded, ok := rc.ResolutionByName(revenue.NormalizeName(res.Name)); ok && upgraded.ProductID != 0 {
			resolutions[i] = upgraded
		}
	}

	// Phase 2: insert each payment once.
	groups := make(map[revenue.ProductKey]*revenue.ProductGroup)
	order := make([]revenue.ProductKey, 0)
	unmatched := 0
	for i, p := range payments {
		res := resolutions[i]
		if !res.Matched {
			unmatched++
		}
		g, ok := groups[res.Key]
		if !ok {
			g = revenue.NewProductGroup(res, p.Source)
			groups[res.Key] = g
			order = append(order, res.Key)
		}
		g.AddPayment(p)
	}

	order = e.mergeNameGroups(groups, order)

	result := &AggregationResult{UnmatchedCount: unmatched}
	for _, key := range order {
		result.Groups = append(result.Groups, groups[key])
	}
	return result
}

// mergeNameGroups folds any surviving name-only group into the id-keyed group
// carrying the same normalized name. The two-phase resolution makes this
// rare, but an id can still surface only through a proforma after a name
// bucket exists. The merge is total-preserving; at most one group per
// resolved product id remains.
func (e *AggregationEngine) mergeNameGroups(
	groups map[revenue.ProductKey]*revenue.ProductGroup,
	order []revenue.ProductKey,
) []revenue.ProductKey {
	byName := make(map[string]*revenue.ProductGroup)
	for _, key := range order {
		g := groups[key]
		if g.ProductID != 0 && g.Name != "" {
			byName[revenue.NormalizeName(g.Name)] = g
		}
	}

	kept := order[:0]
	for _, key := range order {
		g := groups[key]
		if g.ProductID == 0 && g.Name != "" {
			if target, ok := byName[revenue.NormalizeName(g.Name)]; ok && target != g {
				target.MergeFrom(g)
				delete(groups, key)
				continue
			}
		}
		kept = append(kept, key)
	}
	return kept
}

// FinalizeStatuses computes every aggregate's settlement status. This runs at
// read time because a proforma-linked aggregate is judged against the
// document's lifetime paid total, not the slice of payments inside the
// report window.
func (e *AggregationEngine) FinalizeStatuses(
	ctx context.Context,
	result *AggregationResult,
	proformas map[int64]*revenue.Proforma,
) {
	for _, g := range result.Groups {
		for _, agg := range g.OrderedAggregates() {
			agg.Status = e.classify(ctx, agg, proformas)
		}
	}
}

func (e *AggregationEngine) classify(
	ctx context.Context,
	agg *revenue.PayerAggregate,
	proformas map[int64]*revenue.Proforma,
) revenue.SettlementStatus {
	if pf, ok := proformas[agg.ProformaID]; ok && agg.ProformaID > 0 {
		// Lifetime paid total: a document settled last year must not show
		// as unpaid in this month's window.
		if pf.TotalPLN.Valid && pf.PaymentsTotalPLN.Valid {
			return revenue.ClassifySettlement(pf.TotalPLN.Decimal, pf.PaymentsTotalPLN.Decimal, e.tolerance)
		}
		// No conversion recorded; compare in the document's own currency.
		return revenue.ClassifySettlement(pf.Total, pf.PaymentsTotal, e.tolerance)
	}

	if e.anyRejected(agg) {
		return revenue.StatusRejected
	}
	if status, ok := e.nativeOverride(agg); ok {
		return status
	}

	// Best-effort enrichment: judge against the deal's commercial value.
	// One attempt per aggregate; a failed lookup degrades, never blocks.
	if agg.DealID != "" && e.crm != nil {
		deal, err := e.crm.GetDeal(ctx, agg.DealID)
		if err != nil {
			e.logger.Warn("deal lookup failed, using local status",
				zap.String("deal_id", agg.DealID), zap.Error(err))
			return revenue.StatusUnknown
		}
		if deal.Value.IsPositive() {
			return revenue.ClassifySettlement(deal.Value, agg.TotalPLN, e.tolerance)
		}
	}

	return revenue.StatusUnknown
}

func (e *AggregationEngine) anyRejected(agg *revenue.PayerAggregate) bool {
	for _, p := range agg.Payments {
		if p.Source == revenue.SourceBank && p.Rejected {
			return true
		}
	}
	return false
}

func (e *AggregationEngine) nativeOverride(agg *revenue.PayerAggregate) (revenue.SettlementStatus, bool) {
	for _, p := range agg.Payments {
		if !p.FromGateway() || p.Status == "" {
			continue
		}
		if status, ok := revenue.ClassifyNativeStatus(p.Status); ok {
			return status, true
		}
	}
	return "", false
}
