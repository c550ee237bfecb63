package revenue

import (
	"context"
	"time"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportQuery is the raw report request as bound from the HTTP layer.
type ReportQuery struct {
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	Month    int    `form:"month"`
	Year     int    `form:"year"`
	Status   string `form:"status"` // "approved" (default) or "all"
}

// ProformaDTO is the serialized sales document attached to an entry.
type ProformaDTO struct {
	ID               int64    `json:"id"`
	FullNumber       string   `json:"fullnumber"`
	IssueDate        string   `json:"issue_date"`
	Currency         string   `json:"currency"`
	Total            float64  `json:"total"`
	TotalPLN         *float64 `json:"total_pln"`
	PaymentsTotal    float64  `json:"payments_total"`
	PaymentsTotalPLN *float64 `json:"payments_total_pln"`
	Buyer            string   `json:"buyer"`
	DealID           string   `json:"deal_id,omitempty"`
}

// PaymentDTO is one serialized payment inside an entry.
type PaymentDTO struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Description string   `json:"description,omitempty"`
	Amount      float64  `json:"amount"`
	Currency    string   `json:"currency"`
	AmountPLN   *float64 `json:"amount_pln"`
	PayerName   string   `json:"payer_name,omitempty"`
	Source      string   `json:"source"`
}

// TotalsDTO carries rounded per-currency and PLN totals.
type TotalsDTO struct {
	PaymentsCount  int                `json:"payments_count"`
	ProformaCount  int                `json:"proforma_count,omitempty"`
	CurrencyTotals map[string]float64 `json:"currency_totals"`
	PLNTotal       float64            `json:"pln_total"`
}

// EntryDTO is one payer/deal aggregate inside a product group.
type EntryDTO struct {
	Key              string       `json:"key"`
	Proforma         *ProformaDTO `json:"proforma,omitempty"`
	Source           string       `json:"source"`
	StripeDealID     string       `json:"stripe_deal_id,omitempty"`
	Totals           TotalsDTO    `json:"totals"`
	Payments         []PaymentDTO `json:"payments"`
	PayerNames       []string     `json:"payer_names"`
	FirstPaymentDate string       `json:"first_payment_date"`
	LastPaymentDate  string       `json:"last_payment_date"`
	Status           string       `json:"status"`
}

// ProductDTO is one product group of the report.
type ProductDTO struct {
	Key       string     `json:"key"`
	Name      string     `json:"name"`
	ProductID int64      `json:"product_id,omitempty"`
	Source    string     `json:"source"`
	Totals    TotalsDTO  `json:"totals"`
	Entries   []EntryDTO `json:"entries"`
}

// SummaryDTO is the report-wide summary, recomputed per request.
type SummaryDTO struct {
	PaymentsCount  int                `json:"payments_count"`
	ProductsCount  int                `json:"products_count"`
	CurrencyTotals map[string]float64 `json:"currency_totals"`
	TotalPLN       float64            `json:"total_pln"`
	UnmatchedCount int                `json:"unmatched_count"`
}

// FiltersDTO echoes the effective filters of the report.
type FiltersDTO struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
	Status   string `json:"status"`
}

// ReportDTO is the full per-product revenue report.
type ReportDTO struct {
	Products []ProductDTO `json:"products"`
	Summary  SummaryDTO   `json:"summary"`
	Filters  FiltersDTO   `json:"filters"`
}

// ReportService runs the full read -> compute -> report pipeline. It holds no
// state across requests; every call builds fresh in-memory maps.
type ReportService struct {
	loader    *PaymentLoaderService
	proformas *ProformaResolver
	catalog   revenue.CatalogStore
	gateway   revenue.GatewayStore
	engine    *AggregationEngine
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService wires the report pipeline from its stages.
func NewReportService(
	loader *PaymentLoaderService,
	proformas *ProformaResolver,
	catalog revenue.CatalogStore,
	gateway revenue.GatewayStore,
	engine *AggregationEngine,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		loader:    loader,
		proformas: proformas,
		catalog:   catalog,
		gateway:   gateway,
		engine:    engine,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate computes the per-product revenue report for the requested period.
// It never fails outward: any stage failure degrades to an empty-but-valid
// report skeleton with the failure logged.
func (s *ReportService) Generate(ctx context.Context, q ReportQuery) *ReportDTO {
	dateRange := revenue.ResolveDateRange(revenue.PeriodQuery{
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Month:    q.Month,
		Year:     q.Year,
	}, s.now())

	scope := ScopeApproved
	if q.Status == string(ScopeAll) {
		scope = ScopeAll
	}
	filters := FiltersDTO{
		DateFrom: dateRange.From.Format("2006-01-02"),
		DateTo:   dateRange.To.Format("2006-01-02"),
		Status:   string(scope),
	}

	if s.loader == nil || s.engine == nil {
		s.logger.Error("report pipeline not configured, returning empty report")
		return emptyReport(filters)
	}

	payments := s.loader.Load(ctx, LoadQuery{Range: dateRange, Scope: scope})

	// Independent batch fetches of one phase fan out; phases never overlap.
	var (
		proformas map[int64]*revenue.Proforma
		catalog   *revenue.Catalog
		links     map[int64]revenue.ProductLink
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		proformas = s.proformas.Resolve(gctx, payments)
		return nil
	})
	g.Go(func() error {
		catalog = s.loadCatalog(gctx)
		return nil
	})
	g.Go(func() error {
		links = s.loadLinks(gctx, payments)
		return nil
	})
	_ = g.Wait()

	result := s.engine.Aggregate(payments, catalog, links, proformas)
	s.engine.FinalizeStatuses(ctx, result, proformas)

	report := s.assemble(result, proformas, payments, filters)

	s.logger.Info("revenue report generated",
		zap.String("from", filters.DateFrom),
		zap.String("to", filters.DateTo),
		zap.Int("payments", report.Summary.PaymentsCount),
		zap.Int("products", report.Summary.ProductsCount),
		zap.Int("unmatched", report.Summary.UnmatchedCount),
	)
	return report
}

func (s *ReportService) loadCatalog(ctx context.Context) *revenue.Catalog {
	if s.catalog == nil {
		return revenue.NewCatalog(nil)
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.logger.Warn("catalog load failed, resolving without catalog", zap.Error(err))
		return revenue.NewCatalog(nil)
	}
	return revenue.NewCatalog(products)
}

func (s *ReportService) loadLinks(ctx context.Context, payments []revenue.Payment) map[int64]revenue.ProductLink {
	ids := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, p := range payments {
		if p.Hints.LinkID <= 0 {
			continue
		}
		if _, dup := seen[p.Hints.LinkID]; dup {
			continue
		}
		seen[p.Hints.LinkID] = struct{}{}
		ids = append(ids, p.Hints.LinkID)
	}
	if len(ids) == 0 || s.gateway == nil {
		return map[int64]revenue.ProductLink{}
	}
	links, err := s.gateway.ProductLinks(ctx, ids)
	if err != nil {
		s.logger.Warn("product link load failed, resolving without links", zap.Error(err))
		return map[int64]revenue.ProductLink{}
	}
	return links
}

func (s *ReportService) assemble(
	result *AggregationResult,
	proformas map[int64]*revenue.Proforma,
	payments []revenue.Payment,
	filters FiltersDTO,
) *ReportDTO {
	report := emptyReport(filters)

	for _, g := range result.Groups {
		product := ProductDTO{
			Key:       string(g.Key),
			Name:      g.Name,
			ProductID: g.ProductID,
			Source:    string(g.Source),
			Totals: TotalsDTO{
				PaymentsCount:  g.PaymentsCount,
				ProformaCount:  len(g.ProformaIDs),
				CurrencyTotals: roundTotals(g.Totals),
				PLNTotal:       round2(g.TotalPLN),
			},
		}
		for _, agg := range g.OrderedAggregates() {
			product.Entries = append(product.Entries, s.entryDTO(agg, proformas))
		}
		report.Products = append(report.Products, product)
		if g.Key != revenue.UnmatchedKey {
			report.Summary.ProductsCount++
		}
	}

	// Summary totals come from the loaded payment set itself so they hold
	// regardless of how grouping shook out.
	totalPLN := decimal.Zero
	currencyTotals := revenue.CurrencyTotals{}
	for _, p := range payments {
		currencyTotals.Add(p.Currency, p.Amount)
		if p.AmountPLN.Valid {
			totalPLN = totalPLN.Add(p.AmountPLN.Decimal)
		}
	}
	report.Summary.PaymentsCount = len(payments)
	report.Summary.CurrencyTotals = roundTotals(currencyTotals)
	report.Summary.TotalPLN = round2(totalPLN)
	report.Summary.UnmatchedCount = result.UnmatchedCount

	return report
}

func (s *ReportService) entryDTO(agg *revenue.PayerAggregate, proformas map[int64]*revenue.Proforma) EntryDTO {
	entry := EntryDTO{
		Key:          agg.Key,
		Source:       string(agg.Source),
		StripeDealID: agg.DealID,
		Totals: TotalsDTO{
			PaymentsCount:  len(agg.Payments),
			CurrencyTotals: roundTotals(agg.Totals),
			PLNTotal:       round2(agg.TotalPLN),
		},
		PayerNames:       append([]string{}, agg.PayerNames...),
		FirstPaymentDate: agg.FirstDate.Format("2006-01-02"),
		LastPaymentDate:  agg.LastDate.Format("2006-01-02"),
		Status:           string(agg.Status),
	}
	if entry.PayerNames == nil {
		entry.PayerNames = []string{}
	}
	for _, p := range agg.Payments {
		entry.Payments = append(entry.Payments, PaymentDTO{
			ID:          p.ID,
			Date:        p.Date.Format("2006-01-02"),
			Description: p.Description,
			Amount:      round2(p.Amount),
			Currency:    p.Currency,
			AmountPLN:   nullFloat(p.AmountPLN),
			PayerName:   p.PayerName,
			Source:      string(p.Source),
		})
	}
	if pf, ok := proformas[agg.ProformaID]; ok && agg.ProformaID > 0 {
		entry.Proforma = &ProformaDTO{
			ID:               pf.ID,
			FullNumber:       pf.FullNumber,
			IssueDate:        pf.IssuedAt.Format("2006-01-02"),
			Currency:         pf.Currency,
			Total:            round2(pf.Total),
			TotalPLN:         nullFloat(pf.TotalPLN),
			PaymentsTotal:    round2(pf.PaymentsTotal),
			PaymentsTotalPLN: nullFloat(pf.PaymentsTotalPLN),
			Buyer:            pf.Buyer,
			DealID:           pf.DealID,
		}
	}
	return entry
}

func emptyReport(filters FiltersDTO) *ReportDTO {
	return &ReportDTO{
		Products: []ProductDTO{},
		Summary: SummaryDTO{
			CurrencyTotals: map[string]float64{},
		},
		Filters: filters,
	}
}

// Rounding to 2 decimals happens here and only here, at serialization.

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func roundTotals(totals revenue.CurrencyTotals) map[string]float64 {
	out := make(map[string]float64, len(totals))
	for currency, amount := range totals {
		out[currency] = round2(amount)
	}
	return out
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := round2(d.Decimal)
	return &f
}
