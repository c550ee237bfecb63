package revenue

import (
	"context"
	"time"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusScope selects which bank payments enter the report.
type StatusScope string

const (
	ScopeApproved StatusScope = "approved"
	ScopeAll      StatusScope = "all"
)

// LoadQuery parametrizes one payment load.
type LoadQuery struct {
	Range revenue.DateRange
	Scope StatusScope
}

// PaymentLoaderService fetches the three heterogeneous payment feeds and
// normalizes them into one unified list. A failing feed degrades to an empty
// list with a warning; the other feeds still load.
type PaymentLoaderService struct {
	bank         revenue.BankPaymentStore
	gateway      revenue.GatewayStore
	categories   revenue.IncomeCategoryStore
	baseCurrency string
	logger       *zap.Logger
}

// NewPaymentLoaderService creates a payment loader over the given stores.
func NewPaymentLoaderService(
	bank revenue.BankPaymentStore,
	gateway revenue.GatewayStore,
	categories revenue.IncomeCategoryStore,
	baseCurrency string,
	logger *zap.Logger,
) *PaymentLoaderService {
	return &PaymentLoaderService{
		bank:         bank,
		gateway:      gateway,
		categories:   categories,
		baseCurrency: baseCurrency,
		logger:       logger,
	}
}

// Load returns the concatenation of the filtered, deduplicated bank, gateway
// session and gateway event feeds.
func (s *PaymentLoaderService) Load(ctx context.Context, q LoadQuery) []revenue.Payment {
	payments := s.loadBank(ctx, q)

	refunded := s.refundedSessions(ctx)
	sessions, sessionIDs := s.loadSessions(ctx, q, refunded)
	payments = append(payments, sessions...)

	// The session feed is authoritative for every session it lists, kept or
	// not: an event row whose session was filtered out (refunded, unpaid,
	// unattributable) must not re-enter through the event feed.
	payments = append(payments, s.loadEvents(ctx, q, sessionIDs, refunded)...)

	return payments
}

func (s *PaymentLoaderService) refundedSessions(ctx context.Context) map[string]struct{} {
	refunded, err := s.gateway.RefundedSessionIDs(ctx)
	if err != nil {
		s.logger.Warn("gateway refund log failed, refund exclusion disabled", zap.Error(err))
		return map[string]struct{}{}
	}
	return refunded
}

func (s *PaymentLoaderService) loadBank(ctx context.Context, q LoadQuery) []revenue.Payment {
	rows, err := s.bank.ListIncoming(ctx, q.Range.From, q.Range.To)
	if err != nil {
		s.logger.Warn("bank feed failed, degrading to empty", zap.Error(err))
		return nil
	}

	refundsCategoryID, err := s.categories.RefundsCategoryID(ctx)
	if err != nil {
		s.logger.Warn("refunds category lookup failed, category exclusion disabled", zap.Error(err))
		refundsCategoryID = 0
	}

	kept := make([]revenue.BankPaymentRow, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Rejected {
			continue
		}
		if q.Scope == ScopeApproved && !row.Approved {
			continue
		}
		if refundsCategoryID != 0 && row.CategoryID == refundsCategoryID {
			continue
		}
		kept = append(kept, row)
		ids = append(ids, row.ID)
	}

	// Product links live in their own table so manual link/unlink actions
	// are reflected without rewriting payment rows.
	links, err := s.bank.ProductLinks(ctx, ids)
	if err != nil {
		s.logger.Warn("bank product links failed, loading payments without links", zap.Error(err))
		links = map[string]int64{}
	}

	payments := make([]revenue.Payment, 0, len(kept))
	for _, row := range kept {
		payments = append(payments, revenue.Payment{
			ID:          row.ID,
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			Currency:    row.Currency,
			AmountPLN:   s.toPLN(row.Amount, row.Currency, row.AmountPLN),
			PayerName:   row.PayerName,
			Source:      revenue.SourceBank,
			DealID:      row.DealID,
			ProformaID:  row.ProformaID,
			Rejected:    row.Rejected,
			Hints:       revenue.ProductHints{ProductID: links[row.ID]},
		})
	}
	return payments
}

func (s *PaymentLoaderService) loadSessions(ctx context.Context, q LoadQuery, refunded map[string]struct{}) ([]revenue.Payment, map[string]struct{}) {
	rows, err := s.gateway.ListSessions(ctx, q.Range.From, q.Range.To)
	if err != nil {
		s.logger.Warn("gateway session feed failed, degrading to empty", zap.Error(err))
		return nil, map[string]struct{}{}
	}

	payments := make([]revenue.Payment, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	dropped := 0
	for _, row := range rows {
		// Every listed session claims its id, even when the row itself is
		// filtered out below: its event line items are duplicates either way.
		seen[row.ID] = struct{}{}

		// Legacy rows have no status field and are kept.
		if row.PaymentStatus != "" && row.PaymentStatus != string(revenue.NativePaid) {
			continue
		}
		if _, isRefunded := refunded[row.ID]; isRefunded {
			continue
		}

		hints := revenue.ProductHints{
			LinkID:       row.LinkID,
			CRMProductID: row.CRMProductID,
			ProductName:  row.ProductName,
		}
		// A session with no product linkage at all is unattributable.
		if hints.Empty() && row.DealID == "" {
			dropped++
			continue
		}

		date := row.PaidAt
		if date.IsZero() {
			date = row.CreatedAt
		}
		payments = append(payments, revenue.Payment{
			ID:          row.ID,
			Date:        date,
			Description: row.Description,
			Amount:      row.Amount,
			Currency:    row.Currency,
			AmountPLN:   s.toPLN(row.Amount, row.Currency, row.AmountPLN),
			PayerName:   row.PayerName,
			PayerEmail:  row.PayerEmail,
			Source:      revenue.SourceGatewaySession,
			DealID:      row.DealID,
			ProformaID:  row.ProformaID,
			SessionID:   row.ID,
			Status:      revenue.NativeStatus(row.PaymentStatus),
			Hints:       hints,
		})
	}
	if dropped > 0 {
		s.logger.Debug("dropped unattributable gateway sessions", zap.Int("count", dropped))
	}
	return payments, seen
}

func (s *PaymentLoaderService) loadEvents(ctx context.Context, q LoadQuery, sessionSeen, refunded map[string]struct{}) []revenue.Payment {
	rows, err := s.gateway.ListEventItems(ctx, q.Range.From, q.Range.To)
	if err != nil {
		s.logger.Warn("gateway event feed failed, degrading to empty", zap.Error(err))
		return nil
	}

	sessionIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.SessionID != "" {
			sessionIDs = append(sessionIDs, row.SessionID)
		}
	}
	paidTimes, err := s.gateway.SessionPaidTimes(ctx, sessionIDs)
	if err != nil {
		s.logger.Warn("session paid-time join failed, falling back to row timestamps", zap.Error(err))
		paidTimes = map[string]time.Time{}
	}

	payments := make([]revenue.Payment, 0, len(rows))
	for _, row := range rows {
		if _, dup := sessionSeen[row.SessionID]; dup {
			continue
		}
		if _, isRefunded := refunded[row.SessionID]; isRefunded {
			continue
		}
		// Only a confirmed paid timestamp is evidence of settlement; rows
		// without one fall back to the row timestamp and carry no native
		// status.
		var status revenue.NativeStatus
		paidAt, ok := paidTimes[row.SessionID]
		if ok && !paidAt.IsZero() {
			status = revenue.NativePaid
		} else {
			paidAt = row.CreatedAt
		}
		if !q.Range.Contains(paidAt) {
			continue
		}
		payments = append(payments, revenue.Payment{
			ID:          row.ID,
			Date:        paidAt,
			Description: row.Description,
			Amount:      row.Amount,
			Currency:    row.Currency,
			AmountPLN:   s.toPLN(row.Amount, row.Currency, row.AmountPLN),
			PayerName:   row.PayerName,
			PayerEmail:  row.PayerEmail,
			Source:      revenue.SourceGatewayEvent,
			DealID:      row.DealID,
			ProformaID:  row.ProformaID,
			SessionID:   row.SessionID,
			Status:      status,
			Hints: revenue.ProductHints{
				ProductID:    row.ProductID,
				CRMProductID: row.CRMProductID,
				EventKey:     row.EventKey,
				EventLabel:   row.Label,
			},
		})
	}
	return payments
}

// toPLN derives the best-effort base-currency amount: the stored conversion
// when present, the face value for base-currency payments, null otherwise.
func (s *PaymentLoaderService) toPLN(amount decimal.Decimal, currency string, stored decimal.NullDecimal) decimal.NullDecimal {
	if stored.Valid {
		return stored
	}
	if currency == s.baseCurrency {
		return decimal.NewNullDecimal(amount)
	}
	return decimal.NullDecimal{}
}
