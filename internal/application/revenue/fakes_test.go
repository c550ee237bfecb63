package revenue

import (
	"context"
	"errors"
	"time"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store unavailable")

type fakeBankStore struct {
	rows     []revenue.BankPaymentRow
	links    map[string]int64
	err      error
	linksErr error
}

func (f *fakeBankStore) ListIncoming(ctx context.Context, from, to time.Time) ([]revenue.BankPaymentRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []revenue.BankPaymentRow
	for _, r := range f.rows {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBankStore) ProductLinks(ctx context.Context, paymentIDs []string) (map[string]int64, error) {
	if f.linksErr != nil {
		return nil, f.linksErr
	}
	if f.links == nil {
		return map[string]int64{}, nil
	}
	return f.links, nil
}

type fakeGatewayStore struct {
	sessions  []revenue.GatewaySessionRow
	events    []revenue.GatewayEventRow
	paidTimes map[string]time.Time
	refunded  map[string]struct{}
	links     map[int64]revenue.ProductLink

	sessionsErr error
	eventsErr   error
	refundedErr error
	linksErr    error
}

func (f *fakeGatewayStore) ListSessions(ctx context.Context, from, to time.Time) ([]revenue.GatewaySessionRow, error) {
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	return f.sessions, nil
}

func (f *fakeGatewayStore) ListEventItems(ctx context.Context, from, to time.Time) ([]revenue.GatewayEventRow, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func (f *fakeGatewayStore) SessionPaidTimes(ctx context.Context, sessionIDs []string) (map[string]time.Time, error) {
	if f.paidTimes == nil {
		return map[string]time.Time{}, nil
	}
	return f.paidTimes, nil
}

func (f *fakeGatewayStore) RefundedSessionIDs(ctx context.Context) (map[string]struct{}, error) {
	if f.refundedErr != nil {
		return nil, f.refundedErr
	}
	if f.refunded == nil {
		return map[string]struct{}{}, nil
	}
	return f.refunded, nil
}

func (f *fakeGatewayStore) ProductLinks(ctx context.Context, ids []int64) (map[int64]revenue.ProductLink, error) {
	if f.linksErr != nil {
		return nil, f.linksErr
	}
	if f.links == nil {
		return map[int64]revenue.ProductLink{}, nil
	}
	return f.links, nil
}

type fakeCategoryStore struct {
	id  int64
	err error
}

func (f *fakeCategoryStore) RefundsCategoryID(ctx context.Context) (int64, error) {
	return f.id, f.err
}

type fakeProformaStore struct {
	rows []revenue.ProformaRow
	err  error
}

func (f *fakeProformaStore) ListByIDs(ctx context.Context, ids []int64) ([]revenue.ProformaRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []revenue.ProformaRow
	for _, r := range f.rows {
		if _, ok := want[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeCatalogStore struct {
	products []revenue.CatalogProduct
	err      error
}

func (f *fakeCatalogStore) ListProducts(ctx context.Context) ([]revenue.CatalogProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeCRM struct {
	deals map[string]revenue.Deal
	err   error
	calls int
}

func (f *fakeCRM) GetDeal(ctx context.Context, dealID string) (revenue.Deal, error) {
	f.calls++
	if f.err != nil {
		return revenue.Deal{}, f.err
	}
	return f.deals[dealID], nil
}

func (f *fakeCRM) DealURL(dealID string) string {
	return "https://crm.example.com/deals/" + dealID
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func juneRange() revenue.DateRange {
	return revenue.ResolveDateRange(revenue.PeriodQuery{Month: 6, Year: 2026}, time.Now())
}

func pln(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}
