package revenue

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyTotals accumulates per-currency sums. Amounts stay unrounded until
// serialization.
type CurrencyTotals map[string]decimal.Decimal

// Add accumulates an amount under its currency.
func (t CurrencyTotals) Add(currency string, amount decimal.Decimal) {
	t[currency] = t[currency].Add(amount)
}

// AddAll accumulates every entry of other.
func (t CurrencyTotals) AddAll(other CurrencyTotals) {
	for currency, amount := range other {
		t.Add(currency, amount)
	}
}

// PayerAggregate buckets the payments sharing (source, payer identity,
// product key, deal key) inside one product group. It is created on the first
// matching payment, accumulated per payment, and classified only at read
// time — the correct status may depend on a deal's entire payment history,
// not just the requested window.
type PayerAggregate struct {
	Key        string
	Source     PaymentSource
	ProformaID int64
	DealID     string
	Payments   []Payment
	Totals     CurrencyTotals
	TotalPLN   decimal.Decimal
	PayerNames []string
	FirstDate  time.Time
	LastDate   time.Time
	Status     SettlementStatus

	payerSeen map[string]struct{}
}

func newPayerAggregate(key string, p Payment) *PayerAggregate {
	a := &PayerAggregate{
		Key:        key,
		Source:     p.Source,
		ProformaID: p.ProformaID,
		DealID:     p.DealID,
		Totals:     CurrencyTotals{},
		payerSeen:  map[string]struct{}{},
	}
	a.add(p)
	return a
}

func (a *PayerAggregate) add(p Payment) {
	a.Payments = append(a.Payments, p)
	a.Totals.Add(p.Currency, p.Amount)
	if p.AmountPLN.Valid {
		a.TotalPLN = a.TotalPLN.Add(p.AmountPLN.Decimal)
	}
	if p.PayerName != "" {
		if _, seen := a.payerSeen[p.PayerName]; !seen {
			a.payerSeen[p.PayerName] = struct{}{}
			a.PayerNames = append(a.PayerNames, p.PayerName)
		}
	}
	if a.FirstDate.IsZero() || p.Date.Before(a.FirstDate) {
		a.FirstDate = p.Date
	}
	if p.Date.After(a.LastDate) {
		a.LastDate = p.Date
	}
	if a.ProformaID == 0 && p.ProformaID > 0 {
		a.ProformaID = p.ProformaID
	}
	if a.DealID == "" && p.DealID != "" {
		a.DealID = p.DealID
	}
}

// mergeFrom folds another aggregate with the same key into this one.
func (a *PayerAggregate) mergeFrom(other *PayerAggregate) {
	for _, p := range other.Payments {
		a.add(p)
	}
}

// AggregateKeyFor computes the bucket key for a payment under the given
// product key. Gateway payments with an identifiable payer group by
// source + payer + product + deal; everything else buckets by its proforma,
// or stands alone.
func AggregateKeyFor(p Payment, productKey ProductKey) string {
	if p.FromGateway() {
		if payer := p.PayerIdentity(); payer != "" {
			deal := p.DealID
			if deal == "" {
				deal = "-"
			}
			return fmt.Sprintf("%s:%s:%s:%s", p.Source, payer, productKey, deal)
		}
	}
	if p.ProformaID > 0 {
		return "proforma:" + strconv.FormatInt(p.ProformaID, 10)
	}
	return "payment:" + p.ID
}

// ProductGroup is the aggregation bucket for one canonical (or best-effort
// inferred) product within a report.
type ProductGroup struct {
	Key           ProductKey
	Name          string
	ProductID     int64
	Source        PaymentSource
	PaymentsCount int
	ProformaIDs   map[int64]struct{}
	Totals        CurrencyTotals
	TotalPLN      decimal.Decimal
	Aggregates    map[string]*PayerAggregate

	aggOrder []string
}

// NewProductGroup creates an empty group from a key resolution. Source is the
// feed of the first payment routed into the group.
func NewProductGroup(res KeyResolution, source PaymentSource) *ProductGroup {
	return &ProductGroup{
		Key:         res.Key,
		Name:        res.Name,
		ProductID:   res.ProductID,
		Source:      source,
		ProformaIDs: map[int64]struct{}{},
		Totals:      CurrencyTotals{},
		Aggregates:  map[string]*PayerAggregate{},
	}
}

// AddPayment routes a payment into its payer aggregate and updates the group
// running totals. Only finite PLN amounts enter the PLN sum; an unknown
// conversion stays unknown rather than counting as zero.
func (g *ProductGroup) AddPayment(p Payment) {
	g.PaymentsCount++
	g.Totals.Add(p.Currency, p.Amount)
	if p.AmountPLN.Valid {
		g.TotalPLN = g.TotalPLN.Add(p.AmountPLN.Decimal)
	}
	if p.ProformaID > 0 {
		g.ProformaIDs[p.ProformaID] = struct{}{}
	}

	key := AggregateKeyFor(p, g.Key)
	if agg, ok := g.Aggregates[key]; ok {
		agg.add(p)
		return
	}
	g.Aggregates[key] = newPayerAggregate(key, p)
	g.aggOrder = append(g.aggOrder, key)
}

// MergeFrom migrates another group's accumulated state into this one: summing
// currency totals, unioning proforma ids and merging nested aggregates. The
// operation is total-preserving — the merged group's totals equal the sum of
// the two pre-merge groups.
func (g *ProductGroup) MergeFrom(other *ProductGroup) {
	if other == nil || other == g {
		return
	}
	g.PaymentsCount += other.PaymentsCount
	g.Totals.AddAll(other.Totals)
	g.TotalPLN = g.TotalPLN.Add(other.TotalPLN)
	for id := range other.ProformaIDs {
		g.ProformaIDs[id] = struct{}{}
	}
	for _, key := range other.aggOrder {
		theirs := other.Aggregates[key]
		if mine, ok := g.Aggregates[key]; ok {
			mine.mergeFrom(theirs)
			continue
		}
		g.Aggregates[key] = theirs
		g.aggOrder = append(g.aggOrder, key)
	}
	if g.Name == "" {
		g.Name = other.Name
	}
	if g.ProductID == 0 {
		g.ProductID = other.ProductID
	}
}

// OrderedAggregates returns the payer aggregates in insertion order, so that
// repeated runs over the same payment set produce identical output.
func (g *ProductGroup) OrderedAggregates() []*PayerAggregate {
	out := make([]*PayerAggregate, 0, len(g.aggOrder))
	for _, key := range g.aggOrder {
		out = append(out, g.Aggregates[key])
	}
	return out
}
