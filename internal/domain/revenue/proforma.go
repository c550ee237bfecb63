package revenue

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProformaRow is a raw sales document as read from the accounting store,
// before any currency derivation. Optional columns are NullDecimals.
type ProformaRow struct {
	ID                 int64
	FullNumber         string
	IssuedAt           time.Time
	Currency           string
	Total              decimal.Decimal
	ExchangeRate       decimal.NullDecimal
	PaymentsTotal      decimal.Decimal
	PaymentsTotalPLN   decimal.NullDecimal // precomputed column, preferred when present
	PaymentsRate       decimal.NullDecimal // payments-specific exchange rate
	Buyer              string
	DealID             string
	ProductID          int64 // first linked product, 0 = none
	ProductName        string
}

// Proforma is a resolved sales document with PLN equivalents derived.
//
// TotalPLN is null whenever the currency is non-base and no exchange rate is
// recorded. Unknown propagates; it is never coerced to zero or rate=1.
type Proforma struct {
	ID               int64
	FullNumber       string
	IssuedAt         time.Time
	Currency         string
	Total            decimal.Decimal
	ExchangeRate     decimal.NullDecimal
	TotalPLN         decimal.NullDecimal
	PaymentsTotal    decimal.Decimal
	PaymentsTotalPLN decimal.NullDecimal
	Buyer            string
	DealID           string
	ProductID        int64
	ProductName      string
}

// BuildProforma derives the PLN-equivalent values of a raw sales document.
// baseCurrency is the reporting currency (PLN in production).
func BuildProforma(row ProformaRow, baseCurrency string) Proforma {
	pf := Proforma{
		ID:            row.ID,
		FullNumber:    row.FullNumber,
		IssuedAt:      row.IssuedAt,
		Currency:      row.Currency,
		Total:         row.Total,
		ExchangeRate:  row.ExchangeRate,
		PaymentsTotal: row.PaymentsTotal,
		Buyer:         row.Buyer,
		DealID:        row.DealID,
		ProductID:     row.ProductID,
		ProductName:   row.ProductName,
	}

	pf.TotalPLN = toBase(row.Total, row.Currency, baseCurrency, row.ExchangeRate)

	if row.PaymentsTotalPLN.Valid {
		pf.PaymentsTotalPLN = row.PaymentsTotalPLN
	} else {
		rate := row.PaymentsRate
		if !rate.Valid {
			rate = row.ExchangeRate
		}
		pf.PaymentsTotalPLN = toBase(row.PaymentsTotal, row.Currency, baseCurrency, rate)
	}

	return pf
}

// toBase converts a face-currency amount to the base currency. Face value
// passes through unchanged for base-currency documents; otherwise a recorded
// rate is required and its absence yields null.
func toBase(amount decimal.Decimal, currency, baseCurrency string, rate decimal.NullDecimal) decimal.NullDecimal {
	if currency == "" || currency == baseCurrency {
		return decimal.NewNullDecimal(amount)
	}
	if rate.Valid {
		return decimal.NewNullDecimal(amount.Mul(rate.Decimal))
	}
	return decimal.NullDecimal{}
}
