package revenue

import "github.com/shopspring/decimal"

// SettlementStatus classifies how settled an aggregate of payments is against
// its expected total.
type SettlementStatus string

const (
	StatusUnknown  SettlementStatus = "unknown"
	StatusOverpaid SettlementStatus = "overpaid"
	StatusPaid     SettlementStatus = "paid"
	StatusPartial  SettlementStatus = "partial"
	StatusUnpaid   SettlementStatus = "unpaid"

	// Source-specific states used when no proforma is linked.
	StatusReview   SettlementStatus = "review"
	StatusFailed   SettlementStatus = "failed"
	StatusRejected SettlementStatus = "rejected"
)

// DefaultSettlementTolerance is the monetary margin, in reporting currency
// units, within which paid and total are treated as settled. It is an
// absolute constant regardless of invoice size; whether it should scale for
// very large invoices is an open question with the domain owners, so it stays
// configurable rather than silently relative.
var DefaultSettlementTolerance = decimal.NewFromInt(5)

// ClassifySettlement maps a paid-vs-total comparison onto the five settlement
// states using the given tolerance band T:
//
//	unknown:  total <= 0
//	unpaid:   paid <= 0
//	overpaid: paid >= total + T
//	paid:     total - T <= paid < total + T
//	partial:  0 < paid < total - T
func ClassifySettlement(total, paid, tolerance decimal.Decimal) SettlementStatus {
	if total.LessThanOrEqual(decimal.Zero) {
		return StatusUnknown
	}
	if paid.LessThanOrEqual(decimal.Zero) {
		return StatusUnpaid
	}
	if paid.GreaterThanOrEqual(total.Add(tolerance)) {
		return StatusOverpaid
	}
	if paid.GreaterThanOrEqual(total.Sub(tolerance)) {
		return StatusPaid
	}
	return StatusPartial
}

// ClassifyNativeStatus maps a gateway-native payment status onto a settlement
// state. Used as an override when an aggregate has no linked proforma to
// compare against.
func ClassifyNativeStatus(status NativeStatus) (SettlementStatus, bool) {
	switch status {
	case NativePaid:
		return StatusPaid, true
	case NativePending, NativeProcessing:
		return StatusReview, true
	case NativeFailed, NativeCancelled:
		return StatusFailed, true
	}
	return "", false
}
