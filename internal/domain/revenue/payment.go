package revenue

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSource identifies the feed a unified payment came from.
type PaymentSource string

const (
	SourceBank           PaymentSource = "bank"
	SourceGatewaySession PaymentSource = "gateway_session"
	SourceGatewayEvent   PaymentSource = "gateway_event"
)

// NativeStatus is the payment status reported by the gateway itself, before
// any settlement classification of ours.
type NativeStatus string

const (
	NativePaid       NativeStatus = "paid"
	NativePending    NativeStatus = "pending"
	NativeProcessing NativeStatus = "processing"
	NativeFailed     NativeStatus = "failed"
	NativeCancelled  NativeStatus = "cancelled"
)

// ProductHints carries every partial product identifier a payment may hold.
// Zero values mean "not present"; the matcher chain decides which hint wins.
type ProductHints struct {
	ProductID    int64  // canonical catalog id
	LinkID       int64  // gateway cross-reference link table id
	CRMProductID string // legacy CRM product id, may or may not be numeric
	ProductName  string // free-text name from gateway metadata
	EventKey     string // ticketed-event code, e.g. "NY2026"
	EventLabel   string // human label of the event line item
}

// Empty reports whether the payment carries no product linkage at all.
func (h ProductHints) Empty() bool {
	return h.ProductID == 0 && h.LinkID == 0 && h.CRMProductID == "" &&
		h.ProductName == "" && h.EventKey == "" && h.EventLabel == ""
}

// Payment is the unified, source-tagged shape every feed is normalized into.
//
// Amount is always present in its original currency. AmountPLN is a
// best-effort derived value: invalid (null) when no conversion is known,
// never a silently-wrong default.
type Payment struct {
	ID          string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string
	AmountPLN   decimal.NullDecimal
	PayerName   string
	PayerEmail  string
	Source      PaymentSource
	DealID      string
	ProformaID  int64 // 0 = no linked proforma
	SessionID   string
	Status      NativeStatus
	Rejected    bool // manually rejected in the bank ledger
	Hints       ProductHints
}

// PayerIdentity returns the normalized payer identity used for aggregate
// bucketing: lowercased email when available, else the normalized payer name.
// Empty when the payer is not identifiable.
func (p Payment) PayerIdentity() string {
	if p.PayerEmail != "" {
		return strings.ToLower(strings.TrimSpace(p.PayerEmail))
	}
	return NormalizeName(p.PayerName)
}

// FromGateway reports whether the payment originates from one of the two
// gateway feeds.
func (p Payment) FromGateway() bool {
	return p.Source == SourceGatewaySession || p.Source == SourceGatewayEvent
}
