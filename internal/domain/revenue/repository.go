package revenue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BankPaymentRow is an incoming bank-ledger entry as stored. Rows returned by
// the store are already direction=in, not soft-deleted and within range;
// scope- and category-dependent exclusions are the loader's job.
type BankPaymentRow struct {
	ID          string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string
	AmountPLN   decimal.NullDecimal
	PayerName   string
	Approved    bool // manual approval or auto-match flag
	Rejected    bool // manually rejected, excluded regardless of scope
	CategoryID  int64
	ProformaID  int64
	DealID      string
}

// GatewaySessionRow is a checkout-session payment from the gateway store.
type GatewaySessionRow struct {
	ID            string
	CreatedAt     time.Time
	PaidAt        time.Time
	PaymentStatus string // empty on legacy rows, kept for backward compatibility
	Description   string
	Amount        decimal.Decimal
	Currency      string
	AmountPLN     decimal.NullDecimal
	PayerName     string
	PayerEmail    string
	LinkID        int64
	DealID        string
	CRMProductID  string
	ProductName   string
	ProformaID    int64
}

// GatewayEventRow is one line of a ticketed multi-item payment.
type GatewayEventRow struct {
	ID           string
	SessionID    string
	CreatedAt    time.Time
	EventKey     string
	Label        string
	Description  string
	Amount       decimal.Decimal
	Currency     string
	AmountPLN    decimal.NullDecimal
	PayerName    string
	PayerEmail   string
	ProductID    int64
	CRMProductID string
	DealID       string
	ProformaID   int64
}

// BankPaymentStore reads incoming payments from the bank ledger.
type BankPaymentStore interface {
	// ListIncoming returns in-range, non-deleted incoming rows.
	ListIncoming(ctx context.Context, from, to time.Time) ([]BankPaymentRow, error)
	// ProductLinks returns the manual product link per payment id, so that
	// link/unlink actions are reflected without touching the payment rows.
	ProductLinks(ctx context.Context, paymentIDs []string) (map[string]int64, error)
}

// GatewayStore reads checkout sessions, ticketed-event line items, product
// cross-reference links and the refund/deletion log from the payment gateway
// repository.
type GatewayStore interface {
	ListSessions(ctx context.Context, from, to time.Time) ([]GatewaySessionRow, error)
	ListEventItems(ctx context.Context, from, to time.Time) ([]GatewayEventRow, error)
	// SessionPaidTimes returns the paid timestamp per session id for the
	// event-feed date join.
	SessionPaidTimes(ctx context.Context, sessionIDs []string) (map[string]time.Time, error)
	RefundedSessionIDs(ctx context.Context) (map[string]struct{}, error)
	ProductLinks(ctx context.Context, ids []int64) (map[int64]ProductLink, error)
}

// ProformaStore reads sales documents from the accounting system.
type ProformaStore interface {
	// ListByIDs returns documents with status active or deleted, each with
	// its first linked product.
	ListByIDs(ctx context.Context, ids []int64) ([]ProformaRow, error)
}

// CatalogStore reads the canonical product catalog.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]CatalogProduct, error)
}

// IncomeCategoryStore exposes the income category used for refunds; bank rows
// in that category are excluded from revenue.
type IncomeCategoryStore interface {
	RefundsCategoryID(ctx context.Context) (int64, error)
}

// Deal is the commercial summary of a CRM deal.
type Deal struct {
	ID    string
	Value decimal.Decimal
	URL   string
}

// CRMClient looks deals up in the CRM. Used for best-effort status enrichment
// of aggregates that have no linked proforma, and for deal URLs in exports.
type CRMClient interface {
	GetDeal(ctx context.Context, dealID string) (Deal, error)
	DealURL(dealID string) string
}
