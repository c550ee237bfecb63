package models

import (
	"time"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BankPaymentModel is the persistence model for an incoming bank-ledger entry.
type BankPaymentModel struct {
	ID          string              `gorm:"type:varchar(64);primary_key"`
	Date        time.Time           `gorm:"not null;index"`
	Direction   string              `gorm:"type:varchar(10);not null;index"` // in, out
	Description string              `gorm:"type:text"`
	Amount      decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency    string              `gorm:"type:varchar(3);not null"`
	AmountPLN   decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	PayerName   string              `gorm:"type:varchar(200)"`
	Approved    bool                `gorm:"not null;default:false;index"`
	Rejected    bool                `gorm:"not null;default:false"`
	CategoryID  int64               `gorm:"index"`
	ProformaID  int64               `gorm:"index"`
	DealID      string              `gorm:"type:varchar(64)"`
	CreatedAt   time.Time           `gorm:"not null"`
	UpdatedAt   time.Time           `gorm:"not null"`
	DeletedAt   gorm.DeletedAt      `gorm:"index"`
}

// TableName returns the table name for GORM
func (BankPaymentModel) TableName() string {
	return "bank_payments"
}

// ToDomain converts the persistence model to a domain bank payment row.
func (m *BankPaymentModel) ToDomain() revenue.BankPaymentRow {
	return revenue.BankPaymentRow{
		ID:          m.ID,
		Date:        m.Date,
		Description: m.Description,
		Amount:      m.Amount,
		Currency:    m.Currency,
		AmountPLN:   m.AmountPLN,
		PayerName:   m.PayerName,
		Approved:    m.Approved,
		Rejected:    m.Rejected,
		CategoryID:  m.CategoryID,
		ProformaID:  m.ProformaID,
		DealID:      m.DealID,
	}
}

// PaymentProductLinkModel records a manual product assignment on a bank
// payment. Links live next to the payments so that linking and unlinking
// never rewrites the ledger rows.
type PaymentProductLinkModel struct {
	ID        int64     `gorm:"primary_key;autoIncrement"`
	PaymentID string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	ProductID int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentProductLinkModel) TableName() string {
	return "payment_product_links"
}

// GatewaySessionModel is the persistence model for a checkout session.
type GatewaySessionModel struct {
	ID            string              `gorm:"type:varchar(64);primary_key"`
	CreatedAt     time.Time           `gorm:"not null"`
	PaidAt        *time.Time          `gorm:"index"` // NULL until the gateway confirms payment
	PaymentStatus string              `gorm:"type:varchar(20);index"` // empty on legacy rows
	Description   string              `gorm:"type:text"`
	Amount        decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency      string              `gorm:"type:varchar(3);not null"`
	AmountPLN     decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	PayerName     string              `gorm:"type:varchar(200)"`
	PayerEmail    string              `gorm:"type:varchar(200);index"`
	LinkID        int64               `gorm:"index"`
	DealID        string              `gorm:"type:varchar(64);index"`
	CRMProductID  string              `gorm:"type:varchar(64)"`
	ProductName   string              `gorm:"type:varchar(300)"`
	ProformaID    int64               `gorm:"index"`
	UpdatedAt     time.Time           `gorm:"not null"`
	DeletedAt     gorm.DeletedAt      `gorm:"index"`
}

// TableName returns the table name for GORM
func (GatewaySessionModel) TableName() string {
	return "gateway_sessions"
}

// ToDomain converts the persistence model to a domain session row.
func (m *GatewaySessionModel) ToDomain() revenue.GatewaySessionRow {
	var paidAt time.Time
	if m.PaidAt != nil {
		paidAt = *m.PaidAt
	}
	return revenue.GatewaySessionRow{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		PaidAt:        paidAt,
		PaymentStatus: m.PaymentStatus,
		Description:   m.Description,
		Amount:        m.Amount,
		Currency:      m.Currency,
		AmountPLN:     m.AmountPLN,
		PayerName:     m.PayerName,
		PayerEmail:    m.PayerEmail,
		LinkID:        m.LinkID,
		DealID:        m.DealID,
		CRMProductID:  m.CRMProductID,
		ProductName:   m.ProductName,
		ProformaID:    m.ProformaID,
	}
}

// GatewayEventItemModel is one line of a ticketed multi-item payment.
type GatewayEventItemModel struct {
	ID           string              `gorm:"type:varchar(64);primary_key"`
	SessionID    string              `gorm:"type:varchar(64);index"`
	CreatedAt    time.Time           `gorm:"not null;index"`
	EventKey     string              `gorm:"type:varchar(100);index"`
	Label        string              `gorm:"type:varchar(300)"`
	Description  string              `gorm:"type:text"`
	Amount       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency     string              `gorm:"type:varchar(3);not null"`
	AmountPLN    decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	PayerName    string              `gorm:"type:varchar(200)"`
	PayerEmail   string              `gorm:"type:varchar(200)"`
	ProductID    int64               `gorm:"index"`
	CRMProductID string              `gorm:"type:varchar(64)"`
	DealID       string              `gorm:"type:varchar(64)"`
	ProformaID   int64               `gorm:"index"`
	UpdatedAt    time.Time           `gorm:"not null"`
	DeletedAt    gorm.DeletedAt      `gorm:"index"`
}

// TableName returns the table name for GORM
func (GatewayEventItemModel) TableName() string {
	return "gateway_event_items"
}

// ToDomain converts the persistence model to a domain event row.
func (m *GatewayEventItemModel) ToDomain() revenue.GatewayEventRow {
	return revenue.GatewayEventRow{
		ID:           m.ID,
		SessionID:    m.SessionID,
		CreatedAt:    m.CreatedAt,
		EventKey:     m.EventKey,
		Label:        m.Label,
		Description:  m.Description,
		Amount:       m.Amount,
		Currency:     m.Currency,
		AmountPLN:    m.AmountPLN,
		PayerName:    m.PayerName,
		PayerEmail:   m.PayerEmail,
		ProductID:    m.ProductID,
		CRMProductID: m.CRMProductID,
		DealID:       m.DealID,
		ProformaID:   m.ProformaID,
	}
}

// GatewayRefundModel records a refunded or deleted checkout session.
type GatewayRefundModel struct {
	ID        int64     `gorm:"primary_key;autoIncrement"`
	SessionID string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Reason    string    `gorm:"type:varchar(200)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GatewayRefundModel) TableName() string {
	return "gateway_refunds"
}

// GatewayProductLinkModel cross-references a payment link with a catalog
// product.
type GatewayProductLinkModel struct {
	ID        int64     `gorm:"primary_key"`
	ProductID int64     `gorm:"index"`
	Name      string    `gorm:"type:varchar(300)"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GatewayProductLinkModel) TableName() string {
	return "gateway_product_links"
}

// ToDomain converts the persistence model to a domain product link.
func (m *GatewayProductLinkModel) ToDomain() revenue.ProductLink {
	return revenue.ProductLink{
		ID:        m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
	}
}

// ProductModel is the persistence model for a canonical catalog product.
type ProductModel struct {
	ID        int64          `gorm:"primary_key"`
	Name      string         `gorm:"type:varchar(300);not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain catalog product.
func (m *ProductModel) ToDomain() revenue.CatalogProduct {
	return revenue.CatalogProduct{
		ID:   m.ID,
		Name: m.Name,
	}
}

// ProformaModel is the persistence model for a proforma sales document.
type ProformaModel struct {
	ID               int64               `gorm:"primary_key"`
	FullNumber       string              `gorm:"type:varchar(50);not null"`
	IssuedAt         time.Time           `gorm:"not null;index"`
	Status           string              `gorm:"type:varchar(20);not null;index"` // active, deleted, cancelled
	Currency         string              `gorm:"type:varchar(3);not null"`
	Total            decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ExchangeRate     decimal.NullDecimal `gorm:"type:decimal(18,8)"`
	PaymentsTotal    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentsTotalPLN decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	PaymentsRate     decimal.NullDecimal `gorm:"type:decimal(18,8)"`
	Buyer            string              `gorm:"type:varchar(300)"`
	DealID           string              `gorm:"type:varchar(64)"`
	CreatedAt        time.Time           `gorm:"not null"`
	UpdatedAt        time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProformaModel) TableName() string {
	return "proformas"
}

// ToDomain converts the persistence model to a domain proforma row. The first
// linked product is attached separately by the repository.
func (m *ProformaModel) ToDomain() revenue.ProformaRow {
	return revenue.ProformaRow{
		ID:               m.ID,
		FullNumber:       m.FullNumber,
		IssuedAt:         m.IssuedAt,
		Currency:         m.Currency,
		Total:            m.Total,
		ExchangeRate:     m.ExchangeRate,
		PaymentsTotal:    m.PaymentsTotal,
		PaymentsTotalPLN: m.PaymentsTotalPLN,
		PaymentsRate:     m.PaymentsRate,
		Buyer:            m.Buyer,
		DealID:           m.DealID,
	}
}

// ProformaItemModel is one document position; position 1 carries the product
// the document is attributed to.
type ProformaItemModel struct {
	ID          int64  `gorm:"primary_key;autoIncrement"`
	ProformaID  int64  `gorm:"not null;index"`
	Position    int    `gorm:"not null"`
	ProductID   int64  `gorm:"index"`
	ProductName string `gorm:"type:varchar(300)"`
}

// TableName returns the table name for GORM
func (ProformaItemModel) TableName() string {
	return "proforma_items"
}

// IncomeCategoryModel is the persistence model for a bank income category.
type IncomeCategoryModel struct {
	ID        int64     `gorm:"primary_key"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IncomeCategoryModel) TableName() string {
	return "income_categories"
}
