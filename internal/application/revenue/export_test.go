package revenue

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportReport(t *testing.T, report *ReportDTO, crm revenue.CRMClient) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(crm).Export(report, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportHeader(t *testing.T) {
	records := exportReport(t, emptyReport(FiltersDTO{}), nil)
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"product_key", "product_name", "proforma_id", "first_payment_date",
		"payer", "buyer", "amount", "currency", "amount_pln", "payment_status",
		"proforma_fullnumber", "proforma_issue_date", "proforma_total_pln",
		"deal_id", "deal_url",
	}, records[0])
}

func TestExportOneRowPerAggregate(t *testing.T) {
	bank := &fakeBankStore{rows: []revenue.BankPaymentRow{
		{ID: "b1", Date: june(1), Amount: decimal.NewFromInt(100), Currency: "PLN",
			Approved: true, ProformaID: 70, PayerName: "Jan Kowalski"},
		{ID: "b2", Date: june(2), Amount: decimal.NewFromInt(200), Currency: "PLN",
			Approved: true, PayerName: "Anna Nowak"},
	}}
	proformas := &fakeProformaStore{rows: []revenue.ProformaRow{
		{ID: 70, FullNumber: "PF 70/2026", IssuedAt: june(1), Currency: "PLN",
			Total: decimal.NewFromInt(100), PaymentsTotal: decimal.NewFromInt(100),
			ProductName: "Obóz Letni", Buyer: "Firma Sp. z o.o."},
	}}

	svc := newReportService(bank, &fakeGatewayStore{}, &fakeCatalogStore{}, proformas, &fakeCRM{})
	report := svc.Generate(context.Background(), juneQuery())

	records := exportReport(t, report, &fakeCRM{})

	var aggregates int
	for _, product := range report.Products {
		aggregates += len(product.Entries)
	}
	require.Equal(t, aggregates+1, len(records))

	// The proforma-backed row carries the document fields.
	var pfRow []string
	for _, rec := range records[1:] {
		if rec[2] == "70" {
			pfRow = rec
		}
	}
	require.NotNil(t, pfRow)
	assert.Equal(t, "PF 70/2026", pfRow[10])
	assert.Equal(t, "Firma Sp. z o.o.", pfRow[5])
	assert.Equal(t, "100.00", pfRow[6])
	assert.Equal(t, "PLN", pfRow[7])
	assert.Equal(t, "paid", pfRow[9])
}

func TestExportQuotesAndNewlines(t *testing.T) {
	report := emptyReport(FiltersDTO{})
	report.Products = []ProductDTO{{
		Key:  "name:kurs, edycja 2",
		Name: "Kurs, edycja 2",
		Entries: []EntryDTO{{
			Key:        "payment:b1",
			PayerNames: []string{"Firma \"Alfa\"\nSp. z o.o."},
			Totals:     TotalsDTO{CurrencyTotals: map[string]float64{"PLN": 100}, PLNTotal: 100},
			Payments:   []PaymentDTO{{ID: "b1", Currency: "PLN", Amount: 100}},
			Status:     "paid",
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(nil).Export(report, &buf))

	raw := buf.String()
	assert.Contains(t, raw, `"Kurs, edycja 2"`, "comma field must be quoted")
	assert.Contains(t, raw, `"Firma ""Alfa"" Sp. z o.o."`, "quotes doubled, newline collapsed")

	records, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Kurs, edycja 2", records[1][1])
	assert.Equal(t, `Firma "Alfa" Sp. z o.o.`, records[1][4])
}

func TestExportDealURL(t *testing.T) {
	report := emptyReport(FiltersDTO{})
	report.Products = []ProductDTO{{
		Key: "1", Name: "Kurs",
		Entries: []EntryDTO{{
			Key:          "gateway_session:a@example.com:1:deal-7",
			StripeDealID: "deal-7",
			Totals:       TotalsDTO{CurrencyTotals: map[string]float64{"PLN": 100}},
			Payments:     []PaymentDTO{{ID: "s1", Currency: "PLN", Amount: 100}},
			Status:       "paid",
		}},
	}}

	records := exportReport(t, report, &fakeCRM{})
	require.Len(t, records, 2)
	assert.Equal(t, "deal-7", records[1][13])
	assert.Equal(t, "https://crm.example.com/deals/deal-7", records[1][14])

	// Without a CRM client the url column stays empty.
	records = exportReport(t, report, nil)
	assert.Empty(t, records[1][14])
}
