package revenue

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/revreport/backend/internal/domain/revenue"
)

// csvHeader is the export contract; column order is fixed.
var csvHeader = []string{
	"product_key",
	"product_name",
	"proforma_id",
	"first_payment_date",
	"payer",
	"buyer",
	"amount",
	"currency",
	"amount_pln",
	"payment_status",
	"proforma_fullnumber",
	"proforma_issue_date",
	"proforma_total_pln",
	"deal_id",
	"deal_url",
}

// CSVExporter flattens a revenue report into one row per payer aggregate.
type CSVExporter struct {
	crm revenue.CRMClient // optional, nil leaves deal_url empty
}

// NewCSVExporter creates a CSV exporter. crm may be nil.
func NewCSVExporter(crm revenue.CRMClient) *CSVExporter {
	return &CSVExporter{crm: crm}
}

// Export writes the report as RFC 4180 CSV. Fields containing a comma or
// quote are quoted with doubled internal quotes by the writer; newlines
// inside fields are collapsed to spaces first.
func (e *CSVExporter) Export(report *ReportDTO, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, product := range report.Products {
		for _, entry := range product.Entries {
			if err := cw.Write(e.row(product, entry)); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func (e *CSVExporter) row(product ProductDTO, entry EntryDTO) []string {
	var proformaID, fullNumber, issueDate, totalPLN, buyer string
	if entry.Proforma != nil {
		proformaID = strconv.FormatInt(entry.Proforma.ID, 10)
		fullNumber = entry.Proforma.FullNumber
		issueDate = entry.Proforma.IssueDate
		buyer = entry.Proforma.Buyer
		if entry.Proforma.TotalPLN != nil {
			totalPLN = formatAmount(*entry.Proforma.TotalPLN)
		}
	}

	amount, currency := entryAmount(entry)

	var dealURL string
	if entry.StripeDealID != "" && e.crm != nil {
		dealURL = e.crm.DealURL(entry.StripeDealID)
	}

	row := []string{
		product.Key,
		product.Name,
		proformaID,
		entry.FirstPaymentDate,
		strings.Join(entry.PayerNames, ", "),
		buyer,
		amount,
		currency,
		formatAmount(entry.Totals.PLNTotal),
		entry.Status,
		fullNumber,
		issueDate,
		totalPLN,
		entry.StripeDealID,
		dealURL,
	}
	for i, field := range row {
		row[i] = collapseNewlines(field)
	}
	return row
}

// entryAmount picks the aggregate's primary currency: the currency of its
// first payment, with that currency's accumulated total.
func entryAmount(entry EntryDTO) (string, string) {
	if len(entry.Payments) == 0 {
		return "", ""
	}
	currency := entry.Payments[0].Currency
	return formatAmount(entry.Totals.CurrencyTotals[currency]), currency
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func collapseNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
