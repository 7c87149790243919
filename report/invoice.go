package report

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chemtrade-erp/chemtrade-erp/internal/invoices"
	"github.com/chemtrade-erp/chemtrade-erp/internal/settings"
)

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 48px; }
h1 { font-size: 22px; margin-bottom: 0; }
.muted { color: #666; font-size: 12px; }
.header { display: flex; justify-content: space-between; margin-bottom: 32px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th { text-align: left; font-size: 12px; text-transform: uppercase; color: #666; border-bottom: 2px solid #ddd; padding: 8px 4px; }
td { padding: 8px 4px; border-bottom: 1px solid #eee; font-size: 13px; }
td.num, th.num { text-align: right; }
.total td { border-bottom: none; font-weight: bold; font-size: 15px; }
</style>
</head>
<body>
<div class="header">
  <div>
    <h1>{{.Company.Name}}</h1>
    <div class="muted">{{.Company.Address}}</div>
    <div class="muted">{{.Company.Email}} {{.Company.Phone}}</div>
    {{if .Company.TaxID}}<div class="muted">Tax ID: {{.Company.TaxID}}</div>{{end}}
  </div>
  <div>
    <h1>Invoice {{.Number}}</h1>
    <div class="muted">Issued {{.IssuedOn}}</div>
  </div>
</div>
<div>
  <strong>Billed to</strong>
  <div>{{.CustomerName}}</div>
  <div class="muted">{{.CustomerAddress}}</div>
  <div class="muted">{{.CustomerEmail}}</div>
</div>
<table>
  <thead>
    <tr><th>Description</th><th class="num">Qty</th><th class="num">Rate</th><th class="num">Amount</th></tr>
  </thead>
  <tbody>
    {{range .Lines}}<tr><td>{{.Description}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.Rate}}</td><td class="num">{{.Amount}}</td></tr>
    {{end}}
    <tr class="total"><td colspan="3">Total</td><td class="num">{{.Total}}</td></tr>
  </tbody>
</table>
</body>
</html>`))

type invoiceLine struct {
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

type invoicePage struct {
	Company         settings.CompanyInfo
	Number          string
	IssuedOn        string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	Lines           []invoiceLine
	Total           string
}

// RenderInvoiceHTML lays out one invoice against the company letterhead.
func RenderInvoiceHTML(company settings.CompanyInfo, inv invoices.Invoice) (string, error) {
	printer := message.NewPrinter(language.English)
	page := invoicePage{
		Company:         company,
		Number:          inv.Number,
		IssuedOn:        inv.IssueDate.Format("2 January 2006"),
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		CustomerAddress: inv.CustomerAddress,
		Total:           formatAmount(printer, inv.TotalAmount),
	}
	for _, item := range inv.Items {
		page.Lines = append(page.Lines, invoiceLine{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			Rate:        formatAmount(printer, item.Rate),
			Amount:      formatAmount(printer, item.Amount),
		})
	}
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, page); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatAmount renders a money value with thousands separators, e.g. 1,282.50.
func formatAmount(printer *message.Printer, d decimal.Decimal) string {
	value, _ := d.Round(2).Float64()
	return printer.Sprintf("%.2f", value)
}
