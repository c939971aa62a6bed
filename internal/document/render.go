package document

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

// Party is the company block printed on a document header
type Party struct {
	Name    string
	Address string
	Phone   string
	NTN     string
}

// Line is a single priced row of an invoice or quotation
type Line struct {
	Name       string
	Unit       string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	Total      decimal.Decimal
	TaxPercent decimal.Decimal
	TaxAmount  decimal.Decimal
}

// Totals summarises priced lines
type Totals struct {
	Subtotal   decimal.Decimal
	TaxPercent decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

type InvoiceDocument struct {
	Issuer          Party
	Customer        Party
	InvoiceID       string
	Date            time.Time
	PurchaseOrderNo string
	Description     string
	InvoiceType     string
	Lines           []Line
	Totals          Totals
}

type QuotationDocument struct {
	Issuer   Party
	Customer Party
	Title    string
	Date     time.Time
	Lines    []Line
	Totals   Totals
}

// DeliveryLine is a row of a delivery challan
type DeliveryLine struct {
	Name     string
	Unit     string
	Quantity decimal.Decimal
}

type ChallanDocument struct {
	Issuer          Party
	ChallanNo       string
	Date            time.Time
	CustomerName    string
	PurchaseOrderNo string
	Notes           string
	Lines           []DeliveryLine
	TotalQuantity   decimal.Decimal
}

// Renderer executes the embedded document templates
type Renderer struct {
	templates *template.Template
	printer   *message.Printer
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{printer: message.NewPrinter(language.English)}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"amount":  r.FormatAmount,
		"percent": func(d decimal.Decimal) string { return d.StringFixed(2) + "%" },
		"qty":     func(d decimal.Decimal) string { return d.String() },
		"add":     func(a, b int) int { return a + b },
	}

	tmpl, err := template.New("documents").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse document templates: %w", err)
	}
	r.templates = tmpl
	return r, nil
}

// FormatAmount renders d with thousands separators and two decimals
func (r *Renderer) FormatAmount(d decimal.Decimal) string {
	return r.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

func (r *Renderer) Invoice(doc InvoiceDocument) ([]byte, error) {
	return r.execute("invoice.html", doc)
}

func (r *Renderer) Quotation(doc QuotationDocument) ([]byte, error) {
	return r.execute("quotation.html", doc)
}

func (r *Renderer) Challan(doc ChallanDocument) ([]byte, error) {
	return r.execute("challan.html", doc)
}

func (r *Renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
