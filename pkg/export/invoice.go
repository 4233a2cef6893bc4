package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// InvoiceLine is a single billed item on a receipt.
type InvoiceLine struct {
	Description string
	Quantity    int
	Amount      decimal.Decimal
}

// Invoice carries everything the receipt renderer needs.
type Invoice struct {
	RequestID    string
	LeakTitle    string
	Address      string
	PlumberName  string
	BusinessName string
	IssuedAt     time.Time
	Lines        []InvoiceLine
	Total        decimal.Decimal
	Currency     string
}

// InvoiceRenderer produces PDF receipts for closed service requests.
type InvoiceRenderer struct{}

// NewInvoiceRenderer constructs a renderer.
func NewInvoiceRenderer() *InvoiceRenderer {
	return &InvoiceRenderer{}
}

// Render creates the receipt document.
func (r *InvoiceRenderer) Render(inv Invoice) ([]byte, error) {
	if inv.RequestID == "" {
		return nil, fmt.Errorf("invoice requires a request id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "AQUAFLOW SERVICE RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Request: %s", inv.RequestID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issue: %s", inv.LeakTitle), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Location: %s", inv.Address), "", 1, "", false, 0, "")
	if inv.PlumberName != "" {
		contractor := inv.PlumberName
		if inv.BusinessName != "" {
			contractor = fmt.Sprintf("%s (%s)", inv.PlumberName, inv.BusinessName)
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("Contractor: %s", contractor), "", 1, "", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued: %s", inv.IssuedAt.Format("2006-01-02 15:04 MST")), "", 1, "", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 8, "Description", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, line := range inv.Lines {
		qty := ""
		if line.Quantity > 0 {
			qty = fmt.Sprintf("%d", line.Quantity)
		}
		pdf.CellFormat(110, 7, line.Description, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 7, qty, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, line.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(135, 8, fmt.Sprintf("Total (%s)", inv.Currency), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 8, inv.Total.StringFixed(2), "1", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
