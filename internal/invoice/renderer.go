// Package invoice renders a completed purchase into a fixed-layout,
// single-page PDF and delivers it by mail.
package invoice

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
)

// taxRate is always applied to the line-item subtotal at render time. The
// stored purchase total is never read back here.
var taxRate = decimal.NewFromFloat(0.10)

// Totals computes subtotal, tax (10% of subtotal) and total over the line
// items, all rounded to two decimal places.
func Totals(items []entity.PurchaseItem) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax = subtotal.Mul(taxRate).Round(2)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}

type Renderer struct {
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
}

func NewRenderer(name, address, email string) *Renderer {
	return &Renderer{CompanyName: name, CompanyAddress: address, CompanyEmail: email}
}

const (
	pageWidth  = 210.0
	marginX    = 15.0
	tableWidth = pageWidth - 2*marginX
)

// Render produces the invoice PDF. Missing customer data falls back to
// placeholders instead of failing the render.
func (r *Renderer) Render(purchase *entity.Purchase, inv *entity.Invoice) ([]byte, error) {
	customerName := purchase.CustomerName
	if customerName == "" {
		customerName = "Customer"
	}
	customerEmail := purchase.CustomerEmail

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(0, 0, pageWidth, 32, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(marginX, 10)
	pdf.CellFormat(100, 12, r.CompanyName, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(tableWidth-100, 12, "INVOICE", "", 0, "R", false, 0, "")

	// From / invoice metadata columns
	pdf.SetTextColor(60, 60, 60)
	pdf.SetXY(marginX, 42)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 5, "From", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(90, 5, r.CompanyName, "", 2, "L", false, 0, "")
	pdf.CellFormat(90, 5, r.CompanyAddress, "", 2, "L", false, 0, "")
	pdf.CellFormat(90, 5, r.CompanyEmail, "", 2, "L", false, 0, "")

	meta := [][2]string{
		{"Invoice number", inv.Number},
		{"Date", inv.CreatedAt.Format("Jan 2, 2006")},
		{"Order ID", purchase.ID},
		{"Payment status", purchase.Status},
	}
	y := 42.0
	for _, row := range meta {
		pdf.SetXY(marginX+95, y)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(35, 5, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(50, 5, row[1], "", 0, "L", false, 0, "")
		y += 5
	}

	// Bill-to panel
	pdf.SetXY(marginX, 70)
	pdf.SetFillColor(241, 245, 249)
	pdf.Rect(marginX, 70, tableWidth, 16, "F")
	pdf.SetXY(marginX+3, 72)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 5, "Bill to", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(120, 5, fmt.Sprintf("%s  %s", customerName, customerEmail), "", 0, "L", false, 0, "")

	// Line-item table
	colWidths := []float64{95, 20, 30, 35}
	headers := []string{"Description", "Qty", "Price", "Amount"}
	aligns := []string{"L", "C", "R", "R"}

	pdf.SetXY(marginX, 94)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, h, "", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 9)
	for i, item := range purchase.Items {
		// Zebra stripes
		fill := i%2 == 1
		pdf.SetFillColor(241, 245, 249)
		pdf.SetX(marginX)

		label := item.Name
		if item.Description != "" {
			label = fmt.Sprintf("%s - %s", item.Name, item.Description)
		}
		amount := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		pdf.CellFormat(colWidths[0], 7, label, "", 0, "L", fill, 0, "")
		pdf.CellFormat(colWidths[1], 7, fmt.Sprintf("%d", item.Quantity), "", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[2], 7, item.Price.StringFixed(2), "", 0, "R", fill, 0, "")
		pdf.CellFormat(colWidths[3], 7, amount.StringFixed(2), "", 0, "R", fill, 0, "")
		pdf.Ln(-1)
	}

	// Totals block
	subtotal, tax, total := Totals(purchase.Items)
	totals := [][2]string{
		{"Subtotal", subtotal.StringFixed(2)},
		{"Tax (10%)", tax.StringFixed(2)},
		{"Total", total.StringFixed(2)},
	}
	pdf.Ln(3)
	for i, row := range totals {
		pdf.SetX(marginX + colWidths[0] + colWidths[1])
		if i == len(totals)-1 {
			pdf.SetFont("Helvetica", "B", 10)
		} else {
			pdf.SetFont("Helvetica", "", 9)
		}
		pdf.CellFormat(colWidths[2], 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[3], 6, row[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	// Terms and footer
	pdf.SetY(230)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(tableWidth, 5, "Terms & Conditions", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(tableWidth, 4,
		"Payment has been processed through our payment provider. Digital products are delivered "+
			"immediately after purchase and are non-refundable once downloaded. This invoice was "+
			"generated electronically and is valid without a signature.", "", "L", false)

	pdf.SetY(-25)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(marginX, pdf.GetY(), pageWidth-marginX, pdf.GetY())
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(tableWidth, 10, fmt.Sprintf("%s - Thank you for your business", r.CompanyName), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
