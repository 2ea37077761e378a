package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
)

// pdfColWidths are the fixed table column widths in millimetres.
var pdfColWidths = [8]float64{10, 30, 20, 30, 25, 20, 25, 30}

var pdfHeaders = [8]string{"ID", "Name", "Amount", "Category", "Date", "Time", "Mode", "Note"}

// WritePDF renders the transaction report as a bordered table followed by a
// merged Total row and a taller merged Remaining Wallet Balance row.
func WritePDF(w io.Writer, txns []core.Transaction, balance decimal.Decimal) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(200, 10, "Transaction Report", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	for i, h := range pdfHeaders {
		pdf.CellFormat(pdfColWidths[i], 8, h, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
		row := [8]string{
			fmt.Sprintf("%d", t.ID),
			truncate(t.Name, 15),
			t.Amount.StringFixed(2),
			truncate(t.Category, 15),
			t.DateString(),
			t.Time,
			truncate(t.PaymentMode, 10),
			truncateEllipsis(t.Note, 20),
		}
		for i, cell := range row {
			pdf.CellFormat(pdfColWidths[i], 8, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	// Total row: first two columns merged for the label, amount in the third,
	// the rest bordered but empty to keep the table aligned.
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(pdfColWidths[0]+pdfColWidths[1], 8, "Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(pdfColWidths[2], 8, total.StringFixed(2), "1", 0, "C", false, 0, "")
	for _, cw := range pdfColWidths[3:] {
		pdf.CellFormat(cw, 8, "", "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	// Balance row spans the full table width: three columns for the label,
	// five for the amount, double height so the label fits.
	const balanceRowHeight = 16
	pdf.CellFormat(pdfColWidths[0]+pdfColWidths[1]+pdfColWidths[2], balanceRowHeight,
		"Remaining Wallet Balance", "1", 0, "C", false, 0, "")
	pdf.CellFormat(pdfColWidths[3]+pdfColWidths[4]+pdfColWidths[5]+pdfColWidths[6]+pdfColWidths[7],
		balanceRowHeight, balance.StringFixed(2), "1", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// truncateEllipsis marks the cut with a trailing ellipsis, used for the
// free-text note column.
func truncateEllipsis(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
