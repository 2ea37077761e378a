// Package export renders a filtered transaction set into downloadable
// reports. Both renderers consume the same already-filtered slice and total
// strictly over it, never over the full history.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
)

// csvHeader is the fixed column order of the CSV export. It must not change:
// downstream imports rely on it.
var csvHeader = []string{"ID", "Name", "Amount", "Category", "Date", "Time", "Payment Mode", "Note"}

// WriteCSV emits the report: header, one row per transaction, a totals row
// and a remaining-balance row. The summary rows put the label in the fourth
// column and the value in the seventh so they line up under the table.
func WriteCSV(w io.Writer, txns []core.Transaction, balance decimal.Decimal) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
		row := []string{
			fmt.Sprintf("%d", t.ID),
			t.Name,
			t.Amount.String(),
			t.Category,
			t.DateString(),
			t.Time,
			t.PaymentMode,
			t.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	summary := [][]string{
		{"", "", "", "Total", "", "", total.String(), ""},
		{"", "", "", "Remaining Wallet Balance", "", "", balance.String(), ""},
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv summary row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
