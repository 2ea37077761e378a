package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
)

func exportTxn(id int64, name, amount, category, date, hhmm, mode, note string) core.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return core.Transaction{
		ID:          id,
		UserID:      1,
		Name:        name,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Date:        d,
		Time:        hhmm,
		PaymentMode: mode,
		Note:        note,
	}
}

func TestWriteCSV(t *testing.T) {
	txns := []core.Transaction{
		exportTxn(1, "Lunch", "12.5", "Food", "2024-03-01", "12:30", "Cash", ""),
		exportTxn(2, "Dinner", "20", "Food", "2024-03-05", "19:00", "Card", "team"),
	}

	var buf bytes.Buffer
	err := WriteCSV(&buf, txns, decimal.RequireFromString("67.5"))
	require.NoError(t, err)

	want := "ID,Name,Amount,Category,Date,Time,Payment Mode,Note\n" +
		"1,Lunch,12.5,Food,2024-03-01,12:30,Cash,\n" +
		"2,Dinner,20,Food,2024-03-05,19:00,Card,team\n" +
		",,,Total,,,32.5,\n" +
		",,,Remaining Wallet Balance,,,67.5,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmptySet(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil, decimal.RequireFromString("100"))
	require.NoError(t, err)

	want := "ID,Name,Amount,Category,Date,Time,Payment Mode,Note\n" +
		",,,Total,,,0,\n" +
		",,,Remaining Wallet Balance,,,100,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVTotalsOnlyFilteredSet(t *testing.T) {
	// The renderer sums exactly what it is handed; a caller passing a
	// filtered slice gets a filtered total.
	filtered := []core.Transaction{
		exportTxn(3, "Bus", "5", "Travel", "2024-03-02", "08:00", "Cash", ""),
	}

	var buf bytes.Buffer
	err := WriteCSV(&buf, filtered, decimal.RequireFromString("95"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), ",,,Total,,,5,\n")
	assert.Contains(t, buf.String(), ",,,Remaining Wallet Balance,,,95,\n")
}
