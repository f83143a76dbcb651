package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cash-application-backend/internal/models"
)

// exportColumns is the fixed downstream ledger schema; column order is
// significant.
var exportColumns = []string{
	"Company Code",
	"Posting Date",
	"Document Date",
	"Document Type",
	"Line Number",
	"GL Account",
	"Debit",
	"Credit",
	"Currency",
	"Item Text",
}

const exportDateLayout = "2006-01-02"

// WriteCSV streams journal entries in the fixed 10-column export format.
// Zero debit/credit cells are left empty.
func WriteCSV(w io.Writer, entries []models.JournalEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		record := []string{
			e.CompanyCode,
			formatDate(e.PostingDate),
			formatDate(e.DocumentDate),
			e.DocumentType,
			strconv.Itoa(e.LineNumber),
			e.GLAccount,
			formatAmount(e.Debit),
			formatAmount(e.Credit),
			e.Currency,
			e.ItemText,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(exportDateLayout)
}

func formatAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
