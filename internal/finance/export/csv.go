// Package export serialises finance data for download.
package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/jumuiya-app/jumuiya/internal/finance/ledger"
)

// WriteTransactionsCSV serialises a transaction listing to CSV.
func WriteTransactionsCSV(w io.Writer, transactions []ledger.Transaction) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"ID", "Account", "Date", "Type", "Category", "Amount", "Description"}); err != nil {
		return err
	}
	for _, t := range transactions {
		record := []string{
			formatInt(t.ID),
			formatInt(t.AccountID),
			t.Date.Format("2006-01-02"),
			string(t.Type),
			t.Category,
			t.Amount.StringFixed(2),
			t.Description,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSummaryCSV serialises the summary aggregate to CSV, totals first and
// category breakdown after, in stable category order.
func WriteSummaryCSV(w io.Writer, summary ledger.Summary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	totals := [][]string{
		{"Total Income", summary.TotalIncome.StringFixed(2)},
		{"Total Expense", summary.TotalExpense.StringFixed(2)},
		{"Net Balance", summary.NetBalance.StringFixed(2)},
		{"Transaction Count", formatInt(summary.TransactionCount)},
	}
	for _, record := range totals {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{"Category", "Income", "Expense", "Net"}); err != nil {
		return err
	}
	categories := make([]string, 0, len(summary.Categories))
	for name := range summary.Categories {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		totals := summary.Categories[name]
		label := name
		if label == "" {
			label = "(uncategorised)"
		}
		record := []string{
			label,
			totals.Income.StringFixed(2),
			totals.Expense.StringFixed(2),
			totals.Net.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
