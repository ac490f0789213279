package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic_accounting/pkg/core/chart"
	"agentic_accounting/pkg/core/journal"
	"agentic_accounting/pkg/models"
)

func testChart(t *testing.T) *chart.Chart {
	t.Helper()
	c := chart.New()
	require.NoError(t, c.Add(models.Account{
		Code: "001", Name: "Business Cheque", Type: models.AccountTypeBank,
		GSTTreatment: models.BASExcluded,
	}, chart.Bootstrap()))
	c.EnsureUncategorized()
	return c
}

func TestParseStatementHeaderAndPositional(t *testing.T) {
	withHeader := `Date,Description,Debit,Credit,Balance
2025-01-10,Office Supplies 1,55.00,,944.00
11/01/2025,Office Supplies 2,55.00,,889.00
2025-01-12,Customer Payment,,110.00,999.00
`
	rows, warnings, err := ParseStatement(strings.NewReader(withHeader))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, rows, 3)
	assert.Equal(t, "2025-01-10", rows[0].Date.String())
	assert.Equal(t, "2025-01-11", rows[1].Date.String(), "day-first format")
	assert.Equal(t, 55.00, rows[0].Debit)
	assert.Equal(t, 110.00, rows[2].Credit)
	assert.Equal(t, 944.00, rows[0].Balance)

	positional := "2025-01-10,Tolls,9.85,,100.00\n"
	rows, _, err = ParseStatement(strings.NewReader(positional))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9.85, rows[0].Debit)
}

func TestParseStatementKeepsBalanceSign(t *testing.T) {
	data := `Date,Description,Debit,Credit,Balance
2025-01-10,Office Supplies,55.00,,-890.00
2025-01-11,Refund,-12.50,,"-$902.50"
`
	rows, warnings, err := ParseStatement(strings.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, rows, 2)
	assert.Equal(t, -890.00, rows[0].Balance, "overdrawn balance must stay negative")
	assert.Equal(t, 12.50, rows[1].Debit, "debit column is a magnitude")
	assert.Equal(t, -902.50, rows[1].Balance)
}

func TestParseStatementSkipsBadRows(t *testing.T) {
	data := `Date,Description,Debit,Credit,Balance
not-a-date,Broken,1.00,,0
2025-01-10,,1.00,,0
2025-01-10,No Money,,,0
2025-01-11,Good Row,12.30,,50.00
`
	rows, warnings, err := ParseStatement(strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Len(t, warnings, 3)
	for _, w := range warnings {
		t.Logf("warning: %s", w)
	}
}

func TestEntryFromRowDirection(t *testing.T) {
	im := NewImporter(testChart(t), journal.New())

	out, err := im.EntryFromRow(StatementRow{
		Date: mustDate(t, "2025-01-10"), Description: "Office Supplies 1",
		Debit: 55.00, Balance: 944.00,
	}, "001")
	require.NoError(t, err)
	require.Len(t, out.Debits, 1)
	require.Len(t, out.Credits, 1)
	assert.Equal(t, models.UncategorizedCode, out.Debits[0].AccountCode, "outflow debits the placeholder")
	assert.Equal(t, "001", out.Credits[0].AccountCode)
	assert.Equal(t, 55.00, out.Credits[0].Amount)
	assert.Equal(t, 944.00, out.BankBalance)

	in, err := im.EntryFromRow(StatementRow{
		Date: mustDate(t, "2025-01-12"), Description: "Customer Payment",
		Credit: 110.00,
	}, "001")
	require.NoError(t, err)
	assert.Equal(t, "001", in.Debits[0].AccountCode, "inflow debits the bank")
	assert.Equal(t, models.UncategorizedCode, in.Credits[0].AccountCode)
}

func TestImportFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "001.csv")
	csv := `Date,Description,Debit,Credit,Balance
2025-01-10,Office Supplies 1,55.00,,944.00
2025-01-11,Office Supplies 2,55.00,,889.00
`
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	j := journal.New()
	im := NewImporter(testChart(t), j)

	first, err := im.ImportFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "001", first.BankCode)
	assert.Equal(t, 2, first.Added)
	assert.Equal(t, 0, first.Duplicates)

	second, err := im.ImportFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 2, second.Duplicates)
	assert.Equal(t, 2, j.Len(), "re-import must not grow the journal")
}

func TestImportFileRequiresBankCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte("2025-01-10,Row,1.00,,0\n"), 0o644))

	im := NewImporter(testChart(t), journal.New())
	_, err := im.ImportFile(path, "")
	require.Error(t, err)

	report, err := im.ImportFile(path, "001")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}
