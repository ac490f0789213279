// Package ingest turns bank-statement CSV files into uncategorized journal
// entries. Each statement file maps to one bank account (by base filename
// or explicit override); every row becomes a balanced entry with the bank
// account on one side and the 999 placeholder on the other.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/models"
)

// StatementRow is one parsed bank-statement line.
type StatementRow struct {
	Date        models.Date
	Description string
	Debit       float64 // outflow, positive
	Credit      float64 // inflow, positive
	Balance     float64
}

// dateFormats are tried in order. Australian statements favour
// day-first layouts.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
}

func parseRowDate(s string) (models.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), nil
		}
	}
	return models.Date{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount reads a currency cell, keeping its sign. Used for the
// balance column, where an overdrawn account is legitimately negative.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.ReplaceAll(s, "$", "")
	if s == "" || s == "-" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	return v, nil
}

// parseMagnitude reads a debit/credit cell. Banks disagree on whether
// these columns carry signs; direction comes from the column, so the
// magnitude is what matters.
func parseMagnitude(s string) (float64, error) {
	v, err := parseAmount(s)
	if v < 0 {
		v = -v
	}
	return v, err
}

// column indices after header detection.
type layout struct {
	date, description, debit, credit, balance int
}

var defaultLayout = layout{date: 0, description: 1, debit: 2, credit: 3, balance: 4}

// detectLayout inspects a header row for named columns. Returns the
// positional default and false when the row does not look like a header.
func detectLayout(row []string) (layout, bool) {
	l := layout{date: -1, description: -1, debit: -1, credit: -1, balance: -1}
	matched := 0
	for i, cell := range row {
		switch h := strings.ToLower(strings.TrimSpace(cell)); {
		case h == "date" || strings.Contains(h, "transaction date"):
			l.date = i
			matched++
		case strings.Contains(h, "desc") || strings.Contains(h, "narra") || strings.Contains(h, "detail"):
			l.description = i
			matched++
		case strings.Contains(h, "debit") || strings.Contains(h, "withdraw"):
			l.debit = i
			matched++
		case strings.Contains(h, "credit") || strings.Contains(h, "deposit"):
			l.credit = i
			matched++
		case strings.Contains(h, "balance"):
			l.balance = i
			matched++
		}
	}
	if matched < 3 || l.date < 0 || l.description < 0 {
		return defaultLayout, false
	}
	return l, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ParseStatement reads a whole CSV statement. Malformed rows are reported
// as warnings and skipped, never fatal: a statement export with one bad
// line must still import the rest.
func ParseStatement(r io.Reader) ([]StatementRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errs.IOf("read statement csv: %v", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	l, hasHeader := detectLayout(records[0])
	start := 0
	if hasHeader {
		start = 1
	}

	var rows []StatementRow
	var warnings []string
	for i := start; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 || strings.TrimSpace(strings.Join(record, "")) == "" {
			continue
		}
		row, err := parseRecord(record, l)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, warnings, nil
}

func parseRecord(record []string, l layout) (StatementRow, error) {
	date, err := parseRowDate(cell(record, l.date))
	if err != nil {
		return StatementRow{}, err
	}
	description := strings.TrimSpace(cell(record, l.description))
	if description == "" {
		return StatementRow{}, fmt.Errorf("empty description")
	}
	debit, err := parseMagnitude(cell(record, l.debit))
	if err != nil {
		return StatementRow{}, fmt.Errorf("debit: %v", err)
	}
	credit, err := parseMagnitude(cell(record, l.credit))
	if err != nil {
		return StatementRow{}, fmt.Errorf("credit: %v", err)
	}
	if debit == 0 && credit == 0 {
		return StatementRow{}, fmt.Errorf("row moves no money")
	}
	if debit > 0 && credit > 0 {
		return StatementRow{}, fmt.Errorf("row has both a debit and a credit")
	}
	balance, err := parseAmount(cell(record, l.balance))
	if err != nil {
		balance = 0
	}
	return StatementRow{
		Date:        date,
		Description: description,
		Debit:       debit,
		Credit:      credit,
		Balance:     balance,
	}, nil
}
