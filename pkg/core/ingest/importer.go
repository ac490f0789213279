package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/chart"
	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/gst"
	"agentic_accounting/pkg/core/journal"
	"agentic_accounting/pkg/models"
)

// Importer feeds statement rows into the journal. It never categorizes:
// everything lands on the 999 placeholder and stays there until the
// Accountant's update_transaction_account moves it.
type Importer struct {
	chart   *chart.Chart
	journal *journal.Journal
	log     *logrus.Entry
}

// NewImporter wires an importer against live stores.
func NewImporter(c *chart.Chart, j *journal.Journal) *Importer {
	return &Importer{
		chart:   c,
		journal: j,
		log:     logrus.WithField("component", "ingest"),
	}
}

// FileReport summarizes one imported statement file.
type FileReport struct {
	File       string   `json:"file"`
	BankCode   string   `json:"bankCode"`
	Rows       int      `json:"rows"`
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	Skipped    int      `json:"skipped"`
	Warnings   []string `json:"warnings,omitempty"`
}

// EntryFromRow assembles the balanced journal entry for one statement row:
// the bank account on the side the money moved, the uncategorized account
// opposite. The uncategorized leg goes through the GST splitter so its
// treatment (BAS excluded, hence no split) is decided in exactly one place.
func (im *Importer) EntryFromRow(row StatementRow, bankCode string) (models.JournalEntry, error) {
	if !models.IsBankCode(bankCode) {
		return models.JournalEntry{}, errs.Validationf("bank code %q is not in the bank range 001-099", bankCode)
	}
	if !im.chart.Exists(bankCode) {
		return models.JournalEntry{}, errs.NotFoundf("bank account %s not found in chart", bankCode)
	}
	uncat, err := im.chart.Get(models.UncategorizedCode)
	if err != nil {
		return models.JournalEntry{}, err
	}

	amount := row.Debit
	outflow := true
	if amount == 0 {
		amount = row.Credit
		outflow = false
	}

	lines, err := gst.Lines(uncat, "", amount)
	if err != nil {
		return models.JournalEntry{}, err
	}
	bankLine := []models.SplitLine{{AccountCode: bankCode, Amount: amount}}

	entry := models.JournalEntry{
		Date:        row.Date,
		Description: row.Description,
		BankBalance: row.Balance,
	}
	if outflow {
		// Money left the bank: credit the bank, debit the placeholder.
		entry.Debits = lines
		entry.Credits = bankLine
	} else {
		entry.Debits = bankLine
		entry.Credits = lines
	}
	return entry, nil
}

// bankCodeForFile derives the bank account from the statement base name
// ("001.csv", "001 - cheque.csv").
func bankCodeForFile(path string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fields := strings.FieldsFunc(base, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	if len(fields) == 0 {
		return "", false
	}
	code := fields[0]
	return code, models.IsBankCode(code)
}

// ImportFile parses one statement and appends its rows to the journal.
// bankCodeOverride, when non-empty, wins over the filename. Re-importing
// the same file is a no-op thanks to the journal's identity dedupe.
func (im *Importer) ImportFile(path, bankCodeOverride string) (FileReport, error) {
	bankCode := bankCodeOverride
	if bankCode == "" {
		derived, ok := bankCodeForFile(path)
		if !ok {
			return FileReport{}, errs.Validationf(
				"cannot derive a bank code from filename %q; name the file after the account (e.g. 001.csv) or pass an override",
				filepath.Base(path))
		}
		bankCode = derived
	}

	f, err := os.Open(path)
	if err != nil {
		return FileReport{}, errs.IOf("open statement %s: %v", path, err)
	}
	defer f.Close()

	rows, warnings, err := ParseStatement(f)
	if err != nil {
		return FileReport{}, err
	}

	report := FileReport{File: filepath.Base(path), BankCode: bankCode, Rows: len(rows), Warnings: warnings}
	for _, row := range rows {
		entry, err := im.EntryFromRow(row, bankCode)
		if err != nil {
			report.Skipped++
			report.Warnings = append(report.Warnings, err.Error())
			continue
		}
		added, err := im.journal.Add(entry)
		if err != nil {
			report.Skipped++
			report.Warnings = append(report.Warnings, err.Error())
			continue
		}
		if added {
			report.Added++
		} else {
			report.Duplicates++
		}
	}
	im.log.Infof("imported %s for bank %s: %d added, %d duplicates, %d skipped",
		report.File, bankCode, report.Added, report.Duplicates, report.Skipped)
	return report, nil
}

// ImportDir imports every CSV in the statements directory, one report per
// file, in name order. Files whose bank code cannot be derived are
// reported and skipped rather than aborting the run.
func (im *Importer) ImportDir(dir string) ([]FileReport, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		im.log.Warnf("statements directory %s does not exist", dir)
		return nil, nil
	}
	if err != nil {
		return nil, errs.IOf("read statements directory %s: %v", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var reports []FileReport
	for _, name := range names {
		report, err := im.ImportFile(filepath.Join(dir, name), "")
		if err != nil {
			im.log.Warnf("skipping %s: %v", name, err)
			reports = append(reports, FileReport{File: name, Warnings: []string{err.Error()}})
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}
