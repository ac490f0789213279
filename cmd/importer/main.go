// The importer command scans the statements directory for bank CSV files,
// appends every new row to the general journal seeded to the
// Uncategorized account, and persists the journal. Re-running over the
// same files is a no-op: the identity tuple dedupes.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/company"
	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/core/ingest"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env not found, using process environment")
	}
	logrus.SetOutput(os.Stderr)

	cfg := config.Load()
	books, err := company.Open(cfg)
	if err != nil {
		logrus.Errorf("open company books: %v", err)
		os.Exit(1)
	}

	importer := ingest.NewImporter(books.Chart, books.Journal)
	reports, err := importer.ImportDir(cfg.StatementsDir)
	if err != nil {
		logrus.Errorf("import statements from %s: %v", cfg.StatementsDir, err)
		os.Exit(1)
	}
	if len(reports) == 0 {
		fmt.Printf("no statement files found in %s\n", cfg.StatementsDir)
		return
	}

	totalAdded := 0
	for _, r := range reports {
		fmt.Printf("%-30s bank %s: %3d rows, %3d added, %3d duplicates, %3d skipped\n",
			r.File, r.BankCode, r.Rows, r.Added, r.Duplicates, r.Skipped)
		for _, w := range r.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		totalAdded += r.Added
	}

	if totalAdded > 0 {
		if err := books.SaveJournal(); err != nil {
			logrus.Errorf("save journal: %v", err)
			os.Exit(1)
		}
	}
	fmt.Printf("imported %d new transactions across %d files\n", totalAdded, len(reports))
}
