package models

import "time"

// CompanyProfile carries the business identity stored in the company file.
type CompanyProfile struct {
	CompanyName             string    `json:"companyName"`
	ABN                     string    `json:"abn,omitempty"`
	FinancialYearStartMonth int       `json:"financialYearStartMonth,omitempty"`
	Created                 time.Time `json:"created"`
	Updated                 time.Time `json:"updated"`
}

// CompanyFile is the unified persistence document: chart, journal,
// suppliers and rules in one JSON file. A legacy mode persists the same
// data as four separate files; both serializations are deterministic for
// equal logical content.
type CompanyFile struct {
	Profile   CompanyProfile   `json:"profile"`
	Accounts  []Account        `json:"accounts"`
	Journal   []JournalEntry   `json:"journal"`
	Suppliers []Supplier       `json:"suppliers"`
	Rules     []AccountingRule `json:"rules"`
}
