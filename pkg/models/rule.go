package models

import "time"

// AccountingRule is a named guidance block for the AI categorizer. Rules
// are prose, not an executable DSL: Condition and Action are free text and
// the account snapshot fields are derived from the chart when the rule is
// written.
type AccountingRule struct {
	Name        string       `json:"name"`
	Created     time.Time    `json:"created"`
	Updated     time.Time    `json:"updated"`
	Priority    int          `json:"priority"`
	Condition   string       `json:"condition"`
	Action      string       `json:"action"`
	AccountCode string       `json:"accountCode"`
	AccountType AccountType  `json:"accountType"`
	GSTHandling GSTTreatment `json:"gstHandling"`
	Notes       string       `json:"notes,omitempty"`
}
