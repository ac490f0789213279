// Package models holds the persistent data model shared by the tool
// servers: the chart of accounts, the general journal, the supplier
// registry, accounting rules and the unified company file. JSON tags
// match the on-disk layout exactly.
package models

import (
	"fmt"
	"regexp"
)

// AccountType classifies an account for reporting and GST treatment.
type AccountType string

const (
	AccountTypeBank             AccountType = "Bank"
	AccountTypeRevenue          AccountType = "Revenue"
	AccountTypeOtherIncome      AccountType = "OtherIncome"
	AccountTypeCOGS             AccountType = "COGS"
	AccountTypeExpense          AccountType = "Expense"
	AccountTypeDepreciation     AccountType = "Depreciation"
	AccountTypeCurrentAsset     AccountType = "CurrentAsset"
	AccountTypeInventory        AccountType = "Inventory"
	AccountTypeFixedAsset       AccountType = "FixedAsset"
	AccountTypeCurrentLiability AccountType = "CurrentLiability"
	AccountTypeEquity           AccountType = "Equity"
)

// AccountTypes lists every valid account type in presentation order.
var AccountTypes = []AccountType{
	AccountTypeBank,
	AccountTypeRevenue,
	AccountTypeOtherIncome,
	AccountTypeCOGS,
	AccountTypeExpense,
	AccountTypeDepreciation,
	AccountTypeCurrentAsset,
	AccountTypeInventory,
	AccountTypeFixedAsset,
	AccountTypeCurrentLiability,
	AccountTypeEquity,
}

// ParseAccountType validates a raw string against the known account types.
func ParseAccountType(raw string) (AccountType, error) {
	for _, t := range AccountTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown account type %q", raw)
}

// IsDebitNatural reports whether the type carries a natural debit balance.
// Assets and expense-like accounts grow on the debit side; revenue,
// liabilities and equity grow on the credit side.
func (t AccountType) IsDebitNatural() bool {
	switch t {
	case AccountTypeBank, AccountTypeCOGS, AccountTypeExpense, AccountTypeDepreciation,
		AccountTypeCurrentAsset, AccountTypeInventory, AccountTypeFixedAsset:
		return true
	default:
		return false
	}
}

// BaseCode returns the advisory starting code for auto-assignment within
// the type's band. Revenue sits in the 100s, COGS in the 200s, expenses in
// the 300s, assets in the 500s/600s, liabilities in the 700s, equity in
// the 800s.
func (t AccountType) BaseCode() string {
	switch t {
	case AccountTypeBank:
		return "001"
	case AccountTypeRevenue, AccountTypeOtherIncome:
		return "100"
	case AccountTypeCOGS:
		return "200"
	case AccountTypeExpense, AccountTypeDepreciation:
		return "300"
	case AccountTypeCurrentAsset, AccountTypeInventory:
		return "500"
	case AccountTypeFixedAsset:
		return "600"
	case AccountTypeCurrentLiability:
		return "700"
	case AccountTypeEquity:
		return "800"
	default:
		return "900"
	}
}

// GSTTreatment states how an account participates in GST reporting.
type GSTTreatment string

const (
	GSTOnIncome     GSTTreatment = "GSTOnIncome"
	GSTOnExpenses   GSTTreatment = "GSTOnExpenses"
	GSTFreeExpenses GSTTreatment = "GSTFreeExpenses"
	BASExcluded     GSTTreatment = "BASExcluded"
	GSTOnCapital    GSTTreatment = "GSTOnCapital"
)

// GSTTreatments lists every valid treatment.
var GSTTreatments = []GSTTreatment{
	GSTOnIncome,
	GSTOnExpenses,
	GSTFreeExpenses,
	BASExcluded,
	GSTOnCapital,
}

// ParseGSTTreatment validates a raw string against the known treatments.
func ParseGSTTreatment(raw string) (GSTTreatment, error) {
	for _, g := range GSTTreatments {
		if string(g) == raw {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown GST treatment %q", raw)
}

// Account is an immutable chart-of-accounts record.
type Account struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Type          AccountType  `json:"type"`
	GSTApplicable bool         `json:"gstApplicable"`
	GSTTreatment  GSTTreatment `json:"gstTreatment"`
}

// UncategorizedCode is the placeholder account every imported entry is
// seeded to until categorization moves it.
const UncategorizedCode = "999"

// DefaultGSTClearingCode absorbs the GST component of split transactions
// unless GST_CLEARING_ACCOUNT_CODE overrides it.
const DefaultGSTClearingCode = "506"

var accountCodePattern = regexp.MustCompile(`^\d{3}$`)

// ValidAccountCode reports whether code is exactly three digits.
func ValidAccountCode(code string) bool {
	return accountCodePattern.MatchString(code)
}

// IsBankCode reports whether code falls in the protected bank range
// 001..099. Bank accounts may never be mutated, deleted or targeted by
// categorization rules.
func IsBankCode(code string) bool {
	if !ValidAccountCode(code) {
		return false
	}
	return code >= "001" && code <= "099"
}
