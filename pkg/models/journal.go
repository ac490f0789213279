package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the day-resolution format used everywhere an entry date is
// persisted or embedded in a transaction ID.
const DateLayout = "2006-01-02"

// Date is a day-resolution timestamp persisted as yyyy-MM-dd.
type Date struct {
	time.Time
}

// DateOf truncates t to day resolution in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a yyyy-MM-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON renders the date as "yyyy-MM-dd".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts "yyyy-MM-dd" and tolerates a full RFC 3339
// timestamp by truncating it to the day.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SplitLine is one side-less leg of a journal entry. Amount is strictly
// positive; direction comes from whether the line sits in debits or
// credits, never from sign.
type SplitLine struct {
	AccountCode string  `json:"accountCode"`
	Amount      float64 `json:"amount"`
}

// JournalEntry is a balanced double-entry record. Exactly one of debits or
// credits holds a single bank-account line (the bank leg); the opposite
// side carries the categorization.
type JournalEntry struct {
	Date        Date        `json:"date"`
	Description string      `json:"description"`
	Debits      []SplitLine `json:"debits"`
	Credits     []SplitLine `json:"credits"`
	BankBalance float64     `json:"bankBalance"`
	Notes       string      `json:"notes,omitempty"`
}

// TotalDebits sums the debit legs.
func (e *JournalEntry) TotalDebits() float64 {
	var sum float64
	for _, l := range e.Debits {
		sum += l.Amount
	}
	return sum
}

// TotalCredits sums the credit legs.
func (e *JournalEntry) TotalCredits() float64 {
	var sum float64
	for _, l := range e.Credits {
		sum += l.Amount
	}
	return sum
}

// BankLeg returns the entry's single bank line and whether it sits on the
// debit side. ok is false when the entry has no leg in the bank range.
func (e *JournalEntry) BankLeg() (line SplitLine, isDebit bool, ok bool) {
	for _, l := range e.Debits {
		if IsBankCode(l.AccountCode) {
			return l, true, true
		}
	}
	for _, l := range e.Credits {
		if IsBankCode(l.AccountCode) {
			return l, false, true
		}
	}
	return SplitLine{}, false, false
}

// BankCode returns the code of the bank leg, or "" when absent.
func (e *JournalEntry) BankCode() string {
	if line, _, ok := e.BankLeg(); ok {
		return line.AccountCode
	}
	return ""
}

// Amount is the transaction total: the bank-leg amount.
func (e *JournalEntry) Amount() float64 {
	if line, _, ok := e.BankLeg(); ok {
		return line.Amount
	}
	return 0
}

// SameBankTransaction reports whether two entries describe the same bank
// row: same day, description, total amount and bank code. The tuple is
// deliberately coarser than full equality so recategorizing the non-bank
// leg never breaks duplicate detection.
func (e *JournalEntry) SameBankTransaction(other *JournalEntry) bool {
	if other == nil {
		return false
	}
	const tolerance = 0.005
	diff := e.Amount() - other.Amount()
	if diff < -tolerance || diff > tolerance {
		return false
	}
	return e.Date.Equal(other.Date.Time) &&
		e.Description == other.Description &&
		e.BankCode() == other.BankCode()
}

// TransactionID renders the externally visible identifier
// yyyy-MM-dd_<description>_<amount>_<bankCode>. The description may itself
// contain underscores; ParseTransactionID tolerates that.
func (e *JournalEntry) TransactionID() string {
	return fmt.Sprintf("%s_%s_%.2f_%s", e.Date.String(), e.Description, e.Amount(), e.BankCode())
}

// TransactionRef is the decoded form of a transaction ID.
type TransactionRef struct {
	Date        Date
	Description string
	Amount      float64
	BankCode    string
}

// ParseTransactionID splits an ID into its identity tuple. The date is the
// first segment, the amount the penultimate and the bank code the last;
// everything between belongs to the description.
func ParseTransactionID(id string) (TransactionRef, error) {
	parts := strings.Split(id, "_")
	if len(parts) < 4 {
		return TransactionRef{}, fmt.Errorf("malformed transaction id %q: expected yyyy-MM-dd_<description>_<amount>_<bankCode>", id)
	}
	date, err := ParseDate(parts[0])
	if err != nil {
		return TransactionRef{}, fmt.Errorf("malformed transaction id %q: %w", id, err)
	}
	amount, err := strconv.ParseFloat(parts[len(parts)-2], 64)
	if err != nil {
		return TransactionRef{}, fmt.Errorf("malformed transaction id %q: bad amount segment %q", id, parts[len(parts)-2])
	}
	bankCode := parts[len(parts)-1]
	if !ValidAccountCode(bankCode) {
		return TransactionRef{}, fmt.Errorf("malformed transaction id %q: bad bank code %q", id, bankCode)
	}
	return TransactionRef{
		Date:        date,
		Description: strings.Join(parts[1:len(parts)-2], "_"),
		Amount:      amount,
		BankCode:    bankCode,
	}, nil
}

// Matches reports whether an entry carries this identity tuple.
func (r TransactionRef) Matches(e *JournalEntry) bool {
	const tolerance = 0.005
	diff := e.Amount() - r.Amount
	if diff < -tolerance || diff > tolerance {
		return false
	}
	return e.Date.Equal(r.Date.Time) &&
		e.Description == r.Description &&
		e.BankCode() == r.BankCode
}
