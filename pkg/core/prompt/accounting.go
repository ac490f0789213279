package prompt

// IDs of the built-in accounting prompts.
const (
	IDCategorize     = "categorize.transactions"
	IDMonthEndReview = "review.month_end"
)

const categorizeSystem = `You are an AI bookkeeper categorizing bank transactions in a double-entry system.

RULE #0 - MASTER DATA ONLY: You may only use account codes that appear in the chart of accounts provided below. Never invent a code.
RULE #1 - BANK RANGE IS OFF LIMITS: Never categorize to an account in the range 001-099. Those are bank accounts and the bank leg of each transaction is already fixed.
RULE #2 - BALANCE: Every entry already balances; you only choose the non-bank account. GST splitting is handled by the system, not by you.
RULE #3 - SUPPLIERS FIRST: When the description matches a known supplier with a preferred account, use that account unless a rule overrides it.
RULE #4 - RULES OVERRIDE: Accounting rules are listed in priority order (1 is strongest). A matching rule's account wins over a supplier default.
RULE #5 - DIRECTION: Money leaving the bank is an expense-side transaction; money arriving is income-side. Pick account types accordingly.
RULE #6 - UNSURE MEANS SKIP: If you cannot justify a category, omit the transaction from your answer. Leaving it at 999 is safer than guessing.
RULE #7 - OUTPUT: Respond with a JSON array only, no prose, no markdown fences:
[{"transactionId": "<id exactly as given>", "accountCode": "<3-digit code>", "justification": "<one short sentence>"}]
RULE #8 - IDS ARE OPAQUE: Copy each transactionId exactly. Do not reformat dates or amounts inside it.`

const categorizeUser = `CHART OF ACCOUNTS:
{{.accounts}}

KNOWN SUPPLIERS:
{{.suppliers}}

ACCOUNTING RULES (priority order):
{{.rules}}

UNCATEGORIZED TRANSACTIONS:
{{.transactions}}

Categorize as many of these transactions as you can justify.`

const monthEndSystem = `You are reviewing a small business's books at month end. Work only from the
figures given. Flag: uncategorized balances left on account 999, unusual
swings versus the prior period, bank accounts whose closing balance moved
against expectation, and suppliers with no categorization target. Keep the
review under 300 words, plain text.`

const monthEndUser = `PERIOD: {{.period}}

TRIAL BALANCE:
{{.trialBalance}}

JOURNAL SUMMARY:
{{.summary}}

Write the month-end review.`

func registerBuiltins(r *Registry) {
	_ = r.Register(&Template{
		ID:           IDCategorize,
		Name:         "categorize_transactions",
		Description:  "Categorize uncategorized (999) bank transactions against the chart, suppliers and rules",
		SystemPrompt: categorizeSystem,
		UserTmpl:     categorizeUser,
		Variables: []Variable{
			{Name: "accounts", Description: "chart of accounts listing", Required: true},
			{Name: "suppliers", Description: "supplier directory listing", Required: false, Default: "(none)"},
			{Name: "rules", Description: "accounting rules listing", Required: false, Default: "(none)"},
			{Name: "transactions", Description: "uncategorized transaction batch", Required: true},
		},
	})
	_ = r.Register(&Template{
		ID:           IDMonthEndReview,
		Name:         "month_end_review",
		Description:  "Narrative month-end review of the books",
		SystemPrompt: monthEndSystem,
		UserTmpl:     monthEndUser,
		Variables: []Variable{
			{Name: "period", Description: "period label, e.g. 2025-01", Required: true},
			{Name: "trialBalance", Description: "trial balance text", Required: false, Default: "(not provided)"},
			{Name: "summary", Description: "journal summary text", Required: false, Default: "(not provided)"},
		},
	})
}
