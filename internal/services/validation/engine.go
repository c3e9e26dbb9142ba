package validation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-finance-backend/internal/models"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

type IssueType string

const (
	IssueInvalidAmount    IssueType = "invalid_amount"
	IssueMissingGLAccount IssueType = "missing_gl_account"
	IssueBalanceMismatch  IssueType = "balance_mismatch"
	IssueDuplicateEntry   IssueType = "duplicate_entry"
)

// Issue is one detected violation. EntryIndex is -1 for transaction-level
// issues. Warning issues never fail validation on their own.
type Issue struct {
	Type        IssueType        `json:"error_type"`
	Severity    Severity         `json:"severity"`
	Message     string           `json:"message"`
	EntryIndex  int              `json:"entry_index"`
	AccountCode string           `json:"account_code,omitempty"`
	Difference  *decimal.Decimal `json:"difference,omitempty"`
	Warning     bool             `json:"warning,omitempty"`
}

type Report struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Valid         bool            `json:"valid"`
	Issues        []Issue         `json:"issues"`
	DebitTotal    decimal.Decimal `json:"debit_total"`
	CreditTotal   decimal.Decimal `json:"credit_total"`
	Balanced      bool            `json:"balanced"`
}

// HasIssue reports whether the report contains an issue of the given type.
func (r Report) HasIssue(t IssueType) bool {
	for _, issue := range r.Issues {
		if issue.Type == t {
			return true
		}
	}
	return false
}

// MissingAccountCodes returns the distinct entry codes flagged as missing, in
// entry order.
func (r Report) MissingAccountCodes() []string {
	seen := map[string]bool{}
	var codes []string
	for _, issue := range r.Issues {
		if issue.Type != IssueMissingGLAccount || seen[issue.AccountCode] {
			continue
		}
		seen[issue.AccountCode] = true
		codes = append(codes, issue.AccountCode)
	}
	return codes
}

type Options struct {
	// CheckDuplicates enables the transaction-number duplicate warning.
	// History must hold the organization's other transactions sharing the
	// number (the transaction under validation excluded).
	CheckDuplicates bool
	History         []models.GLTransaction
}

// Validate runs every rule independently over an already-fetched transaction.
// It reads nothing and writes nothing; persistence is the caller's problem.
func Validate(tx *models.GLTransaction, accounts models.AccountIndex, opts Options) Report {
	data := tx.Data()
	report := Report{
		TransactionID: tx.ID,
		DebitTotal:    data.DebitTotal(),
		CreditTotal:   data.CreditTotal(),
	}

	if tx.TotalAmount.LessThanOrEqual(decimal.Zero) {
		report.Issues = append(report.Issues, Issue{
			Type:       IssueInvalidAmount,
			Severity:   SeverityCritical,
			Message:    fmt.Sprintf("transaction total amount must be positive, got %s", tx.TotalAmount),
			EntryIndex: -1,
		})
	}

	for i, entry := range data.Entries {
		if accounts.Has(entry.AccountCode) {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Type:        IssueMissingGLAccount,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("entry %d references GL account %s which does not exist in the chart of accounts", i, entry.AccountCode),
			EntryIndex:  i,
			AccountCode: entry.AccountCode,
		})
	}

	diff := report.DebitTotal.Sub(report.CreditTotal)
	report.Balanced = diff.Abs().LessThanOrEqual(models.BalanceTolerance)
	if !report.Balanced {
		d := diff
		report.Issues = append(report.Issues, Issue{
			Type:       IssueBalanceMismatch,
			Severity:   SeverityHigh,
			Message:    fmt.Sprintf("debits (%s) and credits (%s) differ by %s", report.DebitTotal, report.CreditTotal, diff.Abs()),
			EntryIndex: -1,
			Difference: &d,
		})
	}

	if opts.CheckDuplicates {
		for _, other := range opts.History {
			if other.ID == tx.ID || other.TransactionNumber != tx.TransactionNumber {
				continue
			}
			report.Issues = append(report.Issues, Issue{
				Type:       IssueDuplicateEntry,
				Severity:   SeverityLow,
				Message:    fmt.Sprintf("transaction number %s already used by transaction %s", tx.TransactionNumber, other.ID),
				EntryIndex: -1,
				Warning:    true,
			})
			break
		}
	}

	report.Valid = true
	for _, issue := range report.Issues {
		if !issue.Warning {
			report.Valid = false
			break
		}
	}
	return report
}
