package autofix

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-finance-backend/internal/models"
)

// DefaultConfidenceThreshold gates automatic account-mapping fixes.
const DefaultConfidenceThreshold = 0.7

// SmallImbalanceCutoff is the largest imbalance the balance adjuster will
// correct on its own. Anything above it needs a human.
var SmallImbalanceCutoff = decimal.NewFromInt(10)

const (
	accountFixConfidenceBump = 0.2
	balanceFixConfidenceBump = 0.15
)

type ApplyOptions struct {
	// ConfidenceThreshold below which proposals are reported but not
	// applied; zero means DefaultConfidenceThreshold.
	ConfidenceThreshold float64
	// FixTypes restricts which fix kinds may be applied; empty allows all.
	FixTypes []models.FixType
}

func (o ApplyOptions) threshold() float64 {
	if o.ConfidenceThreshold <= 0 {
		return DefaultConfidenceThreshold
	}
	return o.ConfidenceThreshold
}

func (o ApplyOptions) allows(t models.FixType) bool {
	if len(o.FixTypes) == 0 {
		return true
	}
	for _, ft := range o.FixTypes {
		if ft == t {
			return true
		}
	}
	return false
}

type ApplyResult struct {
	AccountFixes  int                `json:"account_fixes"`
	BalanceFixed  bool               `json:"balance_fixed"`
	AppliedFixes  []models.FixRecord `json:"applied_fixes"`
	SkippedFixes  []Proposal         `json:"skipped_fixes,omitempty"`
	Unfixable     []string           `json:"unfixable_codes,omitempty"`
	FixesApplied  int                `json:"fixes_applied"`
	NewConfidence float64            `json:"new_confidence"`
}

// ApplyFixes mutates the transaction in memory: remaps invalid account codes
// whose proposal clears the threshold, corrects a small imbalance by reducing
// the single largest entry on the heavy side, appends audit records, and
// bumps the confidence score. The caller persists. A call that finds nothing
// to fix leaves the transaction untouched.
func ApplyFixes(tx *models.GLTransaction, accounts models.AccountIndex, opts ApplyOptions) ApplyResult {
	data := tx.Data()
	result := ApplyResult{}
	now := time.Now().UTC()

	if opts.allows(models.FixAccountMapping) {
		for i := range data.Entries {
			code := data.Entries[i].AccountCode
			if accounts.Has(code) {
				continue
			}
			proposal, ok := Propose(code, tx.TransactionType, accounts)
			if !ok {
				result.Unfixable = append(result.Unfixable, code)
				continue
			}
			if proposal.Confidence < opts.threshold() {
				result.SkippedFixes = append(result.SkippedFixes, proposal)
				continue
			}
			data.Entries[i].AccountCode = proposal.SuggestedCode
			record := models.FixRecord{
				FixID:         uuid.New(),
				FixType:       models.FixAccountMapping,
				OriginalValue: code,
				NewValue:      proposal.SuggestedCode,
				Confidence:    proposal.Confidence,
				AppliedAt:     now,
			}
			data.AutoFixes = append(data.AutoFixes, record)
			result.AppliedFixes = append(result.AppliedFixes, record)
			result.AccountFixes++
		}
	}

	if opts.allows(models.FixBalanceAdjustment) {
		if record, ok := adjustBalance(&data, now); ok {
			data.AutoFixes = append(data.AutoFixes, record)
			result.AppliedFixes = append(result.AppliedFixes, record)
			result.BalanceFixed = true
		}
	}

	result.FixesApplied = result.AccountFixes
	if result.BalanceFixed {
		result.FixesApplied++
	}

	if result.FixesApplied > 0 {
		tx.SetData(data)
		tx.BumpConfidence(accountFixConfidenceBump * float64(result.AccountFixes))
		if result.BalanceFixed {
			tx.BumpConfidence(balanceFixConfidenceBump)
		}
		tx.GLValidationStatus = models.ValidationAutoFixed
		tx.GLAutoFixApplied = true
	}
	result.NewConfidence = tx.GLConfidenceScore
	return result
}

// adjustBalance reduces the single largest entry on the heavy side by
// exactly the imbalance amount. Never the lighter side, never split across
// entries.
func adjustBalance(data *models.TransactionData, now time.Time) (models.FixRecord, bool) {
	imbalance := data.Imbalance()
	abs := imbalance.Abs()
	if abs.LessThanOrEqual(models.BalanceTolerance) || abs.GreaterThan(SmallImbalanceCutoff) {
		return models.FixRecord{}, false
	}

	debitsHeavy := imbalance.IsPositive()
	target := -1
	largest := decimal.Zero
	for i, e := range data.Entries {
		amount := e.Credit
		if debitsHeavy {
			amount = e.Debit
		}
		if amount.GreaterThan(largest) {
			largest = amount
			target = i
		}
	}
	if target < 0 || largest.LessThan(abs) {
		return models.FixRecord{}, false
	}

	adjusted := largest.Sub(abs)
	if debitsHeavy {
		data.Entries[target].Debit = adjusted
	} else {
		data.Entries[target].Credit = adjusted
	}
	return models.FixRecord{
		FixID:         uuid.New(),
		FixType:       models.FixBalanceAdjustment,
		OriginalValue: largest.String(),
		NewValue:      adjusted.String(),
		Confidence:    0.9,
		AppliedAt:     now,
	}, true
}
