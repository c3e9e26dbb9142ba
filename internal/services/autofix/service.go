package autofix

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"erp-finance-backend/internal/models"
	"erp-finance-backend/internal/services/validation"
)

// ErrRollbackNotImplemented marks the rollback branch of the fix API, which
// is intentionally unimplemented. Fix audit records carry enough data
// (original and new value) for a future implementation.
var ErrRollbackNotImplemented = fmt.Errorf("fix rollback is not implemented")

// TransactionStore is the org-scoped slice of transaction persistence the
// fix service needs.
type TransactionStore interface {
	GetByID(ctx context.Context, organizationID, transactionID uuid.UUID) (*models.GLTransaction, error)
	FindByNumber(ctx context.Context, organizationID uuid.UUID, number string) ([]models.GLTransaction, error)
	Save(ctx context.Context, tx *models.GLTransaction) error
}

// AccountStore resolves an organization's chart of accounts.
type AccountStore interface {
	IndexByOrganization(ctx context.Context, organizationID uuid.UUID) (models.AccountIndex, error)
}

type Service struct {
	transactions TransactionStore
	accounts     AccountStore
}

func NewService(transactions TransactionStore, accounts AccountStore) *Service {
	return &Service{transactions: transactions, accounts: accounts}
}

// FixOption is one proposed fix in an analysis response.
type FixOption struct {
	FixType   models.FixType `json:"fix_type"`
	Proposal  *Proposal      `json:"proposal,omitempty"`
	Available bool           `json:"available"`
	AutoApply bool           `json:"auto_apply"`
	Detail    string         `json:"detail"`
}

type Analysis struct {
	TransactionID   uuid.UUID          `json:"transaction_id"`
	Report          validation.Report  `json:"report"`
	FixOptions      []FixOption        `json:"fix_options"`
	PotentialImpact PotentialImpact    `json:"potential_impact"`
	Recommendations []string           `json:"recommendations"`
	FixHistory      []models.FixRecord `json:"fix_history,omitempty"`
}

type PotentialImpact struct {
	FixableIssues        int     `json:"fixable_issues"`
	UnfixableIssues      int     `json:"unfixable_issues"`
	ProjectedConfidence  float64 `json:"projected_confidence"`
	WouldBalance         bool    `json:"would_balance"`
	RequiresManualReview bool    `json:"requires_manual_review"`
}

// Validate fetches the transaction, runs the rule engine, and attaches fix
// proposals for every missing-account issue. Read-only.
func (s *Service) Validate(ctx context.Context, organizationID, transactionID uuid.UUID, includeHistory bool) (*models.GLTransaction, validation.Report, error) {
	tx, err := s.transactions.GetByID(ctx, organizationID, transactionID)
	if err != nil {
		return nil, validation.Report{}, err
	}
	accounts, err := s.accounts.IndexByOrganization(ctx, organizationID)
	if err != nil {
		return nil, validation.Report{}, err
	}

	opts := validation.Options{}
	if includeHistory {
		history, err := s.transactions.FindByNumber(ctx, organizationID, tx.TransactionNumber)
		if err != nil {
			return nil, validation.Report{}, err
		}
		opts.CheckDuplicates = true
		opts.History = history
	}
	return tx, validation.Validate(tx, accounts, opts), nil
}

// Analyze builds the read-only auto-fix analysis: what is wrong, what can be
// fixed automatically, and what applying the fixes would do.
func (s *Service) Analyze(ctx context.Context, organizationID, transactionID uuid.UUID, includeHistory bool) (*Analysis, error) {
	tx, report, err := s.Validate(ctx, organizationID, transactionID, includeHistory)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.IndexByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		TransactionID: tx.ID,
		Report:        report,
	}
	if includeHistory {
		analysis.FixHistory = tx.Data().AutoFixes
	}

	impact := PotentialImpact{ProjectedConfidence: tx.GLConfidenceScore}

	for _, code := range report.MissingAccountCodes() {
		option := FixOption{FixType: models.FixAccountMapping}
		if proposal, ok := Propose(code, tx.TransactionType, accounts); ok {
			p := proposal
			option.Proposal = &p
			option.Available = true
			option.AutoApply = proposal.Confidence >= DefaultConfidenceThreshold
			option.Detail = fmt.Sprintf("remap %s to %s", code, proposal.SuggestedCode)
			impact.FixableIssues++
			if option.AutoApply {
				impact.ProjectedConfidence += accountFixConfidenceBump
			}
		} else {
			option.Detail = fmt.Sprintf("no replacement found for %s", code)
			impact.UnfixableIssues++
		}
		analysis.FixOptions = append(analysis.FixOptions, option)
	}

	data := tx.Data()
	imbalance := data.Imbalance().Abs()
	if imbalance.GreaterThan(models.BalanceTolerance) {
		option := FixOption{FixType: models.FixBalanceAdjustment}
		if imbalance.LessThanOrEqual(SmallImbalanceCutoff) {
			option.Available = true
			option.AutoApply = true
			option.Detail = fmt.Sprintf("reduce the largest entry on the heavy side by %s", imbalance)
			impact.FixableIssues++
			impact.WouldBalance = true
			impact.ProjectedConfidence += balanceFixConfidenceBump
		} else {
			option.Detail = fmt.Sprintf("imbalance %s exceeds the auto-adjust cutoff of %s", imbalance, SmallImbalanceCutoff)
			impact.UnfixableIssues++
		}
		analysis.FixOptions = append(analysis.FixOptions, option)
	} else {
		impact.WouldBalance = true
	}

	// invalid_amount has no automated fix; the source data must change.
	if report.HasIssue(validation.IssueInvalidAmount) {
		analysis.FixOptions = append(analysis.FixOptions, FixOption{
			FixType: models.FixFormatCorrection,
			Detail:  "total amount must be corrected at the source",
		})
		impact.UnfixableIssues++
	}

	if impact.ProjectedConfidence > 1 {
		impact.ProjectedConfidence = 1
	}
	impact.RequiresManualReview = impact.UnfixableIssues > 0
	analysis.PotentialImpact = impact
	analysis.Recommendations = recommendations(report, impact)
	return analysis, nil
}

func recommendations(report validation.Report, impact PotentialImpact) []string {
	var recs []string
	if report.Valid {
		recs = append(recs, "transaction passes validation and is ready for posting")
		return recs
	}
	if impact.FixableIssues > 0 {
		recs = append(recs, fmt.Sprintf("%d issue(s) can be fixed automatically; apply fixes before posting", impact.FixableIssues))
	}
	if impact.UnfixableIssues > 0 {
		recs = append(recs, fmt.Sprintf("%d issue(s) need manual review", impact.UnfixableIssues))
	}
	if report.HasIssue(validation.IssueDuplicateEntry) {
		recs = append(recs, "a transaction with the same number exists; confirm this is not a duplicate")
	}
	return recs
}

// RefreshValidation re-runs validation and persists the resulting status,
// optionally applying automatic fixes first. A transaction that just got
// auto-fixed keeps the auto_fixed status; otherwise a passing report marks it
// validated and a failing one marks it failed.
func (s *Service) RefreshValidation(ctx context.Context, organizationID, transactionID uuid.UUID, autoFix bool, opts ApplyOptions) (*models.GLTransaction, validation.Report, *ApplyResult, error) {
	var applied *ApplyResult
	if autoFix {
		_, result, err := s.Apply(ctx, organizationID, transactionID, opts)
		if err != nil {
			return nil, validation.Report{}, nil, err
		}
		applied = &result
	}

	tx, report, err := s.Validate(ctx, organizationID, transactionID, false)
	if err != nil {
		return nil, validation.Report{}, nil, err
	}
	if report.Valid {
		if tx.GLValidationStatus != models.ValidationAutoFixed {
			tx.GLValidationStatus = models.ValidationValidated
		}
	} else {
		tx.GLValidationStatus = models.ValidationFailed
	}
	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, validation.Report{}, nil, err
	}
	return tx, report, applied, nil
}

// Apply runs the fix applier against the stored transaction and persists the
// result. An apply that finds nothing to fix is a no-op and does not touch
// the row.
func (s *Service) Apply(ctx context.Context, organizationID, transactionID uuid.UUID, opts ApplyOptions) (*models.GLTransaction, ApplyResult, error) {
	tx, err := s.transactions.GetByID(ctx, organizationID, transactionID)
	if err != nil {
		return nil, ApplyResult{}, err
	}
	accounts, err := s.accounts.IndexByOrganization(ctx, organizationID)
	if err != nil {
		return nil, ApplyResult{}, err
	}

	result := ApplyFixes(tx, accounts, opts)
	if result.FixesApplied == 0 {
		return tx, result, nil
	}
	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, ApplyResult{}, err
	}
	return tx, result, nil
}
