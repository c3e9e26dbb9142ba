package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-finance-backend/internal/models"
	"erp-finance-backend/internal/services/validation"
)

type TransactionStore interface {
	ListForPosting(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]models.GLTransaction, error)
	ListQueue(ctx context.Context, organizationID uuid.UUID, status models.PostingStatus, from, to *time.Time) ([]models.GLTransaction, error)
	Save(ctx context.Context, tx *models.GLTransaction) error
}

type AccountStore interface {
	IndexByOrganization(ctx context.Context, organizationID uuid.UUID) (models.AccountIndex, error)
}

// Locker serializes batch posting per organization. Dry runs write nothing
// and bypass it.
type Locker interface {
	WithPostingLock(ctx context.Context, organizationID uuid.UUID, fn func(ctx context.Context) error) error
}

type Service struct {
	transactions TransactionStore
	accounts     AccountStore
	locker       Locker
}

func NewService(transactions TransactionStore, accounts AccountStore, locker Locker) *Service {
	return &Service{transactions: transactions, accounts: accounts, locker: locker}
}

type BatchOptions struct {
	TransactionIDs        []uuid.UUID
	ValidateBeforePosting *bool // nil means true
	AllowPartialPosting   bool
	DryRun                bool
}

func (o BatchOptions) validate() bool {
	return o.ValidateBeforePosting == nil || *o.ValidateBeforePosting
}

const (
	ItemPosted  = "posted"
	ItemFailed  = "failed"
	ItemSkipped = "skipped"
)

type ItemResult struct {
	TransactionID     uuid.UUID          `json:"transaction_id"`
	TransactionNumber string             `json:"transaction_number"`
	Status            string             `json:"status"`
	JournalEntryID    *uuid.UUID         `json:"journal_entry_id,omitempty"`
	Issues            []validation.Issue `json:"issues,omitempty"`
	Reason            string             `json:"reason,omitempty"`
}

type BatchSummary struct {
	OrganizationID uuid.UUID       `json:"organization_id"`
	DryRun         bool            `json:"dry_run"`
	Posted         int             `json:"posted"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	Results        []ItemResult    `json:"results"`
}

// ExecuteBatch posts a set of transactions sequentially. Each transaction's
// write is independent and immediately durable; there is no batch rollback.
// A validation failure fails or skips that transaction only and the batch
// continues.
func (s *Service) ExecuteBatch(ctx context.Context, organizationID uuid.UUID, opts BatchOptions) (*BatchSummary, error) {
	summary := &BatchSummary{
		OrganizationID: organizationID,
		DryRun:         opts.DryRun,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	run := func(ctx context.Context) error {
		return s.executeBatch(ctx, organizationID, opts, summary)
	}
	if opts.DryRun {
		if err := run(ctx); err != nil {
			return nil, err
		}
		return summary, nil
	}
	if err := s.locker.WithPostingLock(ctx, organizationID, run); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Service) executeBatch(ctx context.Context, organizationID uuid.UUID, opts BatchOptions, summary *BatchSummary) error {
	accounts, err := s.accounts.IndexByOrganization(ctx, organizationID)
	if err != nil {
		return err
	}
	txs, err := s.transactions.ListForPosting(ctx, organizationID, opts.TransactionIDs)
	if err != nil {
		return err
	}

	for i := range txs {
		tx := &txs[i]
		item := ItemResult{TransactionID: tx.ID, TransactionNumber: tx.TransactionNumber}

		if tx.PostingStatus == models.PostingPosted {
			item.Status = ItemSkipped
			item.Reason = "already posted"
			summary.Skipped++
			summary.Results = append(summary.Results, item)
			continue
		}

		if opts.validate() {
			report := validation.Validate(tx, accounts, validation.Options{})
			if !report.Valid {
				item.Issues = report.Issues
				if opts.AllowPartialPosting {
					item.Status = ItemSkipped
					item.Reason = "validation failed"
					summary.Skipped++
				} else {
					item.Status = ItemFailed
					item.Reason = "validation failed"
					summary.Failed++
					if !opts.DryRun {
						tx.PostingStatus = models.PostingFailed
						if err := s.transactions.Save(ctx, tx); err != nil {
							return fmt.Errorf("marking transaction %s failed: %w", tx.ID, err)
						}
					}
				}
				summary.Results = append(summary.Results, item)
				continue
			}
		}

		data := tx.Data()
		if !opts.DryRun {
			now := time.Now().UTC()
			journalID := uuid.New()
			tx.PostingStatus = models.PostingPosted
			tx.PostedAt = &now
			tx.JournalEntryID = &journalID
			if err := s.transactions.Save(ctx, tx); err != nil {
				return fmt.Errorf("posting transaction %s: %w", tx.ID, err)
			}
			item.JournalEntryID = &journalID
		}
		item.Status = ItemPosted
		summary.Posted++
		summary.TotalDebit = summary.TotalDebit.Add(data.DebitTotal())
		summary.TotalCredit = summary.TotalCredit.Add(data.CreditTotal())
		summary.Results = append(summary.Results, item)
	}
	return nil
}

type QueueItem struct {
	TransactionID     uuid.UUID               `json:"transaction_id"`
	TransactionNumber string                  `json:"transaction_number"`
	TransactionType   string                  `json:"transaction_type"`
	TransactionDate   time.Time               `json:"transaction_date"`
	TotalAmount       decimal.Decimal         `json:"total_amount"`
	ValidationStatus  models.ValidationStatus `json:"gl_validation_status"`
	PostingStatus     models.PostingStatus    `json:"posting_status"`
	Validated         bool                    `json:"validated"`
	Balanced          bool                    `json:"balanced"`
	MissingAccounts   bool                    `json:"missing_accounts"`
	Ready             bool                    `json:"ready"`
}

type QueueSnapshot struct {
	OrganizationID uuid.UUID   `json:"organization_id"`
	Total          int         `json:"total"`
	Ready          int         `json:"ready"`
	NotReady       int         `json:"not_ready"`
	AlreadyPosted  int         `json:"already_posted"`
	Items          []QueueItem `json:"items"`
}

// Snapshot reports the posting queue with per-transaction readiness flags.
// Period is "YYYY-MM"; empty means all periods.
func (s *Service) Snapshot(ctx context.Context, organizationID uuid.UUID, status models.PostingStatus, period string) (*QueueSnapshot, error) {
	from, to, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.IndexByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions.ListQueue(ctx, organizationID, status, from, to)
	if err != nil {
		return nil, err
	}

	snapshot := &QueueSnapshot{OrganizationID: organizationID, Total: len(txs)}
	for i := range txs {
		tx := &txs[i]
		data := tx.Data()
		item := QueueItem{
			TransactionID:     tx.ID,
			TransactionNumber: tx.TransactionNumber,
			TransactionType:   tx.TransactionType,
			TransactionDate:   tx.TransactionDate,
			TotalAmount:       tx.TotalAmount,
			ValidationStatus:  tx.GLValidationStatus,
			PostingStatus:     tx.PostingStatus,
			Validated:         tx.GLValidationStatus == models.ValidationValidated || tx.GLValidationStatus == models.ValidationAutoFixed,
			Balanced:          data.IsBalanced(),
		}
		for _, entry := range data.Entries {
			if !accounts.Has(entry.AccountCode) {
				item.MissingAccounts = true
				break
			}
		}
		item.Ready = item.Validated && item.Balanced && !item.MissingAccounts && tx.PostingStatus != models.PostingPosted

		switch {
		case tx.PostingStatus == models.PostingPosted:
			snapshot.AlreadyPosted++
		case item.Ready:
			snapshot.Ready++
		default:
			snapshot.NotReady++
		}
		snapshot.Items = append(snapshot.Items, item)
	}
	return snapshot, nil
}

func parsePeriod(period string) (*time.Time, *time.Time, error) {
	if period == "" {
		return nil, nil, nil
	}
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid period %q, expected YYYY-MM", period)
	}
	end := start.AddDate(0, 1, 0)
	return &start, &end, nil
}
