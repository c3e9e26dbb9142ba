package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationValidated ValidationStatus = "validated"
	ValidationAutoFixed ValidationStatus = "auto_fixed"
	ValidationFailed    ValidationStatus = "failed"
)

type PostingStatus string

const (
	PostingDraft   PostingStatus = "draft"
	PostingReady   PostingStatus = "ready"
	PostingPosted  PostingStatus = "posted"
	PostingFailed  PostingStatus = "failed"
	PostingSkipped PostingStatus = "skipped"
)

type FixType string

const (
	FixAccountMapping    FixType = "account_mapping"
	FixBalanceAdjustment FixType = "balance_adjustment"
	FixFormatCorrection  FixType = "format_correction"
)

// BalanceTolerance is the largest debit/credit difference still considered
// balanced.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// JournalEntry is one debit or credit line of a transaction. AccountCode may
// reference a code that does not exist in the chart of accounts; validation
// reports that, it is not prevented at write time.
type JournalEntry struct {
	AccountCode string          `json:"account_code"`
	Description string          `json:"description,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// FixRecord is one line of a transaction's auto-fix audit trail. Records are
// append-only: once written they are never modified or removed.
type FixRecord struct {
	FixID         uuid.UUID `json:"fix_id"`
	FixType       FixType   `json:"fix_type"`
	OriginalValue string    `json:"original_value"`
	NewValue      string    `json:"new_value"`
	Confidence    float64   `json:"confidence"`
	AppliedAt     time.Time `json:"applied_at"`
}

// TransactionData is the embedded jsonb payload of a GLTransaction: the
// ordered journal entries plus the auto-fix audit trail.
type TransactionData struct {
	Entries   []JournalEntry `json:"entries"`
	AutoFixes []FixRecord    `json:"auto_fixes,omitempty"`
}

func (d TransactionData) DebitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range d.Entries {
		total = total.Add(e.Debit)
	}
	return total
}

func (d TransactionData) CreditTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range d.Entries {
		total = total.Add(e.Credit)
	}
	return total
}

// Imbalance returns debit total minus credit total. Positive means debits
// exceed credits.
func (d TransactionData) Imbalance() decimal.Decimal {
	return d.DebitTotal().Sub(d.CreditTotal())
}

func (d TransactionData) IsBalanced() bool {
	return d.Imbalance().Abs().LessThanOrEqual(BalanceTolerance)
}

type GLTransaction struct {
	ID                 uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID     uuid.UUID                           `gorm:"type:uuid;index" json:"organization_id"`
	TransactionNumber  string                              `gorm:"index" json:"transaction_number"`
	TransactionType    string                              `gorm:"index" json:"transaction_type"`
	TransactionDate    time.Time                           `gorm:"index" json:"transaction_date"`
	TotalAmount        decimal.Decimal                     `gorm:"type:decimal(18,4)" json:"total_amount"`
	TransactionData    datatypes.JSONType[TransactionData] `json:"transaction_data"`
	GLValidationStatus ValidationStatus                    `gorm:"column:gl_validation_status;index;default:'pending'" json:"gl_validation_status"`
	GLConfidenceScore  float64                             `gorm:"column:gl_confidence_score" json:"gl_confidence_score"`
	GLAutoFixApplied   bool                                `gorm:"column:gl_auto_fix_applied" json:"gl_auto_fix_applied"`
	PostingStatus      PostingStatus                       `gorm:"index;default:'draft'" json:"posting_status"`
	PostedAt           *time.Time                          `json:"posted_at,omitempty"`
	JournalEntryID     *uuid.UUID                          `gorm:"type:uuid" json:"journal_entry_id,omitempty"`
	CreatedAt          time.Time                           `json:"created_at"`
	UpdatedAt          time.Time                           `json:"updated_at"`
}

// Data is a convenience accessor for the embedded payload.
func (t *GLTransaction) Data() TransactionData {
	return t.TransactionData.Data()
}

func (t *GLTransaction) SetData(d TransactionData) {
	t.TransactionData = datatypes.NewJSONType(d)
}

// BumpConfidence adds delta to the confidence score, clamped to [0, 1].
func (t *GLTransaction) BumpConfidence(delta float64) {
	t.GLConfidenceScore += delta
	if t.GLConfidenceScore > 1 {
		t.GLConfidenceScore = 1
	}
	if t.GLConfidenceScore < 0 {
		t.GLConfidenceScore = 0
	}
}
