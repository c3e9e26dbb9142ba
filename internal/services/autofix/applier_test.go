package autofix

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-finance-backend/internal/models"
)

func newTx(txType string, total int64, entries []models.JournalEntry) *models.GLTransaction {
	tx := &models.GLTransaction{
		ID:                uuid.New(),
		OrganizationID:    uuid.New(),
		TransactionNumber: "TXN-2001",
		TransactionType:   txType,
		TotalAmount:       decimal.NewFromInt(total),
	}
	tx.SetData(models.TransactionData{Entries: entries})
	return tx
}

func dr(code string, amount int64) models.JournalEntry {
	return models.JournalEntry{AccountCode: code, Debit: decimal.NewFromInt(amount), Credit: decimal.Zero}
}

func cr(code string, amount int64) models.JournalEntry {
	return models.JournalEntry{AccountCode: code, Credit: decimal.NewFromInt(amount), Debit: decimal.Zero}
}

func TestApplyFixes_BalanceAdjustmentHitsLargestHeavyEntry(t *testing.T) {
	// Debits 100+100+100, credits 100+100+98: difference 2, within the
	// cutoff. The single largest debit entry is reduced by exactly 2.
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 300, []models.JournalEntry{
		dr("1001000", 100), dr("1001000", 100), dr("1001000", 100),
		cr("4001000", 100), cr("4001000", 100), cr("4001000", 98),
	})

	result := ApplyFixes(tx, accounts, ApplyOptions{})

	if !result.BalanceFixed {
		t.Fatal("expected a balance fix")
	}
	data := tx.Data()
	if !data.Entries[0].Debit.Equal(decimal.NewFromInt(98)) {
		t.Fatalf("expected first (largest) debit reduced to 98, got %s", data.Entries[0].Debit)
	}
	for i := 1; i < 3; i++ {
		if !data.Entries[i].Debit.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("entry %d must be untouched, got %s", i, data.Entries[i].Debit)
		}
	}
	if !data.Imbalance().Abs().LessThan(decimal.RequireFromString("0.01")) {
		t.Fatalf("post-fix imbalance must be < 0.01, got %s", data.Imbalance())
	}
}

func TestApplyFixes_CreditHeavySideIsAdjusted(t *testing.T) {
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 100, []models.JournalEntry{
		dr("1001000", 100),
		cr("4001000", 103),
	})

	result := ApplyFixes(tx, accounts, ApplyOptions{})

	if !result.BalanceFixed {
		t.Fatal("expected a balance fix")
	}
	if !tx.Data().Entries[1].Credit.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected credit reduced to 100, got %s", tx.Data().Entries[1].Credit)
	}
}

func TestApplyFixes_ImbalanceAboveCutoffIsLeftAlone(t *testing.T) {
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 100, []models.JournalEntry{
		dr("1001000", 100),
		cr("4001000", 85), // off by 15, above the 10-unit cutoff
	})

	result := ApplyFixes(tx, accounts, ApplyOptions{})

	if result.BalanceFixed {
		t.Fatal("imbalance above the cutoff must not be auto-adjusted")
	}
	if result.FixesApplied != 0 {
		t.Fatalf("expected no fixes, got %d", result.FixesApplied)
	}
}

func TestApplyFixes_AccountRemapAboveThreshold(t *testing.T) {
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 100, []models.JournalEntry{
		dr("1001000", 100),
		cr("4009999", 100), // invalid, proposer maps to 4001000 at confidence 1.0
	})

	result := ApplyFixes(tx, accounts, ApplyOptions{})

	if result.AccountFixes != 1 {
		t.Fatalf("expected one account fix, got %d", result.AccountFixes)
	}
	data := tx.Data()
	if data.Entries[1].AccountCode != "4001000" {
		t.Fatalf("expected remapped code 4001000, got %s", data.Entries[1].AccountCode)
	}
	if len(data.AutoFixes) != 1 {
		t.Fatalf("expected one audit record, got %d", len(data.AutoFixes))
	}
	record := data.AutoFixes[0]
	if record.FixType != models.FixAccountMapping {
		t.Fatalf("expected account_mapping record, got %s", record.FixType)
	}
	if record.OriginalValue != "4009999" || record.NewValue != "4001000" {
		t.Fatalf("audit record must carry both values, got %+v", record)
	}
	if record.FixID == uuid.Nil || record.AppliedAt.IsZero() {
		t.Fatalf("audit record missing id or timestamp: %+v", record)
	}
	if tx.GLValidationStatus != models.ValidationAutoFixed {
		t.Fatalf("expected auto_fixed status, got %s", tx.GLValidationStatus)
	}
	if !tx.GLAutoFixApplied {
		t.Fatal("expected gl_auto_fix_applied to be set")
	}
}

func TestApplyFixes_LowConfidenceProposalIsSkipped(t *testing.T) {
	// Unknown type and not a common account: only the shared-prefix bonus
	// applies, 0.6 stays below the 0.7 default threshold.
	accounts := indexOf("3005000")
	tx := newTx("UNKNOWN_TYPE", 100, []models.JournalEntry{
		{AccountCode: "3991234", Debit: decimal.NewFromInt(100)},
		{AccountCode: "3005000", Credit: decimal.NewFromInt(100)},
	})

	result := ApplyFixes(tx, accounts, ApplyOptions{})

	if result.AccountFixes != 0 {
		t.Fatalf("expected no applied fixes, got %d", result.AccountFixes)
	}
	if len(result.SkippedFixes) != 1 {
		t.Fatalf("expected the proposal reported as skipped, got %+v", result.SkippedFixes)
	}
	if tx.Data().Entries[0].AccountCode != "3991234" {
		t.Fatal("entry must keep its original code")
	}

	// Lowering the threshold applies the same proposal.
	result = ApplyFixes(tx, accounts, ApplyOptions{ConfidenceThreshold: 0.4})
	if result.AccountFixes != 1 {
		t.Fatalf("expected the fix applied at threshold 0.4, got %d", result.AccountFixes)
	}
}

func TestApplyFixes_FixTypeAllowlist(t *testing.T) {
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 100, []models.JournalEntry{
		dr("1001000", 100),
		cr("4009999", 98), // invalid code and a 2-unit imbalance
	})

	result := ApplyFixes(tx, accounts, ApplyOptions{
		FixTypes: []models.FixType{models.FixBalanceAdjustment},
	})

	if result.AccountFixes != 0 {
		t.Fatal("account fixes are outside the allowlist")
	}
	if !result.BalanceFixed {
		t.Fatal("balance fix is inside the allowlist")
	}
	if tx.Data().Entries[1].AccountCode != "4009999" {
		t.Fatal("invalid code must remain when its fix type is excluded")
	}
}

func TestApplyFixes_ConfidenceBumpsAndClamp(t *testing.T) {
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 100, []models.JournalEntry{
		dr("1001000", 100),
		cr("4009999", 98),
	})
	tx.GLConfidenceScore = 0.9

	result := ApplyFixes(tx, accounts, ApplyOptions{})

	// One account fix (+0.2) and one balance fix (+0.15) from 0.9 clamps
	// at 1.0.
	if result.FixesApplied != 2 {
		t.Fatalf("expected 2 fixes, got %d", result.FixesApplied)
	}
	if tx.GLConfidenceScore != 1.0 {
		t.Fatalf("expected clamped confidence 1.0, got %v", tx.GLConfidenceScore)
	}
}

func TestApplyFixes_CleanTransactionIsNoOp(t *testing.T) {
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 100, []models.JournalEntry{
		dr("1001000", 100),
		cr("4001000", 100),
	})
	tx.GLValidationStatus = models.ValidationValidated
	tx.GLConfidenceScore = 0.8

	result := ApplyFixes(tx, accounts, ApplyOptions{})

	if result.FixesApplied != 0 {
		t.Fatalf("expected no fixes on a clean transaction, got %d", result.FixesApplied)
	}
	if tx.GLValidationStatus != models.ValidationValidated {
		t.Fatal("status must not change on a no-op apply")
	}
	if tx.GLConfidenceScore != 0.8 {
		t.Fatalf("confidence must not change on a no-op apply, got %v", tx.GLConfidenceScore)
	}
	if len(tx.Data().AutoFixes) != 0 {
		t.Fatal("no audit records on a no-op apply")
	}
}

func TestApplyFixes_AuditTrailIsAppendOnly(t *testing.T) {
	accounts := indexOf("1001000", "4001000")
	tx := newTx("SALES_ORDER", 100, []models.JournalEntry{
		dr("1001000", 100),
		cr("4009999", 100),
	})

	ApplyFixes(tx, accounts, ApplyOptions{})
	first := tx.Data().AutoFixes
	if len(first) != 1 {
		t.Fatalf("expected one record, got %d", len(first))
	}

	// Break the balance and fix again; the earlier record survives untouched.
	data := tx.Data()
	data.Entries[1].Credit = decimal.NewFromInt(97)
	tx.SetData(data)
	ApplyFixes(tx, accounts, ApplyOptions{})

	records := tx.Data().AutoFixes
	if len(records) != 2 {
		t.Fatalf("expected two records after second apply, got %d", len(records))
	}
	if records[0].FixID != first[0].FixID || records[0].NewValue != first[0].NewValue {
		t.Fatal("existing audit records must never be rewritten")
	}
}
