package intelligence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-finance-backend/internal/models"
)

type fakeStore struct {
	txs   []models.GLTransaction
	since time.Time
}

func (f *fakeStore) ListRecent(_ context.Context, organizationID uuid.UUID, since time.Time) ([]models.GLTransaction, error) {
	f.since = since
	var out []models.GLTransaction
	for _, tx := range f.txs {
		if tx.OrganizationID == organizationID && !tx.TransactionDate.Before(since) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func monitoredTx(orgID uuid.UUID, status models.PostingStatus, confidence float64, balanced bool, autoFixed bool) models.GLTransaction {
	credit := decimal.NewFromInt(100)
	if !balanced {
		credit = decimal.NewFromInt(50)
	}
	tx := models.GLTransaction{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		TransactionDate:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		TotalAmount:       decimal.NewFromInt(100),
		GLConfidenceScore: confidence,
		GLAutoFixApplied:  autoFixed,
		PostingStatus:     status,
	}
	tx.SetData(models.TransactionData{Entries: []models.JournalEntry{
		{AccountCode: "1001000", Debit: decimal.NewFromInt(100)},
		{AccountCode: "4001000", Credit: credit},
	}})
	return tx
}

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func TestBuild_MetricsAndAlerts(t *testing.T) {
	orgID := uuid.New()
	store := &fakeStore{txs: []models.GLTransaction{
		monitoredTx(orgID, models.PostingPosted, 0.9, true, false),
		monitoredTx(orgID, models.PostingPosted, 0.8, true, true),
		monitoredTx(orgID, models.PostingFailed, 0.2, false, false),
		monitoredTx(orgID, models.PostingDraft, 0.3, true, false),
	}}
	svc := NewService(store)
	svc.now = fixedNow

	snapshot, err := svc.Build(context.Background(), orgID, "")
	if err != nil {
		t.Fatal(err)
	}

	if snapshot.MonitoringType != MonitorAll {
		t.Fatalf("empty monitoring type defaults to all, got %s", snapshot.MonitoringType)
	}
	m := snapshot.Metrics
	if m == nil {
		t.Fatal("expected metrics section")
	}
	if m.TransactionCount != 4 || m.PostedCount != 2 || m.FailedCount != 1 || m.PendingCount != 1 {
		t.Fatalf("counts wrong: %+v", m)
	}
	if m.AutoFixedCount != 1 || m.UnbalancedCount != 1 {
		t.Fatalf("auto-fix/unbalanced counts wrong: %+v", m)
	}
	// 1 failed + 1 unbalanced over 4 = 0.5, above the 0.2 alert threshold.
	if m.FailureRate != 0.5 {
		t.Fatalf("expected failure rate 0.5, got %v", m.FailureRate)
	}
	if diff := m.AverageConfidence - 0.55; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected average confidence 0.55, got %v", m.AverageConfidence)
	}

	var codes []string
	for _, a := range snapshot.Alerts {
		codes = append(codes, a.Code)
	}
	for _, want := range []string{"high_failure_rate", "low_confidence", "unbalanced_transactions"} {
		found := false
		for _, code := range codes {
			if code == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected alert %s in %v", want, codes)
		}
	}
	if len(snapshot.Recommendations) == 0 {
		t.Fatal("expected recommendations for a degraded window")
	}
	if want := fixedNow().Add(-Window); !store.since.Equal(want) {
		t.Fatalf("expected the 30-day window from %s, queried since %s", want, store.since)
	}
}

func TestBuild_HealthyWindowHasNoAlerts(t *testing.T) {
	orgID := uuid.New()
	store := &fakeStore{txs: []models.GLTransaction{
		monitoredTx(orgID, models.PostingPosted, 0.9, true, false),
		monitoredTx(orgID, models.PostingPosted, 0.95, true, false),
	}}
	svc := NewService(store)
	svc.now = fixedNow

	snapshot, err := svc.Build(context.Background(), orgID, MonitorAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", snapshot.Alerts)
	}
}

func TestBuild_MonitoringTypeSections(t *testing.T) {
	orgID := uuid.New()
	store := &fakeStore{txs: []models.GLTransaction{
		monitoredTx(orgID, models.PostingFailed, 0.1, false, false),
	}}
	svc := NewService(store)
	svc.now = fixedNow

	anomalies, err := svc.Build(context.Background(), orgID, MonitorAnomalies)
	if err != nil {
		t.Fatal(err)
	}
	if anomalies.Metrics != nil {
		t.Fatal("anomalies view must not include the metrics section")
	}
	if len(anomalies.Alerts) == 0 {
		t.Fatal("anomalies view must include alerts")
	}

	volume, err := svc.Build(context.Background(), orgID, MonitorVolume)
	if err != nil {
		t.Fatal(err)
	}
	if volume.Metrics == nil {
		t.Fatal("volume view must include metrics")
	}
	if volume.Alerts != nil {
		t.Fatal("volume view must not include alerts")
	}
}

func TestBuild_UnknownMonitoringType(t *testing.T) {
	svc := NewService(&fakeStore{})
	if _, err := svc.Build(context.Background(), uuid.New(), "bogus"); err == nil {
		t.Fatal("expected an error for an unknown monitoring type")
	}
}

func TestBuild_EmptyWindow(t *testing.T) {
	svc := NewService(&fakeStore{})
	svc.now = fixedNow

	snapshot, err := svc.Build(context.Background(), uuid.New(), MonitorAll)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Metrics.TransactionCount != 0 {
		t.Fatal("expected an empty window")
	}
	if len(snapshot.Alerts) != 0 {
		t.Fatal("an empty window raises no alerts")
	}
}
