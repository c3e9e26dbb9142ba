package intelligence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-finance-backend/internal/models"
)

// Window is how far back the monitoring snapshot looks.
const Window = 30 * 24 * time.Hour

const (
	MonitorAll       = "all"
	MonitorAnomalies = "anomalies"
	MonitorVolume    = "volume"
	MonitorAccuracy  = "accuracy"
)

type TransactionStore interface {
	ListRecent(ctx context.Context, organizationID uuid.UUID, since time.Time) ([]models.GLTransaction, error)
}

type Service struct {
	transactions TransactionStore
	now          func() time.Time
}

func NewService(transactions TransactionStore) *Service {
	return &Service{transactions: transactions, now: time.Now}
}

type Metrics struct {
	WindowDays        int             `json:"window_days"`
	TransactionCount  int             `json:"transaction_count"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PostedCount       int             `json:"posted_count"`
	PendingCount      int             `json:"pending_count"`
	FailedCount       int             `json:"failed_count"`
	AutoFixedCount    int             `json:"auto_fixed_count"`
	UnbalancedCount   int             `json:"unbalanced_count"`
	FailureRate       float64         `json:"failure_rate"`
	AutoFixRate       float64         `json:"auto_fix_rate"`
	AverageConfidence float64         `json:"average_confidence"`
}

type Alert struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type Snapshot struct {
	OrganizationID  uuid.UUID `json:"organization_id"`
	MonitoringType  string    `json:"monitoring_type"`
	GeneratedAt     time.Time `json:"generated_at"`
	Metrics         *Metrics  `json:"metrics,omitempty"`
	Alerts          []Alert   `json:"alerts,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

// Alert thresholds. Rule-based, derived from the current window only; there
// is no streaming or scheduling behind this endpoint.
const (
	failureRateAlertThreshold   = 0.2
	lowConfidenceAlertThreshold = 0.6
)

// Build derives metrics, threshold alerts, and recommendations from the
// organization's recent transactions. monitoringType selects which sections
// are returned; empty means all.
func (s *Service) Build(ctx context.Context, organizationID uuid.UUID, monitoringType string) (*Snapshot, error) {
	if monitoringType == "" {
		monitoringType = MonitorAll
	}
	switch monitoringType {
	case MonitorAll, MonitorAnomalies, MonitorVolume, MonitorAccuracy:
	default:
		return nil, fmt.Errorf("unknown monitoring type %q", monitoringType)
	}

	now := s.now().UTC()
	txs, err := s.transactions.ListRecent(ctx, organizationID, now.Add(-Window))
	if err != nil {
		return nil, err
	}

	metrics := computeMetrics(txs)
	alerts := deriveAlerts(metrics)

	snapshot := &Snapshot{
		OrganizationID: organizationID,
		MonitoringType: monitoringType,
		GeneratedAt:    now,
	}
	if monitoringType == MonitorAll || monitoringType == MonitorVolume || monitoringType == MonitorAccuracy {
		snapshot.Metrics = &metrics
	}
	if monitoringType == MonitorAll || monitoringType == MonitorAnomalies {
		snapshot.Alerts = alerts
	}
	if monitoringType == MonitorAll || monitoringType == MonitorAccuracy {
		snapshot.Recommendations = deriveRecommendations(metrics, alerts)
	}
	return snapshot, nil
}

func computeMetrics(txs []models.GLTransaction) Metrics {
	m := Metrics{
		WindowDays:  int(Window.Hours() / 24),
		TotalAmount: decimal.Zero,
	}
	confidenceSum := 0.0
	for i := range txs {
		tx := &txs[i]
		m.TransactionCount++
		m.TotalAmount = m.TotalAmount.Add(tx.TotalAmount)
		confidenceSum += tx.GLConfidenceScore

		switch tx.PostingStatus {
		case models.PostingPosted:
			m.PostedCount++
		case models.PostingFailed:
			m.FailedCount++
		default:
			m.PendingCount++
		}
		if tx.GLAutoFixApplied {
			m.AutoFixedCount++
		}
		if !tx.Data().IsBalanced() {
			m.UnbalancedCount++
		}
	}
	if m.TransactionCount > 0 {
		total := float64(m.TransactionCount)
		m.FailureRate = float64(m.FailedCount+m.UnbalancedCount) / total
		m.AutoFixRate = float64(m.AutoFixedCount) / total
		m.AverageConfidence = confidenceSum / total
	}
	return m
}

func deriveAlerts(m Metrics) []Alert {
	var alerts []Alert
	if m.TransactionCount == 0 {
		return alerts
	}
	if m.FailureRate > failureRateAlertThreshold {
		alerts = append(alerts, Alert{
			Severity: "high",
			Code:     "high_failure_rate",
			Message:  fmt.Sprintf("%.0f%% of recent transactions fail validation or posting", m.FailureRate*100),
		})
	}
	if m.AverageConfidence > 0 && m.AverageConfidence < lowConfidenceAlertThreshold {
		alerts = append(alerts, Alert{
			Severity: "medium",
			Code:     "low_confidence",
			Message:  fmt.Sprintf("average GL confidence is %.2f, below %.2f", m.AverageConfidence, lowConfidenceAlertThreshold),
		})
	}
	if m.UnbalancedCount > 0 {
		alerts = append(alerts, Alert{
			Severity: "medium",
			Code:     "unbalanced_transactions",
			Message:  fmt.Sprintf("%d transaction(s) in the window are out of balance", m.UnbalancedCount),
		})
	}
	return alerts
}

func deriveRecommendations(m Metrics, alerts []Alert) []string {
	var recs []string
	if m.TransactionCount == 0 {
		recs = append(recs, "no transactions in the monitoring window")
		return recs
	}
	for _, a := range alerts {
		switch a.Code {
		case "high_failure_rate":
			recs = append(recs, "review the chart of accounts mappings; a high failure rate usually means entries reference retired GL codes")
		case "low_confidence":
			recs = append(recs, "raise the auto-fix confidence threshold or review fixes manually before posting")
		case "unbalanced_transactions":
			recs = append(recs, "run auto-fix on unbalanced transactions within the small-imbalance cutoff")
		}
	}
	if m.PendingCount > 0 {
		recs = append(recs, fmt.Sprintf("%d transaction(s) are awaiting posting", m.PendingCount))
	}
	return recs
}
