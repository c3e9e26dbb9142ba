package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"erp-finance-backend/internal/models"
)

// TransactionRepository scopes every query by organization id. A transaction
// that exists but belongs to another organization is indistinguishable from
// one that does not exist: both come back as gorm.ErrRecordNotFound.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.GLTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, organizationID, transactionID uuid.UUID) (*models.GLTransaction, error) {
	var tx models.GLTransaction
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", transactionID, organizationID).
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) FindByNumber(ctx context.Context, organizationID uuid.UUID, number string) ([]models.GLTransaction, error) {
	var txs []models.GLTransaction
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND transaction_number = ?", organizationID, number).
		Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) Save(ctx context.Context, tx *models.GLTransaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

// ListFilter narrows List; zero values mean "no filter".
type ListFilter struct {
	PostingStatus models.PostingStatus
	From          *time.Time
	To            *time.Time
	Limit         int
}

func (r *TransactionRepository) List(ctx context.Context, organizationID uuid.UUID, filter ListFilter) ([]models.GLTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("transaction_date ASC, id ASC")

	if filter.PostingStatus != "" {
		query = query.Where("posting_status = ?", filter.PostingStatus)
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date < ?", *filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var txs []models.GLTransaction
	err := query.Find(&txs).Error
	return txs, err
}

// ListQueue narrows the posting queue by status and date window.
func (r *TransactionRepository) ListQueue(ctx context.Context, organizationID uuid.UUID, status models.PostingStatus, from, to *time.Time) ([]models.GLTransaction, error) {
	return r.List(ctx, organizationID, ListFilter{PostingStatus: status, From: from, To: to})
}

// ListForPosting resolves a posting batch: the explicit ids when given,
// otherwise every unposted transaction of the organization.
func (r *TransactionRepository) ListForPosting(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]models.GLTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("transaction_date ASC, id ASC")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Where("posting_status IN ?", []models.PostingStatus{models.PostingDraft, models.PostingReady})
	}
	var txs []models.GLTransaction
	err := query.Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) ListRecent(ctx context.Context, organizationID uuid.UUID, since time.Time) ([]models.GLTransaction, error) {
	var txs []models.GLTransaction
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND transaction_date >= ?", organizationID, since).
		Order("transaction_date ASC").
		Find(&txs).Error
	return txs, err
}

// WithPostingLock serializes posting per organization across instances with a
// Postgres advisory lock. Session locks are connection-scoped, so the
// acquire/release pair is pinned to one pooled connection for the duration of
// fn; fn's own writes go through the pool as usual and stay independently
// durable.
func (r *TransactionRepository) WithPostingLock(ctx context.Context, organizationID uuid.UUID, fn func(ctx context.Context) error) error {
	key := "posting:" + organizationID.String()
	return r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(hashtextextended(?, 0))", key).Error; err != nil {
			return err
		}
		defer conn.Exec("SELECT pg_advisory_unlock(hashtextextended(?, 0))", key)
		return fn(ctx)
	})
}
