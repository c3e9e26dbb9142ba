package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"erp-finance-backend/internal/models"
)

// AccountRepository is the only way the service layer touches the chart of
// accounts. Every method takes the organization id and scopes the query with
// it; handlers never build tenant filters themselves.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("entity_code ASC").
		Find(&accounts).Error
	return accounts, err
}

// IndexByOrganization returns the active chart of accounts keyed by code.
func (r *AccountRepository) IndexByOrganization(ctx context.Context, organizationID uuid.UUID) (models.AccountIndex, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", organizationID, true).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	index := make(models.AccountIndex, len(accounts))
	for _, a := range accounts {
		index[a.EntityCode] = a
	}
	return index, nil
}

func (r *AccountRepository) Deactivate(ctx context.Context, organizationID, accountID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND organization_id = ?", accountID, organizationID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
