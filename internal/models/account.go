package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Account is one row of an organization's chart of accounts. EntityCode is
// the GL code entries reference ("4001000"); it is unique per organization,
// not globally.
type Account struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_account_org_code,priority:1" json:"organization_id"`
	EntityCode     string    `gorm:"uniqueIndex:idx_account_org_code,priority:2" json:"entity_code"`
	EntityName     string    `json:"entity_name"`
	AccountType    string    `gorm:"index" json:"account_type,omitempty"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountIndex is an organization's chart of accounts keyed by entity code.
type AccountIndex map[string]Account

func (a AccountIndex) Has(code string) bool {
	_, ok := a[code]
	return ok
}

// SortedCodes returns every code in ascending order. Callers that scan the
// index must iterate this slice, never the map itself, so scans are
// deterministic.
func (a AccountIndex) SortedCodes() []string {
	codes := make([]string, 0, len(a))
	for code := range a {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
