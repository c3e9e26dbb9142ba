package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"erp-finance-backend/internal/models"
	"erp-finance-backend/internal/repository"
)

// OrganizationHandler covers the CRUD slice of the universal schema this
// service needs: organizations, their chart of accounts, and raw GL
// transactions.
type OrganizationHandler struct {
	orgs         *repository.OrganizationRepository
	accounts     *repository.AccountRepository
	transactions *repository.TransactionRepository
	log          *logrus.Logger
}

func NewOrganizationHandler(orgs *repository.OrganizationRepository, accounts *repository.AccountRepository, transactions *repository.TransactionRepository, log *logrus.Logger) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, accounts: accounts, transactions: transactions, log: log}
}

func (h *OrganizationHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
		return
	}
	h.log.WithFields(logrus.Fields{"path": c.FullPath()}).Error(err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
}

func parseOrgParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid organization ID"})
		return uuid.Nil, false
	}
	return id, true
}

type createOrganizationRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Industry string `json:"industry"`
}

func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name and code are required"})
		return
	}
	org := &models.Organization{
		ID:       uuid.New(),
		Name:     req.Name,
		Code:     req.Code,
		Industry: req.Industry,
		IsActive: true,
	}
	if err := h.orgs.Create(c.Request.Context(), org); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": org})
}

func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	orgs, err := h.orgs.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orgs})
}

type createAccountRequest struct {
	EntityCode  string `json:"entity_code" binding:"required"`
	EntityName  string `json:"entity_name" binding:"required"`
	AccountType string `json:"account_type"`
}

func (h *OrganizationHandler) CreateAccount(c *gin.Context) {
	orgID, ok := parseOrgParam(c)
	if !ok {
		return
	}
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "entity_code and entity_name are required"})
		return
	}
	if _, err := h.orgs.GetByID(c.Request.Context(), orgID); err != nil {
		h.fail(c, err)
		return
	}
	account := &models.Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		EntityCode:     req.EntityCode,
		EntityName:     req.EntityName,
		AccountType:    req.AccountType,
		IsActive:       true,
	}
	if err := h.accounts.Create(c.Request.Context(), account); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": account})
}

func (h *OrganizationHandler) ListAccounts(c *gin.Context) {
	orgID, ok := parseOrgParam(c)
	if !ok {
		return
	}
	accounts, err := h.accounts.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": accounts})
}

func (h *OrganizationHandler) DeactivateAccount(c *gin.Context) {
	orgID, ok := parseOrgParam(c)
	if !ok {
		return
	}
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid account ID"})
		return
	}
	if err := h.accounts.Deactivate(c.Request.Context(), orgID, accountID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"deactivated": accountID}})
}

type createEntryRequest struct {
	AccountCode string          `json:"account_code" binding:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type createTransactionRequest struct {
	TransactionNumber string               `json:"transaction_number" binding:"required"`
	TransactionType   string               `json:"transaction_type" binding:"required"`
	TransactionDate   string               `json:"transaction_date" binding:"required"`
	TotalAmount       decimal.Decimal      `json:"total_amount"`
	Entries           []createEntryRequest `json:"entries" binding:"required,min=1"`
}

func (h *OrganizationHandler) CreateTransaction(c *gin.Context) {
	orgID, ok := parseOrgParam(c)
	if !ok {
		return
	}
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "transaction_number, transaction_type, transaction_date and entries are required"})
		return
	}
	date, err := time.Parse("2006-01-02", req.TransactionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "transaction_date must be YYYY-MM-DD"})
		return
	}
	if _, err := h.orgs.GetByID(c.Request.Context(), orgID); err != nil {
		h.fail(c, err)
		return
	}

	data := models.TransactionData{}
	for _, e := range req.Entries {
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "debit and credit must be non-negative"})
			return
		}
		data.Entries = append(data.Entries, models.JournalEntry{
			AccountCode: e.AccountCode,
			Description: e.Description,
			Debit:       e.Debit,
			Credit:      e.Credit,
		})
	}

	tx := &models.GLTransaction{
		ID:                 uuid.New(),
		OrganizationID:     orgID,
		TransactionNumber:  req.TransactionNumber,
		TransactionType:    req.TransactionType,
		TransactionDate:    date,
		TotalAmount:        req.TotalAmount,
		GLValidationStatus: models.ValidationPending,
		PostingStatus:      models.PostingDraft,
	}
	tx.SetData(data)

	if err := h.transactions.Create(c.Request.Context(), tx); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": tx})
}

func (h *OrganizationHandler) ListTransactions(c *gin.Context) {
	orgID, ok := parseOrgParam(c)
	if !ok {
		return
	}
	filter := repository.ListFilter{
		PostingStatus: models.PostingStatus(c.Query("status")),
		Limit:         200,
	}
	txs, err := h.transactions.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": txs})
}
