package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"erp-finance-backend/internal/models"
	"erp-finance-backend/internal/services/autofix"
	"erp-finance-backend/internal/services/intelligence"
	"erp-finance-backend/internal/services/posting"
)

type GLHandler struct {
	autofix      *autofix.Service
	posting      *posting.Service
	intelligence *intelligence.Service
	log          *logrus.Logger
}

func NewGLHandler(autofixSvc *autofix.Service, postingSvc *posting.Service, intelligenceSvc *intelligence.Service, log *logrus.Logger) *GLHandler {
	return &GLHandler{autofix: autofixSvc, posting: postingSvc, intelligence: intelligenceSvc, log: log}
}

// requireOrganization enforces the tenant contract: every GL route carries
// organizationId and is rejected with 400 before any persistence call when it
// is missing or malformed.
func requireOrganization(c *gin.Context, raw string) (uuid.UUID, bool) {
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "organizationId is required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "organizationId must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseTransactionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("transactionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid transaction ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *GLHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "transaction not found"})
		return
	}
	h.log.WithFields(logrus.Fields{"path": c.FullPath()}).Error(err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
}

// GetAutofix returns the read-only fix analysis for one transaction.
func (h *GLHandler) GetAutofix(c *gin.Context) {
	orgID, ok := requireOrganization(c, c.Query("organizationId"))
	if !ok {
		return
	}
	txID, ok := parseTransactionID(c)
	if !ok {
		return
	}
	includeHistory := c.Query("includeHistory") == "true"

	analysis, err := h.autofix.Analyze(c.Request.Context(), orgID, txID, includeHistory)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"fix_options":      analysis.FixOptions,
		"analysis":         analysis.Report,
		"potential_impact": analysis.PotentialImpact,
		"recommendations":  analysis.Recommendations,
		"fix_history":      analysis.FixHistory,
	}})
}

type autofixRequest struct {
	OrganizationID      string           `json:"organizationId"`
	Operation           string           `json:"operation" binding:"required,oneof=apply rollback"`
	FixTypes            []models.FixType `json:"fixTypes"`
	ConfidenceThreshold float64          `json:"confidenceThreshold"`
}

// PutAutofix applies (or refuses to roll back) fixes on one transaction.
func (h *GLHandler) PutAutofix(c *gin.Context) {
	txID, ok := parseTransactionID(c)
	if !ok {
		return
	}
	var req autofixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload: operation must be apply or rollback"})
		return
	}
	orgID, ok := requireOrganization(c, req.OrganizationID)
	if !ok {
		return
	}

	if req.Operation == "rollback" {
		c.JSON(http.StatusNotImplemented, gin.H{"success": false, "error": autofix.ErrRollbackNotImplemented.Error()})
		return
	}

	tx, result, err := h.autofix.Apply(c.Request.Context(), orgID, txID, autofix.ApplyOptions{
		ConfidenceThreshold: req.ConfidenceThreshold,
		FixTypes:            req.FixTypes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"fixes_applied": result.FixesApplied,
		"applied_fixes": result.AppliedFixes,
		"results":       result,
		"transaction":   tx,
	}})
}

// GetPosting returns the posting queue snapshot.
func (h *GLHandler) GetPosting(c *gin.Context) {
	orgID, ok := requireOrganization(c, c.Query("organizationId"))
	if !ok {
		return
	}
	status := models.PostingStatus(c.Query("status"))

	snapshot, err := h.posting.Snapshot(c.Request.Context(), orgID, status, c.Query("period"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

type postingRequest struct {
	OrganizationID        string   `json:"organizationId"`
	TransactionIDs        []string `json:"transactionIds"`
	ValidateBeforePosting *bool    `json:"validateBeforePosting"`
	AllowPartialPosting   bool     `json:"allowPartialPosting"`
	DryRun                bool     `json:"dryRun"`
}

// PostPosting executes a posting batch.
func (h *GLHandler) PostPosting(c *gin.Context) {
	var req postingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}
	orgID, ok := requireOrganization(c, req.OrganizationID)
	if !ok {
		return
	}

	var ids []uuid.UUID
	for _, raw := range req.TransactionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "transactionIds must be valid UUIDs"})
			return
		}
		ids = append(ids, id)
	}

	summary, err := h.posting.ExecuteBatch(c.Request.Context(), orgID, posting.BatchOptions{
		TransactionIDs:        ids,
		ValidateBeforePosting: req.ValidateBeforePosting,
		AllowPartialPosting:   req.AllowPartialPosting,
		DryRun:                req.DryRun,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// GetIntelligence returns the derived monitoring snapshot.
func (h *GLHandler) GetIntelligence(c *gin.Context) {
	orgID, ok := requireOrganization(c, c.Query("organizationId"))
	if !ok {
		return
	}
	snapshot, err := h.intelligence.Build(c.Request.Context(), orgID, c.Query("monitoringType"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

// GetValidate returns the detailed validation report for one transaction.
func (h *GLHandler) GetValidate(c *gin.Context) {
	orgID, ok := requireOrganization(c, c.Query("organizationId"))
	if !ok {
		return
	}
	txID, ok := parseTransactionID(c)
	if !ok {
		return
	}
	includeHistory := c.Query("includeHistory") == "true"

	analysis, err := h.autofix.Analyze(c.Request.Context(), orgID, txID, includeHistory)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"report": analysis.Report,
		"auto_fix_options": gin.H{
			"available": analysis.PotentialImpact.FixableIssues > 0,
			"options":   analysis.FixOptions,
		},
	}})
}

type validateRequest struct {
	OrganizationID      string  `json:"organizationId"`
	AutoFix             bool    `json:"autoFix"`
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
}

// PutValidate refreshes the stored validation status, optionally applying
// fixes first.
func (h *GLHandler) PutValidate(c *gin.Context) {
	txID, ok := parseTransactionID(c)
	if !ok {
		return
	}
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}
	orgID, ok := requireOrganization(c, req.OrganizationID)
	if !ok {
		return
	}

	tx, report, applied, err := h.autofix.RefreshValidation(c.Request.Context(), orgID, txID, req.AutoFix, autofix.ApplyOptions{
		ConfidenceThreshold: req.ConfidenceThreshold,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{"report": report, "transaction": tx}
	if applied != nil {
		data["fixes_applied"] = applied.FixesApplied
		data["applied_fixes"] = applied.AppliedFixes
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
