package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"erp-finance-backend/internal/config"
	handler "erp-finance-backend/internal/handlers"
	"erp-finance-backend/internal/repository"
	"erp-finance-backend/internal/services/autofix"
	"erp-finance-backend/internal/services/intelligence"
	"erp-finance-backend/internal/services/posting"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	log := config.GetLogger()

	orgRepo := repository.NewOrganizationRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	autofixSvc := autofix.NewService(transactionRepo, accountRepo)
	postingSvc := posting.NewService(transactionRepo, accountRepo, transactionRepo)
	intelligenceSvc := intelligence.NewService(transactionRepo)

	glHandler := handler.NewGLHandler(autofixSvc, postingSvc, intelligenceSvc, log)
	orgHandler := handler.NewOrganizationHandler(orgRepo, accountRepo, transactionRepo, log)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	gl := api.Group("/finance/gl-accounts")
	gl.GET("/autofix/:transactionId", glHandler.GetAutofix)
	gl.PUT("/autofix/:transactionId", glHandler.PutAutofix)
	gl.GET("/posting", glHandler.GetPosting)
	gl.POST("/posting", glHandler.PostPosting)
	gl.GET("/real-time-intelligence", glHandler.GetIntelligence)
	gl.GET("/validate/:transactionId", glHandler.GetValidate)
	gl.PUT("/validate/:transactionId", glHandler.PutValidate)

	orgs := api.Group("/organizations")
	{
		orgs.POST("", orgHandler.CreateOrganization)
		orgs.GET("", orgHandler.ListOrganizations)
		orgs.POST("/:orgId/accounts", orgHandler.CreateAccount)
		orgs.GET("/:orgId/accounts", orgHandler.ListAccounts)
		orgs.PUT("/:orgId/accounts/:accountId/deactivate", orgHandler.DeactivateAccount)
		orgs.POST("/:orgId/transactions", orgHandler.CreateTransaction)
		orgs.GET("/:orgId/transactions", orgHandler.ListTransactions)
	}
}
