package router

import (
	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/handlers"
	"pharmacy_backend/internal/middleware"
	"pharmacy_backend/internal/models"
)

var staffRoles = []models.Role{models.RoleAdmin, models.RoleManager}

// SetupPublicAuthRoutes registers signup and login, which need no token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/signup", authHandler.Signup)
	group.POST("/login", authHandler.Login)
}

// SetupInventoryRoutes sets up the inventory routes. Deleting a product is admin-only.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
	{
		inventoryRoutes.GET("", inventoryHandler.ListProducts)
		inventoryRoutes.POST("", inventoryHandler.CreateProduct)
		inventoryRoutes.GET("/low-stock", inventoryHandler.ListLowStock)
		inventoryRoutes.GET("/expiring", inventoryHandler.ListExpiring)
		inventoryRoutes.GET("/movements", inventoryHandler.ListMovements)
		inventoryRoutes.GET("/:id", inventoryHandler.GetProduct)
		inventoryRoutes.PATCH("/:id", inventoryHandler.UpdateProduct)
		inventoryRoutes.POST("/:id/adjust", inventoryHandler.AdjustStock)
		inventoryRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), inventoryHandler.DeleteProduct)
	}
}

// SetupTransactionRoutes sets up sale recording and lookup.
func SetupTransactionRoutes(authenticatedGroup *gin.RouterGroup, transactionHandler *handlers.TransactionHandler) {
	transactionRoutes := authenticatedGroup.Group("/transaction")
	transactionRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
	{
		transactionRoutes.POST("", transactionHandler.RecordTransaction)
		transactionRoutes.GET("", transactionHandler.ListTransactions)
		transactionRoutes.GET("/export", transactionHandler.ExportTransactions)
		transactionRoutes.GET("/:transactionId", transactionHandler.GetTransaction)
	}

	authenticatedGroup.GET("/sales/recent", middleware.RoleAuthMiddleware(staffRoles...), transactionHandler.RecentSales)
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, transactionHandler *handlers.TransactionHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
	{
		reportRoutes.GET("/transactions/summary", transactionHandler.TransactionSummary)
	}
}

// SetupBillingRoutes sets up the billing routes.
func SetupBillingRoutes(authenticatedGroup *gin.RouterGroup, billingHandler *handlers.BillingHandler) {
	billingRoutes := authenticatedGroup.Group("/billing")
	billingRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
	{
		billingRoutes.POST("", billingHandler.CreateBilling)
		billingRoutes.GET("", billingHandler.ListBillings)
	}
}
