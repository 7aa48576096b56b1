package router

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/handlers"
	"pharmacy_backend/internal/middleware"
	"pharmacy_backend/internal/repositories"
	"pharmacy_backend/internal/services"
	"pharmacy_backend/pkg/utils"
)

// Services bundles what the routes need; cmd/server builds it once so the
// stock alert job can share the inventory service.
type Services struct {
	Auth         services.AuthService
	Inventory    services.InventoryService
	Transactions services.TransactionService
	Billing      services.BillingService
}

// NewServices wires repositories and services over db.
func NewServices(db *sql.DB, tokens *utils.JWTManager) Services {
	authRepo := repositories.NewAuthRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	billingRepo := repositories.NewBillingRepository(db)

	return Services{
		Auth:         services.NewAuthService(authRepo, db, tokens),
		Inventory:    services.NewInventoryService(inventoryRepo, movementRepo, db),
		Transactions: services.NewTransactionService(transactionRepo, inventoryRepo, movementRepo, db),
		Billing:      services.NewBillingService(billingRepo, db),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc Services, tokens *utils.JWTManager) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	inventoryHandler := handlers.NewInventoryHandler(svc.Inventory)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	billingHandler := handlers.NewBillingHandler(svc.Billing)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := engine.Group("/api")
	SetupPublicAuthRoutes(api, authHandler)

	authenticated := api.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		authenticated.GET("/me", authHandler.GetCurrentUser)

		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupTransactionRoutes(authenticated, transactionHandler)
		SetupReportRoutes(authenticated, transactionHandler)
		SetupBillingRoutes(authenticated, billingHandler)
	}
}
