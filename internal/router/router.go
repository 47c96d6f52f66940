package router

import (
	"database/sql"

	"retail_pos_backend/internal/handlers"
	"retail_pos_backend/internal/middleware"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	productRepo := repositories.NewProductRepository(db)
	billRepo := repositories.NewBillRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)

	// Initialize Services
	store := services.StoreInfo{
		Name:         utils.Getenv("STORE_NAME", "Retail POS"),
		AddressLine1: utils.Getenv("STORE_ADDRESS_LINE1", ""),
		AddressLine2: utils.Getenv("STORE_ADDRESS_LINE2", ""),
		Phone:        utils.Getenv("STORE_PHONE", ""),
	}

	authService := services.NewAuthService(authRepo, db)
	productService := services.NewProductService(productRepo, movementRepo, db)
	cartService := services.NewCartService()
	billingService := services.NewBillingService(cartService, billRepo, productRepo, movementRepo, db)
	reportService := services.NewReportService(billRepo, productRepo)
	documentService := services.NewDocumentService(store)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, productService)
	billingHandler := handlers.NewBillingHandler(billingService, documentService)
	reportHandler := handlers.NewReportHandler(reportService, documentService)
	movementHandler := handlers.NewStockMovementHandler(movementRepo)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)

		SetupProductRoutes(authenticated, productHandler)
		SetupCartRoutes(authenticated, cartHandler)
		SetupBillRoutes(authenticated, billingHandler)
		SetupStockMovementRoutes(authenticated, movementHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}

// SetupPublicAuthRoutes registers routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterUser)
	group.POST("/login", authHandler.LoginUser)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

// SetupAuthenticatedAuthRoutes registers auth routes requiring a valid token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
}
