package router

import (
	"retail_pos_backend/internal/handlers"
	"retail_pos_backend/internal/middleware"
	"retail_pos_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupProductRoutes sets up the catalog routes. Reads are open to any
// authenticated role; catalog writes need admin or manager.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productWriteRoutes := authenticatedGroup.Group("/products")
	productWriteRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager))
	{
		productWriteRoutes.POST("", productHandler.CreateProduct)
		productWriteRoutes.PUT("/:id", productHandler.UpdateProduct)
		productWriteRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), productHandler.DeleteProduct)
		productWriteRoutes.POST("/:id/restock", productHandler.RestockProduct)
	}

	authenticatedGroup.GET("/products", productHandler.GetProducts)
	authenticatedGroup.GET("/products/low-stock", productHandler.GetLowStockProducts)
	authenticatedGroup.GET("/products/:id", productHandler.GetProductByID)
}

// SetupCartRoutes sets up the billing cart routes. Every authenticated role
// can sell, so the cart has no extra role gate.
func SetupCartRoutes(authenticatedGroup *gin.RouterGroup, cartHandler *handlers.CartHandler) {
	cartRoutes := authenticatedGroup.Group("/cart")
	{
		cartRoutes.GET("", cartHandler.GetCart)
		cartRoutes.POST("/items", cartHandler.AddItem)
		cartRoutes.PATCH("/items", cartHandler.UpdateItem)
		cartRoutes.DELETE("/items/:product_id", cartHandler.RemoveItem)
		cartRoutes.DELETE("", cartHandler.ClearCart)
	}
}

// SetupBillRoutes sets up checkout and bill management routes. Deleting a
// bill rewrites stock history, so it is admin-only.
func SetupBillRoutes(authenticatedGroup *gin.RouterGroup, billingHandler *handlers.BillingHandler) {
	billRoutes := authenticatedGroup.Group("/bills")
	{
		billRoutes.POST("/checkout", billingHandler.Checkout)
		billRoutes.GET("", billingHandler.GetBills)
		billRoutes.GET("/:id", billingHandler.GetBillByID)
		billRoutes.GET("/:id/receipt.pdf", billingHandler.GetReceiptPDF)
		billRoutes.GET("/:id/whatsapp-link", billingHandler.GetWhatsAppLink)
		billRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager), billingHandler.UpdateBillStatus)
		billRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), billingHandler.DeleteBill)
	}
}

// SetupStockMovementRoutes sets up the stock audit trail routes.
func SetupStockMovementRoutes(authenticatedGroup *gin.RouterGroup, movementHandler *handlers.StockMovementHandler) {
	movementRoutes := authenticatedGroup.Group("/stock-movements")
	movementRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager))
	{
		movementRoutes.GET("", movementHandler.GetStockMovements)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager))
	{
		reportRoutes.GET("/sales", reportHandler.GetSalesReport)
		reportRoutes.GET("/sales/export.pdf", reportHandler.ExportSalesReportPDF)
		reportRoutes.GET("/sales/export.csv", reportHandler.ExportSalesReportCSV)
		reportRoutes.GET("/dashboard", reportHandler.GetDashboardSummary)
	}
}
