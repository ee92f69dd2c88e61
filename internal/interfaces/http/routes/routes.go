// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/flowershop-backend/internal/config"
	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/domain/order"
	"github.com/your-org/flowershop-backend/internal/interfaces/http/handlers"
	"github.com/your-org/flowershop-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// Dependencies carries the shared services the route handlers need
type Dependencies struct {
	DB           *gorm.DB
	RedisClient  *redis.Client
	Config       *config.Config
	AuditService *audit.Service
	Publisher    order.EventPublisher
	Logger       *logrus.Logger
}

// SetupRoutes wires all API routes onto the given group
func SetupRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	setupAuthRoutes(rg, deps)
	setupCatalogRoutes(rg, deps)
	setupCartRoutes(rg, deps)
	setupOrderRoutes(rg, deps)
	setupUserRoutes(rg, deps)
	setupAdminRoutes(rg, deps)
}

func setupAuthRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Config)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}
}

func setupCatalogRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	bouquetHandler := handlers.NewBouquetHandler(deps.DB, deps.AuditService)
	categoryHandler := handlers.NewCategoryHandler(deps.DB, deps.AuditService)

	bouquets := rg.Group("/bouquets")
	{
		bouquets.GET("", bouquetHandler.GetBouquets)
		bouquets.GET("/:id", bouquetHandler.GetBouquet)
		bouquets.GET("/:id/reviews", bouquetHandler.GetBouquetReviews)

		protected := bouquets.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Config))
		{
			protected.POST("/:id/reviews", bouquetHandler.CreateReview)
		}
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategory)
	}
}

func setupCartRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.DB, deps.RedisClient)

	cart := rg.Group("/cart")
	cart.Use(middleware.AuthMiddleware(deps.Config))
	{
		cart.GET("", cartHandler.GetCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
	}
}

func setupOrderRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	orderHandler := handlers.NewOrderHandler(deps.DB, deps.RedisClient, deps.AuditService, deps.Publisher, deps.Logger)
	invoiceHandler := handlers.NewInvoiceHandler(deps.DB, deps.Config, deps.AuditService, deps.Publisher, deps.Logger)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(deps.Config))
	{
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("", orderHandler.GetUserOrders)
		orders.GET("/:id", orderHandler.GetUserOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.GET("/:id/invoice", invoiceHandler.GetInvoice)
	}
}

func setupUserRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	profileHandler := handlers.NewUserProfileHandler(deps.DB, deps.Config)

	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(deps.Config))
	{
		users.GET("/profile", profileHandler.GetProfile)
		users.PUT("/profile", profileHandler.UpdateProfile)
		users.PUT("/password", profileHandler.ChangePassword)
	}
}

func setupAdminRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	bouquetHandler := handlers.NewBouquetHandler(deps.DB, deps.AuditService)
	categoryHandler := handlers.NewCategoryHandler(deps.DB, deps.AuditService)
	orderHandler := handlers.NewOrderHandler(deps.DB, deps.RedisClient, deps.AuditService, deps.Publisher, deps.Logger)
	invoiceHandler := handlers.NewInvoiceHandler(deps.DB, deps.Config, deps.AuditService, deps.Publisher, deps.Logger)
	userAdminHandler := handlers.NewUserAdminHandler(deps.DB, deps.AuditService)
	reportHandler := handlers.NewReportHandler(deps.DB, deps.RedisClient)
	auditHandler := handlers.NewAuditHandler(deps.AuditService)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(deps.Config))
	admin.Use(middleware.AdminMiddleware())
	{
		// Catalog management
		admin.GET("/bouquets", bouquetHandler.AdminListBouquets)
		admin.POST("/bouquets", bouquetHandler.CreateBouquet)
		admin.PUT("/bouquets/:id", bouquetHandler.UpdateBouquet)
		admin.DELETE("/bouquets/:id", bouquetHandler.DeleteBouquet)
		admin.POST("/bouquets/:id/restore", bouquetHandler.RestoreBouquet)
		admin.PUT("/bouquets/:id/stock", bouquetHandler.UpdateStock)

		// Category management
		admin.GET("/categories", categoryHandler.AdminListCategories)
		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)
		admin.PUT("/categories/:id/prices", bouquetHandler.UpdatePricesByCategory)

		// Order management
		admin.GET("/orders", orderHandler.AdminListOrders)
		admin.GET("/orders/:id", orderHandler.AdminGetOrder)
		admin.PUT("/orders/:id/status", orderHandler.AdminUpdateOrderStatus)
		admin.POST("/orders/:id/cancel", orderHandler.AdminCancelOrder)
		admin.DELETE("/orders/:id", orderHandler.AdminDeleteOrder)
		admin.POST("/orders/:id/restore", orderHandler.AdminRestoreOrder)
		admin.GET("/orders/:id/invoice", invoiceHandler.AdminGetInvoice)

		// User management
		admin.GET("/users", userAdminHandler.ListUsers)
		admin.GET("/users/:id", userAdminHandler.GetUser)
		admin.PUT("/users/:id/active", userAdminHandler.SetActive)
		admin.PUT("/users/:id/admin", userAdminHandler.SetAdmin)
		admin.DELETE("/users/:id", userAdminHandler.DeleteUser)
		admin.POST("/users/:id/restore", userAdminHandler.RestoreUser)

		// Reports
		admin.GET("/reports/dashboard", reportHandler.GetDashboard)
		admin.GET("/reports/sales", reportHandler.GetSalesReport)
		admin.GET("/reports/bouquets", reportHandler.GetBouquetStatistics)
		admin.GET("/reports/popular", reportHandler.GetPopularBouquets)
		admin.GET("/reports/revenue", reportHandler.GetMonthlyRevenue)
		admin.GET("/reports/customers", reportHandler.GetCustomerLoyalty)

		// Audit trail
		admin.GET("/audit-logs", auditHandler.GetLogs)
	}
}
