package routes

import (
	"net/http"
	"time"

	"ridepool/handlers"
	"ridepool/middleware"
	"ridepool/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes registers unauthenticated endpoints.
func RegisterPublicRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/routes", hb.Route.ListHandler)
		api.GET("/routes/:id", hb.Route.GetHandler)
		api.GET("/blackouts", hb.Blackout.ListHandler)
		api.POST("/subscriptions/quote", hb.Subscription.QuoteHandler)
	}
}

// RegisterUserRoutes registers subscriber endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.Use(middleware.UserAuthMiddleware())

		api.GET("/wallet/balance", hb.Wallet.GetBalanceHandler)
		api.POST("/wallet/topup", hb.Wallet.TopUpHandler)
		api.GET("/wallet/transactions", hb.Wallet.TransactionsHandler)

		api.POST("/subscriptions", hb.Subscription.PurchaseHandler)
		api.GET("/subscriptions", hb.Subscription.ListMineHandler)
		api.GET("/subscriptions/:id", hb.Subscription.GetHandler)
		api.POST("/subscriptions/:id/request-cancel", hb.Subscription.RequestCancellationHandler)

		api.GET("/trips/:reference", hb.Trip.GetByReferenceHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for back-office operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware())

		adminGroup.GET("/subscriptions", hb.Subscription.AdminListHandler)
		adminGroup.POST("/subscriptions/:id/cancel", hb.Subscription.AdminCancelHandler)
		adminGroup.PUT("/subscriptions/:id/dates", hb.Subscription.AdminEditDatesHandler)
		adminGroup.GET("/subscriptions/:id/invoices", hb.Billing.AdminListInvoicesHandler)

		adminGroup.GET("/wallets/:userId", hb.Wallet.AdminGetWalletHandler)
		adminGroup.POST("/wallets/:userId/adjust", hb.Wallet.AdminAdjustHandler)
		adminGroup.GET("/wallets/:userId/audit", hb.Wallet.AdminAuditHandler)

		adminGroup.POST("/trips/generate", hb.Trip.AdminGenerateHandler)
		adminGroup.GET("/trips", hb.Trip.AdminListByDateHandler)
		adminGroup.PUT("/trips/:id/driver", hb.Trip.AdminAssignDriverHandler)

		adminGroup.GET("/settlements", hb.Settlement.AdminListHandler)
		adminGroup.POST("/settlements/:id/acknowledge", hb.Settlement.AdminAcknowledgeHandler)

		adminGroup.POST("/billing/run", hb.Billing.AdminRunHandler)
		adminGroup.POST("/invoices/:id/retry", hb.Billing.AdminRetryInvoiceHandler)

		adminGroup.POST("/routes", hb.Route.AdminCreateHandler)
		adminGroup.PUT("/routes/:id", hb.Route.AdminUpdateHandler)

		adminGroup.POST("/blackouts", hb.Blackout.AdminCreateHandler)
		adminGroup.DELETE("/blackouts/:id", hb.Blackout.AdminDeleteHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterPublicRoutes(r, hb)
	RegisterUserRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
