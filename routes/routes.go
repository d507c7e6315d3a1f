package routes

import (
	"net/http"
	"time"

	"innkeeper/handlers"
	"innkeeper/middleware"
	"innkeeper/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAvailabilityRoutes registers the public slot listing.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability")
	{
		api.GET("/:resourceID", hb.Availability.ListOpenSlotsHandler)
	}
}

// RegisterBookingRoutes registers the slot reservation endpoint.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.AuthMiddleware())
		api.POST("", hb.Booking.CreateBookingHandler)
	}
}

// RegisterOrderRoutes registers the guest order ledger endpoints.
func RegisterOrderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/orders")
	{
		api.Use(middleware.AuthMiddleware())
		api.POST("", hb.Order.CreateOrderHandler)
		api.GET("", hb.Order.ListMyOrdersHandler)
		api.GET("/:id", hb.Order.GetOrderHandler)
		api.DELETE("/:id", hb.Order.CancelOrderHandler)
	}
}

// RegisterPaymentRoutes registers checkout initiation and the Stripe
// webhook. The webhook is unauthenticated; its payload is verified by
// signature instead.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/create-checkout", middleware.AuthMiddleware(), hb.Payment.CreateCheckoutHandler)
	r.POST("/stripe-webhook", hb.Webhook.StripeWebhookHandler)
}

// RegisterManagerRoutes registers property-manager endpoints.
func RegisterManagerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/manager")
	{
		api.Use(middleware.AuthMiddleware(), middleware.RequireManager())
		api.POST("/resources/:resourceID/slots", hb.Availability.CreateSlotsHandler)
		api.GET("/orders", hb.Order.ListPropertyOrdersHandler)
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
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())
	r.Use(utils.ErrorHandler())

	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterOrderRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterManagerRoutes(r, hb)
	RegisterHealthRoute(r)
}
