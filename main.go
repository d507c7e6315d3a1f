// File: innkeeper/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innkeeper/config"
	"innkeeper/cron"
	"innkeeper/database"
	availabilityRepo "innkeeper/database/repository/availability"
	catalogRepo "innkeeper/database/repository/catalog"
	orderRepoPkg "innkeeper/database/repository/order"
	"innkeeper/handlers"
	"innkeeper/routes"
	"innkeeper/services/booking"
	orderSvc "innkeeper/services/order"
	"innkeeper/services/payment"
	"innkeeper/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeSecretKey

	// repositories.
	slotRepo := availabilityRepo.NewMongoSlotRepo()
	orderRepo := orderRepoPkg.NewMongoOrderRepo()
	catRepo := catalogRepo.NewMongoCatalogRepo()

	// services.
	allocatorService := &booking.DefaultAllocatorService{
		Catalog: catRepo,
		Slots:   slotRepo,
		Logger:  logger,
	}

	ledgerService := &orderSvc.DefaultLedgerService{
		Orders: orderRepo,
		Slots:  slotRepo,
		Logger: logger,
	}

	checkoutService := &payment.DefaultCheckoutService{
		Orders:  orderRepo,
		Gateway: payment.NewStripeGateway(),
		Logger:  logger,
	}

	reconcilerService := &payment.DefaultReconcilerService{
		Orders: orderRepo,
		Slots:  slotRepo,
		Cache:  utils.GetCacheClient(),
		Logger: logger,
	}

	handlerBundle := &handlers.HandlerBundle{
		Booking:      handlers.NewBookingHandler(allocatorService, logger),
		Order:        handlers.NewOrderHandler(ledgerService, catRepo, logger),
		Payment:      handlers.NewPaymentHandler(checkoutService, logger),
		Webhook:      handlers.NewWebhookHandler(reconcilerService, logger),
		Availability: handlers.NewAvailabilityHandler(slotRepo, catRepo, logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background sweeper: reopens lapsed holds, expires abandoned orders.
	cron.InitSweeper(slotRepo, ledgerService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
