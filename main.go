package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ridepool/config"
	"ridepool/cron"
	"ridepool/database"
	blackoutRepoPkg "ridepool/database/repository/blackout"
	invoiceRepoPkg "ridepool/database/repository/invoice"
	routeRepoPkg "ridepool/database/repository/route"
	settlementRepoPkg "ridepool/database/repository/settlement"
	subscriptionRepoPkg "ridepool/database/repository/subscription"
	tripRepoPkg "ridepool/database/repository/trip"
	walletRepoPkg "ridepool/database/repository/wallet"
	"ridepool/handlers"
	"ridepool/routes"
	"ridepool/services/billing"
	"ridepool/services/notification"
	"ridepool/services/settlement"
	"ridepool/services/subscription"
	"ridepool/services/tripgen"
	"ridepool/services/wallet"
	"ridepool/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	mongoClient, db := database.InitDB()
	utils.InitCache()
	cacheClient := utils.GetCacheClient()
	utils.StartHealthMonitor(cacheClient, mongoClient)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	walletRepo := walletRepoPkg.NewMongoWalletRepo(db)
	subscriptionRepo := subscriptionRepoPkg.NewMongoSubscriptionRepo(db)
	tripRepo := tripRepoPkg.NewMongoTripRepo(db)
	invoiceRepo := invoiceRepoPkg.NewMongoInvoiceRepo(db)
	settlementRepo := settlementRepoPkg.NewMongoSettlementRepo(db)
	blackoutRepo := blackoutRepoPkg.NewMongoBlackoutRepo(db)
	routeRepo := routeRepoPkg.NewMongoRouteRepo(db)

	// services.
	notifier := notification.NewAsynqNotificationService(asynqClient, logger)

	walletService := &wallet.DefaultWalletService{
		Repo:   walletRepo,
		Logger: logger,
	}

	subscriptionService := &subscription.DefaultSubscriptionService{
		Repo:     subscriptionRepo,
		Routes:   routeRepo,
		Wallet:   walletService,
		Notifier: notifier,
		Cache:    cacheClient,
		Logger:   logger,
	}

	settlementService := &settlement.DefaultSettlementService{
		Repo:   settlementRepo,
		Subs:   subscriptionRepo,
		Logger: logger,
	}

	var shortfall tripgen.ShortfallPolicy = tripgen.NoCreditShortfall{}
	if config.AppConfig.OnlineShortfallPolicy == "credit" {
		shortfall = tripgen.CreditBackShortfall{Wallet: walletService, Logger: logger}
	}

	var primary tripgen.GroupingStrategy
	if config.AppConfig.GeminiAPIKey != "" {
		gs, err := tripgen.NewGeminiStrategy(context.Background(), config.AppConfig.GeminiAPIKey)
		if err != nil {
			logger.Sugar().Warnf("main: optimizing strategy unavailable, using fallback only: %v", err)
		} else {
			primary = gs
		}
	}

	schedulerEngine := &tripgen.DefaultSchedulerEngine{
		Subs:             subscriptionRepo,
		Trips:            tripRepo,
		Routes:           routeRepo,
		Blackouts:        blackoutRepo,
		Settlement:       settlementService,
		Shortfall:        shortfall,
		Primary:          primary,
		Fallback:         tripgen.DeterministicStrategy{},
		Cache:            cacheClient,
		Logger:           logger,
		MinPassengers:    config.AppConfig.MinTripPassengers,
		OptimizerTimeout: time.Duration(config.AppConfig.OptimizerTimeoutMs) * time.Millisecond,
	}

	var failurePolicy billing.FailurePolicy = billing.GracePeriodPolicy{
		Days:   config.AppConfig.InvoiceGraceDays,
		Logger: logger,
	}
	if config.AppConfig.InvoiceFailurePolicy == "suspend" {
		failurePolicy = billing.ImmediateSuspendPolicy{Subs: subscriptionRepo, Logger: logger}
	}

	billingService := &billing.DefaultBillingService{
		Invoices: invoiceRepo,
		Subs:     subscriptionRepo,
		Wallet:   walletService,
		Notifier: notifier,
		Failure:  failurePolicy,
		Logger:   logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Wallet:       handlers.NewWalletHandler(walletService),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Trip:         handlers.NewTripHandler(schedulerEngine, tripRepo),
		Settlement:   handlers.NewSettlementHandler(settlementService),
		Billing:      handlers.NewBillingHandler(billingService),
		Blackout:     handlers.NewBlackoutHandler(blackoutRepo),
		Route:        handlers.NewRouteHandler(routeRepo),
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Background jobs.
	cron.InitNotificationWorker()
	scheduler, err := cron.InitScheduler(schedulerEngine, subscriptionService, billingService)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to start scheduler: %v", err)
	}

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

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
