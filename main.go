// File: tidymatch/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tidymatch/config"
	"tidymatch/cron"
	"tidymatch/database"
	auditRepoPkg "tidymatch/database/repository/audit"
	criterionRepoPkg "tidymatch/database/repository/criterion"
	managerRepoPkg "tidymatch/database/repository/manager"
	matchingRepoPkg "tidymatch/database/repository/matching"
	reservationRepoPkg "tidymatch/database/repository/reservation"
	"tidymatch/handlers"
	"tidymatch/middleware"
	"tidymatch/routes"
	"tidymatch/services/matching"
	"tidymatch/services/notification"
	"tidymatch/services/reservation"
	"tidymatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	resRepo := reservationRepoPkg.NewMongoReservationRepo()
	mgrRepo := managerRepoPkg.NewMongoManagerRepo()
	matchRepo := matchingRepoPkg.NewMongoMatchingRepo()
	critRepo := criterionRepoPkg.NewMongoCriterionRepo()
	auditRepo := auditRepoPkg.NewMongoAuditRepo()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := critRepo.Seed(seedCtx, matching.DefaultCriteria()); err != nil {
		logger.Sugar().Fatalf("main: failed to seed ranking criteria: %v", err)
	}
	cancelSeed()

	// services.
	registry := &matching.DefaultCriterionRegistry{Repo: critRepo}

	publisher := &notification.AsynqPublisher{Client: asynqClient}

	scheduler := &matching.AsynqRetryScheduler{
		Client:    asynqClient,
		BaseDelay: time.Duration(config.AppConfig.MatchRetryDelaySec) * time.Second,
	}
	retryController := &matching.DefaultRetryController{
		MatchingRepo:    matchRepo,
		ReservationRepo: resRepo,
		Scheduler:       scheduler,
		MaxAutoAttempts: config.AppConfig.MatchMaxAutoAttempts,
	}

	matchingService := &matching.DefaultMatchingService{
		ReservationRepo: resRepo,
		ManagerRepo:     mgrRepo,
		MatchingRepo:    matchRepo,
		Registry:        registry,
		Notifier:        publisher,
		Retry:           retryController,
		CacheClient:     utils.GetCacheClient(),
		Cfg: matching.Config{
			Fanout:          config.AppConfig.MatchFanout,
			SearchRadiusKm:  config.AppConfig.MatchSearchRadiusKm,
			RankCacheTTLSec: config.AppConfig.MatchRankCacheTTLSec,
		},
	}

	reservationService := &reservation.DefaultReservationService{
		Repo: resRepo,
	}

	// Background worker: event fan-out and scheduled re-match attempts.
	cron.InitMatchingWorker(matchingService, auditRepo, utils.GetCacheClient())
	utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient()}, database.MongoClient)

	reservationHandler := handlers.NewReservationHandler(reservationService, matchingService, logger)
	matchingHandler := handlers.NewMatchingHandler(matchingService, auditRepo, logger)
	criteriaHandler := handlers.NewCriteriaHandler(registry)
	managerHandler := handlers.NewManagerHandler(mgrRepo, logger)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// Reservation endpoints.
		CreateReservationHandler: reservationHandler.CreateReservationHandler,
		GetReservationHandler:    reservationHandler.GetReservationHandler,
		CancelReservationHandler: reservationHandler.CancelReservationHandler,

		// Matching endpoints.
		CreateRequestHandler:       matchingHandler.CreateRequestHandler,
		CreateManualRequestHandler: matchingHandler.CreateManualRequestHandler,
		GetRequestHandler:          matchingHandler.GetRequestHandler,
		ListRequestsHandler:        matchingHandler.ListRequestsHandler,
		RecordResponseHandler:      matchingHandler.RecordResponseHandler,
		ResolveDecisionHandler:     matchingHandler.ResolveDecisionHandler,
		ListRequestEventsHandler:   matchingHandler.ListRequestEventsHandler,
		ListEscalationsHandler:     reservationHandler.ListEscalationsHandler,

		// Criteria endpoints.
		ListCriteriaHandler:       criteriaHandler.ListCriteriaHandler,
		SetCriterionWeightHandler: criteriaHandler.SetCriterionWeightHandler,
		SetCriterionActiveHandler: criteriaHandler.SetCriterionActiveHandler,

		// Manager endpoints.
		RegisterManagerHandler: managerHandler.RegisterManagerHandler,
		GetManagerHandler:      managerHandler.GetManagerHandler,
		ListManagersHandler:    managerHandler.ListManagersHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

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
