package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ostendo-io/wawagardenbar-app-sub002/config"
	"github.com/ostendo-io/wawagardenbar-app-sub002/controllers"
	"github.com/ostendo-io/wawagardenbar-app-sub002/database"
	"github.com/ostendo-io/wawagardenbar-app-sub002/kafka"
	"github.com/ostendo-io/wawagardenbar-app-sub002/middleware"
	"github.com/ostendo-io/wawagardenbar-app-sub002/realtime"
	"github.com/ostendo-io/wawagardenbar-app-sub002/repository"
	"github.com/ostendo-io/wawagardenbar-app-sub002/routes"
	"github.com/ostendo-io/wawagardenbar-app-sub002/services"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	mongo, err := database.Connect(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	redisClient := realtime.NewRedisClient(cfg.RedisURL)
	broadcaster := realtime.NewRedisBroadcaster(redisClient, cfg.RealtimeChannel)

	producer := kafka.NewOrderEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer producer.Close()

	orderRepo := repository.NewMongoOrderRepository(mongo)
	tabRepo := repository.NewMongoTabRepository(mongo)
	inventoryRepo := repository.NewMongoInventoryRepository(mongo)
	rewardRepo := repository.NewMongoRewardRepository(mongo)
	auditRepo := repository.NewMongoAuditRepository(mongo)

	auditSvc := services.NewAuditService(auditRepo, logger)
	catalog := services.NewHTTPCatalogResolver(cfg.CatalogServiceURL)
	inventorySvc := services.NewInventoryService(orderRepo, inventoryRepo, catalog, auditSvc, logger)
	statusSvc := services.NewStatusService(orderRepo, inventorySvc, auditSvc, broadcaster, producer, logger)
	rewardSvc := services.NewRewardService(rewardRepo, auditSvc, logger, cfg.PointsToNairaRate)
	paymentSvc := services.NewPaymentService(orderRepo, tabRepo, statusSvc, inventorySvc, rewardSvc, auditSvc, broadcaster, producer, logger)

	webhookCtrl := &controllers.WebhookController{
		Payments:       paymentSvc,
		MonnifySecret:  cfg.MonnifySecret,
		PaystackSecret: cfg.PaystackSecret,
		Logger:         logger,
	}
	orderCtrl := &controllers.OrderController{Status: statusSvc, Logger: logger}
	inventoryCtrl := &controllers.InventoryController{Inventory: inventorySvc, Logger: logger}
	rewardCtrl := &controllers.RewardController{Rewards: rewardSvc, Logger: logger}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger), gin.Recovery())
	routes.Register(router, cfg, webhookCtrl, orderCtrl, inventoryCtrl, rewardCtrl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Reconciliation core listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error", zap.Error(err))
	}
	logger.Info("Server shutdown complete")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
