package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pos-service/auth"
	apperrors "pos-service/common/errors"
	"pos-service/common/logger"
	"pos-service/common/middleware"
	"pos-service/controllers"
	awspkg "pos-service/pkg/aws"
	"pos-service/repository"
	"pos-service/routes"
	"pos-service/services"
)

const serviceName = "pos-service"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	awsSettings := awspkg.SettingsFromEnv()
	cfg, err := LoadConfig(awsSettings)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	awsCfg, err := awspkg.LoadAWSConfig(context.Background(), awsSettings)
	if err != nil {
		panic("failed to load AWS config: " + err.Error())
	}

	var remoteLogs io.Writer
	if cfg.CloudWatchEnabled {
		if w, err := awspkg.NewCloudWatchLogsWriter(context.Background(), awsCfg, cfg.LogGroup, serviceName); err == nil {
			remoteLogs = w
		}
	}

	log, err := logger.New(cfg.Environment, remoteLogs)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if cfg.CloudWatchEnabled && remoteLogs == nil {
		zap.L().Warn("CloudWatch log shipping requested but unavailable")
	}

	// --- 1. Storage ---

	db, err := repository.ConnectPostgres(cfg.DatabaseURL, 10)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	rdb, err := repository.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}

	ddbClient := dynamodb.NewFromConfig(awsCfg)
	productStore := repository.NewDynamoProductStore(ddbClient, cfg.ProductsTable)
	productCache := repository.NewGormProductCache(db)
	productFeed := repository.NewRedisProductFeed(rdb, productStore, cfg.FeedRefresh)
	txnRepo := repository.NewGormTransactionRepository(db)
	cartRepo := repository.NewRedisCartRepository(rdb, cfg.CartTTL)
	stateStore := repository.NewRedisImportStateStore(rdb)

	var objects repository.ObjectStore
	if cfg.ImportBucket != "" {
		objects = awspkg.NewS3ObjectStore(awsCfg, cfg.ImportBucket)
	}

	var jobs repository.JobQueue
	if cfg.ImportQueueURL != "" {
		jobs = repository.NewSQSJobQueue(awspkg.NewSQSQueue(awsCfg, cfg.ImportQueueURL))
	} else {
		jobs = repository.NewRedisJobQueue(rdb, 5*time.Second)
	}

	metrics := awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)

	var events *services.EventPublisher
	if cfg.EventsTopicARN != "" {
		events = services.NewEventPublisher(awspkg.NewSNSClient(awsCfg), cfg.EventsTopicARN)
	}

	// --- 2. Services ---

	productService := services.NewProductService(productStore, productCache, productFeed)
	importService := services.NewImportService(productService, stateStore, objects, jobs, metrics)
	checkoutService := services.NewCheckoutService(cartRepo, txnRepo, productService, events, metrics)
	dashboardService := services.NewDashboardService(productService, txnRepo)
	authProvider := auth.NewProvider(cfg.JWTSecret, rdb, cfg.TrustGateway)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	var worker *services.ImportWorker
	if objects != nil {
		worker = services.NewImportWorker(jobs, objects, importService)
		worker.Start(workerCtx)
	}

	// --- 3. HTTP Server & Middleware ---

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Data-Source", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsMiddleware(metrics, serviceName))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	routes.RegisterRoutes(r, authProvider.Middleware(), routes.Controllers{
		Products: controllers.NewProductController(productService),
		Listing: controllers.NewListingStreamHandler(func(userID string) controllers.LiveListing {
			return services.NewListingEngine(userID, productFeed, productCache)
		}),
		BulkImport:   controllers.NewBulkImportHandler(importService),
		Sale:         controllers.NewSaleController(checkoutService),
		Transactions: controllers.NewTransactionController(txnRepo),
		Dashboard:    controllers.NewDashboardController(dashboardService),
		Auth:         controllers.NewAuthController(authProvider),
	})

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("POS Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down POS Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorker()
	if worker != nil {
		select {
		case <-worker.Done():
		case <-shutdownCtx.Done():
		}
	}
	if err := importService.Wait(shutdownCtx); err != nil {
		zap.L().Warn("Bulk import still running at shutdown", zap.Error(err))
	}
	checkoutService.Shutdown()

	if err := rdb.Close(); err != nil {
		zap.L().Error("Failed to close Redis", zap.Error(err))
	}
	if err := repository.ClosePostgres(db); err != nil {
		zap.L().Error("Failed to close PostgreSQL", zap.Error(err))
	}

	zap.L().Info("POS Service stopped gracefully")
}
