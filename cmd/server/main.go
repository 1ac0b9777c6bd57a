package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/shirin/backend/internal/application/ledger"
	productionapp "github.com/shirin/backend/internal/application/production"
	salesapp "github.com/shirin/backend/internal/application/sales"
	stocktakingapp "github.com/shirin/backend/internal/application/stocktaking"
	transferapp "github.com/shirin/backend/internal/application/transfer"
	"github.com/shirin/backend/internal/infrastructure/auth"
	"github.com/shirin/backend/internal/infrastructure/cache"
	catalogclient "github.com/shirin/backend/internal/infrastructure/catalog"
	"github.com/shirin/backend/internal/infrastructure/config"
	"github.com/shirin/backend/internal/infrastructure/event"
	"github.com/shirin/backend/internal/infrastructure/exchange"
	"github.com/shirin/backend/internal/infrastructure/logger"
	"github.com/shirin/backend/internal/infrastructure/persistence"
	"github.com/shirin/backend/internal/infrastructure/telemetry"
	"github.com/shirin/backend/internal/interfaces/http/handler"
	"github.com/shirin/backend/internal/interfaces/http/middleware"
	"github.com/shirin/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Shirin Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize distributed tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry.Enabled, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Redis backs the exchange rate cache
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// External collaborators: TJS/USD rate provider and the catalog
	// service that owns recipes
	rateProvider := exchange.NewCachedProvider(
		exchange.NewClient(&cfg.Exchange),
		redisClient,
		cfg.Exchange.CacheTTL,
	)
	recipeProvider := catalogclient.NewClient(&cfg.Catalog)

	// Initialize repositories
	balanceRepo := persistence.NewGormBalanceRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	lotRepo := persistence.NewGormLotRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	returnRepo := persistence.NewGormReturnRepository(db.DB)
	transferRepo := persistence.NewGormTransferRepository(db.DB)
	takingRepo := persistence.NewGormStockTakingRepository(db.DB)

	// All ledger writes share one transaction scope so every stock
	// movement and its balance update commit atomically
	scope := persistence.NewGormTransactionScope(db.DB)

	// Initialize application services
	stockService := ledgerapp.NewStockService(scope, balanceRepo, movementRepo, lotRepo)
	productionService := productionapp.NewProductionService(scope, batchRepo, recipeProvider, rateProvider)
	salesService := salesapp.NewSalesService(scope, saleRepo, returnRepo)
	transferService := transferapp.NewTransferService(scope, transferRepo)
	stockTakingService := stocktakingapp.NewStockTakingService(scope, takingRepo)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize event bus and subscribe cross-module handlers
	eventBus := event.NewInMemoryEventBus(log)

	auditHandler := event.NewAuditLogHandler(log)
	eventBus.Subscribe(auditHandler)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	stockService.SetEventPublisher(eventBus)
	productionService.SetEventPublisher(eventBus)
	salesService.SetEventPublisher(eventBus)
	transferService.SetEventPublisher(eventBus)
	stockTakingService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	stockHandler := handler.NewStockHandler(stockService)
	productionHandler := handler.NewProductionHandler(productionService)
	salesHandler := handler.NewSalesHandler(salesService)
	transferHandler := handler.NewTransferHandler(transferService)
	stockTakingHandler := handler.NewStockTakingHandler(stockTakingService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. Tracing - Record spans (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Stock ledger: receipts, write-offs, adjustments, balances,
	// movements, lots and valuation
	stockRoutes := router.NewDomainGroup("stock", "/stock")
	stockRoutes.POST("/receipts", stockHandler.ReceiveGoods)
	stockRoutes.POST("/write-offs", stockHandler.WriteOff)
	stockRoutes.POST("/adjustments", stockHandler.Adjust)
	stockRoutes.GET("/balances", stockHandler.ListBalances)
	stockRoutes.GET("/balances/low", stockHandler.ListLowStock)
	stockRoutes.PUT("/balances/min-quantity", stockHandler.SetMinQuantity)
	stockRoutes.GET("/balances/:item_id", stockHandler.GetBalance)
	stockRoutes.GET("/balances/:item_id/audit", stockHandler.AuditBalance)
	stockRoutes.GET("/movements", stockHandler.ListMovements)
	stockRoutes.GET("/lots", stockHandler.ListLots)
	stockRoutes.GET("/valuation", stockHandler.Valuation)

	// Production batches
	productionRoutes := router.NewDomainGroup("production", "/production")
	productionRoutes.POST("/batches", productionHandler.CreateBatch)
	productionRoutes.GET("/batches", productionHandler.ListBatches)
	productionRoutes.GET("/batches/:id", productionHandler.GetBatch)
	productionRoutes.POST("/batches/:id/start", productionHandler.StartBatch)
	productionRoutes.POST("/batches/:id/complete", productionHandler.CompleteBatch)
	productionRoutes.POST("/batches/:id/cancel", productionHandler.CancelBatch)

	// Sales, payments and returns
	salesRoutes := router.NewDomainGroup("sales", "/sales")
	salesRoutes.POST("", salesHandler.CreateSale)
	salesRoutes.GET("", salesHandler.ListSales)
	salesRoutes.GET("/returns/:id", salesHandler.GetReturn)
	salesRoutes.GET("/:id", salesHandler.GetSale)
	salesRoutes.POST("/:id/items", salesHandler.AddItem)
	salesRoutes.DELETE("/:id/items/:product_id", salesHandler.RemoveItem)
	salesRoutes.POST("/:id/confirm", salesHandler.Confirm)
	salesRoutes.POST("/:id/ship", salesHandler.Ship)
	salesRoutes.POST("/:id/cancel", salesHandler.Cancel)
	salesRoutes.POST("/:id/payments", salesHandler.AddPayment)
	salesRoutes.DELETE("/:id/payments/:payment_id", salesHandler.RemovePayment)
	salesRoutes.POST("/:id/returns", salesHandler.CreateReturn)
	salesRoutes.GET("/:id/returns", salesHandler.ListReturns)

	// Branch-to-branch transfers
	transferRoutes := router.NewDomainGroup("transfers", "/transfers")
	transferRoutes.POST("", transferHandler.CreateTransfer)
	transferRoutes.GET("", transferHandler.ListTransfers)
	transferRoutes.GET("/:id", transferHandler.GetTransfer)
	transferRoutes.POST("/:id/send", transferHandler.Send)
	transferRoutes.POST("/:id/receive", transferHandler.Receive)
	transferRoutes.POST("/:id/cancel", transferHandler.Cancel)

	// Stock takings
	stockTakingRoutes := router.NewDomainGroup("stock-takings", "/stock-takings")
	stockTakingRoutes.POST("", stockTakingHandler.CreateTaking)
	stockTakingRoutes.GET("", stockTakingHandler.ListTakings)
	stockTakingRoutes.GET("/:id", stockTakingHandler.GetTaking)
	stockTakingRoutes.POST("/:id/start", stockTakingHandler.StartTaking)
	stockTakingRoutes.POST("/:id/counts", stockTakingHandler.RecordCount)
	stockTakingRoutes.POST("/:id/complete", stockTakingHandler.CompleteTaking)
	stockTakingRoutes.POST("/:id/cancel", stockTakingHandler.CancelTaking)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(stockRoutes).
		Register(productionRoutes).
		Register(salesRoutes).
		Register(transferRoutes).
		Register(stockTakingRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
