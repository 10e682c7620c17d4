package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ledgerapp "github.com/finledger/backend/internal/application/ledger"
	receivablesapp "github.com/finledger/backend/internal/application/receivables"
	returnsapp "github.com/finledger/backend/internal/application/returns"
	statementapp "github.com/finledger/backend/internal/application/statement"
	"github.com/finledger/backend/internal/infrastructure/cache"
	"github.com/finledger/backend/internal/infrastructure/config"
	"github.com/finledger/backend/internal/infrastructure/logger"
	"github.com/finledger/backend/internal/infrastructure/persistence"
	"github.com/finledger/backend/internal/interfaces/http/handler"
	"github.com/finledger/backend/internal/interfaces/http/middleware"
	"github.com/finledger/backend/internal/interfaces/http/router"
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

	log.Info("Starting ledger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	paymentRepo := persistence.NewGormPaymentRecordRepository(db.DB)
	refundRepo := persistence.NewGormRefundRecordRepository(db.DB)
	returnRepo := persistence.NewGormReturnOrderRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Transaction scopes
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB, cfg.Ledger.TransactionTimeout)
	returnsScope := persistence.NewGormReturnsTransactionScope(db.DB, cfg.Ledger.TransactionTimeout)

	// Receivables cache: redis when enabled, otherwise writes skip
	// invalidation and reads always recompute
	var (
		ledgerInvalidator  ledgerapp.ReceivablesInvalidator
		returnsInvalidator returnsapp.ReceivablesInvalidator
		snapshotCache      receivablesapp.SnapshotCache
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisReceivablesCache(&cfg.Redis, cfg.Ledger.ReceivablesCacheTTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		ledgerInvalidator = redisCache
		returnsInvalidator = redisCache
		snapshotCache = redisCache
		log.Info("Receivables cache enabled", zap.Duration("ttl", cfg.Ledger.ReceivablesCacheTTL))
	} else {
		noop := cache.NewNoopReceivablesCache()
		ledgerInvalidator = noop
		returnsInvalidator = noop
	}

	// Application services
	paymentService := ledgerapp.NewPaymentService(ledgerScope, paymentRepo, ledgerInvalidator, log)
	refundService := ledgerapp.NewRefundService(ledgerScope, refundRepo, ledgerInvalidator, log)
	returnService := returnsapp.NewReturnOrderService(returnsScope, returnRepo, returnsInvalidator, log)
	receivablesService := receivablesapp.NewService(orderRepo, paymentRepo, log)
	if snapshotCache != nil {
		receivablesService = receivablesService.WithCache(snapshotCache)
	}
	statementService := statementapp.NewService(orderRepo, paymentRepo, refundRepo, returnRepo, receivablesService, log)

	// HTTP handlers
	paymentHandler := handler.NewPaymentHandler(paymentService)
	refundHandler := handler.NewRefundHandler(refundService)
	returnHandler := handler.NewReturnOrderHandler(returnService)
	receivablesHandler := handler.NewReceivablesHandler(receivablesService)
	statementHandler := handler.NewStatementHandler(statementService)
	systemHandler := handler.NewSystemHandler(db, cfg.App.Name)

	// Gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodySizeLimit(cfg.HTTP.MaxBodySize))

	// Routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")
	ledgerRoutes.POST("/payments", paymentHandler.Record)
	ledgerRoutes.GET("/payments", paymentHandler.List)
	ledgerRoutes.GET("/payments/:id", paymentHandler.GetByID)
	ledgerRoutes.POST("/payments/:id/confirm", paymentHandler.Confirm)
	ledgerRoutes.POST("/payments/:id/void", paymentHandler.Void)
	ledgerRoutes.GET("/orders/:id/payments", paymentHandler.GetByOrder)
	ledgerRoutes.POST("/refunds", refundHandler.Create)
	ledgerRoutes.GET("/refunds", refundHandler.List)
	ledgerRoutes.GET("/refunds/:id", refundHandler.GetByID)
	ledgerRoutes.POST("/refunds/:id/process", refundHandler.StartProcessing)
	ledgerRoutes.POST("/refunds/:id/complete", refundHandler.Complete)
	ledgerRoutes.POST("/refunds/:id/reject", refundHandler.Reject)

	returnRoutes := router.NewDomainGroup("returns", "/returns")
	returnRoutes.POST("", returnHandler.Create)
	returnRoutes.GET("", returnHandler.List)
	returnRoutes.GET("/:id", returnHandler.GetByID)
	returnRoutes.DELETE("/:id", returnHandler.Delete)
	returnRoutes.POST("/:id/items", returnHandler.AddItem)
	returnRoutes.PUT("/:id/items/:item_id", returnHandler.UpdateItem)
	returnRoutes.DELETE("/:id/items/:item_id", returnHandler.RemoveItem)
	returnRoutes.POST("/:id/submit", returnHandler.Submit)
	returnRoutes.POST("/:id/approve", returnHandler.Approve)
	returnRoutes.POST("/:id/process", returnHandler.StartProcessing)
	returnRoutes.POST("/:id/complete", returnHandler.Complete)
	returnRoutes.POST("/:id/cancel", returnHandler.Cancel)

	receivablesRoutes := router.NewDomainGroup("receivables", "/receivables")
	receivablesRoutes.GET("", receivablesHandler.List)
	receivablesRoutes.GET("/summary", receivablesHandler.Summary)
	receivablesRoutes.GET("/aging", receivablesHandler.Aging)

	statementRoutes := router.NewDomainGroup("statements", "/statements")
	statementRoutes.GET("/:party_id", statementHandler.Generate)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/health", systemHandler.Health)

	r.Register(ledgerRoutes).
		Register(returnRoutes).
		Register(receivablesRoutes).
		Register(statementRoutes).
		Register(systemRoutes)

	r.Setup()

	// HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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
