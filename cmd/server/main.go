package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/paytrack/backend/internal/application/billing"
	"github.com/paytrack/backend/internal/infrastructure/auth"
	"github.com/paytrack/backend/internal/infrastructure/cache"
	"github.com/paytrack/backend/internal/infrastructure/config"
	"github.com/paytrack/backend/internal/infrastructure/logger"
	"github.com/paytrack/backend/internal/infrastructure/persistence"
	"github.com/paytrack/backend/internal/infrastructure/storage"
	"github.com/paytrack/backend/internal/infrastructure/telemetry"
	"github.com/paytrack/backend/internal/interfaces/http/handler"
	"github.com/paytrack/backend/internal/interfaces/http/middleware"
	"github.com/paytrack/backend/internal/interfaces/http/router"
)

// @title PayTrack Backend API
// @version 1.0
// @description Invoice and payment tracking service with supplier management and dashboard metrics.

// @contact.name PayTrack Team

// @license.name MIT

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting paytrack server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Warn("tracer provider shutdown failed", zap.Error(err))
		}
	}()

	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}()

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: 200 * time.Millisecond,
			DBSystem:        "postgresql",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	methodRepo := persistence.NewGormPaymentMethodRepository(db.DB)

	// Object storage for invoice attachments and payment receipts
	var objectStorage appbilling.ObjectStorageService
	if cfg.Storage.InMemory {
		log.Warn("using in-memory object storage, uploaded files will not survive restarts")
		objectStorage = storage.NewInMemoryObjectStorage()
	} else {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
	}

	// Dashboard cache
	var dashboardCache appbilling.DashboardCache
	switch cfg.Cache.Backend {
	case "redis":
		redisCache, err := cache.NewRedisDashboardCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		dashboardCache = redisCache
	default:
		dashboardCache = cache.NewInMemoryDashboardCache()
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	supplierService := appbilling.NewSupplierService(supplierRepo)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, supplierRepo, paymentRepo, objectStorage, dashboardCache, log)
	paymentService := appbilling.NewPaymentService(paymentRepo, invoiceRepo, methodRepo, objectStorage, dashboardCache, log)
	methodService := appbilling.NewPaymentMethodService(methodRepo, paymentRepo)
	dashboardService := appbilling.NewDashboardService(invoiceRepo, paymentRepo, dashboardCache)

	// Handlers
	supplierHandler := handler.NewSupplierHandler(supplierService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	methodHandler := handler.NewPaymentMethodHandler(methodService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	systemHandler := handler.NewSystemHandler()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
	}

	// Liveness endpoint, outside the authenticated API surface
	engine.GET("/health", healthHandler(db, log))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Tenant context rides on the JWT claims, with a header fallback for
	// local development.
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Required = false
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.GET("/dashboard", dashboardHandler.Get)
	billingRoutes.POST("/invoices", invoiceHandler.Create)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	billingRoutes.PUT("/invoices/:id", invoiceHandler.Update)
	billingRoutes.DELETE("/invoices/:id", invoiceHandler.Delete)
	billingRoutes.GET("/invoices/:id/attachment", invoiceHandler.GetAttachmentURL)
	billingRoutes.PUT("/invoices/:id/attachment", invoiceHandler.ReplaceAttachment)
	billingRoutes.POST("/invoices/:id/payments", paymentHandler.Create)
	billingRoutes.GET("/invoices/:id/payments", paymentHandler.ListByInvoice)
	billingRoutes.PUT("/payments/:id", paymentHandler.Update)
	billingRoutes.DELETE("/payments/:id", paymentHandler.Delete)
	billingRoutes.GET("/payments/:id/receipt", paymentHandler.GetReceiptURL)
	billingRoutes.GET("/payment-methods", methodHandler.List)
	billingRoutes.POST("/payment-methods", methodHandler.Create)
	billingRoutes.PUT("/payment-methods/:id", methodHandler.Update)
	billingRoutes.DELETE("/payment-methods/:id", methodHandler.Delete)

	partnerRoutes := router.NewDomainGroup("partner", "/partner")
	partnerRoutes.POST("/suppliers", supplierHandler.Create)
	partnerRoutes.GET("/suppliers", supplierHandler.List)
	partnerRoutes.GET("/suppliers/:id", supplierHandler.GetByID)
	partnerRoutes.PUT("/suppliers/:id", supplierHandler.Update)
	partnerRoutes.DELETE("/suppliers/:id", supplierHandler.Delete)
	partnerRoutes.POST("/suppliers/:id/activate", supplierHandler.Activate)
	partnerRoutes.POST("/suppliers/:id/deactivate", supplierHandler.Deactivate)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/health", systemHandler.Health)
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(billingRoutes).
		Register(partnerRoutes).
		Register(systemRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

// healthHandler reports liveness including database connectivity.
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
