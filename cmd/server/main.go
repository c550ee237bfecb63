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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apprevenue "github.com/revreport/backend/internal/application/revenue"
	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/revreport/backend/internal/infrastructure/cache"
	"github.com/revreport/backend/internal/infrastructure/config"
	"github.com/revreport/backend/internal/infrastructure/crm"
	applogger "github.com/revreport/backend/internal/infrastructure/logger"
	"github.com/revreport/backend/internal/infrastructure/persistence"
	"github.com/revreport/backend/internal/interfaces/http/handler"
	"github.com/revreport/backend/internal/interfaces/http/middleware"
	"github.com/revreport/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database with the zap-backed gorm logger
	gormLogger := applogger.NewGormLogger(zapLogger, applogger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Repositories
	bankRepo := persistence.NewGormBankPaymentRepository(db.DB)
	gatewayRepo := persistence.NewGormGatewayRepository(db.DB)
	proformaRepo := persistence.NewGormProformaRepository(db.DB)
	categoryRepo := persistence.NewGormIncomeCategoryRepository(db.DB, cfg.Report.RefundsCategory)

	// Catalog store, cached in Redis when Redis is reachable. A missing
	// cache only costs catalog queries per report, so fall through.
	var catalog revenue.CatalogStore = persistence.NewGormCatalogRepository(db.DB)
	catalogCache, err := cache.NewRedisCatalogCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, catalog, cfg.Report.CatalogCacheTTL, zapLogger)
	if err != nil {
		zapLogger.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
	} else {
		catalog = catalogCache
		zapLogger.Info("Catalog cache enabled",
			zap.String("redis", cfg.Redis.Host),
			zap.Duration("ttl", cfg.Report.CatalogCacheTTL),
		)
	}

	// CRM deal enrichment is optional. The interface stays nil when the
	// CRM is not configured so the pipeline skips enrichment entirely.
	var crmClient revenue.CRMClient
	if cfg.CRM.BaseURL != "" {
		crmClient = crm.NewClient(crm.Config{
			BaseURL: cfg.CRM.BaseURL,
			APIKey:  cfg.CRM.APIKey,
			DealURL: cfg.CRM.DealURL,
			Timeout: cfg.CRM.Timeout,
		})
		zapLogger.Info("CRM enrichment enabled", zap.String("base_url", cfg.CRM.BaseURL))
	}

	// Report pipeline
	loader := apprevenue.NewPaymentLoaderService(bankRepo, gatewayRepo, categoryRepo, cfg.Report.BaseCurrency, zapLogger)
	proformas := apprevenue.NewProformaResolver(proformaRepo, cfg.Report.BaseCurrency, zapLogger)
	engine := apprevenue.NewAggregationEngine(crmClient, decimal.NewFromFloat(cfg.Report.SettlementTolerance), zapLogger)
	reportService := apprevenue.NewReportService(loader, proformas, catalog, gatewayRepo, engine, zapLogger)
	exporter := apprevenue.NewCSVExporter(crmClient)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := ginEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			zapLogger.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}
	ginEngine.Use(
		middleware.RequestID(),
		applogger.GinMiddleware(zapLogger),
		applogger.Recovery(zapLogger),
	)

	// Routes
	r := router.NewRouter(ginEngine)
	r.Register(handler.NewReportHandler(reportService, exporter))
	r.Register(handler.NewHealthHandler(db))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited gracefully")
}
