package main

import (
	"context"
	"log"
	"net/http"

	"github.com/senyabanana/rfq-service/internal/compliance"
	"github.com/senyabanana/rfq-service/internal/db"
	"github.com/senyabanana/rfq-service/internal/handlers"
	"github.com/senyabanana/rfq-service/internal/logger"
	"github.com/senyabanana/rfq-service/internal/report"
	"github.com/senyabanana/rfq-service/internal/repository"
	"github.com/senyabanana/rfq-service/internal/router"
	"github.com/senyabanana/rfq-service/internal/router/config"
	"github.com/senyabanana/rfq-service/internal/services"
	"github.com/senyabanana/rfq-service/internal/token"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("cannot create logger:", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zapLogger)

	dbSource, err := db.ConnString(cfg)
	if err != nil {
		zapLogger.Fatal("invalid database configuration", zap.Error(err))
	}
	if err := db.RunMigrations(cfg.MigrationURL, dbSource); err != nil {
		zapLogger.Fatal("database migration failed", zap.Error(err))
	}
	zapLogger.Info("db migrated successfully")

	dbPool, err := db.InitDb(context.Background(), cfg)
	if err != nil {
		zapLogger.Fatal("error initializing database", zap.Error(err))
	}
	defer dbPool.Close()

	tokens, err := token.NewService(cfg.JWTSecret, nil)
	if err != nil {
		zapLogger.Fatal("cannot create token service", zap.Error(err))
	}

	rfqRepo := repository.NewPostgresRFQRepository(dbPool)
	gate := compliance.NewPostgresGate(dbPool, cfg.Documents())
	renderer := report.NewFileRenderer(cfg.ReportDir, cfg.ReportBaseURL)

	rfqService := services.NewRFQService(rfqRepo, tokens, gate, renderer, zapLogger, cfg.AccessLinkBase)

	rfqHandler := handlers.NewRFQHandler(rfqService, zapLogger, cfg.RequestTimeout)
	vendorHandler := handlers.NewVendorHandler(rfqService, zapLogger, cfg.RequestTimeout)

	routes := router.InitRoutes(rfqHandler, vendorHandler, cfg.ReportDir)

	zapLogger.Info("server is listening", zap.String("address", cfg.ServerAddress))
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
}
