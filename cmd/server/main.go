package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/completion"
	"github.com/garyjia/shipment-entry/internal/config"
	"github.com/garyjia/shipment-entry/internal/extractor"
	"github.com/garyjia/shipment-entry/internal/history"
	"github.com/garyjia/shipment-entry/internal/server"
	"github.com/garyjia/shipment-entry/internal/service"
	"github.com/garyjia/shipment-entry/internal/sheet"
	"github.com/garyjia/shipment-entry/pkg/database"
	"github.com/garyjia/shipment-entry/pkg/utils"
)

func main() {
	// Load .env if present, then configuration
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting shipment entry service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database and batch history
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	historyStore, err := history.NewStore(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize batch history", zap.Error(err))
	}

	processor := buildProcessor(cfg, historyStore, logger)

	handlers := server.NewHandlers(processor, historyStore, cfg.Template.Path, logger)
	srv := server.NewServer(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// buildProcessor wires the extraction, completion and sheet-writing pipeline.
// Without an OpenAI key the service runs on the rule extractor alone.
func buildProcessor(cfg *config.Config, historyStore *history.Store, logger *zap.Logger) *service.Processor {
	layout := sheet.DefaultLayout()
	if cfg.Template.SheetName != "" {
		layout.SheetName = cfg.Template.SheetName
	}
	if cfg.Template.DataStartRow > 0 {
		layout.DataStartRow = cfg.Template.DataStartRow
		layout.HeaderRows = cfg.Template.DataStartRow - 1
	}

	ruleExtractor := extractor.NewRuleExtractor(logger)

	var primary extractor.Extractor
	mode := service.ModeRule
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey)
		primary = extractor.NewOracleExtractor(client, extractor.OracleConfig{
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     cfg.OpenAI.Timeout,
		}, logger)
		mode = service.ModeSemantic
	} else {
		logger.Warn("OPENAI_API_KEY not set, running rule-only extraction")
	}

	fallback := extractor.NewFallbackExtractor(primary, ruleExtractor, logger)
	engine := completion.NewEngine(layout.DataStartRow, layout.TotalPriceFormula, logger)
	backups := sheet.NewBackupManager(cfg.Output.BackupDir, logger)
	mapper := sheet.NewMapper(layout, backups, logger)

	return service.NewProcessor(fallback, engine, mapper, historyStore,
		cfg.Template.Path, mode, logger)
}
