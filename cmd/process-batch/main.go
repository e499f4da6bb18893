// process-batch runs one batch of shipment lines from a text file through the
// pipeline and prints the per-line outcome. It shares the server's
// configuration and writes to the same declaration document.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/completion"
	"github.com/garyjia/shipment-entry/internal/config"
	"github.com/garyjia/shipment-entry/internal/extractor"
	"github.com/garyjia/shipment-entry/internal/service"
	"github.com/garyjia/shipment-entry/internal/sheet"
	"github.com/garyjia/shipment-entry/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	inputPath := flag.String("input", "", "path to shipment text file, one line per shipment")
	ruleOnly := flag.Bool("rule-only", false, "skip semantic extraction even when an API key is set")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: process-batch -input shipments.txt [-config configs/config.yaml]")
		os.Exit(2)
	}

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	text, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	processor := buildProcessor(cfg, *ruleOnly, logger)

	result, err := processor.ProcessBatch(context.Background(), string(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch failed: %v\n", err)
		os.Exit(1)
	}

	printResult(result)
	if result.Failed > 0 {
		os.Exit(1)
	}
}

func buildProcessor(cfg *config.Config, ruleOnly bool, logger *zap.Logger) *service.Processor {
	layout := sheet.DefaultLayout()
	if cfg.Template.SheetName != "" {
		layout.SheetName = cfg.Template.SheetName
	}
	if cfg.Template.DataStartRow > 0 {
		layout.DataStartRow = cfg.Template.DataStartRow
		layout.HeaderRows = cfg.Template.DataStartRow - 1
	}

	var primary extractor.Extractor
	mode := service.ModeRule
	if cfg.OpenAI.APIKey != "" && !ruleOnly {
		client := openai.NewClient(cfg.OpenAI.APIKey)
		primary = extractor.NewOracleExtractor(client, extractor.OracleConfig{
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     cfg.OpenAI.Timeout,
		}, logger)
		mode = service.ModeSemantic
	}

	fallback := extractor.NewFallbackExtractor(primary, extractor.NewRuleExtractor(logger), logger)
	engine := completion.NewEngine(layout.DataStartRow, layout.TotalPriceFormula, logger)
	mapper := sheet.NewMapper(layout, sheet.NewBackupManager(cfg.Output.BackupDir, logger), logger)

	// History is a server concern; the CLI writes the document only.
	return service.NewProcessor(fallback, engine, mapper, nil, cfg.Template.Path, mode, logger)
}

func printResult(result *service.BatchResult) {
	fmt.Printf("Batch %s (%s): %d succeeded, %d failed\n",
		result.BatchID, result.Mode, result.Succeeded, result.Failed)
	if result.Succeeded > 0 {
		fmt.Printf("Rows %d-%d written, backup at %s\n",
			result.StartRow, result.EndRow, result.BackupPath)
	}
	for _, line := range result.Results {
		if line.Error != "" {
			fmt.Printf("  line %d: FAILED %s (%s)\n", line.LineNumber, line.Input, line.Error)
			continue
		}
		rec := line.Record
		fmt.Printf("  line %d: case %d  %s / %s  %s  $%.2f  %s  %s  %s\n",
			line.LineNumber, rec.CaseNumber, rec.ProductNameZH, rec.ProductNameEN,
			rec.QuantitySpec, rec.UnitPrice, rec.Courier, rec.TrackingNumber, rec.ReceiptDate)
	}
}
