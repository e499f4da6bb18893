package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/completion"
	"github.com/garyjia/shipment-entry/internal/extractor"
	"github.com/garyjia/shipment-entry/internal/history"
	"github.com/garyjia/shipment-entry/internal/sheet"
)

// Mode identifies which extraction path the processor runs.
const (
	ModeSemantic = "semantic"
	ModeRule     = "rule"
)

// LineResult is the outcome of one input line.
type LineResult struct {
	LineNumber int                `json:"line_number"`
	Input      string             `json:"input"`
	Record     *completion.Record `json:"record,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// BatchResult is the outcome of one processing run.
type BatchResult struct {
	BatchID    string       `json:"batch_id"`
	Mode       string       `json:"mode"`
	Results    []LineResult `json:"results"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	StartRow   int          `json:"start_row,omitempty"`
	EndRow     int          `json:"end_row,omitempty"`
	BackupPath string       `json:"backup_path,omitempty"`
}

// Processor runs the extract, complete, write pipeline over a batch of
// shipment lines. One processor guards one declaration document; the mutex
// serializes batches so the watermark read and the write stay consistent.
type Processor struct {
	extractor extractor.Extractor
	engine    *completion.Engine
	mapper    *sheet.Mapper
	history   *history.Store // may be nil
	docPath   string
	mode      string
	logger    *zap.Logger

	mu sync.Mutex
}

// NewProcessor wires the pipeline for one declaration document.
func NewProcessor(ex extractor.Extractor, engine *completion.Engine, mapper *sheet.Mapper,
	hist *history.Store, docPath, mode string, logger *zap.Logger) *Processor {
	return &Processor{
		extractor: ex,
		engine:    engine,
		mapper:    mapper,
		history:   hist,
		docPath:   docPath,
		mode:      mode,
		logger:    logger,
	}
}

// ProcessBatch processes one multi-line input. Lines fail independently
// during extraction and completion; the document write is all-or-nothing
// over the lines that survived.
func (p *Processor) ProcessBatch(ctx context.Context, text string) (*BatchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	lines := splitLines(text)
	result := &BatchResult{
		BatchID: uuid.New().String(),
		Mode:    p.mode,
	}
	if len(lines) == 0 {
		return result, nil
	}

	startRow, err := p.mapper.NextFreeRow(p.docPath)
	if err != nil {
		return nil, err
	}
	nextCase := p.mapper.Layout().CaseNumberForRow(startRow)

	var records []*completion.Record
	for i, line := range lines {
		lineResult := LineResult{LineNumber: i + 1, Input: line}

		fields, err := p.extractor.Extract(ctx, line)
		if err != nil {
			lineResult.Error = err.Error()
			result.Results = append(result.Results, lineResult)
			result.Failed++
			p.logger.Warn("Line failed extraction",
				zap.Int("line", i+1), zap.Error(err))
			continue
		}

		// Case numbers count only the lines that completed, so committed
		// rows stay contiguous.
		record, err := p.engine.Complete(fields, len(records), nextCase)
		if err != nil {
			lineResult.Error = err.Error()
			result.Results = append(result.Results, lineResult)
			result.Failed++
			p.logger.Warn("Line failed completion",
				zap.Int("line", i+1), zap.Error(err))
			continue
		}

		lineResult.Record = record
		result.Results = append(result.Results, lineResult)
		result.Succeeded++
		records = append(records, record)
	}

	if len(records) > 0 {
		write, err := p.mapper.Append(p.docPath, records, startRow)
		if err != nil {
			return nil, err
		}
		result.StartRow = write.StartRow
		result.EndRow = write.EndRow
		result.BackupPath = write.BackupPath
	}

	p.recordHistory(ctx, result, len(lines))

	p.logger.Info("Batch processed",
		zap.String("batch_id", result.BatchID),
		zap.String("mode", result.Mode),
		zap.Int("lines", len(lines)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

// recordHistory persists the batch outcome. History is advisory: a storage
// failure is logged, never surfaced to the caller.
func (p *Processor) recordHistory(ctx context.Context, result *BatchResult, totalLines int) {
	if p.history == nil {
		return
	}
	err := p.history.Record(ctx, &history.Batch{
		ID:         result.BatchID,
		CreatedAt:  time.Now().UTC(),
		Mode:       result.Mode,
		TotalLines: totalLines,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		StartRow:   result.StartRow,
		EndRow:     result.EndRow,
		BackupPath: result.BackupPath,
	})
	if err != nil {
		p.logger.Error("Failed to record batch history",
			zap.String("batch_id", result.BatchID), zap.Error(err))
	}
}

// splitLines breaks the input into trimmed, non-empty lines.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
