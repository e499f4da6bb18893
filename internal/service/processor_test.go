package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/completion"
	"github.com/garyjia/shipment-entry/internal/extractor"
	"github.com/garyjia/shipment-entry/internal/history"
	"github.com/garyjia/shipment-entry/internal/sheet"
	"github.com/garyjia/shipment-entry/pkg/database"
)

func newTemplateDoc(t *testing.T, dir string) string {
	t.Helper()

	layout := sheet.DefaultLayout()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", layout.SheetName))
	require.NoError(t, f.SetCellStr(layout.SheetName, "A1", "环亚客户自行申报货物表"))
	require.NoError(t, f.SetCellStr(layout.SheetName, "A8", "货物件数"))

	path := filepath.Join(dir, "declaration.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newTestProcessor(t *testing.T, withHistory bool) (*Processor, string) {
	t.Helper()

	dir := t.TempDir()
	doc := newTemplateDoc(t, dir)
	layout := sheet.DefaultLayout()
	logger := zap.NewNop()

	engine := completion.NewEngine(layout.DataStartRow, layout.TotalPriceFormula, logger).
		WithClock(func() time.Time {
			return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
		})
	mapper := sheet.NewMapper(layout, sheet.NewBackupManager(filepath.Join(dir, "backups"), logger), logger)
	ex := extractor.NewFallbackExtractor(nil, extractor.NewRuleExtractor(logger), logger)

	var hist *history.Store
	if withHistory {
		db, err := database.New(database.Config{
			Path:         filepath.Join(dir, "history.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		}, logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		hist, err = history.NewStore(db, logger)
		require.NoError(t, err)
	}

	return NewProcessor(ex, engine, mapper, hist, doc, ModeRule, logger), doc
}

func TestProcessor_SingleLineBatch(t *testing.T) {
	p, doc := newTestProcessor(t, true)

	result, err := p.ProcessBatch(context.Background(),
		"地板1托30$，快递中通，202242834846，入仓日期2025年7月5号")
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, ModeRule, result.Mode)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 9, result.StartRow)
	assert.Equal(t, 9, result.EndRow)
	assert.FileExists(t, result.BackupPath)

	require.Len(t, result.Results, 1)
	rec := result.Results[0].Record
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.CaseNumber)
	assert.Equal(t, "地板", rec.ProductNameZH)
	assert.Equal(t, "Flooring", rec.ProductNameEN)
	assert.Equal(t, "1托", rec.QuantitySpec)
	assert.Equal(t, 30.0, rec.UnitPrice)
	assert.Equal(t, "=F9", rec.TotalPriceFormula)
	assert.Equal(t, "中通快递", rec.Courier)
	assert.Equal(t, "202242834846", rec.TrackingNumber)
	assert.Equal(t, "07/05", rec.ReceiptDate)

	f, err := excelize.OpenFile(doc)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetCellValue(sheet.DefaultLayout().SheetName, "C9")
	require.NoError(t, err)
	assert.Equal(t, "地板", got)
}

func TestProcessor_FailedLinesKeepRowsContiguous(t *testing.T) {
	p, _ := newTestProcessor(t, false)

	result, err := p.ProcessBatch(context.Background(),
		"地板1托30$，快递中通，202242834846\n？\n厨具2箱15元，顺丰")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)

	assert.NotEmpty(t, result.Results[1].Error)
	assert.Nil(t, result.Results[1].Record)

	// The failed middle line does not burn a case number or a row.
	assert.Equal(t, 1, result.Results[0].Record.CaseNumber)
	assert.Equal(t, 2, result.Results[2].Record.CaseNumber)
	assert.Equal(t, "=F10", result.Results[2].Record.TotalPriceFormula)
	assert.Equal(t, 9, result.StartRow)
	assert.Equal(t, 10, result.EndRow)
}

func TestProcessor_SequentialBatchesContinueNumbering(t *testing.T) {
	p, _ := newTestProcessor(t, false)
	ctx := context.Background()

	_, err := p.ProcessBatch(ctx, "地板1托30$，快递中通，202242834846")
	require.NoError(t, err)

	result, err := p.ProcessBatch(ctx, "厨具2箱15元，顺丰")
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, 2, result.Results[0].Record.CaseNumber)
	assert.Equal(t, 10, result.StartRow)
}

func TestProcessor_EmptyInput(t *testing.T) {
	p, _ := newTestProcessor(t, false)

	result, err := p.ProcessBatch(context.Background(), "  \n\n  ")
	require.NoError(t, err)

	assert.Empty(t, result.Results)
	assert.Zero(t, result.StartRow)
	assert.Empty(t, result.BackupPath)
}

func TestProcessor_AllLinesFailWritesNothing(t *testing.T) {
	p, doc := newTestProcessor(t, false)

	result, err := p.ProcessBatch(context.Background(), "？")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, result.BackupPath)

	layout := sheet.DefaultLayout()
	mapper := sheet.NewMapper(layout, sheet.NewBackupManager(t.TempDir(), zap.NewNop()), zap.NewNop())
	row, err := mapper.NextFreeRow(doc)
	require.NoError(t, err)
	assert.Equal(t, layout.DataStartRow, row)
}
