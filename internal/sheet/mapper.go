package sheet

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/completion"
)

// WriteResult describes a committed batch write.
type WriteResult struct {
	// StartRow and EndRow are the inclusive row range written.
	StartRow int
	EndRow   int
	// BackupPath identifies the pre-write backup artifact.
	BackupPath string
}

// Mapper appends completed records to the declaration document. Writes are
// atomic from the caller's perspective: validation, the watermark re-check
// and the backup all happen before the first cell is touched.
type Mapper struct {
	layout  Layout
	backups *BackupManager
	logger  *zap.Logger
}

// NewMapper creates a template mapper for the given layout.
func NewMapper(layout Layout, backups *BackupManager, logger *zap.Logger) *Mapper {
	return &Mapper{
		layout:  layout,
		backups: backups,
		logger:  logger,
	}
}

// Layout returns the mapper's immutable template layout.
func (m *Mapper) Layout() Layout {
	return m.layout
}

// NextFreeRow scans the data region for the first row without column-A
// content. Callers read it at batch start; Append re-checks it before
// writing.
func (m *Mapper) NextFreeRow(docPath string) (int, error) {
	f, err := m.open(docPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sheetName, err := m.resolveSheet(f)
	if err != nil {
		return 0, err
	}
	return m.scanNextFreeRow(f, sheetName)
}

// Append writes the records into consecutive rows starting at
// expectedNextRow. The whole batch is written or nothing is: a moved
// watermark or a failed backup aborts before any mutation.
func (m *Mapper) Append(docPath string, records []*completion.Record, expectedNextRow int) (*WriteResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to write")
	}

	f, err := m.open(docPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName, err := m.resolveSheet(f)
	if err != nil {
		return nil, err
	}

	nextRow, err := m.scanNextFreeRow(f, sheetName)
	if err != nil {
		return nil, err
	}
	if nextRow != expectedNextRow {
		return nil, fmt.Errorf("%w: expected %d, found %d", ErrRowConflict, expectedNextRow, nextRow)
	}

	backupPath, err := m.backups.Backup(docPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}

	for i, rec := range records {
		m.writeRecord(f, sheetName, expectedNextRow+i, rec)
	}

	if err := f.Save(); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	result := &WriteResult{
		StartRow:   expectedNextRow,
		EndRow:     expectedNextRow + len(records) - 1,
		BackupPath: backupPath,
	}
	m.logger.Info("Batch written to declaration document",
		zap.String("document", docPath),
		zap.Int("records", len(records)),
		zap.Int("start_row", result.StartRow),
		zap.Int("end_row", result.EndRow))
	return result, nil
}

// writeRecord fills one data row. Static header rows are never touched: rows
// handed in always start at the layout's data start row.
func (m *Mapper) writeRecord(f *excelize.File, sheetName string, row int, rec *completion.Record) {
	cols := m.layout.Columns

	m.setInt(f, sheetName, cols.CaseNumber, row, rec.CaseNumber)
	m.setStr(f, sheetName, cols.PackageUnit, row, "")
	m.setStr(f, sheetName, cols.ChineseName, row, rec.ProductNameZH)
	m.setStr(f, sheetName, cols.EnglishName, row, rec.ProductNameEN)
	m.setStr(f, sheetName, cols.QuantitySpec, row, rec.QuantitySpec)

	if err := f.SetCellValue(sheetName, cell(cols.UnitPrice, row), rec.UnitPrice); err != nil {
		m.logWriteFailure(cols.UnitPrice, row, err)
	}

	// Always a formula, never a literal, so price edits propagate.
	formula := strings.TrimPrefix(rec.TotalPriceFormula, "=")
	if err := f.SetCellFormula(sheetName, cell(cols.TotalPrice, row), formula); err != nil {
		m.logWriteFailure(cols.TotalPrice, row, err)
	}

	m.setStr(f, sheetName, cols.Volume, row, "")
	m.setStr(f, sheetName, cols.GrossWeight, row, "")
	m.setStr(f, sheetName, cols.Courier, row, rec.Courier)
	// Tracking numbers are text so leading zeros survive.
	m.setStr(f, sheetName, cols.TrackingNumber, row, rec.TrackingNumber)
	m.setStr(f, sheetName, cols.ReceiptDate, row, rec.ReceiptDate)
}

func (m *Mapper) open(docPath string) (*excelize.File, error) {
	if _, err := os.Stat(docPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, docPath)
	}
	f, err := excelize.OpenFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return f, nil
}

// resolveSheet prefers the layout's sheet name and falls back to the first
// sheet when the workbook does not carry it.
func (m *Mapper) resolveSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("document has no sheets")
	}
	for _, s := range sheets {
		if s == m.layout.SheetName {
			return s, nil
		}
	}
	m.logger.Warn("Declaration sheet not found, using first sheet",
		zap.String("wanted", m.layout.SheetName),
		zap.String("using", sheets[0]))
	return sheets[0], nil
}

func (m *Mapper) scanNextFreeRow(f *excelize.File, sheetName string) (int, error) {
	for row := m.layout.DataStartRow; ; row++ {
		value, err := f.GetCellValue(sheetName, cell(m.layout.Columns.CaseNumber, row))
		if err != nil {
			return 0, fmt.Errorf("failed to scan row %d: %w", row, err)
		}
		if strings.TrimSpace(value) == "" {
			return row, nil
		}
	}
}

func (m *Mapper) setStr(f *excelize.File, sheetName, col string, row int, value string) {
	if err := f.SetCellStr(sheetName, cell(col, row), value); err != nil {
		m.logWriteFailure(col, row, err)
	}
}

func (m *Mapper) setInt(f *excelize.File, sheetName, col string, row, value int) {
	if err := f.SetCellInt(sheetName, cell(col, row), value); err != nil {
		m.logWriteFailure(col, row, err)
	}
}

func (m *Mapper) logWriteFailure(col string, row int, err error) {
	m.logger.Warn("Failed to set cell value",
		zap.String("cell", cell(col, row)),
		zap.Error(err))
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
