package sheet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const backupTimestampFormat = "20060102_150405"

// BackupManager writes timestamped full copies of a document into a
// dedicated backup directory before every mutating batch.
type BackupManager struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

// NewBackupManager creates a backup manager rooted at dir.
func NewBackupManager(dir string, logger *zap.Logger) *BackupManager {
	return &BackupManager{
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
}

// Backup copies src into the backup directory under a timestamped name and
// returns the backup path. The copy is additive; src is never touched.
func (b *BackupManager) Backup(src string) (string, error) {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	base := filepath.Base(src)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	backupPath := filepath.Join(b.dir,
		fmt.Sprintf("%s_backup_%s%s", name, b.now().Format(backupTimestampFormat), ext))

	if err := copyFile(src, backupPath); err != nil {
		return "", err
	}

	b.logger.Info("Document backup created",
		zap.String("source", src),
		zap.String("backup", backupPath))
	return backupPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy document: %w", err)
	}
	return out.Sync()
}
