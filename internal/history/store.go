package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/pkg/database"
)

// Batch is one committed processing run.
type Batch struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Mode       string    `json:"mode"`
	TotalLines int       `json:"total_lines"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartRow   int       `json:"start_row"`
	EndRow     int       `json:"end_row"`
	BackupPath string    `json:"backup_path"`
}

// Store persists batch history in SQLite.
type Store struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStore creates the history store and ensures its schema exists.
func NewStore(db *database.DB, logger *zap.Logger) (*Store, error) {
	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS batches (
		id          TEXT PRIMARY KEY,
		created_at  DATETIME NOT NULL,
		mode        TEXT NOT NULL,
		total_lines INTEGER NOT NULL,
		succeeded   INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		start_row   INTEGER NOT NULL,
		end_row     INTEGER NOT NULL,
		backup_path TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores one finished batch.
func (s *Store) Record(ctx context.Context, b *Batch) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO batches (id, created_at, mode, total_lines, succeeded, failed, start_row, end_row, backup_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.CreatedAt, b.Mode, b.TotalLines, b.Succeeded, b.Failed,
			b.StartRow, b.EndRow, b.BackupPath)
		if err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		return nil
	})
}

// Recent returns the most recent batches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Batch, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, mode, total_lines, succeeded, failed, start_row, end_row, backup_path
		FROM batches
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		b := &Batch{}
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.Mode, &b.TotalLines,
			&b.Succeeded, &b.Failed, &b.StartRow, &b.EndRow, &b.BackupPath); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
