package sheet

import "errors"

// Domain errors for template mapping

var (
	// ErrBackupFailed aborts a batch write before any document mutation.
	ErrBackupFailed = errors.New("pre-write backup failed")

	// ErrRowConflict means the next-free-row watermark moved between the
	// batch's initial read and the write. The caller must retry the whole
	// batch against a fresh watermark.
	ErrRowConflict = errors.New("next free row changed since batch start")

	// ErrTemplateNotFound means the destination document does not exist.
	ErrTemplateNotFound = errors.New("destination document not found")
)
