package models

import "time"

// Sync journal operations.
const (
	OpUpload   = "upload"
	OpDownload = "download"
	OpExport   = "export"
	OpImport   = "import"
)

// Sync journal statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// HistoryEntry is one row of the sync journal.
type HistoryEntry struct {
	ID         string
	Op         string
	Status     string
	FileID     string
	Name       string
	Checksum   string
	Size       int64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
