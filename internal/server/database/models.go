package database

import "time"

// Analysis is a stored transcript together with the answers computed for it.
type Analysis struct {
	ID            string
	Filename      string
	LogSize       int64
	LogHash       string
	CommandCount  int
	NodeCount     int
	TotalSize     int64
	SmallDirsSum  int64
	DirToFreeSize int64
	Truncated     bool
	UploadedAt    time.Time
	ExpiresAt     time.Time
	ViewCount     int
	PasswordHash  *string // nil when no password set
	DeletionToken string
	CreatedAt     time.Time
}

// Stats holds aggregate server statistics.
type Stats struct {
	TotalAnalyses  int64
	ActiveAnalyses int64
	TotalViews     int64
	StorageUsed    int64
}
