package core

import (
	"fmt"
	"time"
)

// Report holds the answers computed for one transcript.
type Report struct {
	TotalSize     uint64    `json:"total_size"`
	SmallDirsSum  uint64    `json:"small_dirs_sum"`
	SpaceToFree   uint64    `json:"space_to_free"`
	DirToFreeSize uint64    `json:"dir_to_free_size"`
	Commands      int       `json:"commands"`
	Nodes         int       `json:"nodes"`
	Truncated     bool      `json:"truncated"`
	TruncatedAt   int       `json:"truncated_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Analyze computes both answers for ft. reader may be nil when the tree was
// not built from a CommandReader.
func Analyze(ft *Filetree, reader *CommandReader) (*Report, error) {
	total := ft.TotalSize()
	report := &Report{
		TotalSize:    total,
		SmallDirsSum: SumSmallDirs(ft),
		SpaceToFree:  SpaceToFree(total),
		Nodes:        ft.Len(),
		CreatedAt:    time.Now().UTC(),
	}
	if reader != nil {
		report.Commands = reader.Count()
	}
	if reader != nil && reader.err != nil {
		report.Truncated = true
		report.TruncatedAt = reader.err.Line
	}

	size, err := SmallestDirToFree(ft)
	if err != nil {
		return nil, fmt.Errorf("failed to pick directory to free: %w", err)
	}
	report.DirToFreeSize = size
	return report, nil
}
