package core

import "errors"

const (
	SmallDirLimit  = 100000
	DiskCapacity   = 70000000
	RequiredUnused = 30000000
)

var ErrNoCandidate = errors.New("no directory is large enough to free the required space")

// SumSmallDirs sums the sizes of all directories of at most SmallDirLimit.
// Nested directories are counted once for each ancestor that qualifies.
func SumSmallDirs(ft *Filetree) uint64 {
	var sum uint64
	for _, d := range ft.FilterDirsBySize(func(size uint64) bool { return size <= SmallDirLimit }) {
		sum += d.Size
	}
	return sum
}

// SpaceToFree returns how much must be deleted for RequiredUnused to be
// free on a disk of DiskCapacity holding used bytes.
func SpaceToFree(used uint64) uint64 {
	const allowed = DiskCapacity - RequiredUnused
	if used <= allowed {
		return 0
	}
	return used - allowed
}

// SmallestDirToFree returns the size of the smallest directory whose
// deletion frees enough space.
func SmallestDirToFree(ft *Filetree) (uint64, error) {
	// TotalSize walks the tree once more; sizes are not cached on the nodes.
	need := SpaceToFree(ft.TotalSize())
	dirs := ft.FilterDirsBySize(func(size uint64) bool { return size >= need })
	if len(dirs) == 0 {
		return 0, ErrNoCandidate
	}
	smallest := dirs[0].Size
	for _, d := range dirs[1:] {
		smallest = min(smallest, d.Size)
	}
	return smallest, nil
}
