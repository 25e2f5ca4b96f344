package core

// DirSize is a directory name paired with its aggregate size.
type DirSize struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
}

// FilterDirsBySize returns every directory, root included, whose aggregate
// size satisfies keep. Results are in post-order: a directory comes after
// all of its subdirectories.
func (ft *Filetree) FilterDirsBySize(keep func(size uint64) bool) []DirSize {
	var dirs []DirSize
	ft.aggregate(ft.Root, keep, &dirs)
	return dirs
}

// TotalSize returns the sum of all file sizes in the tree.
func (ft *Filetree) TotalSize() uint64 {
	return ft.aggregate(ft.Root, func(uint64) bool { return false }, nil)
}

func (ft *Filetree) aggregate(dir NodeID, keep func(uint64) bool, dirs *[]DirSize) uint64 {
	var size uint64
	for _, child := range ft.nodes[dir].children {
		switch e := ft.nodes[child].entry.(type) {
		case *File:
			size += e.Size()
		case *Dir:
			size += ft.aggregate(child, keep, dirs)
		}
	}
	if keep(size) {
		*dirs = append(*dirs, DirSize{Name: ft.nodes[dir].entry.Name(), Size: size})
	}
	return size
}
