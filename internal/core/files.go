package core

import "fmt"

// Entry is one line of an ls listing: either a *File or a *Dir.
type Entry interface {
	Name() string
	String() string
}

type File struct {
	name string
	size uint64
}

type Dir struct {
	name string
}

func NewFile(name string, size uint64) *File {
	return &File{name: name, size: size}
}

func NewDir(name string) *Dir {
	return &Dir{name: name}
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Size() uint64 {
	return f.size
}

func (f *File) String() string {
	return fmt.Sprintf("%s (file, size=%d)", f.name, f.size)
}

func (d *Dir) Name() string {
	return d.name
}

func (d *Dir) String() string {
	return fmt.Sprintf("%s (dir)", d.name)
}
