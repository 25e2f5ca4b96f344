package core

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"nospace/internal/logging"

	"go.uber.org/zap"
)

// ErrAboveRoot reports a "cd .." issued while already at the root.
var ErrAboveRoot = errors.New("cd .. from the root directory")

// NodeID is a handle into a Filetree's arena.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

type node struct {
	entry    Entry
	parent   NodeID
	children []NodeID
}

// Filetree is the directory tree rebuilt from a command transcript. All
// nodes live in one arena and refer to each other by NodeID. A Filetree is
// only mutated while it is being built.
type Filetree struct {
	Root  NodeID
	nodes []node
}

func newFiletree() *Filetree {
	return &Filetree{
		Root:  0,
		nodes: []node{{entry: NewDir("/"), parent: NoNode}},
	}
}

// BuildFiletree replays cmds against an empty root directory. It panics if
// the commands climb above the root; use LoadFiletree for untrusted input.
func BuildFiletree(cmds iter.Seq[Command]) *Filetree {
	ft, err := build(cmds)
	if err != nil {
		panic("core: " + err.Error())
	}
	return ft
}

// ParseFiletree parses input and builds its tree. The returned reader
// reports whether the transcript was cut short by a syntax error.
func ParseFiletree(input string) (*Filetree, *CommandReader) {
	reader := NewCommandReader(input)
	return BuildFiletree(reader.All()), reader
}

// LoadFiletree is ParseFiletree for input that may be inconsistent. It
// returns ErrAboveRoot, wrapped with the offending command number, instead
// of panicking.
func LoadFiletree(input string) (*Filetree, *CommandReader, error) {
	reader := NewCommandReader(input)
	ft, err := build(reader.All())
	if err != nil {
		return nil, reader, fmt.Errorf("command %d: %w", reader.Count(), err)
	}
	return ft, reader, nil
}

func build(cmds iter.Seq[Command]) (*Filetree, error) {
	ft := newFiletree()
	cwd := ft.Root

	for cmd := range cmds {
		switch c := cmd.(type) {
		case ChangeDir:
			next, err := ft.chdir(cwd, c.Target)
			if err != nil {
				return nil, err
			}
			cwd = next
		case List:
			for _, entry := range c.Entries {
				ft.appendChild(cwd, entry)
			}
		}
	}

	return ft, nil
}

func (ft *Filetree) chdir(cwd NodeID, target Target) (NodeID, error) {
	switch target.Kind {
	case TargetRoot:
		// Only expected as the first command; later ones are ignored.
		return cwd, nil
	case TargetParent:
		parent := ft.nodes[cwd].parent
		if parent == NoNode {
			return cwd, ErrAboveRoot
		}
		return parent, nil
	default:
		for _, child := range ft.nodes[cwd].children {
			if dir, ok := ft.nodes[child].entry.(*Dir); ok && dir.Name() == target.Name {
				return child, nil
			}
		}
		logging.Debug("cd into unknown directory ignored",
			zap.String("name", target.Name),
			zap.String("cwd", ft.nodes[cwd].entry.Name()),
		)
		return cwd, nil
	}
}

func (ft *Filetree) appendChild(parent NodeID, entry Entry) NodeID {
	id := NodeID(len(ft.nodes))
	ft.nodes = append(ft.nodes, node{entry: entry, parent: parent})
	ft.nodes[parent].children = append(ft.nodes[parent].children, id)
	return id
}

// Entry returns the entry stored at id.
func (ft *Filetree) Entry(id NodeID) Entry {
	return ft.nodes[id].entry
}

// Parent returns the parent of id, or NoNode for the root.
func (ft *Filetree) Parent(id NodeID) NodeID {
	return ft.nodes[id].parent
}

// Children returns the children of id in listing order.
func (ft *Filetree) Children(id NodeID) []NodeID {
	return slices.Clone(ft.nodes[id].children)
}

// Len returns the number of nodes, root included.
func (ft *Filetree) Len() int {
	return len(ft.nodes)
}
