package core

import (
	"fmt"
	"strings"
)

type TargetKind int

const (
	TargetRoot TargetKind = iota
	TargetParent
	TargetChild
)

// Target is the operand of a cd command. Name is only set for TargetChild.
type Target struct {
	Kind TargetKind
	Name string
}

func (t Target) String() string {
	switch t.Kind {
	case TargetRoot:
		return "/"
	case TargetParent:
		return ".."
	default:
		return t.Name
	}
}

// Command is a single parsed shell command: ChangeDir or List.
type Command interface {
	command()
	String() string
}

type ChangeDir struct {
	Target Target
}

type List struct {
	Entries []Entry
}

func (ChangeDir) command() {}
func (List) command()      {}

func (c ChangeDir) String() string {
	return fmt.Sprintf("cd %s", c.Target)
}

func (l List) String() string {
	names := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		names[i] = e.Name()
	}
	return fmt.Sprintf("ls [%s]", strings.Join(names, " "))
}
