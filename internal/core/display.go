package core

import "strings"

// String renders the tree one node per line, indented two spaces per level:
//
//	- / (dir)
//	  - a (dir)
//	    - i (file, size=584)
func (ft *Filetree) String() string {
	var b strings.Builder
	ft.write(&b, ft.Root, 0)
	return b.String()
}

func (ft *Filetree) write(b *strings.Builder, id NodeID, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("- ")
	b.WriteString(ft.nodes[id].entry.String())
	b.WriteByte('\n')
	for _, child := range ft.nodes[id].children {
		ft.write(b, child, depth+1)
	}
}
