package core

import (
	"errors"
	"slices"
	"testing"
)

// Helpers

func loadExample(t *testing.T) *Filetree {
	t.Helper()
	input, err := ReadTranscript("testdata/example-input.txt")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	ft, reader := ParseFiletree(input)
	if reader.Err() != nil {
		t.Fatalf("fixture did not parse cleanly: %v", reader.Err())
	}
	return ft
}

func childNamed(t *testing.T, ft *Filetree, parent NodeID, name string) NodeID {
	t.Helper()
	for _, child := range ft.Children(parent) {
		if ft.Entry(child).Name() == name {
			return child
		}
	}
	t.Fatalf("no child %q under %q", name, ft.Entry(parent).Name())
	return NoNode
}

func assertChildCount(t *testing.T, ft *Filetree, id NodeID, expected int) {
	t.Helper()
	if got := len(ft.Children(id)); got != expected {
		t.Errorf("expected %d children under %q, got %d", expected, ft.Entry(id).Name(), got)
	}
}

// Tests

func TestBuildFiletree(t *testing.T) {
	t.Run("empty transcript has only the root", func(t *testing.T) {
		ft := BuildFiletree(Commands(""))

		if ft.Len() != 1 {
			t.Fatalf("expected 1 node, got %d", ft.Len())
		}
		root, ok := ft.Entry(ft.Root).(*Dir)
		if !ok || root.Name() != "/" {
			t.Errorf("expected root dir '/', got %v", ft.Entry(ft.Root))
		}
		if ft.Parent(ft.Root) != NoNode {
			t.Error("expected root to have no parent")
		}
	})

	t.Run("example fixture structure", func(t *testing.T) {
		ft := loadExample(t)

		if ft.Len() != 14 {
			t.Errorf("expected 14 nodes, got %d", ft.Len())
		}
		assertChildCount(t, ft, ft.Root, 4)

		a := childNamed(t, ft, ft.Root, "a")
		assertChildCount(t, ft, a, 4)
		e := childNamed(t, ft, a, "e")
		assertChildCount(t, ft, e, 1)
		d := childNamed(t, ft, ft.Root, "d")
		assertChildCount(t, ft, d, 4)
	})

	t.Run("children keep listing order", func(t *testing.T) {
		ft := loadExample(t)

		var names []string
		for _, child := range ft.Children(ft.Root) {
			names = append(names, ft.Entry(child).Name())
		}
		if !slices.Equal(names, []string{"a", "b.txt", "c.dat", "d"}) {
			t.Errorf("unexpected order: %v", names)
		}
	})

	t.Run("parent links are correct", func(t *testing.T) {
		ft := loadExample(t)

		a := childNamed(t, ft, ft.Root, "a")
		e := childNamed(t, ft, a, "e")
		i := childNamed(t, ft, e, "i")

		if ft.Parent(i) != e || ft.Parent(e) != a || ft.Parent(a) != ft.Root {
			t.Error("expected i -> e -> a -> / parent chain")
		}
	})

	t.Run("cd into unknown directory is ignored", func(t *testing.T) {
		ft := BuildFiletree(Commands("$ ls\ndir a\n$ cd missing\n$ ls\n5 x\n"))

		x := childNamed(t, ft, ft.Root, "x")
		if ft.Parent(x) != ft.Root {
			t.Error("expected x to be listed under the root")
		}
	})

	t.Run("cd never enters a file", func(t *testing.T) {
		ft := BuildFiletree(Commands("$ ls\n5 a\n$ cd a\n$ ls\n7 b\n"))

		assertChildCount(t, ft, ft.Root, 2)
	})

	t.Run("later cd / is ignored", func(t *testing.T) {
		ft := BuildFiletree(Commands("$ cd /\n$ ls\ndir a\n$ cd a\n$ cd /\n$ ls\n1 f\n"))

		a := childNamed(t, ft, ft.Root, "a")
		assertChildCount(t, ft, a, 1)
		assertChildCount(t, ft, ft.Root, 1)
	})

	t.Run("duplicate sibling names resolve to the first", func(t *testing.T) {
		ft := BuildFiletree(Commands("$ ls\ndir a\ndir a\n$ cd a\n$ ls\n1 f\n"))

		children := ft.Children(ft.Root)
		assertChildCount(t, ft, children[0], 1)
		assertChildCount(t, ft, children[1], 0)
	})

	t.Run("re-listing duplicates entries", func(t *testing.T) {
		ft := BuildFiletree(Commands("$ ls\n1 f\n$ ls\n1 f\n"))

		assertChildCount(t, ft, ft.Root, 2)
	})

	t.Run("cd .. from root panics", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "core: cd .. from the root directory" {
				t.Errorf("unexpected panic value %v", r)
			}
		}()
		BuildFiletree(Commands("$ cd /\n$ cd ..\n"))
	})

	t.Run("truncated transcript keeps earlier commands", func(t *testing.T) {
		ft, reader := ParseFiletree("$ ls\n1 f\n$ mkdir x\n$ ls\n2 g\n")

		if !reader.Truncated() {
			t.Error("expected truncation")
		}
		assertChildCount(t, ft, ft.Root, 1)
	})

	t.Run("children slice is a copy", func(t *testing.T) {
		ft := loadExample(t)

		children := ft.Children(ft.Root)
		children[0] = NoNode
		if ft.Children(ft.Root)[0] == NoNode {
			t.Error("expected tree to be unaffected by caller mutation")
		}
	})
}

func TestLoadFiletree(t *testing.T) {
	t.Run("matches ParseFiletree on consistent input", func(t *testing.T) {
		input, err := ReadTranscript("testdata/example-input.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ft, reader, err := LoadFiletree(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ft.Len() != 14 || reader.Count() != 10 {
			t.Errorf("expected 14 nodes from 10 commands, got %d from %d", ft.Len(), reader.Count())
		}
	})

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"cd .. as first command", "$ cd ..\n", "command 1: cd .. from the root directory"},
		{"cd .. after a listing", "$ ls\n5 a\n$ cd ..\n", "command 2: cd .. from the root directory"},
		{"one level too many", "$ ls\ndir a\n$ cd a\n$ cd ..\n$ cd ..\n", "command 4: cd .. from the root directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft, _, err := LoadFiletree(tt.input)

			if !errors.Is(err, ErrAboveRoot) {
				t.Fatalf("expected ErrAboveRoot, got %v", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("expected %q, got %q", tt.wantErr, err.Error())
			}
			if ft != nil {
				t.Error("expected no tree")
			}
		})
	}
}
