package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterDirsBySize(t *testing.T) {
	t.Run("small directories in post-order", func(t *testing.T) {
		ft := loadExample(t)

		got := ft.FilterDirsBySize(func(size uint64) bool { return size <= 100000 })

		want := []DirSize{{Name: "e", Size: 584}, {Name: "a", Size: 94853}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("every directory in post-order", func(t *testing.T) {
		ft := loadExample(t)

		got := ft.FilterDirsBySize(func(uint64) bool { return true })

		want := []DirSize{
			{Name: "e", Size: 584},
			{Name: "a", Size: 94853},
			{Name: "d", Size: 24933642},
			{Name: "/", Size: 48381165},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("predicate matching nothing", func(t *testing.T) {
		ft := loadExample(t)

		if got := ft.FilterDirsBySize(func(uint64) bool { return false }); len(got) != 0 {
			t.Errorf("expected no directories, got %v", got)
		}
	})

	t.Run("empty directories have size zero", func(t *testing.T) {
		ft := BuildFiletree(Commands("$ ls\ndir empty\n"))

		got := ft.FilterDirsBySize(func(size uint64) bool { return size == 0 })

		want := []DirSize{{Name: "empty", Size: 0}, {Name: "/", Size: 0}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("smaller threshold yields a subset", func(t *testing.T) {
		ft := loadExample(t)

		for _, tc := range []struct{ lo, hi uint64 }{
			{0, 584},
			{584, 100000},
			{100000, 30000000},
			{30000000, 50000000},
		} {
			small := ft.FilterDirsBySize(func(size uint64) bool { return size <= tc.lo })
			large := ft.FilterDirsBySize(func(size uint64) bool { return size <= tc.hi })

			seen := make(map[DirSize]bool, len(large))
			for _, d := range large {
				seen[d] = true
			}
			for _, d := range small {
				if !seen[d] {
					t.Errorf("%v kept at <= %d but not at <= %d", d, tc.lo, tc.hi)
				}
			}
		}
	})

	t.Run("repeated queries return identical results", func(t *testing.T) {
		ft := loadExample(t)
		keep := func(size uint64) bool { return size >= 50000 }

		first := ft.FilterDirsBySize(keep)
		second := ft.FilterDirsBySize(keep)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("results differ between calls (-first +second):\n%s", diff)
		}
	})
}

func TestTotalSize(t *testing.T) {
	t.Run("example fixture", func(t *testing.T) {
		ft := loadExample(t)

		if got := ft.TotalSize(); got != 48381165 {
			t.Errorf("expected 48381165, got %d", got)
		}
	})

	t.Run("equals sum of every listed file regardless of nesting", func(t *testing.T) {
		input := "$ cd /\n$ ls\n10 a\ndir x\n$ cd x\n$ ls\n20 b\ndir y\n$ cd y\n$ ls\n30 c\n40 d\n$ cd ..\n$ cd ..\n$ ls\n5 e\n"
		ft := BuildFiletree(Commands(input))

		var want uint64
		for cmd := range Commands(input) {
			if l, ok := cmd.(List); ok {
				for _, e := range l.Entries {
					if f, ok := e.(*File); ok {
						want += f.Size()
					}
				}
			}
		}
		if want != 105 {
			t.Fatalf("fixture sanity: expected 105, got %d", want)
		}
		if got := ft.TotalSize(); got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	})
}
