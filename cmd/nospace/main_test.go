package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nospace/internal/core"
	"nospace/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const exampleInput = `$ cd /
$ ls
dir a
14848514 b.txt
8504156 c.dat
dir d
$ cd a
$ ls
dir e
29116 f
2557 g
62596 h.lst
$ cd e
$ ls
584 i
$ cd ..
$ cd ..
$ cd d
$ ls
4060174 j
8033020 d.log
5626152 d.ext
7214296 k
`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun(t *testing.T) {
	t.Run("prints both answers", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, []string{writeInput(t, exampleInput)}, false)

		require.NoError(t, err)
		assert.Equal(t,
			"[Part 1] Sum of directory sizes under 100000: 95437\n"+
				"[Part 2] Size of directory to free: 24933642\n",
			out.String())
	})

	t.Run("logs both answers at info", func(t *testing.T) {
		obs, logs := observer.New(zapcore.InfoLevel)
		logging.SetLogger(zap.New(obs))
		t.Cleanup(func() { logging.SetLogger(nil) })

		require.NoError(t, run(&bytes.Buffer{}, []string{writeInput(t, exampleInput)}, false))

		assert.Equal(t, 1, logs.FilterMessage("[Part 1] Sum of directory sizes under 100000: 95437").Len())
		assert.Equal(t, 1, logs.FilterMessage("[Part 2] Size of directory to free: 24933642").Len())
	})

	t.Run("tree flag prints the dump first", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, []string{writeInput(t, exampleInput)}, true)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out.String(), "- / (dir)\n  - a (dir)\n"))
		assert.Contains(t, out.String(), "    - d.ext (file, size=5626152)\n")
	})

	t.Run("missing argument", func(t *testing.T) {
		err := run(&bytes.Buffer{}, nil, false)

		var validationErr *core.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "<input>", validationErr.Arg)
	})

	t.Run("truncated transcript still answers", func(t *testing.T) {
		var out bytes.Buffer

		err := run(&out, []string{writeInput(t, "$ ls\n10 a\n$ exit\n")}, false)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "under 100000: 10\n")
	})
}

func TestRootCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--tree", writeInput(t, exampleInput)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "[Part 2] Size of directory to free: 24933642")
	assert.Contains(t, out.String(), "- k (file, size=7214296)")
}
