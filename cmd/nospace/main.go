package main

import (
	"fmt"
	"io"
	"os"

	"nospace/internal/core"
	"nospace/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cmd := newRootCmd(os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		verbose  bool
		showTree bool
	)

	cmd := &cobra.Command{
		Use:   "nospace <input>",
		Short: "Find which directory to delete from a cd/ls transcript",
		Long: `nospace rebuilds a filesystem from a terminal transcript of "$ cd" and
"$ ls" commands and reports:

  part 1: the total size of all directories of at most 100000
  part 2: the smallest directory that frees enough space for the update`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if verbose {
				level = "debug"
			}
			return logging.Init(logging.Config{Level: level, Format: "console", OutputPath: "stderr"})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, args, showTree)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every parsed command")
	cmd.Flags().BoolVar(&showTree, "tree", false, "print the rebuilt directory tree")
	return cmd
}

func run(out io.Writer, args []string, showTree bool) error {
	path, err := core.ParseArgs(args)
	if err != nil {
		return err
	}

	input, err := core.ReadTranscript(path)
	if err != nil {
		return err
	}

	ft, reader := core.ParseFiletree(input)
	if err := reader.Err(); err != nil {
		logging.Warn("transcript truncated", zap.String("input", path), zap.Error(err))
	}

	if showTree {
		fmt.Fprint(out, ft.String())
	}

	report, err := core.Analyze(ft, reader)
	if err != nil {
		return err
	}

	logging.Info("analysis complete",
		zap.Uint64("total_size", report.TotalSize),
		zap.Int("nodes", report.Nodes),
	)
	answers := []string{
		fmt.Sprintf("[Part 1] Sum of directory sizes under %d: %d", core.SmallDirLimit, report.SmallDirsSum),
		fmt.Sprintf("[Part 2] Size of directory to free: %d", report.DirToFreeSize),
	}
	for _, line := range answers {
		logging.Info(line)
		fmt.Fprintln(out, line)
	}
	return nil
}
