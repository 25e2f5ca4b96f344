package core

import (
	"fmt"
	"os"
	"path/filepath"
)

type ValidationError struct {
	Arg   string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

// ParseArgs checks that args names exactly one readable transcript file and
// returns its cleaned path.
func ParseArgs(args []string) (string, error) {
	if len(args) == 0 {
		return "", &ValidationError{Arg: "<input>", Cause: "no input file provided"}
	}
	if len(args) > 1 {
		return "", &ValidationError{Arg: args[1], Cause: "only one input file is accepted"}
	}

	raw := args[0]
	p := filepath.Clean(raw)
	info, err := os.Stat(p)
	if err != nil {
		return "", &ValidationError{Arg: raw, Cause: "not found or not accessible"}
	}
	if info.IsDir() {
		return "", &ValidationError{Arg: raw, Cause: "is a directory"}
	}

	return p, nil
}

// ReadTranscript reads the whole transcript at path into memory.
func ReadTranscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
