package core

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"nospace/internal/logging"

	"go.uber.org/zap"
)

// SyntaxError describes the first transcript line that did not match the
// command grammar. Parsing stops there; everything before it is kept.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// CommandReader produces commands one at a time from a transcript.
type CommandReader struct {
	input string
	line  int
	count int
	err   *SyntaxError
}

func NewCommandReader(input string) *CommandReader {
	return &CommandReader{input: input}
}

// Commands returns a sequence over the commands in input. Every iteration
// starts again from the beginning of input.
func Commands(input string) iter.Seq[Command] {
	return func(yield func(Command) bool) {
		for cmd := range NewCommandReader(input).All() {
			if !yield(cmd) {
				return
			}
		}
	}
}

// All drains the reader. Unlike Commands, the reader's position and error
// are shared between iterations.
func (r *CommandReader) All() iter.Seq[Command] {
	return func(yield func(Command) bool) {
		for {
			cmd, ok := r.Next()
			if !ok || !yield(cmd) {
				return
			}
		}
	}
}

// Err returns the syntax error that ended the stream, if any.
func (r *CommandReader) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Count returns how many commands have been produced so far.
func (r *CommandReader) Count() int {
	return r.count
}

// Truncated reports whether the stream stopped before the end of input.
func (r *CommandReader) Truncated() bool {
	return r.err != nil
}

// Next returns the next command, or false at end of input or at the first
// line that does not parse.
func (r *CommandReader) Next() (Command, bool) {
	if r.err != nil {
		return nil, false
	}
	r.skipBlank()
	text, ok := r.peek()
	if !ok {
		return nil, false
	}

	cmd, reason := parseCommandLine(text)
	if cmd == nil {
		r.fail(text, reason)
		return nil, false
	}
	r.advance()

	if ls, isList := cmd.(List); isList {
		ls.Entries = r.readEntries()
		cmd = ls
	}

	r.count++
	logging.Debug("parsed command", zap.Stringer("command", cmd), zap.Int("line", r.line))
	return cmd, true
}

// readEntries consumes entry lines up to the next command line, blank line,
// or line that is not a valid entry.
func (r *CommandReader) readEntries() []Entry {
	var entries []Entry
	for {
		text, ok := r.peek()
		if !ok || text == "" || strings.HasPrefix(text, "$") {
			return entries
		}
		entry := parseEntry(text)
		if entry == nil {
			return entries
		}
		entries = append(entries, entry)
		r.advance()
	}
}

func (r *CommandReader) fail(text, reason string) {
	r.err = &SyntaxError{Line: r.line + 1, Text: text, Reason: reason}
	logging.Error("parse error", zap.Error(r.err))
}

// peek returns the next line without its terminator.
func (r *CommandReader) peek() (string, bool) {
	if r.input == "" {
		return "", false
	}
	text := r.input
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSuffix(text, "\r"), true
}

func (r *CommandReader) advance() {
	if i := strings.IndexByte(r.input, '\n'); i >= 0 {
		r.input = r.input[i+1:]
	} else {
		r.input = ""
	}
	r.line++
}

// skipBlank also skips blank lines before the first command, and peek
// accepts a last line without a terminator; both are looser than a strict
// line-ending grammar.
func (r *CommandReader) skipBlank() {
	for {
		text, ok := r.peek()
		if !ok || text != "" {
			return
		}
		r.advance()
	}
}

// parseCommandLine parses "$ cd <target>" or "$ ls". On failure it returns
// a nil command and the reason.
func parseCommandLine(text string) (Command, string) {
	rest, ok := strings.CutPrefix(text, "$")
	if !ok {
		return nil, "expected command"
	}
	rest, ok = cutSpace(rest)
	if !ok {
		return nil, "expected space after $"
	}

	if rest == "ls" {
		return List{}, ""
	}
	if rest, ok := strings.CutPrefix(rest, "cd"); ok {
		arg, ok := cutSpace(rest)
		if !ok {
			return nil, "expected directory after cd"
		}
		switch {
		case arg == "/":
			return ChangeDir{Target: Target{Kind: TargetRoot}}, ""
		case arg == "..":
			return ChangeDir{Target: Target{Kind: TargetParent}}, ""
		case isName(arg):
			return ChangeDir{Target: Target{Kind: TargetChild, Name: arg}}, ""
		}
		return nil, "invalid directory name"
	}
	return nil, "unknown command"
}

// parseEntry parses "dir <name>" or "<size> <name>".
func parseEntry(text string) Entry {
	i := strings.IndexAny(text, " \t")
	if i <= 0 {
		return nil
	}
	head := text[:i]
	name, ok := cutSpace(text[i:])
	if !ok || !isName(name) {
		return nil
	}
	if head == "dir" {
		return NewDir(name)
	}
	size, ok := parseSize(head)
	if !ok {
		return nil
	}
	return NewFile(name, size)
}

// cutSpace strips one or more leading spaces or tabs. It fails if there
// were none or nothing follows them.
func cutSpace(s string) (string, bool) {
	trimmed := strings.TrimLeft(s, " \t")
	if len(trimmed) == len(s) || trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// parseSize accepts decimal digits with optional '_' separators after any
// digit, e.g. "1_000".
func parseSize(s string) (uint64, bool) {
	if s == "" || !isDigit(s[0]) {
		return 0, false
	}
	for i := 1; i < len(s); i++ {
		if !isDigit(s[i]) && s[i] != '_' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isName reports whether s is a file name: a letter or separator followed
// by letters, digits and separators.
func isName(s string) bool {
	if s == "" || !(isLetter(s[0]) || isSeparator(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(isLetter(c) || isDigit(c) || isSeparator(c)) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isSeparator(c byte) bool {
	return c == '.' || c == '_' || c == '-'
}
