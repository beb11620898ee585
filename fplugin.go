package fplugin

import (
	"errors"
	"fmt"
	"strings"
)

// IndexKind names an index artifact the editor can register.
type IndexKind string

const (
	// IndexTags is the ctags symbol index (the "tags" file).
	IndexTags IndexKind = "tags"
	// IndexXref is the cscope cross-reference database ("cscope.out").
	IndexXref IndexKind = "xref"
)

// Host is the editor. Every user-visible effect goes through it.
type Host interface {
	// Prompt shows text and returns the user's reply.
	Prompt(text string) (string, error)
	// OpenFile opens path in the editor.
	OpenFile(path string) error
	// RegisterIndex makes the index at path available to the editor.
	RegisterIndex(kind IndexKind, path string) error
	// Display shows a message.
	Display(text string)
}

var (
	// ErrIndexNotBuilt means the artifact does not exist and no failed build
	// explains why.
	ErrIndexNotBuilt = errors.New("index not built")

	// ErrIndexBuildFailed means the artifact is missing because its last
	// build pass failed.
	ErrIndexBuildFailed = errors.New("index build failed")

	// ErrToolUnavailable means an external program could not be found.
	ErrToolUnavailable = errors.New("tool not available")

	// ErrTimeout means a shell command ran past its time limit and was killed.
	ErrTimeout = errors.New("command timed out")
)

// ToolError reports an external program that ran and exited nonzero.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Output   string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + firstLine(out)
	}
	return msg
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
