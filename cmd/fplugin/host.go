package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jward/fplugin"
)

// Hosts accepted by --host.
const (
	hostTerminal = "terminal"
	hostVim      = "vim"
)

var validHosts = []string{hostTerminal, hostVim}

// validateHost checks that the --host flag value is recognized.
func validateHost(host string) error {
	for _, h := range validHosts {
		if host == h {
			return nil
		}
	}
	return fmt.Errorf("invalid host %q: must be %s", host, strings.Join(validHosts, " or "))
}

func newHost(name string, in io.Reader, out io.Writer) (fplugin.Host, error) {
	switch name {
	case hostTerminal:
		return newTerminalHost(in, out), nil
	case hostVim:
		return &vimHost{lines: newLineReader(in), out: out}, nil
	default:
		return nil, validateHost(name)
	}
}

// lineReader reads prompt answers one line at a time. End of input reads as
// an empty answer, which ends every interactive loop.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(in io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(in)}
}

func (l *lineReader) readLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// terminalHost talks to a person at a terminal, or to a pipe. Prompts are
// only written when stdin is a terminal, so piped answers produce clean
// output.
type terminalHost struct {
	lines       *lineReader
	out         io.Writer
	interactive bool
}

func newTerminalHost(in io.Reader, out io.Writer) *terminalHost {
	h := &terminalHost{lines: newLineReader(in), out: out}
	if f, ok := in.(*os.File); ok {
		h.interactive = term.IsTerminal(int(f.Fd()))
	}
	return h
}

func (h *terminalHost) Prompt(text string) (string, error) {
	if h.interactive {
		fmt.Fprint(h.out, text)
	}
	return h.lines.readLine()
}

func (h *terminalHost) OpenFile(path string) error {
	_, err := fmt.Fprintln(h.out, path)
	return err
}

func (h *terminalHost) RegisterIndex(kind fplugin.IndexKind, path string) error {
	_, err := fmt.Fprintf(h.out, "%s\t%s\n", kind, path)
	return err
}

func (h *terminalHost) Display(text string) {
	fmt.Fprintln(h.out, text)
}

// vimHost writes Ex commands, one per line, for a Vim script to :execute.
// Prompt answers are read from stdin, where the script passes what it
// collected with input().
type vimHost struct {
	lines *lineReader
	out   io.Writer
}

func (h *vimHost) Prompt(text string) (string, error) {
	return h.lines.readLine()
}

func (h *vimHost) OpenFile(path string) error {
	_, err := fmt.Fprintln(h.out, "edit "+fnameEscape(path))
	return err
}

func (h *vimHost) RegisterIndex(kind fplugin.IndexKind, path string) error {
	var cmd string
	switch kind {
	case fplugin.IndexTags:
		cmd = "set tags=" + optionEscape(path)
	case fplugin.IndexXref:
		cmd = "cs add " + fnameEscape(path)
	default:
		return fmt.Errorf("unknown index kind %q", kind)
	}
	_, err := fmt.Fprintln(h.out, cmd)
	return err
}

func (h *vimHost) Display(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintln(h.out, "echo "+stringLiteral(line))
	}
}

// fnameEscape escapes a path for use as a file argument of an Ex command,
// like Vim's fnameescape().
func fnameEscape(path string) string {
	var b strings.Builder
	for i, r := range path {
		switch {
		case strings.ContainsRune(" \t\n*?[{`$\\%#'\"|!<", r):
			b.WriteByte('\\')
		case i == 0 && (r == '-' || r == '+'):
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// optionEscape escapes a value for :set. A comma separates entries of a
// path list option, so a literal one needs a backslash that itself survives
// :set parsing.
func optionEscape(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '\\':
			b.WriteString(`\\\\`)
		case ',':
			b.WriteString(`\\,`)
		case ' ', '|', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stringLiteral quotes s as a Vim single-quoted string.
func stringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
