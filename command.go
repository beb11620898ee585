package fplugin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/fplugin/internal/cache"
)

// CommandFileName holds saved command lines, one per line, in the base
// directory.
const CommandFileName = "command.txt"

// CommandFile returns the path of the saved command file.
func (e *Engine) CommandFile() string {
	return filepath.Join(e.cfg.BaseDir, CommandFileName)
}

// Commands returns the saved command lines. A missing file means none.
func (e *Engine) Commands() ([]string, error) {
	f, err := os.Open(e.CommandFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return lines, nil
}

// AddCommand appends line to the saved commands.
func (e *Engine) AddCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return errors.New("add command: empty command line")
	}
	if strings.ContainsAny(line, "\r\n") {
		return errors.New("add command: command must be a single line")
	}
	if err := cache.Ensure(e.cfg.BaseDir); err != nil {
		return err
	}
	f, err := os.OpenFile(e.CommandFile(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("add command: %w", err)
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return fmt.Errorf("add command: %w", err)
	}
	return f.Close()
}

// RunCommand shows the saved commands as a numbered list and runs the one
// picked in dir, the same way RunShell runs a line. An invalid selection
// does nothing.
func (e *Engine) RunCommand(ctx context.Context, dir string) error {
	cmds, err := e.Commands()
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		e.host.Display("no saved commands")
		return nil
	}

	e.host.Display("=== command ===")
	for i, c := range cmds {
		e.host.Display(fmt.Sprintf("[%d] %s", i, c))
	}
	answer, err := e.host.Prompt(CommandPrompt)
	if err != nil {
		return err
	}
	i, ok := parseIndex(answer, len(cmds))
	if !ok {
		return nil
	}
	return e.runLine(ctx, dir, cmds[i])
}
