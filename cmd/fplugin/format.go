package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// outputResult writes result to stdout in the --format chosen.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError reports err for command and marks it handled.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLICachePath:
		fmt.Fprintf(w, "root: %s\ncache: %s\n", v.Root, v.CacheDir)
	case CLIStatus:
		formatStatusText(w, v)
	case []CLIRepository:
		formatRepositoriesText(w, v)
	case []string:
		for i, s := range v {
			fmt.Fprintf(w, "[%d] %s\n", i, s)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatStatusText formats CLIStatus as readable text.
func formatStatusText(w io.Writer, st CLIStatus) {
	fmt.Fprintf(w, "Root:  %s\n", st.Root)
	fmt.Fprintf(w, "Cache: %s (%s)\n", st.CacheDir, st.CacheKey)
	fmt.Fprintf(w, "Files: %s\n", strings.Join(st.Patterns, " "))
	if st.FirstSeen != nil {
		fmt.Fprintf(w, "First seen: %s\n", st.FirstSeen.Local().Format(time.DateTime))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPATH\tSIZE\tMODIFIED")
	for _, a := range st.Artifacts {
		if !a.Present {
			fmt.Fprintf(tw, "%s\t%s\t-\tmissing\n", a.Kind, a.Path)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.Kind, a.Path, a.Size, a.ModTime.Format(time.DateTime))
	}
	tw.Flush()

	fmt.Fprintln(w)
	if st.LastBuild == nil {
		fmt.Fprintln(w, "No build recorded")
		return
	}
	b := st.LastBuild
	rev := b.HeadCommit
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if b.Branch != "" {
		rev = b.Branch + " " + rev
	}
	fmt.Fprintf(w, "Last build: %s, %d files, %s\n",
		b.FinishedAt.Local().Format(time.DateTime), b.FileCount, strings.TrimSpace(rev))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PASS\tTOOL\tSTATUS\tDURATION")
	for _, p := range b.Passes {
		status := p.Status
		if p.Diagnostic != "" {
			status += ": " + p.Diagnostic
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dms\n", p.Kind, p.Tool, status, p.DurationMS)
	}
	tw.Flush()
}

// formatRepositoriesText formats CLIRepository results as aligned columns.
func formatRepositoriesText(w io.Writer, repos []CLIRepository) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKEY\tLAST BUILT")
	for _, r := range repos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Path, r.CacheKey, r.LastBuilt.Local().Format(time.DateTime))
	}
	tw.Flush()
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
