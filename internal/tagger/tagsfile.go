package tagger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// header is the pseudo-tag preamble of an extended-format, sorted tag file.
var header = []string{
	"!_TAG_FILE_FORMAT\t2\t/extended format; --format=1 will not append ;\" to lines/",
	"!_TAG_FILE_SORTED\t1\t/0=unsorted, 1=sorted, 2=foldcase/",
	"!_TAG_PROGRAM_NAME\tfplugin\t//",
}

// WriteFile writes tags in ctags extended format to path. The file is written
// beside path and renamed into place, so readers never see a partial file.
// tags must already be sorted (TagFiles returns them sorted).
func WriteFile(path string, tags []Tag) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tags-*")
	if err != nil {
		return fmt.Errorf("create tag file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range header {
		fmt.Fprintln(w, line)
	}
	for _, tag := range tags {
		fmt.Fprintln(w, formatTag(tag))
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write tag file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tag file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod tag file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install tag file: %w", err)
	}
	return nil
}

// formatTag renders "name<TAB>path<TAB>line;"<TAB>kind". Tabs and newlines in
// names or paths would break the line structure, so they become spaces.
func formatTag(t Tag) string {
	line := fmt.Sprintf("%s\t%s\t%d;\"", clean(t.Name), clean(t.Path), t.Line)
	if t.Kind != "" {
		line += "\t" + t.Kind
	}
	return line
}

var cleaner = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func clean(s string) string {
	return cleaner.Replace(s)
}
