// Package filter restricts indexing and search to source files by extension.
package filter

import (
	"path/filepath"
	"strings"
)

// DefaultExtensions is the extension list indexed when no other list is
// configured: C/C++ sources and headers, Python, Lua, Java, Kotlin, Rust, C#,
// template inputs and assembler.
var DefaultExtensions = []string{
	"h", "hpp", "c", "cpp", "cxx", "py", "lua", "java", "kt", "rs", "cs", "in", "s", "S",
}

// ExtensionFilter is an ordered set of filename extensions. Matching is
// case-insensitive, like find's -iname, so "s" and "S" select the same files;
// the order of first appearance is preserved for display.
type ExtensionFilter struct {
	exts []string        // as given, first occurrence of each folded form
	set  map[string]bool // lowercased, without the leading dot
}

// New builds a filter from extensions given with or without a leading dot.
// Empty entries are ignored.
func New(exts ...string) *ExtensionFilter {
	f := &ExtensionFilter{set: make(map[string]bool, len(exts))}
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			continue
		}
		folded := strings.ToLower(ext)
		if f.set[folded] {
			continue
		}
		f.set[folded] = true
		f.exts = append(f.exts, ext)
	}
	return f
}

// Default returns a filter over DefaultExtensions.
func Default() *ExtensionFilter {
	return New(DefaultExtensions...)
}

// Match reports whether path has one of the filter's extensions.
func (f *ExtensionFilter) Match(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	return f.set[strings.ToLower(ext[1:])]
}

// Len returns the number of distinct extensions.
func (f *ExtensionFilter) Len() int {
	return len(f.exts)
}

// Patterns returns the filter as glob patterns ("*.h", "*.hpp", ...).
func (f *ExtensionFilter) Patterns() []string {
	out := make([]string, len(f.exts))
	for i, ext := range f.exts {
		out[i] = "*." + ext
	}
	return out
}

func (f *ExtensionFilter) String() string {
	return strings.Join(f.Patterns(), " ")
}
