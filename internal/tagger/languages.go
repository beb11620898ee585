package tagger

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".py":   "python",
	".java": "java",
	".rs":   "rust",
	".go":   "go",
}

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"c":      c.GetLanguage(),
			"cpp":    cpp.GetLanguage(),
			"python": python.GetLanguage(),
			"java":   java.GetLanguage(),
			"rust":   rust.GetLanguage(),
			"go":     golang.GetLanguage(),
		}
	})
}

// definitionQueries holds one tree-sitter query per language. Each pattern
// captures the name node of a definition; the capture name is the tag kind.
var definitionQueries = map[string]string{
	"c": `
(function_definition declarator: (function_declarator declarator: (identifier) @function))
(function_definition declarator: (pointer_declarator declarator: (function_declarator declarator: (identifier) @function)))
(struct_specifier name: (type_identifier) @struct body: (field_declaration_list))
(union_specifier name: (type_identifier) @union body: (field_declaration_list))
(enum_specifier name: (type_identifier) @enum body: (enumerator_list))
(enumerator name: (identifier) @enumerator)
(type_definition declarator: (type_identifier) @typedef)
(preproc_def name: (identifier) @macro)
(preproc_function_def name: (identifier) @macro)
`,
	"cpp": `
(function_definition declarator: (function_declarator declarator: (_) @function))
(class_specifier name: (type_identifier) @class body: (field_declaration_list))
(struct_specifier name: (type_identifier) @struct body: (field_declaration_list))
(enum_specifier name: (type_identifier) @enum body: (enumerator_list))
(type_definition declarator: (type_identifier) @typedef)
(preproc_def name: (identifier) @macro)
(preproc_function_def name: (identifier) @macro)
`,
	"python": `
(function_definition name: (identifier) @function)
(class_definition name: (identifier) @class)
`,
	"java": `
(class_declaration name: (identifier) @class)
(interface_declaration name: (identifier) @interface)
(enum_declaration name: (identifier) @enum)
(method_declaration name: (identifier) @method)
(constructor_declaration name: (identifier) @method)
`,
	"rust": `
(function_item name: (identifier) @function)
(struct_item name: (type_identifier) @struct)
(enum_item name: (type_identifier) @enum)
(trait_item name: (type_identifier) @trait)
(mod_item name: (identifier) @module)
(macro_definition name: (identifier) @macro)
`,
	"go": `
(function_declaration name: (identifier) @function)
(method_declaration name: (field_identifier) @method)
(type_spec name: (type_identifier) @type)
`,
}

// kindLetters maps capture names to the single-letter kinds ctags writes.
var kindLetters = map[string]string{
	"function":   "f",
	"method":     "m",
	"class":      "c",
	"struct":     "s",
	"union":      "u",
	"enum":       "g",
	"enumerator": "e",
	"typedef":    "t",
	"type":       "t",
	"macro":      "d",
	"interface":  "i",
	"trait":      "i",
	"module":     "n",
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if no grammar handles it.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// grammarFor returns the tree-sitter Language for a canonical language name.
func grammarFor(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}
