// Package language defines the closed set of languages lsproxy understands:
// their file extensions, LSP command lines, and version-detection behavior.
package language

import "strings"

// Language is a closed enumeration of the languages a worker can be spawned
// for.
type Language string

const (
	Python     Language = "python"
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
	CPP        Language = "cpp"
	C          Language = "c"
	CSharp     Language = "csharp"
	PHP        Language = "php"
	Ruby       Language = "ruby"
	RubySorbet Language = "ruby-sorbet"
)

// Descriptor carries everything the orchestrator needs to know about one
// language: how to detect it, how to spawn its worker, and whether a
// version decision matters for image selection.
type Descriptor struct {
	Language Language
	// Extensions lists the file extensions (including the leading dot)
	// that mark a workspace as needing this language's worker.
	Extensions []string
	// LSPCommand is the argv of the language server the worker spawns.
	LSPCommand []string
	// RequiresVersion is true when image resolution should consult the
	// Version Detector's result for this language.
	RequiresVersion bool
	// Sibling names another language that should also be spawned
	// whenever this one is detected (ruby-sorbet piggybacks on ruby).
	Sibling Language
}

var descriptors = map[Language]Descriptor{
	Python: {
		Language:        Python,
		Extensions:      []string{".py"},
		LSPCommand:      []string{"jedi-language-server"},
		RequiresVersion: true,
	},
	TypeScript: {
		Language:        TypeScript,
		Extensions:      []string{".ts", ".tsx"},
		LSPCommand:      []string{"typescript-language-server", "--stdio"},
		RequiresVersion: true,
	},
	JavaScript: {
		Language:        JavaScript,
		Extensions:      []string{".js", ".jsx"},
		LSPCommand:      []string{"typescript-language-server", "--stdio"},
		RequiresVersion: true,
	},
	Go: {
		Language:        Go,
		Extensions:      []string{".go"},
		LSPCommand:      []string{"gopls"},
		RequiresVersion: true,
	},
	Rust: {
		Language:        Rust,
		Extensions:      []string{".rs"},
		LSPCommand:      []string{"rust-analyzer"},
		RequiresVersion: false,
	},
	Java: {
		Language:        Java,
		Extensions:      []string{".java"},
		LSPCommand:      []string{"jdtls"},
		RequiresVersion: true,
	},
	CPP: {
		Language:        CPP,
		Extensions:      []string{".cpp", ".cc", ".hpp", ".hh", ".cxx"},
		LSPCommand:      []string{"clangd"},
		RequiresVersion: false,
	},
	C: {
		Language:        C,
		Extensions:      []string{".c", ".h"},
		LSPCommand:      []string{"clangd"},
		RequiresVersion: false,
	},
	CSharp: {
		Language:        CSharp,
		Extensions:      []string{".cs"},
		LSPCommand:      []string{"csharp-ls"},
		RequiresVersion: false,
	},
	PHP: {
		Language:        PHP,
		Extensions:      []string{".php"},
		LSPCommand:      []string{"phpactor", "language-server"},
		RequiresVersion: true,
	},
	Ruby: {
		Language:        Ruby,
		Extensions:      []string{".rb"},
		LSPCommand:      []string{"ruby-lsp", "--use-launcher"},
		RequiresVersion: true,
		Sibling:         RubySorbet,
	},
	RubySorbet: {
		Language:        RubySorbet,
		Extensions:      []string{".rb"},
		LSPCommand:      []string{"srb", "tc", "--lsp"},
		RequiresVersion: false,
	},
}

// All returns every supported language's descriptor.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	return out
}

// Describe returns the Descriptor for lang.
func Describe(lang Language) (Descriptor, bool) {
	d, ok := descriptors[lang]
	return d, ok
}

// extensionTable maps a lowercase extension to the language it implies. It
// is built once from descriptors; RubySorbet is intentionally excluded
// since its extension overlaps Ruby's and co-spawn is decided separately
// (see orchestrator's Sorbet detection, not by extension lookup).
var extensionTable = buildExtensionTable()

func buildExtensionTable() map[string]Language {
	table := make(map[string]Language)
	for lang, d := range descriptors {
		if lang == RubySorbet {
			continue
		}
		for _, ext := range d.Extensions {
			table[ext] = lang
		}
	}
	return table
}

// ForExtension returns the language implied by a file's extension, or
// ("", false) if no language claims it.
func ForExtension(ext string) (Language, bool) {
	lang, ok := extensionTable[strings.ToLower(ext)]
	return lang, ok
}
