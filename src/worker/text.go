package worker

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// extractIdentifier returns the identifier-like token surrounding
// position within content, or "" if position falls outside any token.
// The worker resolves this locally rather than through the LSP child:
// no standard request returns "the token under the cursor" directly.
func extractIdentifier(content string, line, character int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	text := lines[line]
	for _, loc := range identifierPattern.FindAllStringIndex(text, -1) {
		if character >= loc[0] && character <= loc[1] {
			return text[loc[0]:loc[1]]
		}
	}
	return ""
}

// extractContext returns line together with up to contextLines lines on
// each side of it, joined with newlines.
func extractContext(content string, line, contextLines int) string {
	if contextLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	start := line - contextLines
	if start < 0 {
		start = 0
	}
	end := line + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// fileURI builds the file:// URI the LSP child expects for a
// workspace-relative path, rooted at base.
func fileURI(base, relPath string) string {
	if strings.HasPrefix(relPath, "/") {
		return "file://" + relPath
	}
	return "file://" + strings.TrimSuffix(base, "/") + "/" + relPath
}

// pathFromURI reverses fileURI, returning a path relative to base and
// whether uri actually falls under base. A uri outside base (a vendored
// dependency, a stdlib source file bundled in the image) is reported as
// not-relative so callers can mark the symbol external.
func pathFromURI(base, uri string) (relPath string, underBase bool) {
	raw := strings.TrimPrefix(uri, "file://")
	base = strings.TrimSuffix(base, "/")
	if strings.HasPrefix(raw, base+"/") {
		return strings.TrimPrefix(raw, base+"/"), true
	}
	if raw == base {
		return "", true
	}
	return raw, false
}

func validatePositionPath(path string) error {
	if path == "" {
		return fmt.Errorf("position.path is required")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("position.path must not contain '..'")
	}
	return nil
}
