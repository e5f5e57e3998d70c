package orchestrator

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/language"
)

// VersionDetector scans a workspace for per-language version manifests.
type VersionDetector struct {
	fs     fs.LsproxyFS
	logger *zap.SugaredLogger
}

// NewVersionDetector constructs a VersionDetector.
func NewVersionDetector(lfs fs.LsproxyFS, logger *zap.SugaredLogger) *VersionDetector {
	return &VersionDetector{fs: lfs, logger: logger}
}

// source is one manifest file to consult, in precedence order, and the
// function that extracts a raw version expression from its contents.
type source struct {
	file    string
	extract func(contents string) string
}

var versionStripOperators = regexp.MustCompile(`^[\^~>=<\s]+`)
var majorMinorPatch = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// reduceVersion strips comparison operators and any trailing suffix,
// leaving a bare major.minor[.patch] expression.
func reduceVersion(raw string) string {
	raw = versionStripOperators.ReplaceAllString(strings.TrimSpace(raw), "")
	return majorMinorPatch.FindString(raw)
}

func (d *VersionDetector) sourcesFor(lang language.Language) []source {
	toolVersionsRow := func(name string) func(string) string {
		return func(contents string) string {
			for _, line := range strings.Split(contents, "\n") {
				fields := strings.Fields(line)
				if len(fields) >= 2 && fields[0] == name {
					return fields[1]
				}
			}
			return ""
		}
	}

	switch lang {
	case language.Ruby, language.RubySorbet:
		return []source{
			{".ruby-version", strings.TrimSpace},
			{"Gemfile", regexpExtract(`ruby\s+["']([^"']+)["']`)},
			{".tool-versions", toolVersionsRow("ruby")},
		}
	case language.Python:
		return []source{
			{".python-version", strings.TrimSpace},
			{"pyproject.toml", regexpExtract(`requires-python\s*=\s*["']([^"']+)["']`)},
			{"Pipfile", regexpExtract(`python_version\s*=\s*["']([^"']+)["']`)},
			{"runtime.txt", regexpExtract(`python-([\d.]+)`)},
		}
	case language.JavaScript, language.TypeScript:
		return []source{
			{".nvmrc", strings.TrimSpace},
			{".node-version", strings.TrimSpace},
			{"package.json", regexpExtract(`"node"\s*:\s*"([^"]+)"`)},
			{".tool-versions", toolVersionsRow("nodejs")},
		}
	case language.Java:
		return []source{
			{"pom.xml", regexpExtract(`<source>([^<]+)</source>`)},
			{"build.gradle", regexpExtract(`sourceCompatibility\s*=?\s*['"]?([\d.]+)`)},
			{".java-version", strings.TrimSpace},
			{".tool-versions", toolVersionsRow("java")},
		}
	case language.Go:
		return []source{
			{"go.mod", regexpExtract(`(?m)^go\s+([\d.]+)`)},
			{".go-version", strings.TrimSpace},
			{".tool-versions", toolVersionsRow("golang")},
		}
	case language.PHP:
		return []source{
			{"composer.json", regexpExtract(`"php"\s*:\s*"([^"]+)"`)},
			{".php-version", strings.TrimSpace},
			{".tool-versions", toolVersionsRow("php")},
		}
	default:
		return nil
	}
}

func regexpExtract(pattern string) func(string) string {
	re := regexp.MustCompile(pattern)
	return func(contents string) string {
		m := re.FindStringSubmatch(contents)
		if len(m) < 2 {
			return ""
		}
		return m[1]
	}
}

// Detect returns the detected version for lang, or "" if no manifest
// matched or all manifests were malformed.
func (d *VersionDetector) Detect(workspacePath string, lang language.Language) string {
	for _, src := range d.sourcesFor(lang) {
		path := filepath.Join(workspacePath, src.file)
		exists, err := d.fs.FileExists(path)
		if err != nil || !exists {
			continue
		}
		contents, err := d.fs.ReadFile(path)
		if err != nil {
			d.logger.Warnw("failed to read version manifest", "path", path, "error", err)
			continue
		}
		raw := src.extract(string(contents))
		if raw == "" {
			continue
		}
		version := reduceVersion(raw)
		if version == "" {
			d.logger.Warnw("malformed version manifest", "path", path, "raw", raw)
			continue
		}
		return version
	}
	return ""
}

// DetectAll runs Detect for every language in langs and returns the
// resulting Language -> version map. Languages with no detected version
// are omitted.
func (d *VersionDetector) DetectAll(workspacePath string, langs []language.Language) map[language.Language]string {
	out := make(map[language.Language]string)
	for _, lang := range langs {
		if v := d.Detect(workspacePath, lang); v != "" {
			out[lang] = v
		}
	}
	return out
}
