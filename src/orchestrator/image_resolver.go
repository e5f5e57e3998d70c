package orchestrator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lsproxy-dev/lsproxy/src/language"
)

// imageSpec holds the static, sorted-ascending list of version tags baked
// into the binary for each language that requires a version decision, plus
// each language's default tag when no version is detected or none
// qualifies. Grounded in the image-per-language naming scheme
// (`lsproxy-<slug>:latest` for the default, `lsproxy-<slug>-<ver>:latest`
// for exact/closest matches; the slug is the image family, e.g. "golang"
// for Go and "typescript" for both TypeScript and JavaScript).
type imageSpec struct {
	slug        string
	defaultTag  string
	versionTags []string
}

var imageSpecs = map[language.Language]imageSpec{
	language.Python:     {slug: "python", defaultTag: "lsproxy-python:latest", versionTags: []string{"3.9", "3.10", "3.11", "3.12"}},
	language.TypeScript: {slug: "typescript", defaultTag: "lsproxy-typescript:latest", versionTags: []string{"18", "20", "22"}},
	language.JavaScript: {slug: "typescript", defaultTag: "lsproxy-typescript:latest", versionTags: []string{"18", "20", "22"}},
	language.Go:         {slug: "golang", defaultTag: "lsproxy-golang:latest", versionTags: []string{"1.21", "1.22", "1.23", "1.24"}},
	language.Rust:       {slug: "rust", defaultTag: "lsproxy-rust:latest"},
	language.Java:       {slug: "java", defaultTag: "lsproxy-java:latest", versionTags: []string{"11", "17", "21"}},
	language.CPP:        {slug: "clangd", defaultTag: "lsproxy-clangd:latest"},
	language.C:          {slug: "clangd", defaultTag: "lsproxy-clangd:latest"},
	language.CSharp:     {slug: "csharp", defaultTag: "lsproxy-csharp:latest"},
	language.PHP:        {slug: "php", defaultTag: "lsproxy-php:latest", versionTags: []string{"8.1", "8.2", "8.3"}},
	language.Ruby:       {slug: "ruby", defaultTag: "lsproxy-ruby:latest", versionTags: []string{"3.1", "3.2", "3.3"}},
	language.RubySorbet: {slug: "ruby-sorbet", defaultTag: "lsproxy-ruby-sorbet:latest"},
}

// ImageResolver maps (language, optional detected version) to a concrete
// image tag.
type ImageResolver struct{}

// NewImageResolver constructs an ImageResolver.
func NewImageResolver() *ImageResolver {
	return &ImageResolver{}
}

// Resolve implements §4.B: exact match, else closest match not exceeding
// the detected version, else the language's default tag.
func (r *ImageResolver) Resolve(lang language.Language, detectedVersion string) (string, error) {
	spec, ok := imageSpecs[lang]
	if !ok {
		return "", fmt.Errorf("no image spec for language %q", lang)
	}
	if detectedVersion == "" || len(spec.versionTags) == 0 {
		return spec.defaultTag, nil
	}

	sorted := make([]string, len(spec.versionTags))
	copy(sorted, spec.versionTags)
	sort.Slice(sorted, func(i, j int) bool { return compareVersions(sorted[i], sorted[j]) < 0 })

	for _, v := range sorted {
		if v == detectedVersion {
			return fmt.Sprintf("lsproxy-%s-%s:latest", spec.slug, v), nil
		}
	}

	closest := ""
	for _, v := range sorted {
		if compareVersions(v, detectedVersion) <= 0 {
			closest = v
		} else {
			break
		}
	}
	if closest == "" {
		return spec.defaultTag, nil
	}
	return fmt.Sprintf("lsproxy-%s-%s:latest", spec.slug, closest), nil
}

// compareVersions compares two major.minor[.patch] version strings
// left-to-right, numerically. Returns <0, 0, or >0.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var an, bn int
		if i < len(as) {
			an, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bn, _ = strconv.Atoi(bs[i])
		}
		if an != bn {
			return an - bn
		}
	}
	return 0
}
