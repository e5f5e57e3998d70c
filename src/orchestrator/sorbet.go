package orchestrator

import "github.com/lsproxy-dev/lsproxy/src/internal/fs"

// hasSorbetHints reports whether workspacePath contains evidence that its
// Ruby code is typed with Sorbet: a `# typed:` comment in any .rb file, or
// a sorbet/ directory. Per §4.D, either one is sufficient to also spawn a
// ruby-sorbet worker alongside ruby.
func hasSorbetHints(lfs fs.LsproxyFS, workspacePath string) (bool, error) {
	commentHit, err := lfs.AnyFileMatches(workspacePath, "*.rb", "# typed:", false)
	if err != nil {
		return false, err
	}
	if commentHit {
		return true, nil
	}
	return lfs.AnyFileMatches(workspacePath, "sorbet", "", true)
}
