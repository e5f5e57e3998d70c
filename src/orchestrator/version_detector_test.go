package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/language"
)

func newDetector() *VersionDetector {
	return NewVersionDetector(fs.New(), zap.NewNop().Sugar())
}

func TestVersionDetector_RubyVersionFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ruby-version"), []byte("3.2.1\n"), 0644))

	d := newDetector()
	assert.Equal(t, "3.2.1", d.Detect(dir, language.Ruby))
}

func TestVersionDetector_GemfileFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Gemfile"), []byte(`ruby "3.1.4"`), 0644))

	d := newDetector()
	assert.Equal(t, "3.1.4", d.Detect(dir, language.Ruby))
}

func TestVersionDetector_PyprojectRequiresPython(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(`requires-python = ">=3.11"`), 0644))

	d := newDetector()
	assert.Equal(t, "3.11", d.Detect(dir, language.Python))
}

func TestVersionDetector_GoModFirstLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/foo\n\ngo 1.22\n"), 0644))

	d := newDetector()
	assert.Equal(t, "1.22", d.Detect(dir, language.Go))
}

func TestVersionDetector_NoneWhenNothingPresent(t *testing.T) {
	dir := t.TempDir()
	d := newDetector()
	assert.Equal(t, "", d.Detect(dir, language.Python))
}

func TestVersionDetector_MalformedManifestFailsSoft(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".python-version"), []byte(""), 0644))

	d := newDetector()
	assert.Equal(t, "", d.Detect(dir, language.Python))
}

func TestVersionDetector_DetectAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ruby-version"), []byte("3.2.1"), 0644))

	d := newDetector()
	result := d.DetectAll(dir, []language.Language{language.Ruby, language.Go})
	assert.Equal(t, map[language.Language]string{language.Ruby: "3.2.1"}, result)
}
