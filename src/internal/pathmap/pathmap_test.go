package pathmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_DefaultsWhenUnset(t *testing.T) {
	t.Setenv("HOST_WORKSPACE_PATH", "")
	t.Setenv("WORKSPACE_PATH", "")

	m := Resolve()
	assert.Equal(t, "/mnt/workspace", m.BasePath)
	assert.Equal(t, "/mnt/workspace", m.HostPath)
	assert.Equal(t, "/mnt/workspace", m.WorkerPath)
}

func TestResolve_HostPathDistinctFromBasePath(t *testing.T) {
	t.Setenv("HOST_WORKSPACE_PATH", "/Users/dev/project")
	t.Setenv("WORKSPACE_PATH", "/mnt/workspace")

	m := Resolve()
	assert.Equal(t, "/Users/dev/project", m.HostPath)
	assert.Equal(t, "/mnt/workspace", m.BasePath)
}

func TestResolve_HostPathFallsBackToBasePath(t *testing.T) {
	t.Setenv("HOST_WORKSPACE_PATH", "")
	t.Setenv("WORKSPACE_PATH", "/home/ci/workspace")

	m := Resolve()
	assert.Equal(t, "/home/ci/workspace", m.HostPath)
	assert.Equal(t, "/home/ci/workspace", m.BasePath)
}
