// Package pathmap resolves the three-path WorkspaceMount model (§3, §4.D):
// the outer-host path the container engine must bind from, the path as
// seen inside the base process, and the path as seen inside each worker.
package pathmap

import "os"

// WorkspaceMount holds the three paths that must reference identical file
// content, resolved once at startup from the environment and never
// re-read afterward (§9 design note on HOST_WORKSPACE_PATH).
type WorkspaceMount struct {
	// HostPath is the bind source passed to the container engine. It is
	// never BasePath: the engine always interprets bind sources from the
	// outer host's filesystem.
	HostPath string
	// BasePath is the path as seen inside the base process.
	BasePath string
	// WorkerPath is the path as seen inside each worker, by convention
	// identical across all workers.
	WorkerPath string
}

const defaultMountPoint = "/mnt/workspace"

// Resolve builds a WorkspaceMount from the environment. If
// HOST_WORKSPACE_PATH is unset, the base process is assumed not to be
// itself containerized, and its own workspace path is used directly as
// the bind source.
func Resolve() WorkspaceMount {
	basePath := os.Getenv("WORKSPACE_PATH")
	if basePath == "" {
		basePath = defaultMountPoint
	}

	hostPath := os.Getenv("HOST_WORKSPACE_PATH")
	if hostPath == "" {
		hostPath = basePath
	}

	return WorkspaceMount{
		HostPath:   hostPath,
		BasePath:   basePath,
		WorkerPath: defaultMountPoint,
	}
}
