// Package workerapp assembles the lsproxy-worker process: one managed
// LSP child and the HTTP router that adapts typed requests to it.
package workerapp

import (
	"go.uber.org/fx"

	"github.com/lsproxy-dev/lsproxy/src/internal/core"
	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/worker"
)

// Module defines the lsproxy-worker application.
var Module = fx.Options(
	core.ConfigModule,
	core.LoggerModule,
	fs.Module,
	worker.Module,
)
