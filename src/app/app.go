// Package app assembles the lsproxy-base process: the orchestrator that
// spawns and supervises workers, and the public HTTP API that dispatches
// requests to them.
package app

import (
	"go.uber.org/fx"

	"github.com/lsproxy-dev/lsproxy/src/client"
	"github.com/lsproxy-dev/lsproxy/src/dispatcher"
	"github.com/lsproxy-dev/lsproxy/src/httpapi"
	"github.com/lsproxy-dev/lsproxy/src/internal/core"
	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/orchestrator"
)

// Module defines the lsproxy-base application.
var Module = fx.Options(
	core.ConfigModule,
	core.LoggerModule,
	fs.Module,
	orchestrator.Module,
	client.Module,
	dispatcher.Module,
	httpapi.Module,
)
