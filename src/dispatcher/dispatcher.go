// Package dispatcher looks up which worker owns a given file path and
// returns a Client bound to it, so the base HTTP API never has to know
// about WorkerRegistry or the client Factory directly.
package dispatcher

import (
	"github.com/lsproxy-dev/lsproxy/src/client"
	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
	"github.com/lsproxy-dev/lsproxy/src/model"
	"github.com/lsproxy-dev/lsproxy/src/orchestrator"
	"go.uber.org/fx"
)

// Module provides a Dispatcher.
var Module = fx.Provide(New)

// Dispatcher resolves a file path to the worker responsible for it.
type Dispatcher struct {
	registry *orchestrator.WorkerRegistry
	clients  *client.Factory
}

// New constructs a Dispatcher.
func New(registry *orchestrator.WorkerRegistry, clients *client.Factory) *Dispatcher {
	return &Dispatcher{registry: registry, clients: clients}
}

// Dispatch returns a Client bound to the worker registered for path's
// language, along with that worker's descriptor. It returns
// NoWorkerForLanguageError if no worker is registered for the
// extension, or ChildNotReadyError if the worker isn't Healthy yet.
func (d *Dispatcher) Dispatch(path string) (*client.Client, *model.WorkerDescriptor, error) {
	desc, ok := d.registry.ForFile(path)
	if !ok {
		return nil, nil, &lsperrors.NoWorkerForLanguageError{Path: path}
	}
	if desc.State != model.Healthy {
		return nil, nil, &lsperrors.ChildNotReadyError{}
	}
	return d.clients.For(desc.EndpointURL), desc, nil
}
