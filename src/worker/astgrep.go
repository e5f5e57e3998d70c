package worker

import (
	"context"

	"github.com/lsproxy-dev/lsproxy/src/model"
)

// AstGrepAugmenter supplements LSP-derived referenced-symbol results with
// local ast-grep output. Invoking ast-grep itself is outside this
// system's scope; this interface exists so a concrete implementation can
// be substituted later without touching the handler that consumes it.
type AstGrepAugmenter interface {
	Augment(ctx context.Context, path string, symbols []model.ReferencedSymbol) ([]model.ReferencedSymbol, error)
}

// NoopAugmenter passes its input through unchanged. It is the default
// until an ast-grep-backed implementation is wired in.
type NoopAugmenter struct{}

// Augment implements AstGrepAugmenter.
func (NoopAugmenter) Augment(_ context.Context, _ string, symbols []model.ReferencedSymbol) ([]model.ReferencedSymbol, error) {
	return symbols, nil
}
