package dispatcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"

	"github.com/lsproxy-dev/lsproxy/src/client"
	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
	"github.com/lsproxy-dev/lsproxy/src/language"
	"github.com/lsproxy-dev/lsproxy/src/model"
	"github.com/lsproxy-dev/lsproxy/src/orchestrator"
)

func newTestFactory(t *testing.T) *client.Factory {
	t.Helper()
	provider, err := config.NewYAML(config.Source(strings.NewReader("{}")))
	require.NoError(t, err)
	f, err := client.NewFactory(provider)
	require.NoError(t, err)
	return f
}

func TestDispatcher_DispatchHealthyWorker(t *testing.T) {
	reg := orchestrator.NewWorkerRegistry()
	reg.Set(&model.WorkerDescriptor{
		Language:    language.Go,
		State:       model.Healthy,
		EndpointURL: "http://127.0.0.1:9999",
	})

	d := New(reg, newTestFactory(t))
	c, desc, err := d.Dispatch("main.go")
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, language.Go, desc.Language)
}

func TestDispatcher_NoWorkerForLanguage(t *testing.T) {
	reg := orchestrator.NewWorkerRegistry()
	d := New(reg, newTestFactory(t))

	_, _, err := d.Dispatch("main.rb")
	var noWorker *lsperrors.NoWorkerForLanguageError
	assert.ErrorAs(t, err, &noWorker)
}

func TestDispatcher_WorkerNotYetHealthy(t *testing.T) {
	reg := orchestrator.NewWorkerRegistry()
	reg.Set(&model.WorkerDescriptor{Language: language.Python, State: model.Spawning})

	d := New(reg, newTestFactory(t))
	_, _, err := d.Dispatch("main.py")
	var notReady *lsperrors.ChildNotReadyError
	assert.ErrorAs(t, err, &notReady)
}
