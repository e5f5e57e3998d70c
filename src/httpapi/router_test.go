package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/zap"

	"github.com/lsproxy-dev/lsproxy/src/client"
	"github.com/lsproxy-dev/lsproxy/src/dispatcher"
	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/language"
	"github.com/lsproxy-dev/lsproxy/src/model"
	"github.com/lsproxy-dev/lsproxy/src/orchestrator"
)

// noopRuntime implements orchestrator.ContainerRuntime with no-ops; these
// tests only exercise AllWorkers/Registry, never the spawn path.
type noopRuntime struct{}

func (noopRuntime) CreateNetwork(context.Context, string) (string, error) { return "", nil }
func (noopRuntime) RemoveNetwork(context.Context, string) error           { return nil }
func (noopRuntime) PullIfMissing(context.Context, string) error           { return nil }
func (noopRuntime) CreateContainer(context.Context, string, orchestrator.ContainerSpec) (string, error) {
	return "", nil
}
func (noopRuntime) StartContainer(context.Context, string) error { return nil }
func (noopRuntime) StopContainer(context.Context, string, int) error { return nil }
func (noopRuntime) RemoveContainer(context.Context, string, bool) error { return nil }
func (noopRuntime) InspectContainer(context.Context, string) (orchestrator.ContainerState, error) {
	return orchestrator.ContainerState{}, nil
}
func (noopRuntime) ContainerLogs(context.Context, string, int) (string, error) { return "", nil }

func newTestClientFactory(t *testing.T) *client.Factory {
	t.Helper()
	provider, err := config.NewYAML(config.Source(strings.NewReader("{}")))
	require.NoError(t, err)
	f, err := client.NewFactory(provider)
	require.NoError(t, err)
	return f
}

func TestServer_HandleFindDefinition(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/definition", r.URL.Path)
		w.Write([]byte(`{"definitions":[{"path":"main.go","position":{"line":1,"character":2}}],"selected_identifier":"foo"}`))
	}))
	defer worker.Close()

	reg := orchestrator.NewWorkerRegistry()
	reg.Set(&model.WorkerDescriptor{Language: language.Go, State: model.Healthy, EndpointURL: worker.URL})
	srv := NewServer(dispatcher.New(reg, newTestClientFactory(t)), nil)

	body, _ := json.Marshal(model.FindDefinitionRequest{Position: model.FilePosition{Path: "main.go"}})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/symbol/find-definition", strings.NewReader(string(body))))

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.FindDefinitionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "foo", resp.SelectedIdentifier)
	require.Len(t, resp.Definitions, 1)
}

func TestServer_HandleFindDefinition_NoWorkerIsBadRequest(t *testing.T) {
	reg := orchestrator.NewWorkerRegistry()
	srv := NewServer(dispatcher.New(reg, newTestClientFactory(t)), nil)

	body, _ := json.Marshal(model.FindDefinitionRequest{Position: model.FilePosition{Path: "main.rs"}})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/symbol/find-definition", strings.NewReader(string(body))))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_HandleFindDefinition_WorkerErrorRelaysBody(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"kind":"ChildGone","message":"LSP process exited"}}`))
	}))
	defer worker.Close()

	reg := orchestrator.NewWorkerRegistry()
	reg.Set(&model.WorkerDescriptor{Language: language.Go, State: model.Healthy, EndpointURL: worker.URL})
	srv := NewServer(dispatcher.New(reg, newTestClientFactory(t)), nil)

	body, _ := json.Marshal(model.FindDefinitionRequest{Position: model.FilePosition{Path: "main.go"}})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/symbol/find-definition", strings.NewReader(string(body))))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "ChildGone")
}

func TestServer_HandleDefinitionsInFile_MissingQueryParam(t *testing.T) {
	reg := orchestrator.NewWorkerRegistry()
	srv := NewServer(dispatcher.New(reg, newTestClientFactory(t)), nil)

	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/symbol/definitions-in-file", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_HandleHealth(t *testing.T) {
	provider, err := config.NewYAML(config.Source(strings.NewReader("{}")))
	require.NoError(t, err)
	o, err := orchestrator.New(noopRuntime{}, fs.New(), provider, zap.NewNop().Sugar())
	require.NoError(t, err)
	reg := o.Registry()
	reg.Set(&model.WorkerDescriptor{Language: language.Python, State: model.Healthy})
	reg.Set(&model.WorkerDescriptor{Language: language.Ruby, State: model.Spawning})

	srv := NewServer(dispatcher.New(reg, newTestClientFactory(t)), o)

	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/system/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Languages[language.Python])
	assert.False(t, resp.Languages[language.Ruby])
}
