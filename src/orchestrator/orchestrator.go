package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/internal/pathmap"
	"github.com/lsproxy-dev/lsproxy/src/language"
	"github.com/lsproxy-dev/lsproxy/src/model"
)

// Module provides the Orchestrator and wires its Initialize/Shutdown
// calls into the application's fx.Lifecycle.
var Module = fx.Options(
	RuntimeModule,
	fx.Provide(New),
	fx.Provide(func(o *Orchestrator) *WorkerRegistry { return o.Registry() }),
	fx.Invoke(registerLifecycle),
)

const (
	workerPort = "8080"

	_configKeyNetwork         = "orchestrator.container.network"
	_configKeyMemoryLimitMB   = "orchestrator.container.memory_limit_mb"
	_configKeyStopTimeoutSecs = "orchestrator.container.stop_timeout_seconds"
	_configKeyHealthInitialMs = "orchestrator.health.initial_backoff_ms"
	_configKeyHealthFactor    = "orchestrator.health.backoff_factor"
	_configKeyHealthCapMs     = "orchestrator.health.backoff_cap_ms"
	_configKeyHealthDeadline  = "orchestrator.health.deadline_seconds"

	defaultNetworkName     = "lsproxy-net"
	defaultMemoryMB        = 2048
	defaultStopTimeoutSecs = 10
	defaultHealthInitial   = 100 * time.Millisecond
	defaultHealthFactor    = 1.5
	defaultHealthCap       = 2 * time.Second
	defaultHealthDeadline  = 30 * time.Second
)

// settings holds the orchestrator.container/orchestrator.health config
// block, read once at construction per §9's guidance against re-reading
// config later.
type settings struct {
	networkName     string
	memoryLimitMB   int64
	stopTimeoutSecs int
	healthInitial   time.Duration
	healthFactor    float64
	healthCap       time.Duration
	healthDeadline  time.Duration
}

func loadSettings(cfg config.Provider) (settings, error) {
	s := settings{
		networkName:     defaultNetworkName,
		memoryLimitMB:   defaultMemoryMB,
		stopTimeoutSecs: defaultStopTimeoutSecs,
		healthInitial:   defaultHealthInitial,
		healthFactor:    defaultHealthFactor,
		healthCap:       defaultHealthCap,
		healthDeadline:  defaultHealthDeadline,
	}

	if err := populateString(cfg, _configKeyNetwork, &s.networkName); err != nil {
		return settings{}, err
	}
	if err := populateInt64(cfg, _configKeyMemoryLimitMB, &s.memoryLimitMB); err != nil {
		return settings{}, err
	}
	if err := populateInt(cfg, _configKeyStopTimeoutSecs, &s.stopTimeoutSecs); err != nil {
		return settings{}, err
	}
	if err := populateMillis(cfg, _configKeyHealthInitialMs, &s.healthInitial); err != nil {
		return settings{}, err
	}
	if err := populateFloat64(cfg, _configKeyHealthFactor, &s.healthFactor); err != nil {
		return settings{}, err
	}
	if err := populateMillis(cfg, _configKeyHealthCapMs, &s.healthCap); err != nil {
		return settings{}, err
	}
	if err := populateSeconds(cfg, _configKeyHealthDeadline, &s.healthDeadline); err != nil {
		return settings{}, err
	}
	return s, nil
}

func populateString(cfg config.Provider, key string, dst *string) error {
	if v := cfg.Get(key); v.HasValue() {
		if err := v.Populate(dst); err != nil {
			return fmt.Errorf("getting config field %q: %w", key, err)
		}
	}
	return nil
}

func populateInt64(cfg config.Provider, key string, dst *int64) error {
	if v := cfg.Get(key); v.HasValue() {
		if err := v.Populate(dst); err != nil {
			return fmt.Errorf("getting config field %q: %w", key, err)
		}
	}
	return nil
}

func populateInt(cfg config.Provider, key string, dst *int) error {
	if v := cfg.Get(key); v.HasValue() {
		if err := v.Populate(dst); err != nil {
			return fmt.Errorf("getting config field %q: %w", key, err)
		}
	}
	return nil
}

func populateFloat64(cfg config.Provider, key string, dst *float64) error {
	if v := cfg.Get(key); v.HasValue() {
		if err := v.Populate(dst); err != nil {
			return fmt.Errorf("getting config field %q: %w", key, err)
		}
	}
	return nil
}

func populateMillis(cfg config.Provider, key string, dst *time.Duration) error {
	if v := cfg.Get(key); v.HasValue() {
		var ms float64
		if err := v.Populate(&ms); err != nil {
			return fmt.Errorf("getting config field %q: %w", key, err)
		}
		*dst = time.Duration(ms * float64(time.Millisecond))
	}
	return nil
}

func populateSeconds(cfg config.Provider, key string, dst *time.Duration) error {
	if v := cfg.Get(key); v.HasValue() {
		var secs float64
		if err := v.Populate(&secs); err != nil {
			return fmt.Errorf("getting config field %q: %w", key, err)
		}
		*dst = time.Duration(secs * float64(time.Second))
	}
	return nil
}

// Orchestrator is the only entity that mutates WorkerRegistry and the
// only entity that calls ContainerRuntime.
type Orchestrator struct {
	runtime         ContainerRuntime
	registry        *WorkerRegistry
	versionDetector *VersionDetector
	imageResolver   *ImageResolver
	fs              fs.LsproxyFS
	logger          *zap.SugaredLogger
	mount           pathmap.WorkspaceMount
	settings        settings

	mu          sync.Mutex
	initialized bool
}

// New constructs an Orchestrator. The WorkspaceMount is resolved once from
// the environment here, per §9's guidance against re-reading it later.
// The orchestrator.container/orchestrator.health config block is read
// once here for the same reason.
func New(runtime ContainerRuntime, lfs fs.LsproxyFS, cfg config.Provider, logger *zap.SugaredLogger) (*Orchestrator, error) {
	s, err := loadSettings(cfg)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		runtime:         runtime,
		registry:        NewWorkerRegistry(),
		versionDetector: NewVersionDetector(lfs, logger),
		imageResolver:   NewImageResolver(),
		fs:              lfs,
		logger:          logger,
		mount:           pathmap.Resolve(),
		settings:        s,
	}, nil
}

func registerLifecycle(lc fx.Lifecycle, o *Orchestrator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return o.Initialize(ctx)
		},
		OnStop: func(ctx context.Context) error {
			o.Shutdown(ctx)
			return nil
		},
	})
}

// Registry exposes a read-only view of the WorkerRegistry to request
// handlers.
func (o *Orchestrator) Registry() *WorkerRegistry {
	return o.registry
}

// WorkerForFile returns the worker registered for path's language.
func (o *Orchestrator) WorkerForFile(path string) (*model.WorkerDescriptor, error) {
	d, ok := o.registry.ForFile(path)
	if !ok {
		return nil, &lsperrors.NoWorkerForLanguageError{Path: path}
	}
	return d, nil
}

// AllWorkers returns a snapshot of every registered worker.
func (o *Orchestrator) AllWorkers() []*model.WorkerDescriptor {
	return o.registry.All()
}

// Initialize detects languages present in the workspace, runs the Version
// Detector, and spawns one worker per detected language concurrently.
// It returns only after every worker is Healthy, or rolls back and
// returns an aggregate error if any failed.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	languages, err := o.detectLanguages()
	if err != nil {
		return err
	}
	if len(languages) == 0 {
		o.logger.Warn("no supported languages detected in workspace")
		return nil
	}

	if _, err := o.runtime.CreateNetwork(ctx, o.settings.networkName); err != nil {
		return &lsperrors.EngineUnavailableError{Cause: err}
	}

	versions := o.versionDetector.DetectAll(o.mount.BasePath, languages)

	type spawnResult struct {
		lang language.Language
		desc *model.WorkerDescriptor
		err  error
	}
	results := make(chan spawnResult, len(languages))
	var wg sync.WaitGroup
	for _, lang := range languages {
		wg.Add(1)
		go func(lang language.Language) {
			defer wg.Done()
			desc, err := o.spawnWorker(ctx, lang, versions[lang])
			results <- spawnResult{lang: lang, desc: desc, err: err}
		}(lang)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var spawnErr error
	healthy := make([]*model.WorkerDescriptor, 0, len(languages))
	for r := range results {
		if r.err != nil {
			spawnErr = multierr.Append(spawnErr, r.err)
			continue
		}
		o.registry.Set(r.desc)
		healthy = append(healthy, r.desc)
	}

	if spawnErr != nil {
		// All-or-nothing: tear down every worker that did succeed.
		for _, d := range healthy {
			o.teardownWorker(ctx, d)
		}
		_ = o.runtime.RemoveNetwork(ctx, o.settings.networkName)
		return spawnErr
	}

	o.initialized = true
	return nil
}

// detectLanguages scans the workspace for file extensions and maps them
// back to languages (§4.D: nothing is excluded, the system lists
// everything). Ruby gets a sibling ruby-sorbet worker when Sorbet typing
// hints are present.
func (o *Orchestrator) detectLanguages() ([]language.Language, error) {
	exts, err := o.fs.WalkExtensions(o.mount.BasePath)
	if err != nil {
		return nil, err
	}

	seen := make(map[language.Language]bool)
	for ext := range exts {
		if lang, ok := language.ForExtension(ext); ok {
			seen[lang] = true
		}
	}

	if seen[language.Ruby] {
		sorbet, err := hasSorbetHints(o.fs, o.mount.BasePath)
		if err != nil {
			o.logger.Warnw("sorbet detection failed", "error", err)
		} else if sorbet {
			seen[language.RubySorbet] = true
		}
	}

	out := make([]language.Language, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	return out, nil
}

// spawnWorker implements the per-language spawn algorithm from §4.D.
func (o *Orchestrator) spawnWorker(ctx context.Context, lang language.Language, version string) (*model.WorkerDescriptor, error) {
	desc, ok := language.Describe(lang)
	if !ok {
		return nil, fmt.Errorf("no descriptor for language %q", lang)
	}

	o.registry.Set(&model.WorkerDescriptor{Language: lang, State: model.Spawning, SpawnedAt: time.Now()})
	markFailed := func(err error) error {
		o.registry.Delete(lang)
		return err
	}

	image, err := o.imageResolver.Resolve(lang, version)
	if err != nil {
		return nil, markFailed(&lsperrors.SpawnFailedError{Language: string(lang), Cause: err})
	}
	if err := o.runtime.PullIfMissing(ctx, image); err != nil {
		return nil, markFailed(err)
	}

	suffix, err := uuid.NewV4()
	if err != nil {
		return nil, markFailed(&lsperrors.SpawnFailedError{Language: string(lang), Cause: err})
	}
	containerName := fmt.Sprintf("lsproxy-%s-%s", lang, suffix.String())

	cmd := append([]string{"--lsp-command", desc.LSPCommand[0]}, lspArgs(desc.LSPCommand[1:])...)
	spec := ContainerSpec{
		Image: image,
		Cmd:   cmd,
		Env: []string{
			"WORKSPACE_PATH=/mnt/workspace",
			"PORT=8080",
			"LOG_LEVEL=info",
		},
		HostBindPath:  o.mount.HostPath,
		Network:       o.settings.networkName,
		ExposedPort:   workerPort + "/tcp",
		MemoryLimitMB: o.settings.memoryLimitMB,
	}

	containerID, err := o.runtime.CreateContainer(ctx, containerName, spec)
	if err != nil {
		return nil, markFailed(&lsperrors.SpawnFailedError{Language: string(lang), Cause: err})
	}
	if err := o.runtime.StartContainer(ctx, containerID); err != nil {
		_ = o.runtime.RemoveContainer(ctx, containerID, true)
		return nil, markFailed(&lsperrors.SpawnFailedError{Language: string(lang), Cause: err})
	}

	state, err := o.runtime.InspectContainer(ctx, containerID)
	if err != nil || state.IPAddress == "" {
		o.teardownContainer(ctx, containerID)
		return nil, markFailed(&lsperrors.SpawnFailedError{Language: string(lang), Cause: err})
	}

	endpoint := fmt.Sprintf("http://%s:8080", state.IPAddress)
	wd := &model.WorkerDescriptor{
		Language:         lang,
		ImageRef:         image,
		ContainerID:      containerID,
		NetworkAliasOrIP: state.IPAddress,
		Port:             8080,
		EndpointURL:      endpoint,
		SpawnedAt:        time.Now(),
		State:            model.Spawning,
	}

	if err := o.waitHealthy(ctx, endpoint); err != nil {
		logs, _ := o.runtime.ContainerLogs(ctx, containerID, 200)
		o.teardownContainer(ctx, containerID)
		return nil, markFailed(&lsperrors.HealthTimeoutError{
			Language: string(lang),
			Deadline: o.settings.healthDeadline.String(),
			LogTail:  logs,
		})
	}

	wd.State = model.Healthy
	return wd, nil
}

func lspArgs(extra []string) []string {
	out := make([]string, 0, len(extra))
	for _, a := range extra {
		out = append(out, fmt.Sprintf("--lsp-arg=%s", a))
	}
	return out
}

// waitHealthy polls GET /health with exponential backoff per §4.D step 6.
func (o *Orchestrator) waitHealthy(ctx context.Context, endpoint string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	deadline := time.Now().Add(o.settings.healthDeadline)
	backoff := o.settings.healthInitial

	for {
		ok, err := pollHealth(ctx, client, endpoint)
		if err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			return &lsperrors.HealthTimeoutError{Deadline: o.settings.healthDeadline.String()}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * o.settings.healthFactor)
		if backoff > o.settings.healthCap {
			backoff = o.settings.healthCap
		}
	}
}

func pollHealth(ctx context.Context, client *http.Client, endpoint string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	var body model.WorkerHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Status == "ok", nil
}

func (o *Orchestrator) teardownContainer(ctx context.Context, containerID string) {
	if err := o.runtime.StopContainer(ctx, containerID, o.settings.stopTimeoutSecs); err != nil {
		o.logger.Warnw("failed to stop container during teardown", "container", containerID, "error", err)
	}
	if err := o.runtime.RemoveContainer(ctx, containerID, true); err != nil {
		o.logger.Warnw("failed to remove container during teardown", "container", containerID, "error", err)
	}
}

// teardownWorker stops and removes d's container and drops it from the
// registry. State transitions go through the registry rather than
// mutating d directly: d may be a pointer a concurrent HTTP handler or
// the dispatcher is reading State from right now, and copy-on-write in
// SetState keeps that read racing safely against this write instead of
// needing its own lock.
func (o *Orchestrator) teardownWorker(ctx context.Context, d *model.WorkerDescriptor) {
	o.registry.SetState(d.Language, model.Stopping)
	o.teardownContainer(ctx, d.ContainerID)
	o.registry.Delete(d.Language)
}

// Shutdown stops and removes every container, removes the shared
// network, and clears the registry. Idempotent; safe to call from
// process-termination paths.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, d := range o.registry.All() {
		o.teardownWorker(ctx, d)
	}

	if o.initialized {
		if err := o.runtime.RemoveNetwork(ctx, o.settings.networkName); err != nil {
			o.logger.Warnw("failed to remove orchestrator network", "error", err)
		}
	}
	o.initialized = false
}
