package worker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lsproxy-dev/lsproxy/src/internal/pathmap"
	"github.com/lsproxy-dev/lsproxy/src/worker/rpcmux"
)

const (
	_configKeyAddress        = "worker.http.address"
	_configKeyRequestTimeout = "worker.lsp.request_timeout_seconds"
	defaultAddress           = ":8080"
)

// Module wires the worker's LSP multiplexer holder and HTTP router into
// the application's fx.Lifecycle.
var Module = fx.Options(
	fx.Provide(NewMultiplexerHolder),
	fx.Provide(NewServer),
	fx.Provide(func() AstGrepAugmenter { return NoopAugmenter{} }),
	fx.Invoke(registerLifecycle),
)

// httpModule owns the net.Listener and http.Server backing Server's
// routes, following the same OnStart-listens/OnStop-shuts-down shape the
// base's httpapi module uses. It also launches the LSP child
// from OnStart, publishing it into the holder once the handshake
// completes, and closes it from OnStop.
type httpModule struct {
	address        string
	requestTimeout time.Duration
	server         *Server
	holder         *MultiplexerHolder
	logger         *zap.SugaredLogger

	ln  net.Listener
	srv *http.Server
}

func registerLifecycle(lc fx.Lifecycle, cfg config.Provider, logger *zap.SugaredLogger, server *Server, holder *MultiplexerHolder) error {
	m := &httpModule{server: server, holder: holder, logger: logger}
	if err := m.processConfig(cfg); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})
	return nil
}

// processConfig resolves the listen address from worker.http.address
// (default ":8080") and then overrides it with the orchestrator's
// injected PORT env var when set (spec §6's container env, set on
// every worker it spawns). PORT wins over the config file
// because a worker running inside a container the orchestrator manages
// must bind the port the orchestrator will probe and dispatch to,
// regardless of what worker.http.address says in this binary's own
// config layers.
func (m *httpModule) processConfig(cfg config.Provider) error {
	m.address = defaultAddress
	m.requestTimeout = rpcmux.DefaultRequestTimeout
	if v := cfg.Get(_configKeyAddress); v.HasValue() {
		if err := v.Populate(&m.address); err != nil {
			return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		m.address = ":" + port
	}
	if v := cfg.Get(_configKeyRequestTimeout); v.HasValue() {
		var seconds float64
		if err := v.Populate(&seconds); err != nil {
			return fmt.Errorf("getting config field %q: %w", _configKeyRequestTimeout, err)
		}
		m.requestTimeout = time.Duration(seconds * float64(time.Second))
	}
	return nil
}

// OnStart opens the listener and begins serving in the background, then
// launches the LSP child named on the process's own argv (set by the
// orchestrator at spawn time, see spec §4.D). The child's initialize
// handshake runs in the background so a slow-to-start LSP server
// doesn't block the worker's HTTP server from listening; handlers that
// arrive before it finishes see a nil or not-Ready Multiplexer and
// report ChildNotReady.
func (m *httpModule) OnStart(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.address)
	if err != nil {
		return err
	}
	m.ln = ln
	m.srv = &http.Server{Handler: m.server.Routes()}
	go m.start()

	command, args, err := ParseLSPCommand(os.Args[1:])
	if err != nil {
		return err
	}
	mount := pathmap.Resolve()
	go m.startLSPChild(command, args, mount.WorkerPath)

	return nil
}

func (m *httpModule) startLSPChild(command string, args []string, workspacePath string) {
	mux, err := rpcmux.New(context.Background(), m.logger, command, args, workspacePath, rpcmux.WithRequestTimeout(m.requestTimeout))
	if err != nil {
		m.logger.Errorw("lsp child failed to start", "error", err)
		return
	}
	m.holder.set(mux)
}

func (m *httpModule) start() {
	m.logger.Infow("worker HTTP server listening", "address", m.address)
	if err := m.srv.Serve(m.ln); err != nil && err != http.ErrServerClosed {
		m.logger.Errorw("worker HTTP server exited", "error", err)
	}
}

// OnStop shuts the HTTP server down gracefully, then closes the LSP
// child (if it ever started) so it is never left running after the
// worker process exits.
func (m *httpModule) OnStop(ctx context.Context) error {
	err := m.srv.Shutdown(ctx)
	if mux := m.holder.Get(); mux != nil {
		if closeErr := mux.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
