package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyAddress = "orchestrator.http.address"
	defaultAddress    = ":8080"
)

// Module wires the base API's HTTP server into the application's
// fx.Lifecycle.
var Module = fx.Options(
	fx.Provide(NewServer),
	fx.Invoke(registerLifecycle),
)

type httpModule struct {
	address string
	server  *Server
	logger  *zap.SugaredLogger

	ln  net.Listener
	srv *http.Server
}

func registerLifecycle(lc fx.Lifecycle, cfg config.Provider, logger *zap.SugaredLogger, server *Server) error {
	m := &httpModule{server: server, logger: logger}
	if err := m.processConfig(cfg); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})
	return nil
}

func (m *httpModule) processConfig(cfg config.Provider) error {
	m.address = defaultAddress
	if v := cfg.Get(_configKeyAddress); v.HasValue() {
		if err := v.Populate(&m.address); err != nil {
			return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
		}
	}
	return nil
}

func (m *httpModule) OnStart(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.address)
	if err != nil {
		return err
	}
	m.ln = ln
	m.srv = &http.Server{Handler: m.server.Routes()}

	go m.start()
	return nil
}

func (m *httpModule) start() {
	m.logger.Infow("base HTTP server listening", "address", m.address)
	if err := m.srv.Serve(m.ln); err != nil && err != http.ErrServerClosed {
		m.logger.Errorw("base HTTP server exited", "error", err)
	}
}

func (m *httpModule) OnStop(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
