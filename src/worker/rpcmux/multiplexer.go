// Package rpcmux owns one LSP child process per worker and multiplexes
// many concurrent HTTP-driven requests onto its single stdin/stdout
// stream. Framing and per-id response matching are delegated to
// go.lsp.dev/jsonrpc2; this package layers the managed child's
// lifecycle and failure semantics on top of it.
package rpcmux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
)

// State is the lifecycle state of the managed LSP child.
//
//	Uninitialized --start--> Starting --initialize ok--> Ready --child exit--> Dead
//	                                \--initialize err--> Dead
type State int32

const (
	Uninitialized State = iota
	Starting
	Ready
	Dead
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Starting:
		return "Starting"
	case Ready:
		return "Ready"
	case Dead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// DefaultRequestTimeout is used when no Option overrides it.
const DefaultRequestTimeout = 30 * time.Second

// Notification is one server-initiated, id-less message such as
// window/logMessage. Notifications never consume an in-flight table
// entry; they are fanned out to subscribers instead.
type Notification struct {
	Method string
	Params interface{}
}

// Multiplexer serializes requests onto one LSP child's stdin and
// demultiplexes responses from its stdout by id. The only mutual
// exclusion it needs is inside jsonrpc2.Conn around the stdin write and
// the in-flight table; callers await their own call without holding any
// lock, so many requests can be outstanding at once.
type Multiplexer struct {
	cmd    *exec.Cmd
	conn   jsonrpc2.Conn
	logger *zap.SugaredLogger

	requestTimeout time.Duration

	state atomic.Int32

	mu          sync.Mutex
	subscribers []chan<- Notification
}

// Option configures a Multiplexer at construction.
type Option func(*Multiplexer)

// WithRequestTimeout overrides the default 30s per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Multiplexer) { m.requestTimeout = d }
}

// New starts command with args in workspacePath, wires its stdio into a
// jsonrpc2 connection, and performs the initialize/initialized
// handshake. It returns once the child is Ready, or an error if it
// never started or never finished initializing.
func New(ctx context.Context, logger *zap.SugaredLogger, command string, args []string, workspacePath string, opts ...Option) (*Multiplexer, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = workspacePath

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening lsp child stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening lsp child stdout: %w", err)
	}
	cmd.Stderr = &stderrLogWriter{logger: logger}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting lsp child: %w", err)
	}

	m, err := NewFromStream(ctx, logger, pipeConn{ReadCloser: stdout, WriteCloser: stdin}, workspacePath, opts...)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	m.cmd = cmd
	go m.monitorChild()
	return m, nil
}

// NewFromStream builds a Multiplexer over an already-connected stream,
// skipping process management. Exported so tests (here and in worker/)
// can exercise the handshake and request path over an in-memory pipe
// instead of a real child process.
func NewFromStream(ctx context.Context, logger *zap.SugaredLogger, rwc io.ReadWriteCloser, workspacePath string, opts ...Option) (*Multiplexer, error) {
	m := &Multiplexer{
		logger:         logger,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state.Store(int32(Starting))

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	conn.Go(ctx, m.handleInbound)
	m.conn = conn

	go m.watchConn()

	if err := m.initialize(ctx, workspacePath); err != nil {
		m.state.Store(int32(Dead))
		_ = conn.Close()
		return nil, err
	}

	m.state.Store(int32(Ready))
	return m, nil
}

// initialize sends the LSP initialize request with processId, rootUri, and
// a conservative capability set, then sends the initialized
// notification. Mirrors the handshake every LSP client performs before
// issuing requests.
func (m *Multiplexer) initialize(ctx context.Context, workspacePath string) error {
	ctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	rootURI := "file://" + workspacePath
	params := struct {
		ProcessID    int    `json:"processId"`
		RootURI      string `json:"rootUri"`
		Capabilities struct {
			TextDocument struct {
				DocumentSymbol struct {
					DynamicRegistration               bool `json:"dynamicRegistration"`
					HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport"`
				} `json:"documentSymbol"`
				PublishDiagnostics struct {
					RelatedInformation bool `json:"relatedInformation"`
				} `json:"publishDiagnostics"`
			} `json:"textDocument"`
		} `json:"capabilities"`
		WorkspaceFolders []struct {
			URI  string `json:"uri"`
			Name string `json:"name"`
		} `json:"workspaceFolders"`
	}{
		ProcessID: os.Getpid(),
		RootURI:   rootURI,
	}
	params.Capabilities.TextDocument.DocumentSymbol.HierarchicalDocumentSymbolSupport = true
	params.WorkspaceFolders = append(params.WorkspaceFolders, struct {
		URI  string `json:"uri"`
		Name string `json:"name"`
	}{URI: rootURI, Name: "workspace"})

	var result interface{}
	if _, err := m.conn.Call(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("lsp initialize: %w", err)
	}
	return m.conn.Notify(ctx, "initialized", struct{}{})
}

// Request sends method/params to the LSP child and blocks until its
// matching response arrives, demultiplexed by id from the shared
// stdout stream. Safe to call concurrently; the caller holds no lock
// while awaiting.
func (m *Multiplexer) Request(ctx context.Context, method string, params, result interface{}) error {
	switch State(m.state.Load()) {
	case Dead:
		return &lsperrors.ChildGoneError{}
	case Uninitialized, Starting:
		return &lsperrors.ChildNotReadyError{}
	}

	ctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	_, err := m.conn.Call(ctx, method, params, result)
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &lsperrors.TimedOutError{Method: method}
	}
	if State(m.state.Load()) == Dead {
		return &lsperrors.ChildGoneError{Cause: err}
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return &lsperrors.LspError{Code: int(rpcErr.Code), Message: rpcErr.Message}
	}
	return &lsperrors.LspError{Message: err.Error()}
}

// Notify sends a fire-and-forget message to the LSP child.
func (m *Multiplexer) Notify(ctx context.Context, method string, params interface{}) error {
	if State(m.state.Load()) != Ready {
		return &lsperrors.ChildNotReadyError{}
	}
	return m.conn.Notify(ctx, method, params)
}

// State reports the current lifecycle state.
func (m *Multiplexer) State() State {
	return State(m.state.Load())
}

// Subscribe returns a channel fed with every notification the child
// sends (e.g. window/logMessage). The channel is buffered and
// non-blocking on the sender's side: a slow subscriber drops
// notifications rather than stalling the reader.
func (m *Multiplexer) Subscribe() <-chan Notification {
	ch := make(chan Notification, 32)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

// Close stops the child and releases the connection. Idempotent.
func (m *Multiplexer) Close() error {
	m.state.Store(int32(Dead))
	err := m.conn.Close()
	if m.cmd != nil && m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
	}
	return err
}

// handleInbound services messages the child sends us unprompted.
// Requests from the child (e.g. workspace/configuration) aren't
// supported by this adapter; replying with a null result keeps the
// child from blocking on an answer that will never come otherwise.
// Notifications are fanned out to subscribers.
func (m *Multiplexer) handleInbound(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if _, isCall := req.(*jsonrpc2.Call); !isCall {
		m.broadcast(Notification{Method: req.Method(), Params: req.Params()})
		return nil
	}
	return reply(ctx, nil, nil)
}

func (m *Multiplexer) broadcast(n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- n:
		default:
		}
	}
}

// watchConn marks the Multiplexer Dead the moment the underlying
// connection closes, whether that's because the child exited, the
// stream hit EOF, or Close was called explicitly. This is what lets
// Request fail fast with ChildGone instead of hanging.
func (m *Multiplexer) watchConn() {
	<-m.conn.Done()
	m.state.Store(int32(Dead))
	if err := m.conn.Err(); err != nil {
		m.logger.Debugw("lsp connection closed", "error", err)
	}
}

// monitorChild waits for the real child process to exit and closes the
// connection in response, which in turn drives watchConn.
func (m *Multiplexer) monitorChild() {
	err := m.cmd.Wait()
	if err != nil {
		m.logger.Warnw("lsp child process exited", "error", err)
	} else {
		m.logger.Info("lsp child process exited")
	}
	_ = m.conn.Close()
}

type pipeConn struct {
	io.ReadCloser
	io.WriteCloser
}

func (p pipeConn) Close() error {
	werr := p.WriteCloser.Close()
	rerr := p.ReadCloser.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

type stderrLogWriter struct {
	logger *zap.SugaredLogger
}

func (w *stderrLogWriter) Write(p []byte) (int, error) {
	w.logger.Debugw("lsp child stderr", "output", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
