package rpcmux

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeServer drives the "LSP child" side of an in-memory pipe, answering
// initialize and recording every other request it receives.
type fakeServer struct {
	conn jsonrpc2.Conn

	mu       sync.Mutex
	received []string
	reply    func(method string) (interface{}, error)
}

func newFakeServer(ctx context.Context, rwc net.Conn, reply func(method string) (interface{}, error)) *fakeServer {
	s := &fakeServer{reply: reply}
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	conn.Go(ctx, s.handle)
	s.conn = conn
	return s
}

func (s *fakeServer) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.mu.Lock()
	s.received = append(s.received, req.Method())
	s.mu.Unlock()

	if _, isCall := req.(*jsonrpc2.Call); !isCall {
		return nil
	}
	result, err := s.reply(req.Method())
	return reply(ctx, result, err)
}

func (s *fakeServer) methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}

func newTestPair(t *testing.T, reply func(method string) (interface{}, error)) (*Multiplexer, *fakeServer) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	ctx := context.Background()

	srv := newFakeServer(ctx, serverConn, reply)

	m, err := NewFromStream(ctx, zap.NewNop().Sugar(), clientConn, "/workspace", WithRequestTimeout(2*time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m, srv
}

func TestMultiplexer_HandshakeReachesReady(t *testing.T) {
	m, srv := newTestPair(t, func(method string) (interface{}, error) {
		return map[string]interface{}{"capabilities": map[string]interface{}{}}, nil
	})

	assert.Equal(t, Ready, m.State())
	assert.Contains(t, srv.methods(), "initialize")
}

func TestMultiplexer_RequestRoundTrip(t *testing.T) {
	m, _ := newTestPair(t, func(method string) (interface{}, error) {
		if method == "textDocument/definition" {
			return []interface{}{map[string]interface{}{"uri": "file:///a.go"}}, nil
		}
		return map[string]interface{}{}, nil
	})

	var result []map[string]interface{}
	err := m.Request(context.Background(), "textDocument/definition", map[string]interface{}{}, &result)
	require.NoError(t, err)
	assert.Equal(t, "file:///a.go", result[0]["uri"])
}

func TestMultiplexer_ConcurrentRequestsGetDistinctResults(t *testing.T) {
	m, _ := newTestPair(t, func(method string) (interface{}, error) {
		return map[string]interface{}{"method": method}, nil
	})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	results := make([]map[string]interface{}, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Request(context.Background(), "textDocument/hover", nil, &results[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err)
		assert.Equal(t, "textDocument/hover", results[i]["method"])
	}
}

func TestMultiplexer_RequestFailsWhenChildGone(t *testing.T) {
	m, _ := newTestPair(t, func(method string) (interface{}, error) {
		return map[string]interface{}{}, nil
	})

	require.NoError(t, m.Close())
	// watchConn observes the closed connection asynchronously.
	require.Eventually(t, func() bool { return m.State() == Dead }, time.Second, time.Millisecond)

	var result interface{}
	err := m.Request(context.Background(), "textDocument/hover", nil, &result)
	var gone *lsperrors.ChildGoneError
	assert.ErrorAs(t, err, &gone)
}

func TestMultiplexer_RequestTimesOutOnUnresponsiveChild(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	ctx := context.Background()

	// The fake server answers initialize but then ignores every
	// subsequent request, leaving it to hang until the test releases it
	// at cleanup; blocking on a channel instead of forever keeps its
	// handler goroutine from outliving the test.
	unblock := make(chan struct{})
	t.Cleanup(func() { close(unblock) })
	newFakeServer(ctx, serverConn, func(method string) (interface{}, error) {
		if method == "initialize" {
			return map[string]interface{}{}, nil
		}
		<-unblock
		return map[string]interface{}{}, nil
	})

	m, err := NewFromStream(ctx, zap.NewNop().Sugar(), clientConn, "/workspace", WithRequestTimeout(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	var result interface{}
	err = m.Request(context.Background(), "textDocument/definition", nil, &result)
	var timedOut *lsperrors.TimedOutError
	assert.ErrorAs(t, err, &timedOut)
}

func TestMultiplexer_NotificationsAreFannedOutToSubscribers(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	ctx := context.Background()
	srv := newFakeServer(ctx, serverConn, func(method string) (interface{}, error) {
		return map[string]interface{}{}, nil
	})

	m, err := NewFromStream(ctx, zap.NewNop().Sugar(), clientConn, "/workspace", WithRequestTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	sub := m.Subscribe()
	require.NoError(t, srv.conn.Notify(ctx, "window/logMessage", map[string]interface{}{"message": "hi"}))

	select {
	case n := <-sub:
		assert.Equal(t, "window/logMessage", n.Method)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestMultiplexer_NotifyBeforeReadyFails(t *testing.T) {
	m := &Multiplexer{requestTimeout: time.Second}
	m.state.Store(int32(Starting))
	err := m.Notify(context.Background(), "exit", nil)
	var notReady *lsperrors.ChildNotReadyError
	assert.ErrorAs(t, err, &notReady)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Uninitialized", Uninitialized.String())
	assert.Equal(t, "Starting", Starting.String())
	assert.Equal(t, "Ready", Ready.String())
	assert.Equal(t, "Dead", Dead.String())
	assert.Equal(t, "Unknown", State(99).String())
}
