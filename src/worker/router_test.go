package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/worker/rpcmux"
)

// fakeLSPServer stands in for the worker's managed LSP child over an
// in-memory pipe, the same technique rpcmux's own tests use.
type fakeLSPServer struct {
	conn jsonrpc2.Conn
}

func newFakeLSPServer(ctx context.Context, rwc net.Conn, reply func(method string) (interface{}, error)) *fakeLSPServer {
	s := &fakeLSPServer{}
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	conn.Go(ctx, func(ctx context.Context, r jsonrpc2.Replier, req jsonrpc2.Request) error {
		if _, isCall := req.(*jsonrpc2.Call); !isCall {
			return nil
		}
		result, err := reply(req.Method())
		return r(ctx, result, err)
	})
	s.conn = conn
	return s
}

func newTestServer(t *testing.T, workspaceRoot string, reply func(method string) (interface{}, error)) *Server {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	ctx := context.Background()
	newFakeLSPServer(ctx, serverConn, reply)

	mux, err := rpcmux.NewFromStream(ctx, zap.NewNop().Sugar(), clientConn, workspaceRoot)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mux.Close() })

	holder := NewMultiplexerHolder()
	holder.set(mux)

	return &Server{
		holder:     holder,
		fs:         fs.New(),
		logger:     zap.NewNop().Sugar(),
		augmenter:  NoopAugmenter{},
		workerRoot: workspaceRoot,
	}
}

func TestServer_HandleHealth(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir, func(string) (interface{}, error) { return map[string]interface{}{}, nil })

	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_HandleDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))

	srv := newTestServer(t, dir, func(method string) (interface{}, error) {
		if method != "textDocument/definition" {
			return map[string]interface{}{}, nil
		}
		return []map[string]interface{}{
			{
				"uri": "file://" + dir + "/main.go",
				"range": map[string]interface{}{
					"start": map[string]int{"line": 2, "character": 5},
					"end":   map[string]int{"line": 2, "character": 9},
				},
			},
		}, nil
	})

	body, _ := json.Marshal(map[string]interface{}{
		"position": map[string]interface{}{
			"path":     "main.go",
			"position": map[string]int{"line": 2, "character": 5},
		},
	})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/definition", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Definitions []struct {
			Path     string `json:"path"`
			Position struct {
				Line      int `json:"line"`
				Character int `json:"character"`
			} `json:"position"`
		} `json:"definitions"`
		SelectedIdentifier string `json:"selected_identifier"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Definitions, 1)
	assert.Equal(t, "main.go", resp.Definitions[0].Path)
	assert.Equal(t, 2, resp.Definitions[0].Position.Line)
	assert.Equal(t, "main", resp.SelectedIdentifier)
}

func TestServer_HandleFindIdentifier(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("value = compute()\n"), 0644))

	srv := newTestServer(t, dir, func(string) (interface{}, error) { return map[string]interface{}{}, nil })

	body, _ := json.Marshal(map[string]interface{}{
		"position": map[string]interface{}{
			"path":     "a.py",
			"position": map[string]int{"line": 0, "character": 8},
		},
	})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/find-identifier", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Identifier string `json:"identifier"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "compute", resp.Identifier)
}

func TestServer_HandleDefinition_MissingPathIsBadRequest(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir, func(string) (interface{}, error) { return map[string]interface{}{}, nil })

	body, _ := json.Marshal(map[string]interface{}{"position": map[string]interface{}{"path": ""}})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/definition", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_HandleLSP_RequestPassthrough(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir, func(method string) (interface{}, error) {
		if method == "workspace/symbol" {
			return []map[string]interface{}{{"name": "Foo"}}, nil
		}
		return map[string]interface{}{}, nil
	})

	id := int64(7)
	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "workspace/symbol",
		"params":  map[string]interface{}{"query": "Foo"},
	})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/lsp", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ID     int64             `json:"id"`
		Result []json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	require.Len(t, resp.Result, 1)
}

func TestServer_HandleLSP_NotificationGetsNoContent(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir, func(string) (interface{}, error) { return map[string]interface{}{}, nil })

	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "textDocument/didOpen",
		"params":  map[string]interface{}{},
	})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/lsp", bytes.NewReader(body)))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestServer_HandleSymbols(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir, func(method string) (interface{}, error) {
		if method != "textDocument/documentSymbol" {
			return map[string]interface{}{}, nil
		}
		return []map[string]interface{}{
			{
				"name":           "Widget",
				"selectionRange": map[string]interface{}{"start": map[string]int{"line": 1, "character": 5}, "end": map[string]int{"line": 1, "character": 11}},
				"children": []map[string]interface{}{
					{"name": "Render", "selectionRange": map[string]interface{}{"start": map[string]int{"line": 3, "character": 2}, "end": map[string]int{"line": 3, "character": 8}}},
				},
			},
		}, nil
	})

	body, _ := json.Marshal(map[string]interface{}{"path": "widget.go"})
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/symbols", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Definitions []struct {
			Position struct {
				Line int `json:"line"`
			} `json:"position"`
		} `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Definitions, 2)
	assert.Equal(t, 1, resp.Definitions[0].Position.Line)
	assert.Equal(t, 3, resp.Definitions[1].Position.Line)
}
