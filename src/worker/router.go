// Package worker implements the per-language worker's HTTP surface
// (spec §4.E): a thin adapter between the base process's typed requests
// and the LSP child process managed by rpcmux.Multiplexer.
package worker

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
	"github.com/lsproxy-dev/lsproxy/src/internal/fs"
	"github.com/lsproxy-dev/lsproxy/src/internal/pathmap"
	"github.com/lsproxy-dev/lsproxy/src/model"
	"github.com/lsproxy-dev/lsproxy/src/worker/rpcmux"
)

// Server holds the worker's HTTP handlers. It is stateless beyond the
// Multiplexer holder and the workspace mount it was constructed with.
type Server struct {
	holder     *MultiplexerHolder
	fs         fs.LsproxyFS
	logger     *zap.SugaredLogger
	augmenter  AstGrepAugmenter
	workerRoot string
}

// NewServer constructs a Server.
func NewServer(holder *MultiplexerHolder, lfs fs.LsproxyFS, logger *zap.SugaredLogger, augmenter AstGrepAugmenter) *Server {
	return &Server{
		holder:     holder,
		fs:         lfs,
		logger:     logger,
		augmenter:  augmenter,
		workerRoot: pathmap.Resolve().WorkerPath,
	}
}

// mux returns the live Multiplexer, or ChildNotReadyError if the LSP
// child hasn't been launched yet (OnStart hasn't run, or is still
// mid-handshake).
func (s *Server) mux() (*rpcmux.Multiplexer, error) {
	m := s.holder.Get()
	if m == nil {
		return nil, &lsperrors.ChildNotReadyError{}
	}
	return m, nil
}

// Routes builds the worker's chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Post("/lsp", s.handleLSP)
	r.Post("/definition", s.handleDefinition)
	r.Post("/references", s.handleReferences)
	r.Post("/symbols", s.handleSymbols)
	r.Post("/find-identifier", s.handleFindIdentifier)
	r.Post("/find-referenced-symbols", s.handleFindReferencedSymbols)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mux := s.holder.Get()
	if mux == nil || mux.State() != rpcmux.Ready {
		writeJSON(w, http.StatusServiceUnavailable, model.WorkerHealthResponse{Status: "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, model.WorkerHealthResponse{Status: "ok"})
}

// handleLSP passes a JSON-RPC message through to the LSP child verbatim,
// per §4.E's "opaque passthrough" requirement. A message carrying an id
// is relayed as a request and answered in kind; one without an id is a
// notification and gets an empty 204 in response.
func (s *Server) handleLSP(w http.ResponseWriter, r *http.Request) {
	var msg model.JSONRPCMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: "invalid JSON-RPC message: " + err.Error()})
		return
	}
	if msg.Method == "" {
		writeError(w, &lsperrors.BadRequestError{Message: "missing method"})
		return
	}

	mux, err := s.mux()
	if err != nil {
		writeError(w, err)
		return
	}

	if msg.ID == nil {
		if err := mux.Notify(r.Context(), msg.Method, msg.Params); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var result json.RawMessage
	if err := mux.Request(r.Context(), msg.Method, msg.Params, &result); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.JSONRPCMessage{JSONRPC: "2.0", ID: msg.ID, Result: result})
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	var req model.FindDefinitionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.validatePath(w, req.Position.Path) {
		return
	}

	content, err := s.fs.ReadFile(s.resolvePath(req.Position.Path))
	if err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: "reading " + req.Position.Path + ": " + err.Error()})
		return
	}

	mux, err := s.mux()
	if err != nil {
		writeError(w, err)
		return
	}

	params := lspTextDocumentPositionParams{
		TextDocument: lspTextDocumentIdentifier{URI: fileURI(s.workerRoot, req.Position.Path)},
		Position:     lspPosition{Line: req.Position.Position.Line, Character: req.Position.Position.Character},
	}
	var raw json.RawMessage
	if err := mux.Request(r.Context(), "textDocument/definition", params, &raw); err != nil {
		writeError(w, err)
		return
	}
	locations, err := decodeLocations(raw)
	if err != nil {
		writeError(w, &lsperrors.LspError{Message: "decoding definition result: " + err.Error()})
		return
	}

	resp := model.FindDefinitionResponse{
		SelectedIdentifier: extractIdentifier(string(content), req.Position.Position.Line, req.Position.Position.Character),
	}
	for _, loc := range locations {
		relPath, _ := pathFromURI(s.workerRoot, loc.URI)
		resp.Definitions = append(resp.Definitions, model.FilePosition{
			Path:     relPath,
			Position: model.Position{Line: loc.Range.Start.Line, Character: loc.Range.Start.Character},
		})
	}
	if req.IncludeSourceCode {
		resp.SourceCode = string(content)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	var req model.FindReferencesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.validatePath(w, req.IdentifierPosition.Path) {
		return
	}

	content, err := s.fs.ReadFile(s.resolvePath(req.IdentifierPosition.Path))
	if err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: "reading " + req.IdentifierPosition.Path + ": " + err.Error()})
		return
	}

	params := lspReferenceParams{
		lspTextDocumentPositionParams: lspTextDocumentPositionParams{
			TextDocument: lspTextDocumentIdentifier{URI: fileURI(s.workerRoot, req.IdentifierPosition.Path)},
			Position:     lspPosition{Line: req.IdentifierPosition.Position.Line, Character: req.IdentifierPosition.Position.Character},
		},
	}
	params.Context.IncludeDeclaration = false

	mux, err := s.mux()
	if err != nil {
		writeError(w, err)
		return
	}
	var locations []lspLocation
	if err := mux.Request(r.Context(), "textDocument/references", params, &locations); err != nil {
		writeError(w, err)
		return
	}

	resp := model.FindReferencesResponse{
		SelectedIdentifier: extractIdentifier(string(content), req.IdentifierPosition.Position.Line, req.IdentifierPosition.Position.Character),
	}
	for _, loc := range locations {
		relPath, underBase := pathFromURI(s.workerRoot, loc.URI)
		result := model.ReferenceResult{
			Path:     relPath,
			Position: model.Position{Line: loc.Range.Start.Line, Character: loc.Range.Start.Character},
		}
		if underBase && req.ContextLines > 0 {
			if fileContent, err := s.fs.ReadFile(s.resolvePath(relPath)); err == nil {
				result.Context = extractContext(string(fileContent), loc.Range.Start.Line, req.ContextLines)
			}
		}
		resp.References = append(resp.References, result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSymbols backs the base API's definitions-in-file endpoint: it
// lists every symbol DocumentSymbol reports for one file.
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.validatePath(w, req.Path) {
		return
	}

	params := lspDocumentSymbolParams{TextDocument: lspTextDocumentIdentifier{URI: fileURI(s.workerRoot, req.Path)}}
	mux, err := s.mux()
	if err != nil {
		writeError(w, err)
		return
	}
	var symbols []lspDocumentSymbol
	if err := mux.Request(r.Context(), "textDocument/documentSymbol", params, &symbols); err != nil {
		writeError(w, err)
		return
	}

	resp := model.DefinitionsInFileResponse{}
	for _, sym := range flattenSymbols(symbols) {
		resp.Definitions = append(resp.Definitions, model.FilePosition{
			Path:     req.Path,
			Position: model.Position{Line: sym.Position.Line, Character: sym.Position.Character},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindIdentifier(w http.ResponseWriter, r *http.Request) {
	var req model.FindIdentifierRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.validatePath(w, req.Position.Path) {
		return
	}

	content, err := s.fs.ReadFile(s.resolvePath(req.Position.Path))
	if err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: "reading " + req.Position.Path + ": " + err.Error()})
		return
	}
	identifier := extractIdentifier(string(content), req.Position.Position.Line, req.Position.Position.Character)
	writeJSON(w, http.StatusOK, model.FindIdentifierResponse{Identifier: identifier})
}

// handleFindReferencedSymbols resolves the identifier under Position,
// then reports every site referencing it. FullScan widens the search
// from the current file to the whole workspace; whether a referencing
// site counts as external is decided purely by whether the LSP server
// resolved it outside the workspace mount (a vendored dependency or a
// bundled stdlib source, for instance).
func (s *Server) handleFindReferencedSymbols(w http.ResponseWriter, r *http.Request) {
	var req model.FindReferencedSymbolsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.validatePath(w, req.Position.Path) {
		return
	}

	content, err := s.fs.ReadFile(s.resolvePath(req.Position.Path))
	if err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: "reading " + req.Position.Path + ": " + err.Error()})
		return
	}
	identifier := extractIdentifier(string(content), req.Position.Position.Line, req.Position.Position.Character)

	params := lspReferenceParams{
		lspTextDocumentPositionParams: lspTextDocumentPositionParams{
			TextDocument: lspTextDocumentIdentifier{URI: fileURI(s.workerRoot, req.Position.Path)},
			Position:     lspPosition{Line: req.Position.Position.Line, Character: req.Position.Position.Character},
		},
	}
	params.Context.IncludeDeclaration = true

	mux, err := s.mux()
	if err != nil {
		writeError(w, err)
		return
	}
	var locations []lspLocation
	if err := mux.Request(r.Context(), "textDocument/references", params, &locations); err != nil {
		writeError(w, err)
		return
	}

	var symbols []model.ReferencedSymbol
	for _, loc := range locations {
		relPath, underBase := pathFromURI(s.workerRoot, loc.URI)
		if !req.FullScan && relPath != req.Position.Path {
			continue
		}
		symbols = append(symbols, model.ReferencedSymbol{
			Name:     identifier,
			Path:     relPath,
			Position: model.Position{Line: loc.Range.Start.Line, Character: loc.Range.Start.Character},
			External: !underBase,
		})
	}

	symbols, err = s.augmenter.Augment(r.Context(), req.Position.Path, symbols)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.FindReferencedSymbolsResponse{Symbols: symbols})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) validatePath(w http.ResponseWriter, path string) bool {
	if err := validatePositionPath(path); err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: err.Error()})
		return false
	}
	return true
}

func (s *Server) resolvePath(relPath string) string {
	return s.workerRoot + "/" + relPath
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, lsperrors.HTTPStatus(err), lsperrors.ToProblemDetail(err))
}
