// Package httpapi implements the base process's public HTTP surface
// (spec §6): typed symbol operations dispatched to the worker that owns
// the requested file, plus a system health endpoint.
package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lsproxy-dev/lsproxy/src/client"
	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
	"github.com/lsproxy-dev/lsproxy/src/dispatcher"
	"github.com/lsproxy-dev/lsproxy/src/language"
	"github.com/lsproxy-dev/lsproxy/src/model"
	"github.com/lsproxy-dev/lsproxy/src/orchestrator"
)

// version identifies this build in /v1/system/health responses.
const version = "0.1.0"

// Server holds the base API's HTTP handlers.
type Server struct {
	dispatcher   *dispatcher.Dispatcher
	orchestrator *orchestrator.Orchestrator
}

// NewServer constructs a Server.
func NewServer(d *dispatcher.Dispatcher, o *orchestrator.Orchestrator) *Server {
	return &Server{dispatcher: d, orchestrator: o}
}

// Routes builds the base API's chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Route("/symbol", func(r chi.Router) {
			r.Post("/find-definition", s.handleFindDefinition)
			r.Post("/find-references", s.handleFindReferences)
			r.Post("/find-referenced-symbols", s.handleFindReferencedSymbols)
			r.Post("/find-identifier", s.handleFindIdentifier)
			r.Get("/definitions-in-file", s.handleDefinitionsInFile)
		})
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.handleHealth)
		})
	})
	return r
}

func (s *Server) handleFindDefinition(w http.ResponseWriter, r *http.Request) {
	var req model.FindDefinitionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, _, err := s.dispatcher.Dispatch(req.Position.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp model.FindDefinitionResponse
	if err := c.Post(r.Context(), "/definition", req, &resp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindReferences(w http.ResponseWriter, r *http.Request) {
	var req model.FindReferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, _, err := s.dispatcher.Dispatch(req.IdentifierPosition.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp model.FindReferencesResponse
	if err := c.Post(r.Context(), "/references", req, &resp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFindReferencedSymbols leaves categorization of each referenced
// symbol (workspace-local vs. external) entirely to the worker; the base
// process only routes the request and relays the response.
func (s *Server) handleFindReferencedSymbols(w http.ResponseWriter, r *http.Request) {
	var req model.FindReferencedSymbolsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, _, err := s.dispatcher.Dispatch(req.Position.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp model.FindReferencedSymbolsResponse
	if err := c.Post(r.Context(), "/find-referenced-symbols", req, &resp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindIdentifier(w http.ResponseWriter, r *http.Request) {
	var req model.FindIdentifierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, _, err := s.dispatcher.Dispatch(req.Position.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp model.FindIdentifierResponse
	if err := c.Post(r.Context(), "/find-identifier", req, &resp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDefinitionsInFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("file_path")
	if path == "" {
		writeError(w, &lsperrors.BadRequestError{Message: "file_path query parameter is required"})
		return
	}
	c, _, err := s.dispatcher.Dispatch(path)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp model.DefinitionsInFileResponse
	if err := c.Post(r.Context(), "/symbols", map[string]string{"path": path}, &resp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	workers := s.orchestrator.AllWorkers()
	languages := make(map[language.Language]bool, len(workers))
	for _, d := range workers {
		languages[d.Language] = d.State == model.Healthy
	}
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "ok",
		Version:   version,
		Languages: languages,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, &lsperrors.BadRequestError{Message: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders err as the spec §7 problem-detail shape. A
// *client.WorkerError already carries that shape verbatim in its Body
// (the worker's own handlers render it the same way), so it is relayed
// as-is rather than re-wrapped.
func writeError(w http.ResponseWriter, err error) {
	var workerErr *client.WorkerError
	if stderrors.As(err, &workerErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(workerErr.Status)
		_, _ = w.Write([]byte(workerErr.Body))
		return
	}
	writeJSON(w, lsperrors.HTTPStatus(err), lsperrors.ToProblemDetail(err))
}
