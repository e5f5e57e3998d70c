// Package model defines the wire and in-memory shapes shared between the
// orchestrator, the base HTTP API, and worker clients.
package model

import (
	"time"

	"github.com/lsproxy-dev/lsproxy/src/language"
)

// WorkerState is the lifecycle state of one WorkerDescriptor. Entries
// transition monotonically Spawning -> Healthy -> Stopping -> Gone, or
// Spawning -> Failed -> Gone.
type WorkerState string

const (
	Spawning WorkerState = "Spawning"
	Healthy  WorkerState = "Healthy"
	Failed   WorkerState = "Failed"
	Stopping WorkerState = "Stopping"
	Gone     WorkerState = "Gone"
)

// WorkerDescriptor identifies one running (or transitioning) worker.
type WorkerDescriptor struct {
	Language         language.Language
	ImageRef         string
	ContainerID      string
	NetworkAliasOrIP string
	Port             int
	EndpointURL      string
	SpawnedAt        time.Time
	State            WorkerState
}

// Position is a zero-based line/character location inside a file, mirroring
// the LSP position shape.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// FilePosition pairs a workspace-relative path with a Position inside it.
type FilePosition struct {
	Path     string   `json:"path"`
	Position Position `json:"position"`
}

// JSONRPCMessage is a JSON-RPC 2.0 message (request, response, or
// notification) as exchanged between a worker's multiplexer and the LSP
// child process. Requests and responses carry an id; notifications omit
// it.
type JSONRPCMessage struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      *int64        `json:"id,omitempty"`
	Method  string        `json:"method,omitempty"`
	Params  interface{}   `json:"params,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC error object.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FindDefinitionRequest is the base API's /v1/symbol/find-definition body.
type FindDefinitionRequest struct {
	Position          FilePosition `json:"position"`
	IncludeSourceCode bool         `json:"include_source_code,omitempty"`
}

// FindDefinitionResponse is the corresponding response.
type FindDefinitionResponse struct {
	Definitions       []FilePosition `json:"definitions"`
	SelectedIdentifier string        `json:"selected_identifier"`
	SourceCode        string         `json:"source_code,omitempty"`
}

// FindReferencesRequest is the base API's /v1/symbol/find-references body.
type FindReferencesRequest struct {
	IdentifierPosition FilePosition `json:"identifier_position"`
	ContextLines       int          `json:"context_lines,omitempty"`
}

// ReferenceResult is one entry in a FindReferencesResponse.
type ReferenceResult struct {
	Path     string   `json:"path"`
	Position Position `json:"position"`
	Context  string   `json:"context,omitempty"`
}

// FindReferencesResponse is the corresponding response.
type FindReferencesResponse struct {
	References         []ReferenceResult `json:"references"`
	SelectedIdentifier string            `json:"selected_identifier"`
}

// FindReferencedSymbolsRequest is the base API's
// /v1/symbol/find-referenced-symbols body. FullScan controls whether the
// worker limits its search to the current file or spans the workspace.
type FindReferencedSymbolsRequest struct {
	Position FilePosition `json:"position"`
	FullScan bool         `json:"full_scan,omitempty"`
}

// ReferencedSymbol is one entry in a FindReferencedSymbolsResponse.
type ReferencedSymbol struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Position Position `json:"position"`
	External bool     `json:"external"`
}

// FindReferencedSymbolsResponse is the corresponding response.
type FindReferencedSymbolsResponse struct {
	Symbols []ReferencedSymbol `json:"symbols"`
}

// FindIdentifierRequest is the base API's /v1/symbol/find-identifier body.
type FindIdentifierRequest struct {
	Position FilePosition `json:"position"`
}

// FindIdentifierResponse is the corresponding response.
type FindIdentifierResponse struct {
	Identifier string `json:"identifier"`
}

// DefinitionsInFileResponse is the response to
// GET /v1/symbol/definitions-in-file.
type DefinitionsInFileResponse struct {
	Definitions []FilePosition `json:"definitions"`
}

// HealthResponse is the response to GET /v1/system/health.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Version   string                    `json:"version"`
	Languages map[language.Language]bool `json:"languages"`
}

// WorkerHealthResponse is the response each worker's GET /health returns.
type WorkerHealthResponse struct {
	Status string `json:"status"`
}
