// Package errors defines the taxonomy of error kinds from spec §7 and
// renders them as the problem-detail shape the HTTP surfaces return.
package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

// Kind identifies one of the error taxonomy entries from spec §7.
type Kind string

const (
	KindEngineUnavailable Kind = "EngineUnavailable"
	KindImageMissing      Kind = "ImageMissing"
	KindSpawnFailed       Kind = "SpawnFailed"
	KindHealthTimeout     Kind = "HealthTimeout"
	KindChildNotReady     Kind = "ChildNotReady"
	KindChildGone         Kind = "ChildGone"
	KindTransport         Kind = "TransportError"
	KindLsp               Kind = "LspError"
	KindTimedOut          Kind = "TimedOut"
	KindBadRequest        Kind = "BadRequest"
	KindNoWorkerForLang   Kind = "NoWorkerForLanguage"
)

// TypedError is implemented by every error in the taxonomy below.
type TypedError interface {
	error
	Kind() Kind
	Details() string
}

// EngineUnavailableError reports that the container engine socket is
// missing or refused a connection. Fatal at init.
type EngineUnavailableError struct {
	Cause error
}

func (e *EngineUnavailableError) Error() string {
	return "container engine unavailable: " + e.Cause.Error()
}
func (e *EngineUnavailableError) Kind() Kind      { return KindEngineUnavailable }
func (e *EngineUnavailableError) Details() string { return e.Cause.Error() }
func (e *EngineUnavailableError) Unwrap() error   { return e.Cause }

// ImageMissingError reports that a resolved image tag could not be pulled.
type ImageMissingError struct {
	Image string
	Cause error
}

func (e *ImageMissingError) Error() string {
	return "image " + e.Image + " is not available: " + e.Cause.Error()
}
func (e *ImageMissingError) Kind() Kind      { return KindImageMissing }
func (e *ImageMissingError) Details() string { return e.Image }
func (e *ImageMissingError) Unwrap() error   { return e.Cause }

// SpawnFailedError reports that container create or start was rejected by
// the engine.
type SpawnFailedError struct {
	Language string
	Cause    error
}

func (e *SpawnFailedError) Error() string {
	return "failed to spawn worker for " + e.Language + ": " + e.Cause.Error()
}
func (e *SpawnFailedError) Kind() Kind      { return KindSpawnFailed }
func (e *SpawnFailedError) Details() string { return e.Cause.Error() }
func (e *SpawnFailedError) Unwrap() error   { return e.Cause }

// HealthTimeoutError reports that a worker never reached Healthy within its
// deadline. Details carries the tail of the container's logs.
type HealthTimeoutError struct {
	Language string
	Deadline string
	LogTail  string
}

func (e *HealthTimeoutError) Error() string {
	return "worker for " + e.Language + " did not become healthy within " + e.Deadline
}
func (e *HealthTimeoutError) Kind() Kind      { return KindHealthTimeout }
func (e *HealthTimeoutError) Details() string { return e.LogTail }

// ChildNotReadyError reports that the LSP child process has not yet
// completed initialization.
type ChildNotReadyError struct{}

func (e *ChildNotReadyError) Error() string   { return "LSP process is not ready" }
func (e *ChildNotReadyError) Kind() Kind      { return KindChildNotReady }
func (e *ChildNotReadyError) Details() string { return "" }

// ChildGoneError reports that the LSP child process has exited.
type ChildGoneError struct {
	Cause error
}

func (e *ChildGoneError) Error() string {
	if e.Cause == nil {
		return "LSP process exited"
	}
	return "LSP process exited: " + e.Cause.Error()
}
func (e *ChildGoneError) Kind() Kind { return KindChildGone }
func (e *ChildGoneError) Details() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}
func (e *ChildGoneError) Unwrap() error { return e.Cause }

// TransportError reports a base<->worker HTTP failure.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string   { return "transport error: " + e.Cause.Error() }
func (e *TransportError) Kind() Kind      { return KindTransport }
func (e *TransportError) Details() string { return e.Cause.Error() }
func (e *TransportError) Unwrap() error   { return e.Cause }

// LspError carries a JSON-RPC error object returned by the LSP server.
type LspError struct {
	Code    int
	Message string
}

func (e *LspError) Error() string   { return e.Message }
func (e *LspError) Kind() Kind      { return KindLsp }
func (e *LspError) Details() string { return e.Message }

// TimedOutError reports that a local deadline on an LSP request elapsed.
type TimedOutError struct {
	Method string
}

func (e *TimedOutError) Error() string   { return "request " + e.Method + " timed out" }
func (e *TimedOutError) Kind() Kind      { return KindTimedOut }
func (e *TimedOutError) Details() string { return e.Method }

// BadRequestError reports a malformed request or a path-translation error
// (e.g. a caller path that resolves outside the workspace).
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string   { return e.Message }
func (e *BadRequestError) Kind() Kind      { return KindBadRequest }
func (e *BadRequestError) Details() string { return "" }

// NoWorkerForLanguageError reports that worker_for_file found no worker
// registered for the language implied by a file's extension.
type NoWorkerForLanguageError struct {
	Path string
}

func (e *NoWorkerForLanguageError) Error() string {
	return "no worker available for " + e.Path
}
func (e *NoWorkerForLanguageError) Kind() Kind      { return KindNoWorkerForLang }
func (e *NoWorkerForLanguageError) Details() string { return e.Path }

// IsBadRequest reports whether err (or something it wraps) is a
// BadRequestError or a NoWorkerForLanguageError, both of which are
// surfaced to callers as HTTP 400.
func IsBadRequest(err error) bool {
	var bad *BadRequestError
	var noWorker *NoWorkerForLanguageError
	return stderr.As(err, &bad) || stderr.As(err, &noWorker)
}

// HTTPStatus maps a TypedError's Kind to the HTTP status code the API
// surfaces should return, per spec §7.
func HTTPStatus(err error) int {
	var typed TypedError
	if !stderr.As(err, &typed) {
		return 500
	}
	switch typed.Kind() {
	case KindBadRequest, KindNoWorkerForLang:
		return 400
	case KindChildNotReady, KindChildGone:
		return 503
	case KindTimedOut:
		return 504
	default:
		return 500
	}
}

// ProblemDetail is the user-visible error body from spec §7:
// {error: {kind, message, details?}}.
type ProblemDetail struct {
	Error ProblemDetailBody `json:"error"`
}

// ProblemDetailBody is the inner object of ProblemDetail.
type ProblemDetailBody struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ToProblemDetail converts any error into the wire shape for HTTP
// responses. Internal exceptions never leak: unrecognized errors are
// rendered with a generic message.
func ToProblemDetail(err error) ProblemDetail {
	var typed TypedError
	if stderr.As(err, &typed) {
		return ProblemDetail{Error: ProblemDetailBody{
			Kind:    typed.Kind(),
			Message: typed.Error(),
			Details: typed.Details(),
		}}
	}
	return ProblemDetail{Error: ProblemDetailBody{
		Kind:    "InternalError",
		Message: "an internal error occurred",
	}}
}
