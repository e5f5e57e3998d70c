package errors

import (
	"testing"

	stderr "errors"

	"github.com/stretchr/testify/assert"
)

func TestIsBadRequest(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad request", &BadRequestError{Message: "bad path"}, true},
		{"no worker for language", &NoWorkerForLanguageError{Path: "main.rs"}, true},
		{"child gone", &ChildGoneError{}, false},
		{"plain error", stderr.New("plain"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsBadRequest(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", &BadRequestError{Message: "x"}, 400},
		{"no worker", &NoWorkerForLanguageError{Path: "a.py"}, 400},
		{"child not ready", &ChildNotReadyError{}, 503},
		{"child gone", &ChildGoneError{}, 503},
		{"timed out", &TimedOutError{Method: "textDocument/definition"}, 504},
		{"engine unavailable", &EngineUnavailableError{Cause: stderr.New("refused")}, 500},
		{"untyped", stderr.New("boom"), 500},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestToProblemDetail(t *testing.T) {
	pd := ToProblemDetail(&HealthTimeoutError{Language: "ruby", Deadline: "30s", LogTail: "booting"})
	assert.Equal(t, KindHealthTimeout, pd.Error.Kind)
	assert.Equal(t, "booting", pd.Error.Details)

	generic := ToProblemDetail(stderr.New("unexpected"))
	assert.Equal(t, Kind("InternalError"), generic.Error.Kind)
	assert.Equal(t, "an internal error occurred", generic.Error.Message)
}

func TestEngineUnavailableUnwrap(t *testing.T) {
	cause := stderr.New("dial unix: no such file")
	err := &EngineUnavailableError{Cause: cause}
	assert.ErrorIs(t, err, cause)
}
