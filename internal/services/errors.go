package services

import "errors"

var (
	ErrUnsupportedFormat      = errors.New("unsupported document format")
	ErrLoadFailure            = errors.New("failed to load document")
	ErrEmptyDocument          = errors.New("document has no text content")
	ErrEmbeddingProvider      = errors.New("embedding provider error")
	ErrModelInvocation        = errors.New("model invocation error")
	ErrRemoteTransport        = errors.New("remote evaluator transport error")
	ErrRemoteTimeout          = errors.New("remote evaluator timed out")
	ErrLocalProcessTimeout    = errors.New("local evaluation timed out")
	ErrLocalProcessFailure    = errors.New("local evaluation failed")
	ErrInvalidChunkParameters = errors.New("invalid chunk parameters")
)
