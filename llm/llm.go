// Package llm wraps the hosted embedding and text generation models.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Embedder turns text into vectors for semantic retrieval
type Embedder interface {
	// EmbedQuery embeds a search query
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds indexed documents, one vector per input in order
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text from a rendered prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrTransient marks failures worth retrying (rate limits, 5xx, per-call timeouts)
	ErrTransient = errors.New("transient model failure")
	// ErrEmptyResponse is returned when the model answers with no usable content
	ErrEmptyResponse = errors.New("model returned empty content")
)

func markTransient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether err may succeed on retry
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded)
}

func isRetryableStatus(code int) bool {
	return code == 429 || code >= 500
}
