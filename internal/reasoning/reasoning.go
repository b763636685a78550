// Package reasoning defines the interface to the language-model step. The
// model is a black box: a system policy and a user message go in, free-form
// text comes out, and nothing about that text is trusted.
package reasoning

import (
	"context"
	"errors"
)

// Reasoning errors.
var (
	// ErrProviderUnavailable indicates the model endpoint could not be
	// reached or returned a non-OK response.
	ErrProviderUnavailable = errors.New("reasoning provider unavailable")
	// ErrEmptyCompletion indicates the endpoint answered with no text.
	ErrEmptyCompletion = errors.New("reasoning provider returned no completion")
)

// Provider executes one reasoning call.
type Provider interface {
	// Complete sends the system policy and user message and returns the raw
	// completion text.
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// Name returns the provider name for logging.
	Name() string
}
