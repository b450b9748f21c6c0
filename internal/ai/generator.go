// Package ai defines the text generation contract shared by the coaching
// operations and the provider clients.
package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Unavailable for every call.
var ErrNotConfigured = errors.New("ai provider is not configured")

// Generator submits a prompt and returns the raw text the model produced.
// Implementations make exactly one logical request per call and never
// substitute fallback content.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Unavailable is used when no provider key is configured. Every call fails,
// so callers serve their fallback data.
type Unavailable struct{}

func (Unavailable) GenerateContent(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unavailable) Model() string { return "" }
