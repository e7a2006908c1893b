// Package llm provides a provider-neutral chat completion client. The turn
// pipeline treats the model as a black box: it hands over an instruction, a
// history window and generation parameters, and gets text back.
package llm

import (
	"context"
	"errors"
)

type Message struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// Request is one completion call. Model, Temperature and MaxTokens come from
// the admin-configured AI settings.
type Request struct {
	System      string
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrNotConfigured is returned when no API key is available. Callers degrade
// to a fixed fallback reply instead of surfacing this to end users.
var ErrNotConfigured = errors.New("llm: no API key configured")

// unconfigured is the client used in demo mode.
type unconfigured struct{}

func (unconfigured) Complete(ctx context.Context, req Request) (string, error) {
	return "", ErrNotConfigured
}
