// Package providers defines the interface shared by the LLM backends used for
// genre classification.
package providers

import (
	"context"
	"fmt"
	"time"
)

// Request is a single prompt sent to a provider.
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Provider completes a prompt and returns the model's text answer.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Factory builds a provider with the given request timeout.
type Factory func(timeout time.Duration) Provider

var registry = map[string]Factory{}

// Register makes a provider available by name. It is called from the
// provider packages' init functions.
func Register(name string, f Factory) {
	registry[name] = f
}

// New returns the provider registered under name.
func New(name string, timeout time.Duration) (Provider, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
	return f(timeout), nil
}
