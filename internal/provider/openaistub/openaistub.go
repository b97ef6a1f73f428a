// Package openaistub is a placeholder secondary provider. It answers every
// request with a fixed message instead of failing the pipeline, so switching
// the provider tag to "openai" before the real integration lands is
// operationally safe.
package openaistub

import (
	"context"
	"log"

	"github.com/voxpoll/voxpoll/internal/provider"
)

const notImplemented = "The OpenAI provider is not implemented yet."

// Ensure Provider implements provider.Generator.
var _ provider.Generator = (*Provider)(nil)

// Provider is the placeholder implementation.
type Provider struct {
	logger *log.Logger
}

// New creates the stub provider.
func New(logger *log.Logger) *Provider {
	return &Provider{logger: logger}
}

// GenerateStream yields the fixed placeholder message as a single fragment.
func (p *Provider) GenerateStream(ctx context.Context, prompt string, history []provider.Message) (<-chan provider.Event, error) {
	p.warn()
	ch := make(chan provider.Event, 1)
	ch <- provider.Event{Text: notImplemented}
	close(ch)
	return ch, nil
}

// GenerateOnce returns the fixed placeholder message.
func (p *Provider) GenerateOnce(ctx context.Context, prompt string, history []provider.Message) (provider.Result, error) {
	p.warn()
	return provider.Result{Text: notImplemented}, nil
}

func (p *Provider) warn() {
	if p.logger != nil {
		p.logger.Printf("openaistub: placeholder provider answered a request")
	}
}
