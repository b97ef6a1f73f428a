// Package provider abstracts hosted generative-model backends.
package provider

import "context"

// Roles understood by the providers. Anything else is normalized to user
// before a request is framed.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of replayed conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Event is one element of a generation stream: either a text fragment or an
// error. The channel closing marks the end of the stream; a stream is finite
// and cannot be restarted.
type Event struct {
	Text string
	Err  error
}

// Result is a complete, non-streamed generation.
type Result struct {
	Text     string
	Metadata map[string]any
}

// Generator is the capability interface over a generative-model backend.
//
// GenerateStream must start yielding fragments as the backend produces them
// rather than buffering the full output. Implementations emit mid-flight
// failures as an Event with Err set and then close the channel; they return a
// non-nil error only when the stream could not be opened at all.
type Generator interface {
	GenerateStream(ctx context.Context, prompt string, history []Message) (<-chan Event, error)
	GenerateOnce(ctx context.Context, prompt string, history []Message) (Result, error)
}

// NormalizeRole maps arbitrary speaker tags onto the roles the backends
// accept.
func NormalizeRole(role string) string {
	if role == RoleAssistant {
		return RoleAssistant
	}
	return RoleUser
}
