// Package ai implements the text generation collaborator. A Generator turns an
// ordered list of messages plus a system instruction into a single reply.
package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answers without usable text.
var ErrEmptyResponse = errors.New("ai: empty response")

// Role is the author of a generation input message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the generation input.
type Message struct {
	Role    Role
	Content string
}

// Request is a single generation call.
type Request struct {
	SystemInstruction string
	Messages          []Message

	// Temperature overrides the configured temperature when non-nil.
	Temperature *float32

	// LanguageHint is the target language tag. The prompt is already
	// annotated with it; providers may use it for logging only.
	LanguageHint string

	// WebSearch asks the provider to ground the reply on a web search when it
	// supports one.
	WebSearch bool
}

// Generator produces text from a Request.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
	Name() string
}
