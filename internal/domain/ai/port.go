package ai

import "context"

// Prompt is a single chat exchange sent to the model.
type Prompt struct {
	System string
	User   string
}

// Client is the external language model collaborator.
type Client interface {
	Analyze(ctx context.Context, p Prompt) (string, error)
	ModelName() string
}
