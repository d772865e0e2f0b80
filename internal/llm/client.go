package llm

import "context"

// Client is a language-model completion backend. Implementations send
// the full prompt text and return the model's completion verbatim.
type Client interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// GenerationError indicates a model call failed (network, auth, quota,
// malformed response). Fatal to the current turn; never retried here.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "language model: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
