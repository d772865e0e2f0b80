package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/dbchat/dbchat/internal/chat"
	"github.com/dbchat/dbchat/internal/llm"
)

// SchemaProvider returns the current textual schema of the live
// database. Implementations must not cache: the pipeline re-fetches on
// every generation and synthesis call.
type SchemaProvider interface {
	SchemaText(ctx context.Context) (string, error)
}

// Generator turns a question plus conversation history into a single
// SQL statement. The single-statement shape is a prompt-level contract
// only: beyond trimming whitespace the model output is returned as-is,
// unparsed and unsanitized.
type Generator struct {
	Schema SchemaProvider
	Model  llm.Client
}

func (g *Generator) Generate(ctx context.Context, question string, history []chat.Turn) (string, error) {
	schema, err := g.Schema.SchemaText(ctx)
	if err != nil {
		return "", err
	}

	prompt := buildGeneratePrompt(schema, chat.FormatHistory(history), question)
	completion, err := g.Model.Complete(ctx, prompt, deterministicTemperature)
	if err != nil {
		return "", asGenerationError(err)
	}
	return strings.TrimSpace(completion), nil
}

func asGenerationError(err error) error {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &llm.GenerationError{Err: err}
}
