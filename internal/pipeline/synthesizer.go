package pipeline

import (
	"context"
	"strings"

	"github.com/dbchat/dbchat/internal/chat"
	"github.com/dbchat/dbchat/internal/llm"
)

// Synthesizer turns a question, the generated query, and its execution
// result (or error text) into a grounded natural-language answer. The
// schema is fetched again here; it may differ from the one used for
// generation if the database changed mid-turn, which is accepted.
type Synthesizer struct {
	Schema SchemaProvider
	Model  llm.Client
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, history []chat.Turn, query, result string) (string, error) {
	schema, err := s.Schema.SchemaText(ctx)
	if err != nil {
		return "", err
	}

	prompt := buildSynthesizePrompt(schema, chat.FormatHistory(history), query, question, result)
	completion, err := s.Model.Complete(ctx, prompt, deterministicTemperature)
	if err != nil {
		return "", asGenerationError(err)
	}
	return strings.TrimSpace(completion), nil
}
