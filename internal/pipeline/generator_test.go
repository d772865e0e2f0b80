package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dbchat/dbchat/internal/chat"
	"github.com/dbchat/dbchat/internal/database"
	"github.com/dbchat/dbchat/internal/llm"
)

type stubSchema struct {
	schema string
	err    error
	calls  int
}

func (s *stubSchema) SchemaText(_ context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.schema, nil
}

type stubModel struct {
	completion   string
	err          error
	prompts      []string
	temperatures []float64
}

func (s *stubModel) Complete(_ context.Context, prompt string, temperature float64) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.temperatures = append(s.temperatures, temperature)
	if s.err != nil {
		return "", s.err
	}
	return s.completion, nil
}

func TestGenerateBuildsPromptFromSchemaHistoryAndQuestion(t *testing.T) {
	schema := &stubSchema{schema: "Table Artist (\n\tName text\n)"}
	model := &stubModel{completion: "SELECT Name FROM Artist LIMIT 10;"}
	gen := &Generator{Schema: schema, Model: model}

	history := []chat.Turn{chat.AssistantTurn("Hello!"), chat.UserTurn("Name 10 artists")}
	got, err := gen.Generate(context.Background(), "Name 10 artists", history)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT Name FROM Artist LIMIT 10;" {
		t.Fatalf("Generate() = %q", got)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("model calls = %d", len(model.prompts))
	}

	prompt := model.prompts[0]
	for _, want := range []string{
		"<SCHEMA>Table Artist (",
		"Assistant: Hello!",
		"User: Name 10 artists",
		"Question: Name 10 artists",
		"which 3 artists have the most tracks?",
		"not even backticks",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if model.temperatures[0] != 0 {
		t.Fatalf("temperature = %v, want 0", model.temperatures[0])
	}
}

func TestGenerateIsDeterministicForFixedInputs(t *testing.T) {
	schema := &stubSchema{schema: "Table Artist (\n\tName text\n)"}
	model := &stubModel{completion: "SELECT Name FROM Artist LIMIT 10;"}
	gen := &Generator{Schema: schema, Model: model}
	history := []chat.Turn{chat.AssistantTurn("Hello!")}

	first, err := gen.Generate(context.Background(), "Name 10 artists", history)
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	second, err := gen.Generate(context.Background(), "Name 10 artists", history)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if first != second {
		t.Fatalf("outputs differ: %q vs %q", first, second)
	}
	if model.prompts[0] != model.prompts[1] {
		t.Fatal("prompts differ for identical inputs")
	}
}

func TestGenerateTrimsWhitespaceOnly(t *testing.T) {
	schema := &stubSchema{schema: "s"}
	model := &stubModel{completion: "\n  SELECT 1;  \n"}
	gen := &Generator{Schema: schema, Model: model}

	got, err := gen.Generate(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT 1;" {
		t.Fatalf("Generate() = %q", got)
	}
}

func TestGenerateWrapsModelFailureAsGenerationError(t *testing.T) {
	schema := &stubSchema{schema: "s"}
	model := &stubModel{err: errors.New("request timed out")}
	gen := &Generator{Schema: schema, Model: model}

	_, err := gen.Generate(context.Background(), "q", nil)
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error type = %T", err)
	}
}

func TestGeneratePropagatesSchemaFailure(t *testing.T) {
	cause := &database.ConnectionError{Err: errors.New("connection refused")}
	gen := &Generator{Schema: &stubSchema{err: cause}, Model: &stubModel{}}

	_, err := gen.Generate(context.Background(), "q", nil)
	var connErr *database.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("error type = %T", err)
	}
}
