package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dbchat/dbchat/internal/chat"
	"github.com/dbchat/dbchat/internal/database"
	"github.com/dbchat/dbchat/internal/observability"
)

type State string

const (
	StateIdle         State = "idle"
	StateGenerating   State = "generating"
	StateExecuting    State = "executing"
	StateSynthesizing State = "synthesizing"
)

type QueryGenerator interface {
	Generate(ctx context.Context, question string, history []chat.Turn) (string, error)
}

type QueryExecutor interface {
	Run(ctx context.Context, sql string) (string, error)
}

type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, history []chat.Turn, query, result string) (string, error)
}

// Orchestrator wires one request/response cycle per user turn:
// generate SQL, execute it, synthesize an answer, and log both sides of
// the exchange into the conversation. Stages run strictly sequentially;
// callers serialize overlapping turns.
type Orchestrator struct {
	Generator    QueryGenerator
	Executor     QueryExecutor
	Synthesizer  AnswerSynthesizer
	Conversation *chat.Conversation
	Logger       *slog.Logger

	state State
}

func (o *Orchestrator) State() State {
	if o.state == "" {
		return StateIdle
	}
	return o.state
}

// HandleUserTurn runs the full pipeline for one question and returns
// the assistant's answer. An execution failure is absorbed: the engine
// message becomes the SQL response so the answer can explain it. A
// model-call failure aborts the turn with a PipelineError; the user
// turn stays in the conversation as context for the next call.
func (o *Orchestrator) HandleUserTurn(ctx context.Context, question string) (string, error) {
	o.Conversation.Append(chat.UserTurn(question))
	history := o.Conversation.Turns()

	o.state = StateGenerating
	start := time.Now()
	sqlText, err := o.Generator.Generate(ctx, question, history)
	observability.ObserveStage(string(StageGenerate), time.Since(start))
	if err != nil {
		return "", o.failTurn(ctx, StageGenerate, err)
	}

	o.state = StateExecuting
	start = time.Now()
	result, err := o.Executor.Run(ctx, sqlText)
	observability.ObserveStage(string(StageExecute), time.Since(start))
	if err != nil {
		var execErr *database.ExecutionError
		if !errors.As(err, &execErr) {
			return "", o.failTurn(ctx, StageExecute, err)
		}
		observability.IncrementSQLExecutionError()
		result = execErr.Error()
		if o.Logger != nil {
			o.Logger.WarnContext(ctx, "generated sql rejected by engine",
				slog.String("sql", sqlText),
				slog.String("engine_error", execErr.Error()),
			)
		}
	}

	o.state = StateSynthesizing
	start = time.Now()
	answer, err := o.Synthesizer.Synthesize(ctx, question, history, sqlText, result)
	observability.ObserveStage(string(StageSynthesize), time.Since(start))
	if err != nil {
		return "", o.failTurn(ctx, StageSynthesize, err)
	}

	o.Conversation.Append(chat.AssistantTurn(answer))
	o.state = StateIdle
	observability.ObserveTurn("completed")
	if o.Logger != nil {
		o.Logger.InfoContext(ctx, "turn completed",
			slog.String("sql", sqlText),
			slog.Int("history_len", o.Conversation.Len()),
		)
	}
	return answer, nil
}

func (o *Orchestrator) failTurn(ctx context.Context, stage Stage, err error) error {
	o.state = StateIdle
	observability.ObserveTurn("failed")
	if o.Logger != nil {
		o.Logger.ErrorContext(ctx, "turn failed",
			slog.String("stage", string(stage)),
			slog.Any("error", err),
		)
	}
	return &PipelineError{Stage: stage, Err: err}
}
