package pipeline

import "fmt"

type Stage string

const (
	StageGenerate   Stage = "generate"
	StageExecute    Stage = "execute"
	StageSynthesize Stage = "synthesize"
)

// PipelineError is the turn-level failure wrapper. A failed turn leaves
// the session reusable; only the assistant reply is missing.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
