package docsim

import "fmt"

// Stage identifies where in the comparison pipeline a failure originated.
type Stage string

const (
	StageTextExtract  Stage = "text_extract"
	StageTextEmbed    Stage = "text_embed"
	StageImageExtract Stage = "image_extract"
	StageImageEmbed   Stage = "image_embed"
	StageScore        Stage = "score"
)

// StageError wraps a collaborator failure with the pipeline stage it
// occurred in. The underlying error propagates unchanged and stays
// reachable through errors.Is and errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
