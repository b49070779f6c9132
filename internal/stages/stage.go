// Package stages holds the episode pipeline steps. Each step reads the
// episode state and returns a delta; the workflow merges it.
package stages

import (
	"context"
	"errors"

	"finlit/internal/model"
	"finlit/internal/vertex"
)

// Stage is one pipeline step.
type Stage func(ctx context.Context, st *model.EpisodeState) (model.Delta, error)

// ShotPromptGenerator writes a shot prompt from the learner's numbers.
type ShotPromptGenerator interface {
	GenerateShotPrompt(ctx context.Context, fin model.FinancialInputs) (string, error)
}

// VideoRenderer renders a clip from a prompt.
type VideoRenderer interface {
	GenerateVideo(ctx context.Context, req vertex.VideoRequest) (*model.VideoResult, error)
}

var errNoPlan = errors.New("episode state has no plan")
