package stages

import (
	"context"

	"finlit/internal/model"
	"finlit/internal/vertex"
)

const (
	styleClauses = " Natural light. Subtle camera pan. Clear UI overlays."
	aspectRatio  = "16:9"
	resolution   = "1080p"
)

// RenderPrompt is the instruction sent to the video model for a shot prompt.
func RenderPrompt(shotPrompt string) string {
	return shotPrompt + styleClauses
}

// NewVideoGenerator builds the stage that renders the scene and keeps the
// first URI and first inline clip, if any.
func NewVideoGenerator(r VideoRenderer) Stage {
	return func(ctx context.Context, st *model.EpisodeState) (model.Delta, error) {
		if st.Plan == nil {
			return model.Delta{}, errNoPlan
		}
		scene := st.Plan.Scene()

		res, err := r.GenerateVideo(ctx, vertex.VideoRequest{
			Prompt:          RenderPrompt(scene.ShotPrompt),
			DurationSeconds: scene.Duration,
			AspectRatio:     aspectRatio,
			Resolution:      resolution,
			SampleCount:     1,
		})
		if err != nil {
			return model.Delta{}, err
		}

		asset := &model.VideoAsset{Rai: res.SafetyInfo}
		if len(res.VideoURIs) > 0 {
			asset.URI = res.VideoURIs[0]
		}
		if len(res.InlineVideos) > 0 {
			asset.Inline = res.InlineVideos[0]
		}
		return model.Delta{Video: asset}, nil
	}
}
