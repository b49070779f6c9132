package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finlit/internal/model"
	"finlit/internal/vertex"
)

type fakeRunner struct {
	st  *model.EpisodeState
	err error
	got model.LearnerInput
}

func (f *fakeRunner) Run(_ context.Context, in model.LearnerInput) (*model.EpisodeState, error) {
	f.got = in
	return f.st, f.err
}

func TestEpisodeServiceRun(t *testing.T) {
	st := model.NewEpisodeState(model.LearnerInput{})
	st.Plan = &model.Plan{Episode: 1, Theme: "credit_card_basics"}
	st.ShotPrompt = "shot"
	st.VideoURI = "gs://b/v.mp4"
	st.Pass = 2
	st.Outcome = model.OutcomeExhausted

	r := &fakeRunner{st: st}
	svc := NewEpisodeService(r)
	svc.newID = func() string { return "run-123" }

	out, err := svc.Run(context.Background(), model.LearnerInput{Persona: "nurse"})
	require.NoError(t, err)
	assert.Equal(t, "nurse", r.got.Persona)
	assert.Equal(t, "run-123", out.RunID)
	assert.Equal(t, 1, out.Episode)
	assert.Equal(t, "credit_card_basics", out.Goal)
	assert.Equal(t, "gs://b/v.mp4", out.VideoURI)
	assert.Equal(t, 2, out.Passes)
	assert.Equal(t, model.OutcomeExhausted, out.Outcome)
}

func TestEpisodeServiceDefaultIDs(t *testing.T) {
	svc := NewEpisodeService(&fakeRunner{st: model.NewEpisodeState(model.LearnerInput{})})
	a, err := svc.Run(context.Background(), model.LearnerInput{})
	require.NoError(t, err)
	b, err := svc.Run(context.Background(), model.LearnerInput{})
	require.NoError(t, err)
	assert.Len(t, a.RunID, 36)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestEpisodeServiceError(t *testing.T) {
	boom := &vertex.AuthError{Err: errors.New("expired")}
	svc := NewEpisodeService(&fakeRunner{err: boom})
	svc.newID = func() string { return "run-9" }

	out, err := svc.Run(context.Background(), model.LearnerInput{})
	assert.Nil(t, out)
	assert.ErrorContains(t, err, "run-9")
	var ae *vertex.AuthError
	assert.ErrorAs(t, err, &ae)
}
