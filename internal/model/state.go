package model

import (
	"errors"
	"fmt"
)

// EpisodeState 单次工作流运行期间在各阶段之间传递的状态，只增不删
type EpisodeState struct {
	Input        LearnerInput   `json:"input"`
	Plan         *Plan          `json:"plan,omitempty"`
	ShotPrompt   string         `json:"shot_prompt,omitempty"`
	VideoURI     string         `json:"video_uri,omitempty"`
	VideoB64     string         `json:"video_b64,omitempty"`
	Rai          SafetyInfo     `json:"rai"`
	ChoiceImages []ChoiceImage  `json:"choice_images,omitempty"`
	ChoiceHints  []ChoiceHint   `json:"choice_hints,omitempty"`
	Critic       *CriticVerdict `json:"critic,omitempty"`
	Pass         int            `json:"pass"`
	Outcome      Outcome        `json:"outcome"`
}

// NewEpisodeState 创建新的运行状态
func NewEpisodeState(in LearnerInput) *EpisodeState {
	if in.Level == "" {
		in.Level = "beginner"
	}
	return &EpisodeState{Input: in, Outcome: OutcomeRunning}
}

// VideoAsset is the representative clip picked from a VideoResult.
type VideoAsset struct {
	URI    string
	Inline string
	Rai    SafetyInfo
}

// Delta is the partial state a stage returns. Nil fields leave the state alone.
type Delta struct {
	Plan         *Plan
	ShotPrompt   *string
	Video        *VideoAsset
	ChoiceImages []ChoiceImage
	ChoiceHints  []ChoiceHint
	Critic       *CriticVerdict
}

var (
	ErrInvalidPlan    = errors.New("invalid plan")
	ErrBranchMismatch = errors.New("branch assets do not match branch labels")
)

// Merge overwrites the fields set in d. Plan and branch-asset invariants are
// checked before anything is written, so a rejected delta leaves st unchanged.
func (st *EpisodeState) Merge(d Delta) error {
	plan := st.Plan
	if d.Plan != nil {
		if err := d.Plan.Validate(); err != nil {
			return err
		}
		plan = d.Plan
	}
	if d.ChoiceImages != nil {
		labels := make([]string, len(d.ChoiceImages))
		for i, img := range d.ChoiceImages {
			labels[i] = img.Label
		}
		if err := checkBranchLabels(plan, labels); err != nil {
			return err
		}
	}
	if d.ChoiceHints != nil {
		labels := make([]string, len(d.ChoiceHints))
		for i, h := range d.ChoiceHints {
			labels[i] = h.Label
		}
		if err := checkBranchLabels(plan, labels); err != nil {
			return err
		}
	}

	st.Plan = plan
	if d.ShotPrompt != nil {
		st.ShotPrompt = *d.ShotPrompt
	}
	if d.Video != nil {
		st.VideoURI = d.Video.URI
		st.VideoB64 = d.Video.Inline
		st.Rai = d.Video.Rai
	}
	if d.ChoiceImages != nil {
		st.ChoiceImages = d.ChoiceImages
	}
	if d.ChoiceHints != nil {
		st.ChoiceHints = d.ChoiceHints
	}
	if d.Critic != nil {
		st.Critic = d.Critic
	}
	return nil
}

// Validate checks the plan shape every stage relies on.
func (p *Plan) Validate() error {
	if len(p.Scenes) != 1 {
		return fmt.Errorf("%w: want exactly 1 scene, got %d", ErrInvalidPlan, len(p.Scenes))
	}
	if len(p.BranchLabels) != 2 {
		return fmt.Errorf("%w: want exactly 2 branch labels, got %d", ErrInvalidPlan, len(p.BranchLabels))
	}
	if p.Rubric.TargetCoverage < 0 || p.Rubric.TargetCoverage > 1 {
		return fmt.Errorf("%w: target coverage %v outside [0,1]", ErrInvalidPlan, p.Rubric.TargetCoverage)
	}
	return nil
}

// Scene returns the plan's sole scene.
func (p *Plan) Scene() *Scene {
	return &p.Scenes[0]
}

func checkBranchLabels(plan *Plan, labels []string) error {
	if plan == nil {
		return fmt.Errorf("%w: no plan in state", ErrBranchMismatch)
	}
	if len(labels) != len(plan.BranchLabels) {
		return fmt.Errorf("%w: %d assets for %d labels", ErrBranchMismatch, len(labels), len(plan.BranchLabels))
	}
	for i, l := range labels {
		if l != plan.BranchLabels[i] {
			return fmt.Errorf("%w: index %d has %q, want %q", ErrBranchMismatch, i, l, plan.BranchLabels[i])
		}
	}
	return nil
}

// Output projects the public-facing subset of the state.
func (st *EpisodeState) Output(runID string) *EpisodeOutput {
	out := &EpisodeOutput{
		RunID:        runID,
		ShotPrompt:   st.ShotPrompt,
		VideoURI:     st.VideoURI,
		VideoB64:     st.VideoB64,
		ChoiceImages: st.ChoiceImages,
		ChoiceHints:  st.ChoiceHints,
		Critic:       st.Critic,
		Rai:          st.Rai,
		Passes:       st.Pass,
		Outcome:      st.Outcome,
	}
	if st.Plan != nil {
		out.Episode = st.Plan.Episode
		out.Goal = st.Plan.Theme
	}
	return out
}
