package stages

import (
	"context"
	"strings"

	"finlit/internal/model"
)

const (
	defaultPersona     = "college student"
	defaultBudget      = 600
	defaultBalance     = 480
	defaultDaysDue     = 10
	defaultAPR         = 24.99
	defaultUtilization = 32
	defaultGoal        = "avoid interest and build credit"
)

// FinancialInputs fills the text-model parameters from the learner input,
// using demo defaults for anything missing.
func FinancialInputs(in model.LearnerInput, sceneTitle string) model.FinancialInputs {
	fin := model.FinancialInputs{
		Persona:            in.Persona,
		MonthlyBudget:      defaultBudget,
		CurrentBalance:     defaultBalance,
		DaysUntilDue:       defaultDaysDue,
		APRPercent:         defaultAPR,
		UtilizationPercent: defaultUtilization,
		Goal:               in.UserGoal,
		SceneTitle:         sceneTitle,
	}
	if fin.Persona == "" {
		fin.Persona = defaultPersona
	}
	if fin.Goal == "" {
		fin.Goal = defaultGoal
	}
	if in.MonthlyBudget != nil {
		fin.MonthlyBudget = *in.MonthlyBudget
	}
	if in.CurrentBalance != nil {
		fin.CurrentBalance = *in.CurrentBalance
	}
	if in.DaysUntilDue != nil {
		fin.DaysUntilDue = *in.DaysUntilDue
	}
	if in.APRPercent != nil {
		fin.APRPercent = *in.APRPercent
	}
	if in.UtilizationPercent != nil {
		fin.UtilizationPercent = *in.UtilizationPercent
	}
	return fin
}

// NewPromptWriter builds the stage that asks the text model for the scene's
// shot prompt. Overlay clauses the critic asked for in an earlier pass are
// appended to the fresh prompt.
func NewPromptWriter(gen ShotPromptGenerator) Stage {
	return func(ctx context.Context, st *model.EpisodeState) (model.Delta, error) {
		if st.Plan == nil {
			return model.Delta{}, errNoPlan
		}
		plan := st.Plan.Clone()
		scene := plan.Scene()

		shot, err := gen.GenerateShotPrompt(ctx, FinancialInputs(st.Input, scene.Title))
		if err != nil {
			return model.Delta{}, err
		}
		for _, clause := range plan.Revisions {
			if !strings.Contains(shot, strings.TrimSpace(clause)) {
				shot += clause
			}
		}

		scene.ShotPrompt = shot
		return model.Delta{Plan: plan, ShotPrompt: &shot}, nil
	}
}
