package stages

import (
	"context"
	"time"

	"finlit/internal/model"
)

const (
	Theme = "credit_card_basics"

	LabelPayFull    = "Pay full balance now"
	LabelPayMinimum = "Pay minimum and buy concert tickets"

	TargetCoverage = 0.7

	defaultScenario   = "first month using a new credit card"
	sceneTitle        = "First Statement Incoming"
	scenePlaceholder  = "placeholder, set by the prompt writer"
	sceneDurationSecs = 6
)

// RubricKeywords must all appear in a good shot prompt, in this order.
var RubricKeywords = []string{
	"due date", "interest", "minimum payment", "statement balance", "utilization",
}

var coreObjectives = []string{
	"pay_on_time", "avoid_interest", "keep_utilization_low", "understand_minimum_vs_full",
}

// NewPlan builds the planning stage. The plan depends only on the learner
// input and the date; critic revisions from an earlier pass are carried over.
func NewPlan(now func() time.Time) Stage {
	if now == nil {
		now = time.Now
	}
	return func(_ context.Context, st *model.EpisodeState) (model.Delta, error) {
		in := st.Input
		level := in.Level
		if level == "" {
			level = "beginner"
		}
		scenario := in.UserGoal
		if scenario == "" {
			scenario = defaultScenario
		}

		plan := &model.Plan{
			Episode: 1,
			Theme:   Theme,
			Date:    now().Format("2006-01-02"),
			LearnerProfile: model.LearnerProfile{
				Level:  level,
				Budget: in.MonthlyBudget,
			},
			Objectives: append([]string(nil), coreObjectives...),
			Scenario:   scenario,
			Scenes: []model.Scene{{
				Title:         sceneTitle,
				ShotPrompt:    scenePlaceholder,
				Duration:      sceneDurationSecs,
				LearningFocus: []string{"pay_on_time", "avoid_interest", "understand_minimum_vs_full"},
			}},
			Rubric: model.Rubric{
				MustIncludeKeywords: append([]string(nil), RubricKeywords...),
				TargetCoverage:      TargetCoverage,
			},
			BranchLabels: []string{LabelPayFull, LabelPayMinimum},
		}
		if st.Plan != nil && len(st.Plan.Revisions) > 0 {
			plan.Revisions = append([]string(nil), st.Plan.Revisions...)
		}
		return model.Delta{Plan: plan}, nil
	}
}
