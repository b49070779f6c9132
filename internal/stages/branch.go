package stages

import (
	"context"

	"finlit/internal/model"
)

// Placeholder art, one fixed seed per branch.
const (
	PayFullImageURI    = "https://picsum.photos/seed/payfull/640/360"
	PayMinimumImageURI = "https://picsum.photos/seed/minpay/640/360"
)

const (
	payFullHint    = "Paying the full statement balance avoids interest and keeps utilization low"
	payMinimumHint = "Paying only the minimum triggers interest on the remaining balance"
)

// BranchImages pairs each branch label with its placeholder image.
func BranchImages(_ context.Context, st *model.EpisodeState) (model.Delta, error) {
	if st.Plan == nil {
		return model.Delta{}, errNoPlan
	}
	labels := st.Plan.BranchLabels
	return model.Delta{ChoiceImages: []model.ChoiceImage{
		{Label: labels[0], ImageURI: PayFullImageURI},
		{Label: labels[1], ImageURI: PayMinimumImageURI},
	}}, nil
}

// BranchHints pairs each branch label with a short lesson.
func BranchHints(_ context.Context, st *model.EpisodeState) (model.Delta, error) {
	if st.Plan == nil {
		return model.Delta{}, errNoPlan
	}
	labels := st.Plan.BranchLabels
	return model.Delta{ChoiceHints: []model.ChoiceHint{
		{Label: labels[0], Hint: payFullHint},
		{Label: labels[1], Hint: payMinimumHint},
	}}, nil
}
