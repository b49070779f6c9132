package stages

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"finlit/internal/model"
)

const maxOverlayKeywords = 2

// CoverageScore is the fraction of keywords found in text as whole words,
// ignoring case. The result is in [0,1].
func CoverageScore(text string, keywords []string) float64 {
	hits := 0
	for _, kw := range keywords {
		if wholeWord(kw).MatchString(text) {
			hits++
		}
	}
	return float64(hits) / float64(max(1, len(keywords)))
}

// keywordPatterns caches one compiled pattern per keyword.
var keywordPatterns sync.Map

func wholeWord(kw string) *regexp.Regexp {
	if re, ok := keywordPatterns.Load(kw); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := keywordPatterns.LoadOrStore(kw, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	return re.(*regexp.Regexp)
}

// MissingKeywords lists, in rubric order, the keywords not contained in text.
func MissingKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	missing := []string{}
	for _, kw := range keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	return missing
}

// Decide accepts when the score reaches the target.
func Decide(score, target float64) model.Decision {
	if score >= target {
		return model.DecisionAccept
	}
	return model.DecisionRevise
}

// OverlayClause asks for on-screen labels for the first missing keywords.
func OverlayClause(missing []string) string {
	if len(missing) > maxOverlayKeywords {
		missing = missing[:maxOverlayKeywords]
	}
	return " Overlay labels for: " + strings.Join(missing, "; ") + "."
}

// Critic scores the scene's shot prompt against the rubric. On revise it
// appends an overlay clause to the scene prompt and records it on the plan.
// A revise with nothing detected missing changes nothing.
func Critic(_ context.Context, st *model.EpisodeState) (model.Delta, error) {
	if st.Plan == nil {
		return model.Delta{}, errNoPlan
	}
	rubric := st.Plan.Rubric
	prompt := st.Plan.Scene().ShotPrompt

	score := CoverageScore(prompt, rubric.MustIncludeKeywords)
	verdict := &model.CriticVerdict{
		Score:    score,
		Decision: Decide(score, rubric.TargetCoverage),
		Missing:  MissingKeywords(prompt, rubric.MustIncludeKeywords),
	}
	d := model.Delta{Critic: verdict}
	if verdict.Decision == model.DecisionRevise && len(verdict.Missing) > 0 {
		plan := st.Plan.Clone()
		clause := OverlayClause(verdict.Missing)
		plan.Scene().ShotPrompt += clause
		plan.Revisions = append(plan.Revisions, clause)
		d.Plan = plan
	}
	return d, nil
}
