package prompts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"finlit/internal/model"
)

// ShotPromptRules is the fixed instruction sent ahead of the learner numbers.
const ShotPromptRules = "You write a single cinematic shot prompt for a 6s educational clip about credit card use. " +
	"Must be visually concrete and show numeric UI overlays that match user inputs. " +
	"Keep under 70 words. Include terms: due date, interest, minimum payment, statement balance, utilization when relevant. " +
	"Do not moralize. No sensitive PII. Output JSON with field 'shot_prompt'."

var shotPromptTemplate = prompt.FromMessages(schema.FString,
	schema.SystemMessage(ShotPromptRules),
	schema.UserMessage("{params}"),
)

// ShotPromptMessages renders the system instruction and the serialized
// parameter blob as chat messages.
func ShotPromptMessages(ctx context.Context, fin model.FinancialInputs) ([]*schema.Message, error) {
	b, err := json.Marshal(fin)
	if err != nil {
		return nil, fmt.Errorf("marshal financial inputs: %w", err)
	}
	msgs, err := shotPromptTemplate.Format(ctx, map[string]any{"params": string(b)})
	if err != nil {
		return nil, fmt.Errorf("format shot prompt template: %w", err)
	}
	return msgs, nil
}
