package vertex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"finlit/internal/jsonutil"
	"finlit/internal/model"
	"finlit/internal/prompts"
)

const shotPromptTemperature = 0.4

const mockShotPrompt = `{"shot_prompt": "A college student at a kitchen table opens a banking app: statement balance $480, due date in 10 days, minimum payment $35, interest at 24.99% APR, utilization meter at 32%."}`

// ErrEmptyCandidate means a 2xx response carried no candidate text.
var ErrEmptyCandidate = errors.New("generateContent returned no candidate text")

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateShotPrompt asks the text model for a shot prompt describing the
// learner's situation and extracts the shot_prompt field from its reply.
func (c *Client) GenerateShotPrompt(ctx context.Context, fin model.FinancialInputs) (string, error) {
	if c.cfg.Mock {
		return jsonutil.ExtractShotPrompt(mockShotPrompt), nil
	}

	msgs, err := prompts.ShotPromptMessages(ctx, fin)
	if err != nil {
		return "", err
	}
	body := toGeminiRequest(msgs)
	body.GenerationConfig.Temperature = shotPromptTemperature

	var resp generateContentResponse
	if err := c.doJSON(ctx, http.MethodPost, c.generateContentURL(), body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCandidate
	}
	return jsonutil.ExtractShotPrompt(resp.Candidates[0].Content.Parts[0].Text), nil
}

func toGeminiRequest(msgs []*schema.Message) generateContentRequest {
	var req generateContentRequest
	for _, m := range msgs {
		part := geminiPart{Text: m.Content}
		switch m.Role {
		case schema.System:
			if req.SystemInstruction == nil {
				req.SystemInstruction = &geminiContent{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, part)
		case schema.Assistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{part}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{part}})
		}
	}
	return req
}

func (c *Client) projectPrefix() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.cfg.Project, c.cfg.Region)
}

// modelResource resolves a model id into a fully-qualified resource path.
// Accepted forms: a full projects/... path, publishers/... or models/...
// relative to the project, publisher/name, or a bare Google model name.
func (c *Client) modelResource(modelID string) string {
	switch {
	case strings.HasPrefix(modelID, "projects/"):
		return modelID
	case strings.HasPrefix(modelID, "publishers/"), strings.HasPrefix(modelID, "models/"):
		return c.projectPrefix() + "/" + modelID
	case strings.Contains(modelID, "/"):
		publisher, name, _ := strings.Cut(modelID, "/")
		return fmt.Sprintf("%s/publishers/%s/models/%s", c.projectPrefix(), publisher, name)
	default:
		return c.projectPrefix() + "/publishers/google/models/" + modelID
	}
}

func (c *Client) generateContentURL() string {
	return fmt.Sprintf("%s/v1beta1/%s:generateContent", c.cfg.BaseURL, c.modelResource(c.cfg.GeminiModelID))
}
