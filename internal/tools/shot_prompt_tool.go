package tools

import (
	"context"
	"encoding/json"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"finlit/internal/model"
	"finlit/internal/stages"
)

// ShotPromptTool 基于 eino 的镜头提示词生成工具
type ShotPromptTool struct {
	gen stages.ShotPromptGenerator
}

// ShotPromptToolArgs 学习者输入加可选的镜头标题
type ShotPromptToolArgs struct {
	model.LearnerInput
	SceneTitle string `json:"scene_title"`
}

// ShotPromptToolResp 工具响应
type ShotPromptToolResp struct {
	ShotPrompt string                `json:"shot_prompt"`
	Inputs     model.FinancialInputs `json:"inputs"`
}

const defaultSceneTitle = "First Statement Incoming"

func NewShotPromptTool(gen stages.ShotPromptGenerator) *ShotPromptTool {
	return &ShotPromptTool{gen: gen}
}

func (t *ShotPromptTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"persona":             {Type: schema.String, Desc: "learner persona, e.g. college student"},
		"user_goal":           {Type: schema.String, Desc: "what the learner wants to achieve"},
		"monthly_budget":      {Type: schema.Number, Desc: "monthly budget in dollars"},
		"current_balance":     {Type: schema.Number, Desc: "current card balance in dollars"},
		"days_until_due":      {Type: schema.Integer, Desc: "days until the payment due date"},
		"apr_percent":         {Type: schema.Number, Desc: "card APR in percent"},
		"utilization_percent": {Type: schema.Number, Desc: "credit utilization in percent"},
		"scene_title":         {Type: schema.String, Desc: "scene title"},
	}
	return &schema.ToolInfo{
		Name:        "shot_prompt",
		Desc:        "Write a single-scene video shot prompt that teaches credit card basics",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

func (t *ShotPromptTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args ShotPromptToolArgs
	if argumentsInJSON != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
			return "", &ArgumentError{Tool: "shot_prompt", Err: err}
		}
	}
	if args.SceneTitle == "" {
		args.SceneTitle = defaultSceneTitle
	}

	fin := stages.FinancialInputs(args.LearnerInput, args.SceneTitle)
	shot, err := t.gen.GenerateShotPrompt(ctx, fin)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(ShotPromptToolResp{ShotPrompt: shot, Inputs: fin})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ einotool.InvokableTool = (*ShotPromptTool)(nil)
