// Package volc 使用火山方舟（Ark）对话模型生成镜头提示词
package volc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"finlit/internal/jsonutil"
	"finlit/internal/model"
	"finlit/internal/prompts"
)

// DefaultModel 默认的方舟推理接入点
const DefaultModel = "ep-20250220181854-c8s82"

var ErrMissingAPIKey = errors.New("ark api key is required")

// ArkPromptWriter 通过 eino 图调用方舟对话模型
type ArkPromptWriter struct {
	runner compose.Runnable[[]*schema.Message, *schema.Message]
	log    *logrus.Entry
}

// NewArkPromptWriter 创建方舟提示词生成器，httpClient 为空时使用默认超时
func NewArkPromptWriter(ctx context.Context, apiKey, modelID string, httpClient *http.Client) (*ArkPromptWriter, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if modelID == "" {
		modelID = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:     apiKey,
		HTTPClient: httpClient,
		Model:      modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("failed to add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, err
	}
	runner, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile graph: %w", err)
	}

	return &ArkPromptWriter{
		runner: runner,
		log:    logrus.WithFields(logrus.Fields{"component": "ark", "model": modelID}),
	}, nil
}

// GenerateShotPrompt 生成镜头提示词
func (w *ArkPromptWriter) GenerateShotPrompt(ctx context.Context, fin model.FinancialInputs) (string, error) {
	messages, err := prompts.ShotPromptMessages(ctx, fin)
	if err != nil {
		return "", err
	}
	res, err := w.runner.Invoke(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("graph invocation failed: %w", err)
	}
	if res == nil || res.Content == "" {
		return "", errors.New("ark returned an empty message")
	}
	w.log.WithField("chars", len(res.Content)).Debug("收到模型回复")
	return jsonutil.ExtractShotPrompt(res.Content), nil
}
