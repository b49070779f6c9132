package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"finlit/internal/stages"
	"finlit/internal/vertex"
)

// ArgumentError 工具参数无法解析或不合法
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// 实现eino框架的视频生成工具
type VideoTool struct {
	renderer stages.VideoRenderer
}

// 视频生成请求参数
type VideoToolArgs struct {
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	Resolution      string `json:"resolution"`
	SampleCount     int    `json:"sample_count"`
	Seed            *int   `json:"seed"`
}

// 视频生成响应
type VideoToolResp struct {
	VideoURIs    []string `json:"video_uris"`
	InlineVideos []string `json:"inline_videos"`
	SafetyInfo   any      `json:"safety_info"`
}

// NewVideoTool 创建视频生成工具实例
func NewVideoTool(renderer stages.VideoRenderer) *VideoTool {
	return &VideoTool{renderer: renderer}
}

// Info 获取视频生成工具信息
func (t *VideoTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"prompt":           {Type: schema.String, Required: true, Desc: "video prompt"},
		"duration_seconds": {Type: schema.Integer, Desc: "clip length in seconds, default 8"},
		"aspect_ratio":     {Type: schema.String, Desc: "16:9 or 9:16", Enum: []string{"16:9", "9:16"}},
		"resolution":       {Type: schema.String, Desc: "720p or 1080p"},
		"sample_count":     {Type: schema.Integer, Desc: "number of samples, default 1"},
		"seed":             {Type: schema.Integer, Desc: "optional seed"},
	}
	return &schema.ToolInfo{
		Name:        "video_generate",
		Desc:        "Generate a short video with Veo and wait for the long-running operation to finish",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun 执行视频生成任务，轮询由客户端负责
func (t *VideoTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args VideoToolArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", &ArgumentError{Tool: "video_generate", Err: err}
	}
	if args.Prompt == "" {
		return "", &ArgumentError{Tool: "video_generate", Err: errors.New("prompt required")}
	}
	if args.DurationSeconds == 0 {
		args.DurationSeconds = 8
	}
	if args.AspectRatio == "" {
		args.AspectRatio = "16:9"
	}
	if args.SampleCount == 0 {
		args.SampleCount = 1
	}

	res, err := t.renderer.GenerateVideo(ctx, vertex.VideoRequest{
		Prompt:          args.Prompt,
		DurationSeconds: args.DurationSeconds,
		AspectRatio:     args.AspectRatio,
		Resolution:      args.Resolution,
		SampleCount:     args.SampleCount,
		Seed:            args.Seed,
	})
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(VideoToolResp{
		VideoURIs:    res.VideoURIs,
		InlineVideos: res.InlineVideos,
		SafetyInfo:   res.SafetyInfo,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ einotool.InvokableTool = (*VideoTool)(nil)
