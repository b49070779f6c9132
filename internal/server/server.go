// Package server exposes the episode workflow and its tools over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"finlit/internal/config"
	"finlit/internal/model"
	"finlit/internal/tools"
	"finlit/internal/vertex"
)

// EpisodeRunner 执行剧集工作流
type EpisodeRunner interface {
	Run(ctx context.Context, in model.LearnerInput) (*model.EpisodeOutput, error)
}

// SmokeTester 向 GCS 写入测试对象
type SmokeTester interface {
	Write(ctx context.Context, outputURI string) (string, error)
}

// Deps 路由依赖，Smoke 可以为空
type Deps struct {
	Episodes  EpisodeRunner
	Smoke     SmokeTester
	OutputGCS string
	Tools     []einotool.InvokableTool
}

// NewRouter 创建 gin 路由
func NewRouter(ctx context.Context, d Deps) (*gin.Engine, error) {
	byName := make(map[string]einotool.InvokableTool, len(d.Tools))
	infos := make([]gin.H, 0, len(d.Tools))
	for _, t := range d.Tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		byName[info.Name] = t
		infos = append(infos, gin.H{"name": info.Name, "desc": info.Desc})
	}

	router := gin.Default()
	router.GET("/", handleRoot)
	router.GET("/healthz", handleHealthz)
	router.POST("/actions/run_credit_card_episode", handleRunEpisode(d.Episodes))
	router.POST("/episodes/test", handleSmokeTest(d.Smoke, d.OutputGCS))
	router.GET("/tools", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tools": infos})
	})
	router.POST("/tools/:name", handleToolInvoke(byName))
	return router, nil
}

func handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "FinLit episode service is running"})
}

func handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleRunEpisode 运行一次信用卡剧集，空请求体使用全部默认值
func handleRunEpisode(runner EpisodeRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in model.LearnerInput
		if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
			fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}

		out, err := runner.Run(c.Request.Context(), in)
		if err != nil {
			fail(c, StatusFor(err), err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleSmokeTest(smoke SmokeTester, outputGCS string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if smoke == nil || outputGCS == "" {
			fail(c, http.StatusBadRequest, errors.New("set VEO_OUTPUT_GCS to a gs:// prefix to run the storage smoke test"))
			return
		}
		uri, err := smoke.Write(c.Request.Context(), outputGCS)
		if err != nil {
			fail(c, http.StatusBadGateway, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "object": uri})
	}
}

// handleToolInvoke 直接把请求体作为 JSON 参数传给工具
func handleToolInvoke(byName map[string]einotool.InvokableTool) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		t, ok := byName[name]
		if !ok {
			fail(c, http.StatusNotFound, fmt.Errorf("unknown tool %q", name))
			return
		}
		body, err := c.GetRawData()
		if err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
		result, err := t.InvokableRun(c.Request.Context(), string(body))
		if err != nil {
			fail(c, StatusFor(err), err)
			return
		}
		c.Data(http.StatusOK, "application/json", []byte(result))
	}
}

// StatusFor maps a failure to the HTTP status returned to the caller.
func StatusFor(err error) int {
	var (
		argErr     *tools.ArgumentError
		cfgErr     *config.ConfigError
		authErr    *vertex.AuthError
		genErr     *vertex.GenerationError
		opErr      *vertex.OperationError
		timeoutErr *vertex.OperationTimeout
	)
	switch {
	case errors.As(err, &argErr):
		return http.StatusBadRequest
	case errors.As(err, &cfgErr), errors.Is(err, vertex.ErrNoCredentials):
		return http.StatusInternalServerError
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &authErr), errors.As(err, &genErr), errors.As(err, &opErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, status int, err error) {
	entry := logrus.WithFields(logrus.Fields{"path": c.FullPath(), "status": status})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Warn("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error(), "status": "failed"})
}
