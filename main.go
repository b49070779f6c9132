package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"finlit/internal/config"
	"finlit/internal/server"
	"finlit/internal/service"
	"finlit/internal/stages"
	"finlit/internal/storage"
	"finlit/internal/tools"
	"finlit/internal/vertex"
	"finlit/internal/volc"
	"finlit/internal/workflow"
)

func main() {
	ctx := context.Background()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	logCloser, err := config.InitLogging(cfg)
	if err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("配置无效: %v", err)
	}

	// 初始化 Vertex 客户端，mock 模式不需要凭据
	var tokens oauth2.TokenSource
	if !cfg.Mock {
		tokens, err = config.TokenSource(ctx)
		if err != nil {
			logrus.Fatalf("获取凭据失败: %v", err)
		}
	}
	client := vertex.NewClient(cfg.Vertex(), tokens)

	// 选择文本模型
	var text stages.ShotPromptGenerator = client
	if cfg.TextProvider == config.TextProviderArk && !cfg.Mock {
		arkWriter, err := volc.NewArkPromptWriter(ctx, cfg.ArkAPIKey, cfg.ArkModel, &http.Client{Timeout: cfg.HTTPTimeout})
		if err != nil {
			logrus.Fatalf("初始化方舟模型失败: %v", err)
		}
		text = arkWriter
	}

	// 初始化工作流与服务
	wf := workflow.NewEpisode(text, client, cfg.MaxIters)
	episodes := service.NewEpisodeService(wf)

	deps := server.Deps{
		Episodes:  episodes,
		OutputGCS: cfg.VeoOutputGCS,
		Tools: []einotool.InvokableTool{
			tools.NewShotPromptTool(text),
			tools.NewVideoTool(client),
		},
	}
	if cfg.VeoOutputGCS != "" && !cfg.Mock {
		smoke, err := storage.NewSmokeWriter(ctx, config.ClientOptionsFromEnv()...)
		if err != nil {
			logrus.Warnf("GCS 测试写入不可用: %v", err)
		} else {
			defer smoke.Close()
			deps.Smoke = smoke
		}
	}

	router, err := server.NewRouter(ctx, deps)
	if err != nil {
		logrus.Fatalf("初始化路由失败: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 在goroutine中启动服务器
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":      cfg.Port,
			"provider":  cfg.TextProvider,
			"mock":      cfg.Mock,
			"max_iters": wf.MaxIters(),
		}).Info("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("启动服务器失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("关闭服务器...")

	// 优雅关闭服务器，视频轮询可能需要较长时间
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("服务器关闭失败: %v", err)
	}

	logrus.Info("服务器已关闭")
}
