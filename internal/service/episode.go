package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"finlit/internal/model"
)

// Runner 执行一次完整的剧集工作流
type Runner interface {
	Run(ctx context.Context, in model.LearnerInput) (*model.EpisodeState, error)
}

// EpisodeService 为每次运行分配 run id，并把最终状态投影成对外结果
type EpisodeService struct {
	wf    Runner
	newID func() string
	log   *logrus.Entry
}

func NewEpisodeService(wf Runner) *EpisodeService {
	return &EpisodeService{
		wf:    wf,
		newID: uuid.NewString,
		log:   logrus.WithField("component", "episode_service"),
	}
}

func (s *EpisodeService) Run(ctx context.Context, in model.LearnerInput) (*model.EpisodeOutput, error) {
	runID := s.newID()
	log := s.log.WithField("run_id", runID)
	log.WithFields(logrus.Fields{"level": in.Level, "persona": in.Persona}).Info("episode started")

	start := time.Now()
	st, err := s.wf.Run(ctx, in)
	if err != nil {
		log.WithError(err).Error("episode failed")
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	out := st.Output(runID)
	log.WithFields(logrus.Fields{
		"outcome":  out.Outcome,
		"passes":   out.Passes,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("episode finished")
	return out, nil
}
