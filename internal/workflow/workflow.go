// Package workflow runs the episode stages in a bounded revise loop.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/sirupsen/logrus"

	"finlit/internal/model"
	"finlit/internal/stages"
)

// DefaultMaxIters 默认最多执行的轮数
const DefaultMaxIters = 2

// 阶段名称
const (
	StepPlan         = "plan"
	StepPromptWriter = "prompt_writer"
	StepVideo        = "video_generator"
	StepBranchImages = "branch_images"
	StepBranchHints  = "branch_hints"
	StepCritic       = "critic"
)

const loopAgentName = "episode_loop"

var errNoVerdict = errors.New("pass finished without a critic verdict")

// Step 命名的阶段
type Step struct {
	Name string
	Run  stages.Stage
}

// StageError wraps a failure with the stage and pass it happened in.
type StageError struct {
	Stage string
	Pass  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pass %d: %s: %v", e.Pass, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Workflow 剧集工作流，构造后只读，可被多个请求并发使用
type Workflow struct {
	steps    []Step
	maxIters int
	log      *logrus.Entry
}

// New 使用给定阶段创建工作流，maxIters 小于 1 时使用默认值
func New(steps []Step, maxIters int) *Workflow {
	if maxIters < 1 {
		maxIters = DefaultMaxIters
	}
	return &Workflow{
		steps:    steps,
		maxIters: maxIters,
		log:      logrus.WithField("component", "workflow"),
	}
}

// NewEpisode 创建标准剧集工作流：计划 → 提示词 → 视频 → 分支图片 → 分支提示 → 评审
func NewEpisode(text stages.ShotPromptGenerator, video stages.VideoRenderer, maxIters int) *Workflow {
	return New([]Step{
		{Name: StepPlan, Run: stages.NewPlan(nil)},
		{Name: StepPromptWriter, Run: stages.NewPromptWriter(text)},
		{Name: StepVideo, Run: stages.NewVideoGenerator(video)},
		{Name: StepBranchImages, Run: stages.BranchImages},
		{Name: StepBranchHints, Run: stages.BranchHints},
		{Name: StepCritic, Run: stages.Critic},
	}, maxIters)
}

// MaxIters 返回最大轮数
func (w *Workflow) MaxIters() int { return w.maxIters }

// Run executes passes until the critic accepts or maxIters passes are spent.
// The steps are the sub-agents of an adk loop agent; the last step of a pass
// breaks the loop on accept. Running out of passes is not an error: the last
// state is returned with outcome exhausted. Any stage error ends the run
// without retry.
func (w *Workflow) Run(ctx context.Context, in model.LearnerInput) (*model.EpisodeState, error) {
	run := &episodeRun{st: model.NewEpisodeState(in), maxIters: w.maxIters, log: w.log}

	subAgents := make([]adk.Agent, 0, len(w.steps))
	for i, step := range w.steps {
		subAgents = append(subAgents, &stageAgent{
			step:  step,
			first: i == 0,
			last:  i == len(w.steps)-1,
			run:   run,
		})
	}
	loop, err := adk.NewLoopAgent(ctx, &adk.LoopAgentConfig{
		Name:          loopAgentName,
		Description:   "plan, render and review one credit card episode until the critic accepts",
		SubAgents:     subAgents,
		MaxIterations: w.maxIters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create loop agent: %w", err)
	}

	runner := adk.NewRunner(ctx, adk.RunnerConfig{Agent: loop})
	iter := runner.Query(ctx, "run credit card episode")
	var eventErr error
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil && eventErr == nil {
			eventErr = event.Err
		}
	}

	st := run.st
	switch {
	case run.err != nil:
		err = run.err
	case eventErr != nil:
		err = fmt.Errorf("episode loop: %w", eventErr)
	case st.Pass == 0:
		err = errors.New("episode loop ran no passes")
	}
	if err != nil {
		w.log.WithError(err).WithField("pass", st.Pass).Error("工作流失败")
		return nil, err
	}

	if st.Outcome == model.OutcomeRunning {
		st.Outcome = model.OutcomeExhausted
	}
	w.log.WithFields(logrus.Fields{"passes": st.Pass, "outcome": st.Outcome}).Info("工作流结束")
	return st, nil
}

// episodeRun 单次运行的共享状态，子 agent 依次执行，不会并发访问
type episodeRun struct {
	st       *model.EpisodeState
	maxIters int
	err      error
	log      *logrus.Entry
}

func (r *episodeRun) finished() bool {
	return r.err != nil || r.st.Outcome != model.OutcomeRunning
}

// stageAgent 把一个阶段适配成 adk.Agent
type stageAgent struct {
	step  Step
	first bool
	last  bool
	run   *episodeRun
}

func (a *stageAgent) Name(ctx context.Context) string {
	return a.step.Name
}

func (a *stageAgent) Description(ctx context.Context) string {
	return "episode stage " + a.step.Name
}

func (a *stageAgent) Run(ctx context.Context, input *adk.AgentInput,
	options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()

	go func() {
		defer gen.Close()

		if err := a.exec(ctx); err != nil {
			gen.Send(&adk.AgentEvent{AgentName: a.step.Name, Err: err})
			return
		}
		if a.last && a.run.st.Outcome == model.OutcomeAccepted {
			gen.Send(&adk.AgentEvent{
				AgentName: a.step.Name,
				Action:    adk.NewBreakLoopAction(a.step.Name),
			})
		}
	}()

	return iter
}

func (a *stageAgent) exec(ctx context.Context) error {
	r := a.run
	st := r.st
	if r.finished() {
		return nil
	}
	if a.first {
		if st.Pass >= r.maxIters {
			return nil
		}
		st.Pass++
		st.Critic = nil
		r.log.WithField("pass", st.Pass).Info("开始新一轮生成")
	}

	d, err := a.step.Run(ctx, st)
	if err == nil {
		err = st.Merge(d)
	}
	if err != nil {
		r.err = &StageError{Stage: a.step.Name, Pass: st.Pass, Err: err}
		return r.err
	}

	if !a.last {
		return nil
	}
	if st.Critic == nil {
		r.err = &StageError{Stage: a.step.Name, Pass: st.Pass, Err: errNoVerdict}
		return r.err
	}
	r.log.WithFields(logrus.Fields{
		"pass":     st.Pass,
		"score":    st.Critic.Score,
		"decision": st.Critic.Decision,
		"missing":  st.Critic.Missing,
	}).Info("评审完成")

	switch {
	case st.Critic.Decision == model.DecisionAccept:
		st.Outcome = model.OutcomeAccepted
	case st.Pass >= r.maxIters:
		st.Outcome = model.OutcomeExhausted
	}
	return nil
}

var _ adk.Agent = (*stageAgent)(nil)
