package model

// LearnerInput 学习者输入。数值字段为空时由各阶段填充默认值
type LearnerInput struct {
	Level              string   `json:"level,omitempty"`
	Persona            string   `json:"persona,omitempty"`
	UserGoal           string   `json:"user_goal,omitempty"`
	MonthlyBudget      *float64 `json:"monthly_budget,omitempty"`
	CurrentBalance     *float64 `json:"current_balance,omitempty"`
	DaysUntilDue       *int     `json:"days_until_due,omitempty"`
	APRPercent         *float64 `json:"apr_percent,omitempty"`
	UtilizationPercent *float64 `json:"utilization_percent,omitempty"`
}

// LearnerProfile 计划中的学习者画像
type LearnerProfile struct {
	Level  string   `json:"level"`
	Budget *float64 `json:"budget"`
}

// Scene 单个镜头
type Scene struct {
	Title         string   `json:"title"`
	ShotPrompt    string   `json:"shot_prompt"`
	Duration      int      `json:"duration"`
	LearningFocus []string `json:"learning_focus"`
}

// Rubric 关键词覆盖率评分标准
type Rubric struct {
	MustIncludeKeywords []string `json:"must_include_keywords"`
	TargetCoverage      float64  `json:"target_coverage"`
}

// Plan 每轮由规划阶段生成的剧集计划
type Plan struct {
	Episode        int            `json:"episode"`
	Theme          string         `json:"theme"`
	Date           string         `json:"date"`
	LearnerProfile LearnerProfile `json:"learner_profile"`
	Objectives     []string       `json:"objectives"`
	Scenario       string         `json:"scenario"`
	Scenes         []Scene        `json:"scenes"`
	Rubric         Rubric         `json:"rubric"`
	BranchLabels   []string       `json:"branch_labels"`
	// Revisions holds critic overlay clauses carried into later passes.
	Revisions []string `json:"revisions,omitempty"`
}

// Clone returns a deep copy so a stage can edit the plan without touching
// the state it was handed.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.Objectives = append([]string(nil), p.Objectives...)
	out.Scenes = make([]Scene, len(p.Scenes))
	for i, sc := range p.Scenes {
		sc.LearningFocus = append([]string(nil), sc.LearningFocus...)
		out.Scenes[i] = sc
	}
	out.Rubric.MustIncludeKeywords = append([]string(nil), p.Rubric.MustIncludeKeywords...)
	out.BranchLabels = append([]string(nil), p.BranchLabels...)
	out.Revisions = append([]string(nil), p.Revisions...)
	if p.LearnerProfile.Budget != nil {
		b := *p.LearnerProfile.Budget
		out.LearnerProfile.Budget = &b
	}
	return &out
}

// Decision 评审结论
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionRevise Decision = "revise"
)

// CriticVerdict 每轮重新计算的评审结果
type CriticVerdict struct {
	Score    float64  `json:"score"`
	Decision Decision `json:"decision"`
	Missing  []string `json:"missing"`
}

// SafetyInfo 视频生成返回的内容安全信息
type SafetyInfo struct {
	FilteredCount   int      `json:"filtered_count,omitempty"`
	FilteredReasons []string `json:"filtered_reasons,omitempty"`
	ItemReasons     []string `json:"item_reasons,omitempty"`
}

// VideoResult 视频生成结果，URI 与内联视频可以同时存在
type VideoResult struct {
	VideoURIs    []string   `json:"video_uris"`
	InlineVideos []string   `json:"inline_videos"`
	SafetyInfo   SafetyInfo `json:"safety_info"`
}

// ChoiceImage 分支图片
type ChoiceImage struct {
	Label    string `json:"label"`
	ImageURI string `json:"image_uri"`
}

// ChoiceHint 分支提示
type ChoiceHint struct {
	Label string `json:"label"`
	Hint  string `json:"hint"`
}

// Outcome 工作流结束状态
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeAccepted  Outcome = "accepted"
	OutcomeExhausted Outcome = "exhausted"
)

// EpisodeOutput 对外返回的剧集结果
type EpisodeOutput struct {
	RunID        string         `json:"run_id"`
	Episode      int            `json:"episode"`
	Goal         string         `json:"goal"`
	ShotPrompt   string         `json:"shot_prompt"`
	VideoURI     string         `json:"video_uri,omitempty"`
	VideoB64     string         `json:"video_b64,omitempty"`
	ChoiceImages []ChoiceImage  `json:"choice_images"`
	ChoiceHints  []ChoiceHint   `json:"choice_hints"`
	Critic       *CriticVerdict `json:"critic"`
	Rai          SafetyInfo     `json:"rai"`
	Passes       int            `json:"passes"`
	Outcome      Outcome        `json:"outcome"`
}

// FinancialInputs 生成镜头提示词时发送给文本模型的参数
type FinancialInputs struct {
	Persona            string  `json:"persona"`
	MonthlyBudget      float64 `json:"monthly_budget"`
	CurrentBalance     float64 `json:"current_balance"`
	DaysUntilDue       int     `json:"days_until_due"`
	APRPercent         float64 `json:"apr_percent"`
	UtilizationPercent float64 `json:"utilization_percent"`
	Goal               string  `json:"goal"`
	SceneTitle         string  `json:"scene_title"`
}
