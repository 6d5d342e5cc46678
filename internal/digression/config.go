package digression

import "context"

// Thresholds gate the cascade's last two strategies. The two short-answer
// gates are tuned independently; do not fold them into one value.
type Thresholds struct {
	IntentShift               float64 `json:"intent_shift_threshold"`
	SemanticSimilarity        float64 `json:"semantic_similarity_threshold"`
	ShortAnswerLengthIntent   int     `json:"short_answer_length_intent"`
	ShortAnswerLengthSemantic int     `json:"short_answer_length_semantic"`
}

// Config holds the per-(tenant, language) detection settings. Treated as an
// immutable snapshot: providers replace it wholesale, never mutate it.
type Config struct {
	ExitKeywords     []string   `json:"exit_keywords"`
	QuestionKeywords []string   `json:"question_keywords"`
	Thresholds       Thresholds `json:"thresholds"`
}

// DefaultConfig returns the built-in zh-TW keyword sets and thresholds used
// whenever the backing store is unreachable or has no entry.
func DefaultConfig() Config {
	return Config{
		ExitKeywords: []string{
			"取消", "不填了", "算了", "不想填", "停止",
			"退出", "離開", "結束", "exit", "cancel", "stop",
		},
		QuestionKeywords: []string{
			"為什麼", "如何", "怎麼", "什麼", "哪裡",
			"多少", "幾", "嗎", "?", "？",
		},
		Thresholds: Thresholds{
			IntentShift:               0.7,
			SemanticSimilarity:        0.25,
			ShortAnswerLengthIntent:   15,
			ShortAnswerLengthSemantic: 10,
		},
	}
}

// ConfigProvider resolves detection settings for a tenant and language. It
// never fails: providers degrade to defaults instead of returning errors.
type ConfigProvider interface {
	Config(ctx context.Context, tenantID int64, language string) Config
}

// StaticProvider serves a fixed configuration for every scope.
type StaticProvider struct {
	cfg Config
}

// NewStaticProvider returns a provider serving cfg. A zero cfg is replaced
// by the built-in defaults.
func NewStaticProvider(cfg Config) *StaticProvider {
	normalize(&cfg)
	return &StaticProvider{cfg: cfg}
}

// Config implements ConfigProvider.
func (p *StaticProvider) Config(context.Context, int64, string) Config {
	return p.cfg
}

// normalize fills missing sections with defaults so a partial config from a
// store still yields a complete snapshot.
func normalize(cfg *Config) {
	defaults := DefaultConfig()
	if len(cfg.ExitKeywords) == 0 {
		cfg.ExitKeywords = defaults.ExitKeywords
	}
	if len(cfg.QuestionKeywords) == 0 {
		cfg.QuestionKeywords = defaults.QuestionKeywords
	}
	if cfg.Thresholds.IntentShift == 0 {
		cfg.Thresholds.IntentShift = defaults.Thresholds.IntentShift
	}
	if cfg.Thresholds.SemanticSimilarity == 0 {
		cfg.Thresholds.SemanticSimilarity = defaults.Thresholds.SemanticSimilarity
	}
	if cfg.Thresholds.ShortAnswerLengthIntent == 0 {
		cfg.Thresholds.ShortAnswerLengthIntent = defaults.Thresholds.ShortAnswerLengthIntent
	}
	if cfg.Thresholds.ShortAnswerLengthSemantic == 0 {
		cfg.Thresholds.ShortAnswerLengthSemantic = defaults.Thresholds.ShortAnswerLengthSemantic
	}
}
