// Package confidence turns scored retrieval candidates into a three-way
// response-strategy decision: answer directly, enhance first, or escalate
// as unresolved.
package confidence

import (
	"context"
	"fmt"
	"math"
	"strings"

	"dialogcore/internal/observability"
	"dialogcore/internal/retrieval"
)

// Level is the coarse confidence grade.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Outcome is the response strategy the caller should follow.
type Outcome string

const (
	OutcomeDirectAnswer     Outcome = "direct_answer"
	OutcomeNeedsEnhancement Outcome = "needs_enhancement"
	OutcomeUnclear          Outcome = "unclear"
)

// Metrics are the derived signals behind a decision. Never mutated after
// evaluation.
type Metrics struct {
	AvgSimilarity    float64 `json:"avg_similarity"`
	MaxSimilarity    float64 `json:"max_similarity"`
	ResultCount      int     `json:"result_count"`
	KeywordMatchRate float64 `json:"keyword_match_rate"`
	Consistency      float64 `json:"consistency"`
	ContentQuality   float64 `json:"content_quality"`
}

// Decision is the evaluation output. Created fresh per call.
type Decision struct {
	Score     float64 `json:"confidence_score"`
	Level     Level   `json:"confidence_level"`
	Outcome   Outcome `json:"decision"`
	Reasoning string  `json:"reasoning"`
	Metrics   Metrics `json:"metrics"`
}

// Config holds evaluation thresholds and score weights.
type Config struct {
	HighThreshold     float64
	MediumThreshold   float64
	MinResultsForHigh int
	SimilarityWeight  float64
	ResultCountWeight float64
	KeywordWeight     float64
}

// DefaultConfig returns the production-tuned thresholds.
func DefaultConfig() Config {
	return Config{
		HighThreshold:     0.70,
		MediumThreshold:   0.50,
		MinResultsForHigh: 2,
		SimilarityWeight:  0.6,
		ResultCountWeight: 0.2,
		KeywordWeight:     0.2,
	}
}

// consistencyCap bounds the similarity spread that still counts against
// consistency; spreads beyond the cap all score zero.
const consistencyCap = 0.3

// contentQualityLen is the content length treated as a complete answer.
const contentQualityLen = 500

// Evaluator scores retrieval candidates. Stateless and safe for unbounded
// concurrent use.
type Evaluator struct {
	cfg     Config
	logger  *observability.Logger
	metrics *observability.MetricsCollector
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger attaches a logger.
func WithLogger(logger *observability.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics *observability.MetricsCollector) Option {
	return func(e *Evaluator) { e.metrics = metrics }
}

// NewEvaluator builds an evaluator with the given config. A zero Config is
// replaced by DefaultConfig.
func NewEvaluator(cfg Config, opts ...Option) *Evaluator {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	e := &Evaluator{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores candidates against the question keywords and picks a
// response strategy. Candidates are expected ranked best-first; the first
// one drives the content-quality signal.
func (e *Evaluator) Evaluate(ctx context.Context, candidates []retrieval.Candidate, questionKeywords []string) Decision {
	if len(candidates) == 0 {
		decision := Decision{
			Score:     0,
			Level:     LevelLow,
			Outcome:   OutcomeUnclear,
			Reasoning: "no candidates",
		}
		e.record(ctx, decision)
		return decision
	}

	metrics := e.calculateMetrics(candidates, questionKeywords)
	score := e.weightedScore(metrics)
	level := e.level(score, metrics.ResultCount)

	decision := Decision{
		Score:     round3(score),
		Level:     level,
		Outcome:   outcomeFor(level),
		Reasoning: reasoning(metrics),
		Metrics:   metrics,
	}
	e.record(ctx, decision)
	return decision
}

func (e *Evaluator) calculateMetrics(candidates []retrieval.Candidate, questionKeywords []string) Metrics {
	similarities := make([]float64, len(candidates))
	for i, c := range candidates {
		similarities[i] = c.Similarity
	}

	maxSim := similarities[0]
	sum := 0.0
	for _, s := range similarities {
		sum += s
		if s > maxSim {
			maxSim = s
		}
	}
	avgSim := sum / float64(len(similarities))

	// Spread across similarities; a single candidate has no spread.
	std := 0.0
	if len(similarities) > 1 {
		std = sampleStdev(similarities, avgSim)
	}
	consistency := 1 - math.Min(std, consistencyCap)/consistencyCap

	contentQuality := math.Min(float64(len(candidates[0].Content))/contentQualityLen, 1.0)

	return Metrics{
		AvgSimilarity:    round3(avgSim),
		MaxSimilarity:    round3(maxSim),
		ResultCount:      len(candidates),
		KeywordMatchRate: round3(keywordMatchRate(candidates, questionKeywords)),
		Consistency:      round3(consistency),
		ContentQuality:   round3(contentQuality),
	}
}

func (e *Evaluator) weightedScore(m Metrics) float64 {
	score := m.MaxSimilarity*e.cfg.SimilarityWeight +
		math.Min(float64(m.ResultCount)/5, 1.0)*e.cfg.ResultCountWeight +
		m.KeywordMatchRate*e.cfg.KeywordWeight
	return math.Min(score, 1.0)
}

func (e *Evaluator) level(score float64, resultCount int) Level {
	switch {
	case score >= e.cfg.HighThreshold && resultCount >= e.cfg.MinResultsForHigh:
		return LevelHigh
	case score >= e.cfg.MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

func (e *Evaluator) record(ctx context.Context, d Decision) {
	e.metrics.RecordConfidenceDecision(ctx, string(d.Outcome), d.Score)
	e.logger.DebugContext(ctx, "confidence evaluated",
		"score", d.Score, "level", d.Level, "outcome", d.Outcome, "reasoning", d.Reasoning)
}

// ShouldEscalate reports whether the decision warrants handing the question
// to a human operator.
func ShouldEscalate(d Decision) bool {
	return d.Level == LevelLow || d.Outcome == OutcomeUnclear
}

func outcomeFor(level Level) Outcome {
	switch level {
	case LevelHigh:
		return OutcomeDirectAnswer
	case LevelMedium:
		// Worth answering, but the draft needs reworking first.
		return OutcomeNeedsEnhancement
	default:
		return OutcomeUnclear
	}
}

func keywordMatchRate(candidates []retrieval.Candidate, questionKeywords []string) float64 {
	if len(questionKeywords) == 0 {
		return 0
	}

	candidateKeywords := make(map[string]struct{})
	for _, c := range candidates {
		for _, kw := range c.Keywords {
			candidateKeywords[kw] = struct{}{}
		}
	}

	matched := 0
	seen := make(map[string]struct{}, len(questionKeywords))
	for _, kw := range questionKeywords {
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if _, ok := candidateKeywords[kw]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(seen))
}

// reasoning renders the deterministic bucketed summary. Observability only;
// callers branch on Outcome, never on this text.
func reasoning(m Metrics) string {
	var reasons []string

	switch {
	case m.MaxSimilarity >= 0.85:
		reasons = append(reasons, fmt.Sprintf("max similarity %.2f (very high)", m.MaxSimilarity))
	case m.MaxSimilarity >= 0.70:
		reasons = append(reasons, fmt.Sprintf("max similarity %.2f (moderate)", m.MaxSimilarity))
	default:
		reasons = append(reasons, fmt.Sprintf("max similarity %.2f (low)", m.MaxSimilarity))
	}

	switch {
	case m.ResultCount >= 3:
		reasons = append(reasons, fmt.Sprintf("found %d supporting results", m.ResultCount))
	case m.ResultCount >= 1:
		reasons = append(reasons, fmt.Sprintf("found only %d supporting result(s)", m.ResultCount))
	default:
		reasons = append(reasons, "no supporting results")
	}

	switch {
	case m.KeywordMatchRate >= 0.7:
		reasons = append(reasons, fmt.Sprintf("keyword match %.0f%% (good)", m.KeywordMatchRate*100))
	case m.KeywordMatchRate >= 0.3:
		reasons = append(reasons, fmt.Sprintf("keyword match %.0f%% (partial)", m.KeywordMatchRate*100))
	default:
		reasons = append(reasons, fmt.Sprintf("keyword match %.0f%% (low)", m.KeywordMatchRate*100))
	}

	if m.Consistency >= 0.8 {
		reasons = append(reasons, "results are consistent")
	}

	return strings.Join(reasons, "; ")
}

func sampleStdev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
