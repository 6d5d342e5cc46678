package confidence

import (
	"context"
	"strings"
	"testing"

	"dialogcore/internal/retrieval"
)

func TestEvaluate_EmptyCandidates(t *testing.T) {
	e := NewEvaluator(Config{})
	decision := e.Evaluate(context.Background(), nil, []string{"退租", "流程"})

	if decision.Outcome != OutcomeUnclear {
		t.Fatalf("outcome = %v, want unclear", decision.Outcome)
	}
	if decision.Score != 0 {
		t.Fatalf("score = %v, want 0", decision.Score)
	}
	if decision.Level != LevelLow {
		t.Fatalf("level = %v, want low", decision.Level)
	}
	if decision.Metrics != (Metrics{}) {
		t.Fatalf("metrics must not be computed for empty input, got %+v", decision.Metrics)
	}
}

func TestEvaluate_HighConfidence(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	candidates := []retrieval.Candidate{
		{Similarity: 0.92, Keywords: []string{"退租", "流程"}, Content: strings.Repeat("退租流程說明", 100)},
		{Similarity: 0.88, Keywords: []string{"退租", "申請"}, Content: strings.Repeat("退租申請方式", 100)},
		{Similarity: 0.85, Keywords: []string{"解約"}, Content: strings.Repeat("解約須知", 100)},
	}

	decision := e.Evaluate(context.Background(), candidates, []string{"退租", "流程"})

	if decision.Level != LevelHigh {
		t.Fatalf("level = %v, want high (decision: %+v)", decision.Level, decision)
	}
	if decision.Outcome != OutcomeDirectAnswer {
		t.Fatalf("outcome = %v, want direct_answer", decision.Outcome)
	}
	if decision.Metrics.MaxSimilarity != 0.92 {
		t.Fatalf("max similarity = %v, want 0.92", decision.Metrics.MaxSimilarity)
	}
	if decision.Metrics.KeywordMatchRate != 1.0 {
		t.Fatalf("keyword match rate = %v, want 1.0", decision.Metrics.KeywordMatchRate)
	}
	if ShouldEscalate(decision) {
		t.Fatal("high-confidence decision must not escalate")
	}
}

func TestEvaluate_MediumConfidence(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	candidates := []retrieval.Candidate{
		{Similarity: 0.75, Keywords: []string{"租約"}, Content: strings.Repeat("租約相關", 50)},
		{Similarity: 0.72, Keywords: []string{"合約"}, Content: strings.Repeat("合約說明", 50)},
	}

	decision := e.Evaluate(context.Background(), candidates, []string{"退租", "流程"})

	// 0.75*0.6 + 0.4*0.2 + 0*0.2 = 0.53
	if decision.Level != LevelMedium {
		t.Fatalf("level = %v, want medium (score %v)", decision.Level, decision.Score)
	}
	if decision.Outcome != OutcomeNeedsEnhancement {
		t.Fatalf("outcome = %v, want needs_enhancement", decision.Outcome)
	}
}

func TestEvaluate_LowConfidence(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	candidates := []retrieval.Candidate{
		{Similarity: 0.55, Keywords: []string{"其他"}, Content: "其他內容"},
	}

	decision := e.Evaluate(context.Background(), candidates, []string{"退租", "流程"})

	if decision.Level != LevelLow {
		t.Fatalf("level = %v, want low (score %v)", decision.Level, decision.Score)
	}
	if decision.Outcome != OutcomeUnclear {
		t.Fatalf("outcome = %v, want unclear", decision.Outcome)
	}
	if !ShouldEscalate(decision) {
		t.Fatal("low-confidence decision must escalate")
	}
}

func TestEvaluate_HighScoreSingleResultIsNotHigh(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	candidates := []retrieval.Candidate{
		{Similarity: 0.95, Keywords: []string{"退租"}, Content: strings.Repeat("x", 600)},
	}

	decision := e.Evaluate(context.Background(), candidates, []string{"退租"})

	// Score is above the high threshold but a lone result caps at medium.
	if decision.Level != LevelMedium {
		t.Fatalf("level = %v, want medium for a single candidate (score %v)", decision.Level, decision.Score)
	}
}

func TestEvaluate_ScoreMonotonicInMaxSimilarity(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	prev := -1.0
	for _, sim := range []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.0} {
		candidates := []retrieval.Candidate{
			{Similarity: sim, Keywords: []string{"a"}, Content: "content"},
			{Similarity: sim, Keywords: []string{"b"}, Content: "content"},
		}
		decision := e.Evaluate(context.Background(), candidates, []string{"a"})
		if decision.Score < prev {
			t.Fatalf("score decreased from %v to %v at similarity %v", prev, decision.Score, sim)
		}
		prev = decision.Score
	}
}

func TestEvaluate_ScoreClampedToOne(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	candidates := make([]retrieval.Candidate, 6)
	for i := range candidates {
		candidates[i] = retrieval.Candidate{Similarity: 1.0, Keywords: []string{"a"}, Content: "c"}
	}

	decision := e.Evaluate(context.Background(), candidates, []string{"a"})
	if decision.Score > 1.0 {
		t.Fatalf("score = %v, must be clamped to 1.0", decision.Score)
	}
}

func TestEvaluate_KeywordRateZeroWhenNoQuestionKeywords(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	candidates := []retrieval.Candidate{
		{Similarity: 0.8, Keywords: []string{"a"}, Content: "c"},
		{Similarity: 0.8, Keywords: []string{"b"}, Content: "c"},
	}

	decision := e.Evaluate(context.Background(), candidates, nil)
	if decision.Metrics.KeywordMatchRate != 0 {
		t.Fatalf("keyword match rate = %v, want 0 for empty question keywords", decision.Metrics.KeywordMatchRate)
	}
}

func TestEvaluate_ConsistencyMetric(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	tight := []retrieval.Candidate{
		{Similarity: 0.80, Content: "c"},
		{Similarity: 0.81, Content: "c"},
		{Similarity: 0.79, Content: "c"},
	}
	spread := []retrieval.Candidate{
		{Similarity: 0.95, Content: "c"},
		{Similarity: 0.40, Content: "c"},
		{Similarity: 0.20, Content: "c"},
	}

	tightDecision := e.Evaluate(context.Background(), tight, nil)
	spreadDecision := e.Evaluate(context.Background(), spread, nil)

	if tightDecision.Metrics.Consistency <= spreadDecision.Metrics.Consistency {
		t.Fatalf("tight similarities must score more consistent: %v vs %v",
			tightDecision.Metrics.Consistency, spreadDecision.Metrics.Consistency)
	}
	if !strings.Contains(tightDecision.Reasoning, "consistent") {
		t.Fatalf("expected consistency note in reasoning, got %q", tightDecision.Reasoning)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	candidates := []retrieval.Candidate{
		{Similarity: 0.77, Keywords: []string{"退租"}, Content: "退租流程"},
		{Similarity: 0.73, Keywords: []string{"合約"}, Content: "合約說明"},
	}
	keywords := []string{"退租", "流程"}

	first := e.Evaluate(context.Background(), candidates, keywords)
	second := e.Evaluate(context.Background(), candidates, keywords)
	if first != second {
		t.Fatalf("evaluation must be deterministic: %+v vs %+v", first, second)
	}
}

func TestEvaluate_UnansweredQuestionScenario(t *testing.T) {
	// End-to-end: retrieval came back empty for a real user question.
	e := NewEvaluator(DefaultConfig())
	decision := e.Evaluate(context.Background(), []retrieval.Candidate{}, []string{"搬出", "文件"})

	if decision.Outcome != OutcomeUnclear {
		t.Fatalf("outcome = %v, want unclear for zero candidates", decision.Outcome)
	}
}
