// Package digression classifies a guided-dialogue turn as on-topic or as
// one of four departure types, using an ordered cascade of checks.
package digression

import (
	"context"
	"time"
	"unicode/utf8"

	"dialogcore/internal/embedding"
	"dialogcore/internal/forms"
	"dialogcore/internal/intent"
	"dialogcore/internal/keyword"
	"dialogcore/internal/observability"
)

// Type labels why a message counts as a digression.
type Type string

const (
	TypeExplicitExit       Type = "explicit_exit"
	TypeQuestion           Type = "question"
	TypeIntentShift        Type = "intent_shift"
	TypeIrrelevantResponse Type = "irrelevant_response"
)

// Result is the cascade outcome for one turn.
type Result struct {
	IsDigression bool
	Type         Type
	Confidence   float64
}

// Fixed confidences per strategy. Only the intent-shift strategy reports a
// measured value (the classifier's own confidence).
const (
	explicitExitConfidence = 1.0
	questionConfidence     = 0.8
	semanticConfidence     = 0.6
)

// minQuestionLength is the message length below which the question check is
// skipped; "好嗎" style confirmations are not questions about the process.
const minQuestionLength = 5

// Detector runs the digression cascade. Safe for concurrent use; its only
// shared state lives in the ConfigProvider.
type Detector struct {
	provider     ConfigProvider
	embedder     embedding.Embedder
	matcher      *keyword.Matcher
	logger       *observability.Logger
	metrics      *observability.MetricsCollector
	embedTimeout time.Duration
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithMatcher replaces the default keyword matcher.
func WithMatcher(m *keyword.Matcher) DetectorOption {
	return func(d *Detector) { d.matcher = m }
}

// WithLogger attaches a logger.
func WithLogger(logger *observability.Logger) DetectorOption {
	return func(d *Detector) { d.logger = logger }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics *observability.MetricsCollector) DetectorOption {
	return func(d *Detector) { d.metrics = metrics }
}

// WithEmbedTimeout bounds the semantic-drift embedding calls.
func WithEmbedTimeout(timeout time.Duration) DetectorOption {
	return func(d *Detector) { d.embedTimeout = timeout }
}

// NewDetector builds a detector. A nil provider falls back to the built-in
// defaults; a nil embedder disables the semantic-drift strategy.
func NewDetector(provider ConfigProvider, embedder embedding.Embedder, opts ...DetectorOption) *Detector {
	if provider == nil {
		provider = NewStaticProvider(DefaultConfig())
	}
	d := &Detector{
		provider:     provider,
		embedder:     embedder,
		matcher:      keyword.NewMatcher(),
		embedTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect classifies one incoming turn. Strategies run in strict priority
// order and the first positive result short-circuits the rest:
//
//  1. explicit exit keyword
//  2. question keyword (messages of 5+ characters)
//  3. intent shift (classifier disagrees with the dialogue's triggers)
//  4. semantic drift (answer unrelated to the field prompt)
//
// Collaborator failures never surface: a broken store or embedding service
// degrades to "no digression".
func (d *Detector) Detect(
	ctx context.Context,
	message string,
	field forms.FieldDefinition,
	triggerIntents []string,
	classified *intent.Classification,
	tenantID int64,
	language string,
) Result {
	cfg := d.provider.Config(ctx, tenantID, language)

	if result := d.checkExplicitExit(ctx, message, cfg); result.IsDigression {
		return d.record(ctx, result)
	}
	if result := d.checkQuestion(ctx, message, cfg); result.IsDigression {
		return d.record(ctx, result)
	}
	if classified != nil {
		if result := d.checkIntentShift(ctx, message, *classified, triggerIntents, cfg); result.IsDigression {
			return d.record(ctx, result)
		}
	}
	if result := d.checkSemanticDrift(ctx, message, field, cfg); result.IsDigression {
		return d.record(ctx, result)
	}

	return Result{}
}

func (d *Detector) checkExplicitExit(ctx context.Context, message string, cfg Config) Result {
	match := d.matcher.Match(message, cfg.ExitKeywords, keyword.StrategyContains, false)
	if !match.Matched {
		return Result{}
	}
	d.logger.DebugContext(ctx, "explicit exit keyword", "keyword", match.Keyword)
	return Result{IsDigression: true, Type: TypeExplicitExit, Confidence: explicitExitConfidence}
}

func (d *Detector) checkQuestion(ctx context.Context, message string, cfg Config) Result {
	if utf8.RuneCountInString(message) < minQuestionLength {
		return Result{}
	}
	match := d.matcher.Match(message, cfg.QuestionKeywords, keyword.StrategyContains, false)
	if !match.Matched {
		return Result{}
	}
	d.logger.DebugContext(ctx, "question keyword", "keyword", match.Keyword)
	return Result{IsDigression: true, Type: TypeQuestion, Confidence: questionConfidence}
}

func (d *Detector) checkIntentShift(
	ctx context.Context,
	message string,
	classified intent.Classification,
	triggerIntents []string,
	cfg Config,
) Result {
	if classified.Name == "" || classified.Name == intent.Unclear {
		return Result{}
	}

	// Short answers such as names or phone numbers routinely classify as
	// some unrelated intent; exempt them.
	if utf8.RuneCountInString(message) <= cfg.Thresholds.ShortAnswerLengthIntent {
		return Result{}
	}

	if len(triggerIntents) == 0 {
		return Result{}
	}
	for _, name := range triggerIntents {
		if classified.Name == name {
			return Result{}
		}
	}
	if classified.Confidence <= cfg.Thresholds.IntentShift {
		return Result{}
	}

	d.logger.DebugContext(ctx, "intent shift",
		"intent", classified.Name, "confidence", classified.Confidence)
	return Result{IsDigression: true, Type: TypeIntentShift, Confidence: classified.Confidence}
}

func (d *Detector) checkSemanticDrift(ctx context.Context, message string, field forms.FieldDefinition, cfg Config) Result {
	if d.embedder == nil || field.Prompt == "" {
		return Result{}
	}
	if utf8.RuneCountInString(message) <= cfg.Thresholds.ShortAnswerLengthSemantic {
		return Result{}
	}

	embedCtx, cancel := context.WithTimeout(ctx, d.embedTimeout)
	defer cancel()

	start := time.Now()
	messageVec, err := d.embedder.Embed(embedCtx, message)
	if err != nil {
		d.metrics.RecordEmbeddingCall(ctx, time.Since(start), err)
		d.logger.WarnContext(ctx, "embedding failed, skipping semantic drift check", "error", err)
		return Result{}
	}
	promptVec, err := d.embedder.Embed(embedCtx, field.Prompt)
	d.metrics.RecordEmbeddingCall(ctx, time.Since(start), err)
	if err != nil {
		d.logger.WarnContext(ctx, "embedding failed, skipping semantic drift check", "error", err)
		return Result{}
	}

	similarity := embedding.Cosine(messageVec, promptVec)
	if similarity >= cfg.Thresholds.SemanticSimilarity {
		return Result{}
	}

	d.logger.DebugContext(ctx, "semantic drift",
		"similarity", similarity, "threshold", cfg.Thresholds.SemanticSimilarity)
	return Result{IsDigression: true, Type: TypeIrrelevantResponse, Confidence: semanticConfidence}
}

func (d *Detector) record(ctx context.Context, result Result) Result {
	d.metrics.RecordDigression(ctx, string(result.Type))
	return result
}
