package digression

import (
	"context"
	"errors"
	"testing"

	"dialogcore/internal/forms"
	"dialogcore/internal/intent"
)

// fakeEmbedder returns canned vectors per text, or an error for every call.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return nil, errors.New("no vector for text")
}

var phoneField = forms.FieldDefinition{
	Name:   "phone",
	Label:  "聯絡電話",
	Prompt: "請提供您的聯絡電話",
}

func TestDetect_ExplicitExit(t *testing.T) {
	d := NewDetector(nil, nil)

	tests := []string{"取消", "我不想填了", "算了", "cancel"}
	for _, msg := range tests {
		result := d.Detect(context.Background(), msg, phoneField, nil, nil, 1, "zh-TW")
		if !result.IsDigression || result.Type != TypeExplicitExit {
			t.Fatalf("Detect(%q) = %+v, want explicit_exit", msg, result)
		}
		if result.Confidence != 1.0 {
			t.Fatalf("Detect(%q) confidence = %v, want 1.0", msg, result.Confidence)
		}
	}
}

func TestDetect_ExplicitExitWinsOverEverything(t *testing.T) {
	// Exit keywords short-circuit even when an intent shift is also present.
	d := NewDetector(nil, nil)
	classified := &intent.Classification{Name: "complaint", Confidence: 0.95}

	result := d.Detect(context.Background(), "算了我要取消不想繼續填寫這個表單了",
		phoneField, []string{"move_out"}, classified, 1, "zh-TW")
	if result.Type != TypeExplicitExit {
		t.Fatalf("type = %v, want explicit_exit to win the cascade", result.Type)
	}
}

func TestDetect_Question(t *testing.T) {
	d := NewDetector(nil, nil)

	result := d.Detect(context.Background(), "為什麼需要電話", phoneField, nil, nil, 1, "zh-TW")
	if !result.IsDigression || result.Type != TypeQuestion {
		t.Fatalf("result = %+v, want question", result)
	}
	if result.Confidence != 0.8 {
		t.Fatalf("confidence = %v, want 0.8", result.Confidence)
	}
}

func TestDetect_ShortMessageIsNeverAQuestion(t *testing.T) {
	d := NewDetector(nil, nil)

	// 為什麼 is in the question keyword set but the message is under 5 chars.
	result := d.Detect(context.Background(), "為什麼", phoneField, nil, nil, 1, "zh-TW")
	if result.IsDigression {
		t.Fatalf("short message must not be a question digression, got %+v", result)
	}
}

func TestDetect_IntentShift(t *testing.T) {
	d := NewDetector(nil, nil)
	classified := &intent.Classification{Name: "repair_request", Confidence: 0.9}

	msg := "我家的冷氣壞掉了完全不冷想請人來看一下" // 19 chars, no exit/question keywords
	result := d.Detect(context.Background(), msg, phoneField, []string{"move_out"}, classified, 1, "zh-TW")
	if !result.IsDigression || result.Type != TypeIntentShift {
		t.Fatalf("result = %+v, want intent_shift", result)
	}
	if result.Confidence != 0.9 {
		t.Fatalf("confidence = %v, want classifier confidence 0.9", result.Confidence)
	}
}

func TestDetect_IntentShiftGates(t *testing.T) {
	d := NewDetector(nil, nil)
	longMsg := "我家的冷氣壞掉了完全不冷想請人來看一下"

	tests := []struct {
		name       string
		message    string
		classified *intent.Classification
		triggers   []string
	}{
		{"no classification", longMsg, nil, []string{"move_out"}},
		{"unclear intent", longMsg, &intent.Classification{Name: intent.Unclear, Confidence: 0.9}, []string{"move_out"}},
		{"short answer exempt", "王小明", &intent.Classification{Name: "repair_request", Confidence: 0.9}, []string{"move_out"}},
		{"low confidence", longMsg, &intent.Classification{Name: "repair_request", Confidence: 0.5}, []string{"move_out"}},
		{"intent matches dialogue trigger", longMsg, &intent.Classification{Name: "move_out", Confidence: 0.9}, []string{"move_out"}},
		{"no trigger intents configured", longMsg, &intent.Classification{Name: "repair_request", Confidence: 0.9}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Detect(context.Background(), tt.message, phoneField, tt.triggers, tt.classified, 1, "zh-TW")
			if result.IsDigression {
				t.Fatalf("expected no digression, got %+v", result)
			}
		})
	}
}

func TestDetect_SemanticDrift(t *testing.T) {
	msg := "今天天氣真的非常好太陽很大" // 13 chars, unrelated to the prompt
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		msg:               {1, 0},
		phoneField.Prompt: {0, 1},
	}}
	d := NewDetector(nil, embedder)

	result := d.Detect(context.Background(), msg, phoneField, nil, nil, 1, "zh-TW")
	if !result.IsDigression || result.Type != TypeIrrelevantResponse {
		t.Fatalf("result = %+v, want irrelevant_response", result)
	}
	if result.Confidence != 0.6 {
		t.Fatalf("confidence = %v, want 0.6", result.Confidence)
	}
}

func TestDetect_SemanticDriftRelatedAnswerPasses(t *testing.T) {
	msg := "我的電話號碼是0912345678喔"
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		msg:               {1, 0.1},
		phoneField.Prompt: {1, 0},
	}}
	d := NewDetector(nil, embedder)

	result := d.Detect(context.Background(), msg, phoneField, nil, nil, 1, "zh-TW")
	if result.IsDigression {
		t.Fatalf("related answer must not be a digression, got %+v", result)
	}
}

func TestDetect_EmbeddingFailureIsNotADigression(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}
	d := NewDetector(nil, embedder)

	msg := "今天天氣真的非常好太陽很大"
	result := d.Detect(context.Background(), msg, phoneField, nil, nil, 1, "zh-TW")
	if result.IsDigression || result.Type != "" || result.Confidence != 0 {
		t.Fatalf("embedding failure must degrade to no digression, got %+v", result)
	}
}

func TestDetect_ShortAnswerSkipsSemanticCheck(t *testing.T) {
	// Embedder would flag anything, but short answers are exempt.
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	d := NewDetector(nil, embedder)

	result := d.Detect(context.Background(), "0912345678", phoneField, nil, nil, 1, "zh-TW")
	if result.IsDigression {
		t.Fatalf("short answer must skip the semantic check, got %+v", result)
	}
}

func TestDetect_OnTopicAnswer(t *testing.T) {
	d := NewDetector(nil, nil)

	result := d.Detect(context.Background(), "0912345678", phoneField, nil, nil, 1, "zh-TW")
	if result.IsDigression || result.Type != "" || result.Confidence != 0 {
		t.Fatalf("plain answer must pass the cascade, got %+v", result)
	}
}
