package keyword

import (
	"testing"
)

func TestMatch_ExactRequiresFullEquality(t *testing.T) {
	m := NewMatcher()
	keywords := []string{"是", "要"}

	result := m.Match("是", keywords, StrategyExact, false)
	if !result.Matched || result.Keyword != "是" {
		t.Fatalf("expected exact match on 是, got %+v", result)
	}

	result = m.Match("是的", keywords, StrategyExact, false)
	if result.Matched {
		t.Fatalf("exact match must not fire on partial equality, got %+v", result)
	}
}

func TestMatch_ContainsNegation(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name    string
		text    string
		keyword string
		want    bool
	}{
		{"plain match", "我要", "要", true},
		{"negated directly", "我不要", "要", false},
		{"negated with gap", "不太好", "好", false},
		{"negation in earlier clause does not count", "不是啦，我很好", "好", true},
		{"troubleshooting phrase", "試過了還是不行", "還是不行", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.Match(tt.text, []string{tt.keyword}, StrategyContains, false)
			if result.Matched != tt.want {
				t.Fatalf("Match(%q, %q) matched=%v, want %v", tt.text, tt.keyword, result.Matched, tt.want)
			}
		})
	}
}

func TestMatch_Synonyms(t *testing.T) {
	m := NewMatcher()

	result := m.Match("沒問題", []string{"好"}, StrategySynonyms, false)
	if !result.Matched {
		t.Fatal("expected synonym match for 沒問題 via 好")
	}
	if result.Keyword != "好" || result.Synonym != "沒問題" {
		t.Fatalf("expected keyword 好 with synonym 沒問題, got %+v", result)
	}

	// Negated synonym must not fire.
	result = m.Match("不可以", []string{"好"}, StrategySynonyms, false)
	if result.Matched {
		t.Fatalf("negated synonym must not match, got %+v", result)
	}
}

func TestMatch_RegexSkipsMalformedPatterns(t *testing.T) {
	m := NewMatcher()

	// The broken pattern is skipped; the valid one still matches.
	result := m.Match("還是不太行", []string{"([invalid", "還是不.*行"}, StrategyRegex, false)
	if !result.Matched || result.Keyword != "還是不.*行" {
		t.Fatalf("expected the valid pattern to match, got %+v", result)
	}

	result = m.Match("anything", []string{"(((", "[z-a]"}, StrategyRegex, false)
	if result.Matched {
		t.Fatalf("only malformed patterns must not match, got %+v", result)
	}
}

func TestMatch_EmptyKeywords(t *testing.T) {
	m := NewMatcher()
	if result := m.Match("取消", nil, StrategyContains, false); result.Matched {
		t.Fatal("empty keyword set must never match")
	}
}

func TestMatchAny_DefaultStrategyOrder(t *testing.T) {
	m := NewMatcher()

	// 沒問題 only matches via synonyms, so the strategy must be reported.
	result := m.MatchAny("沒問題", []string{"好"}, nil)
	if !result.Matched || result.Strategy != StrategySynonyms {
		t.Fatalf("expected synonyms strategy, got %+v", result)
	}

	// Direct substring resolves at the contains stage.
	result = m.MatchAny("我要", []string{"要"}, nil)
	if !result.Matched || result.Strategy != StrategyContains {
		t.Fatalf("expected contains strategy, got %+v", result)
	}
}

func TestBestMatch(t *testing.T) {
	m := NewMatcher()
	keywords := []string{"還是不行", "試過了", "需要維修"}

	kw, score, ok := m.BestMatch("試過了還是不行", keywords)
	if !ok {
		t.Fatal("expected a best match")
	}
	if kw != "還是不行" {
		t.Fatalf("expected longest substring keyword, got %q", kw)
	}
	want := 4.0 / 7.0
	if diff := score - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score = %v, want %v", score, want)
	}

	if _, _, ok := m.BestMatch("冷氣還是很熱", keywords); ok {
		t.Fatal("expected no match for unrelated text")
	}
}

func TestBestMatch_ExactBeatsContains(t *testing.T) {
	m := NewMatcher()
	kw, score, ok := m.BestMatch("要", []string{"要", "需要維修"})
	if !ok || kw != "要" || score != 1.0 {
		t.Fatalf("expected exact score 1.0 for 要, got %q %v %v", kw, score, ok)
	}
}

func TestScores_NegatedKeywordScoresZero(t *testing.T) {
	m := NewMatcher()
	scores := m.Scores("我不要", []string{"要"})
	if scores["要"] != 0 {
		t.Fatalf("negated keyword must score 0, got %v", scores["要"])
	}
}

func TestMatch_CaseInsensitiveByDefault(t *testing.T) {
	m := NewMatcher()
	result := m.Match("CANCEL the form", []string{"cancel"}, StrategyContains, false)
	if !result.Matched {
		t.Fatal("expected case-insensitive contains match")
	}

	result = m.Match("CANCEL", []string{"cancel"}, StrategyContains, true)
	if result.Matched {
		t.Fatal("case-sensitive match must not fire across cases")
	}
}
