package keyword

// defaultSynonyms expands common zh-TW confirmation, cancellation and
// troubleshooting phrases. Keys are canonical keywords as stored in SOP and
// dialogue configuration.
var defaultSynonyms = map[string][]string{
	// affirmations
	"是": {"好", "要", "可以", "需要", "對", "是的", "沒錯", "確認", "ok", "yes"},
	"要": {"需要", "想要", "希望", "麻煩"},
	"好": {"可以", "沒問題", "行", "ok"},

	// negations / cancellation
	"不":  {"不要", "不用", "不需要", "不行", "不可以", "不好"},
	"取消": {"算了", "放棄", "不要了", "作罷"},

	// troubleshooting follow-ups
	"還是不行": {"試過了還是不行", "還是沒用", "沒有用", "沒效果", "還是有問題"},
	"試過了":  {"試過", "嘗試過了", "已經試過", "做過了"},
	"需要維修": {"要維修", "請幫我修", "需要修理", "請人來修"},

	// continuation
	"繼續": {"繼續填", "繼續寫", "接著填", "往下"},
	"稍後": {"等等", "待會", "晚點", "之後再說"},
}

// defaultNegationMarkers are the single-character negation prefixes checked
// directly before a matched keyword.
var defaultNegationMarkers = []string{
	"不", "別", "沒", "無", "非", "未", "莫", "勿",
}
