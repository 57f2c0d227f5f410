// Package market analyzes stored market observations and produces brand
// promotion copy.
package market

import "strings"

// Review words are matched as substrings, each counted at most once. Both
// English and Chinese reviews are scored.
var (
	positiveWords = []string{
		"good", "great", "excellent", "delicious", "healthy", "nutritious", "recommend",
		"satisfied", "sweet", "fresh", "crisp", "tasty",
		"好", "棒", "优质", "美味", "健康", "营养", "推荐", "满意", "甜", "新鲜", "脆", "爽口", "鲜美",
	}
	negativeWords = []string{
		"bad", "poor", "awful", "disappointed", "refund", "fake", "stale", "not sweet", "not crisp",
		"差", "坏", "难吃", "不好", "失望", "退货", "质量差", "假货", "不脆", "不甜",
	}
)

// SentimentScore returns (pos-neg)/(pos+neg) over the lexicon hits in text,
// or 0 when no word matches.
func SentimentScore(text string) float64 {
	text = strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}
