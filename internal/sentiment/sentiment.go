// Package sentiment scores market mood in [-1, 1]. Scorers are external
// collaborators from the replay engine's point of view: the engine only
// consumes the per-bar value.
package sentiment

import (
	"strings"
	"time"

	"github.com/tidemark-lab/tidemark/internal/types"
)

// Scorer produces a sentiment signal for a bar timestamp.
type Scorer interface {
	// Score returns the sentiment signal in [-1, 1] for the given time.
	Score(t time.Time) (types.CategorySignal, error)
}

// StaticScorer always returns the same value. It backs runs without a
// sentiment feed (value 0) and deterministic tests.
type StaticScorer struct {
	value float64
}

// NewStaticScorer creates a scorer pinned to value, clamped to [-1, 1].
func NewStaticScorer(value float64) *StaticScorer {
	return &StaticScorer{value: types.ClampSignal(value)}
}

// Score implements Scorer.
func (s *StaticScorer) Score(t time.Time) (types.CategorySignal, error) {
	return types.CategorySignal{
		Category: types.CategorySentiment,
		Value:    s.value,
		Time:     t,
	}, nil
}

// positiveKeywords and negativeKeywords drive the keyword scorer. Matching
// is case-insensitive substring containment.
var positiveKeywords = []string{
	"bullish", "surge", "rally", "gain", "up", "rise", "positive",
	"growth", "adoption", "partnership", "launch", "success",
	"breakthrough", "innovation", "strong", "buy", "long",
}

var negativeKeywords = []string{
	"bearish", "crash", "drop", "fall", "down", "decline", "negative",
	"loss", "sell", "short", "dump", "fear", "panic", "weak",
	"failure", "hack", "scam", "ban", "regulation",
}

// AnalyzeText scores one piece of text: (positive hits - negative hits) /
// total hits, or 0 when no keyword matches.
func AnalyzeText(text string) float64 {
	lower := strings.ToLower(text)

	positive := 0

	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			positive++
		}
	}

	negative := 0

	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			negative++
		}
	}

	total := positive + negative
	if total == 0 {
		return 0
	}

	return float64(positive-negative) / float64(total)
}

// Article is a timestamped piece of news text.
type Article struct {
	Time time.Time
	Text string
}

// KeywordScorer scores bars from a pre-collected article feed: the signal at
// time t is the average keyword score of articles within the lookback window
// ending at t. Articles after t are never consulted.
type KeywordScorer struct {
	articles []Article
	lookback time.Duration
}

// NewKeywordScorer wraps an article feed with the given lookback window.
func NewKeywordScorer(articles []Article, lookback time.Duration) *KeywordScorer {
	return &KeywordScorer{
		articles: articles,
		lookback: lookback,
	}
}

// Score implements Scorer.
func (k *KeywordScorer) Score(t time.Time) (types.CategorySignal, error) {
	cutoff := t.Add(-k.lookback)

	sum := 0.0
	count := 0

	for _, a := range k.articles {
		if a.Time.After(t) || a.Time.Before(cutoff) {
			continue
		}

		sum += AnalyzeText(a.Text)
		count++
	}

	value := 0.0
	if count > 0 {
		value = sum / float64(count)
	}

	return types.CategorySignal{
		Category: types.CategorySentiment,
		Value:    types.ClampSignal(value),
		Time:     t,
	}, nil
}
