package types

import (
	"math"
	"time"
)

// SignalCategory identifies which analysis family produced a signal.
type SignalCategory string

const (
	// CategoryTechnical is the average of the five technical indicator signals.
	CategoryTechnical SignalCategory = "technical"
	// CategoryStrategy is the average of the four rule-based strategy signals.
	CategoryStrategy SignalCategory = "strategy"
	// CategorySentiment is the sentiment score for the bar timestamp.
	CategorySentiment SignalCategory = "sentiment"
	// CategoryML is the machine-learned prediction for the bar window.
	CategoryML SignalCategory = "ml"
)

// AllCategories lists the signal categories in their canonical order.
var AllCategories = []SignalCategory{
	CategoryTechnical,
	CategoryStrategy,
	CategorySentiment,
	CategoryML,
}

// Decision is the trade intent derived from an integrated signal.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// CategorySignal is one category's contribution for a single bar.
// Produced fresh per bar; never persisted.
type CategorySignal struct {
	// Category is the analysis family that produced the value.
	Category SignalCategory
	// Value is the signal in [-1, 1].
	Value float64
	// Time is the bar timestamp the signal applies to.
	Time time.Time
}

// IndicatorType identifies a technical indicator.
type IndicatorType string

const (
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeMAPair         IndicatorType = "ma_pair"
	IndicatorTypeVolume         IndicatorType = "volume"
)

// StrategyType identifies a rule-based strategy.
type StrategyType string

const (
	StrategyTypeScalping      StrategyType = "scalping"
	StrategyTypeSwing         StrategyType = "swing"
	StrategyTypeTrendFollow   StrategyType = "trend_following"
	StrategyTypeMeanReversion StrategyType = "mean_reversion"
)

// IntegratedSignal is the fused decision signal for one bar.
type IntegratedSignal struct {
	// Time is the bar timestamp.
	Time time.Time `yaml:"time" json:"time"`
	// Value is the weighted final signal in [-1, 1].
	Value float64 `yaml:"value" json:"value"`
	// Decision is the trade intent mapped from Value.
	Decision Decision `yaml:"decision" json:"decision"`
	// Breakdown maps each category to the value that entered the weighting.
	Breakdown map[SignalCategory]float64 `yaml:"breakdown" json:"breakdown"`
}

// ClampSignal bounds a signal value to [-1, 1]. NaN maps to 0.
func ClampSignal(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return math.Max(-1, math.Min(1, v))
}
