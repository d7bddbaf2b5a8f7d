// Package integrator fuses the per-category signals into one trade decision
// per bar using fixed category weights.
package integrator

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// weightSumTolerance is how far the weight sum may drift from 1.0 before
// construction fails.
const weightSumTolerance = 1e-6

// Weights assigns each signal category its share of the final signal.
type Weights struct {
	Technical float64 `yaml:"technical" json:"technical" validate:"gte=0,lte=1"`
	Strategy  float64 `yaml:"strategy" json:"strategy" validate:"gte=0,lte=1"`
	Sentiment float64 `yaml:"sentiment" json:"sentiment" validate:"gte=0,lte=1"`
	ML        float64 `yaml:"ml" json:"ml" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the standard category weighting.
func DefaultWeights() Weights {
	return Weights{
		Technical: 0.3,
		Strategy:  0.3,
		Sentiment: 0.2,
		ML:        0.2,
	}
}

// SoloWeights puts all weight on one category, for runs that isolate a
// single signal family. Unknown categories return an invalid zero weighting
// so Validate catches the mistake.
func SoloWeights(category types.SignalCategory) Weights {
	var w Weights

	switch category {
	case types.CategoryTechnical:
		w.Technical = 1
	case types.CategoryStrategy:
		w.Strategy = 1
	case types.CategorySentiment:
		w.Sentiment = 1
	case types.CategoryML:
		w.ML = 1
	}

	return w
}

// Validate checks that the weights sum to 1.0 within tolerance.
func (w Weights) Validate() error {
	sum := w.Technical + w.Strategy + w.Sentiment + w.ML
	if math.Abs(sum-1.0) > weightSumTolerance {
		return errors.Newf(errors.ErrCodeInvalidWeights,
			"category weights must sum to 1.0, got %.8f", sum)
	}

	return nil
}

func (w Weights) forCategory(category types.SignalCategory) float64 {
	switch category {
	case types.CategoryTechnical:
		return w.Technical
	case types.CategoryStrategy:
		return w.Strategy
	case types.CategorySentiment:
		return w.Sentiment
	case types.CategoryML:
		return w.ML
	default:
		return 0
	}
}

// Thresholds maps the fused signal to a trade decision.
type Thresholds struct {
	Buy  float64 `yaml:"buy" json:"buy" validate:"gt=-1,lt=1"`
	Sell float64 `yaml:"sell" json:"sell" validate:"gt=-1,lt=1"`
}

// DefaultThresholds returns the standard decision thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Buy:  0.3,
		Sell: -0.3,
	}
}

// Validate checks the sell threshold sits below the buy threshold.
func (t Thresholds) Validate() error {
	if t.Sell >= t.Buy {
		return errors.Newf(errors.ErrCodeInvalidThreshold,
			"sell threshold %.4f must be below buy threshold %.4f", t.Sell, t.Buy)
	}

	return nil
}

// Integrator produces one IntegratedSignal per bar from the category
// signals. Construction fails fast on invalid weights or thresholds.
type Integrator struct {
	weights    Weights
	thresholds Thresholds
	logger     *logger.Logger
}

// NewIntegrator validates the weights and thresholds and returns an Integrator.
func NewIntegrator(weights Weights, thresholds Thresholds, log *logger.Logger) (*Integrator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	return &Integrator{
		weights:    weights,
		thresholds: thresholds,
		logger:     log,
	}, nil
}

// Integrate fuses the category signals at the given bar time. A missing,
// NaN, or out-of-range category value contributes 0 and is logged as a
// warning; NaN never propagates to the output.
func (i *Integrator) Integrate(barTime time.Time, signals map[types.SignalCategory]float64) types.IntegratedSignal {
	breakdown := make(map[types.SignalCategory]float64, len(types.AllCategories))

	final := 0.0

	for _, category := range types.AllCategories {
		value, ok := signals[category]

		switch {
		case !ok:
			i.logger.Warn("missing category signal, treating as 0",
				zap.String("category", string(category)),
				zap.Time("bar_time", barTime))

			value = 0
		case math.IsNaN(value):
			i.logger.Warn("NaN category signal, treating as 0",
				zap.String("category", string(category)),
				zap.Time("bar_time", barTime))

			value = 0
		case value < -1 || value > 1:
			i.logger.Warn("out-of-range category signal, treating as 0",
				zap.String("category", string(category)),
				zap.Float64("value", value),
				zap.Time("bar_time", barTime))

			value = 0
		}

		breakdown[category] = value
		final += i.weights.forCategory(category) * value
	}

	final = types.ClampSignal(final)

	return types.IntegratedSignal{
		Time:      barTime,
		Value:     final,
		Decision:  i.decide(final),
		Breakdown: breakdown,
	}
}

func (i *Integrator) decide(signal float64) types.Decision {
	switch {
	case signal > i.thresholds.Buy:
		return types.DecisionBuy
	case signal < i.thresholds.Sell:
		return types.DecisionSell
	default:
		return types.DecisionHold
	}
}
