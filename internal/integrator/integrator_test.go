package integrator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

type IntegratorTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestIntegratorSuite(t *testing.T) {
	suite.Run(t, new(IntegratorTestSuite))
}

func (s *IntegratorTestSuite) SetupTest() {
	s.logger = logger.NewNopLogger()
}

func (s *IntegratorTestSuite) newIntegrator() *Integrator {
	integ, err := NewIntegrator(DefaultWeights(), DefaultThresholds(), s.logger)
	s.Require().NoError(err)

	return integ
}

func (s *IntegratorTestSuite) TestWeightsMustSumToOne() {
	_, err := NewIntegrator(Weights{
		Technical: 0.5,
		Strategy:  0.5,
		Sentiment: 0.5,
		ML:        0.5,
	}, DefaultThresholds(), s.logger)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidWeights, errors.GetCode(err))
}

func (s *IntegratorTestSuite) TestWeightsToleranceAccepted() {
	_, err := NewIntegrator(Weights{
		Technical: 0.3,
		Strategy:  0.3,
		Sentiment: 0.2,
		ML:        0.2 + 5e-7,
	}, DefaultThresholds(), s.logger)
	s.NoError(err)
}

func (s *IntegratorTestSuite) TestThresholdOrderingEnforced() {
	_, err := NewIntegrator(DefaultWeights(), Thresholds{Buy: -0.3, Sell: 0.3}, s.logger)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidThreshold, errors.GetCode(err))
}

func (s *IntegratorTestSuite) TestWeightedSum() {
	integ := s.newIntegrator()
	barTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	out := integ.Integrate(barTime, map[types.SignalCategory]float64{
		types.CategoryTechnical: 1.0,
		types.CategoryStrategy:  1.0,
		types.CategorySentiment: -1.0,
		types.CategoryML:        0.5,
	})

	// 0.3*1 + 0.3*1 + 0.2*(-1) + 0.2*0.5 = 0.5
	s.InDelta(0.5, out.Value, 1e-12)
	s.Equal(types.DecisionBuy, out.Decision)
	s.Equal(barTime, out.Time)
}

func (s *IntegratorTestSuite) TestNaNTreatedAsZero() {
	integ := s.newIntegrator()

	out := integ.Integrate(time.Now(), map[types.SignalCategory]float64{
		types.CategoryTechnical: math.NaN(),
		types.CategoryStrategy:  0.5,
		types.CategorySentiment: 0.5,
		types.CategoryML:        0.5,
	})

	s.False(math.IsNaN(out.Value))
	s.InDelta(0.35, out.Value, 1e-12)
	s.Equal(0.0, out.Breakdown[types.CategoryTechnical])
}

func (s *IntegratorTestSuite) TestMissingCategoryTreatedAsZero() {
	integ := s.newIntegrator()

	out := integ.Integrate(time.Now(), map[types.SignalCategory]float64{
		types.CategoryTechnical: 1.0,
	})

	s.InDelta(0.3, out.Value, 1e-12)
	s.Equal(0.0, out.Breakdown[types.CategoryML])
	s.Equal(types.DecisionHold, out.Decision)
}

func (s *IntegratorTestSuite) TestOutOfRangeTreatedAsZero() {
	integ := s.newIntegrator()

	out := integ.Integrate(time.Now(), map[types.SignalCategory]float64{
		types.CategoryTechnical: 3.0,
		types.CategoryStrategy:  -1.0,
		types.CategorySentiment: 0,
		types.CategoryML:        0,
	})

	s.InDelta(-0.3, out.Value, 1e-12)
	s.Equal(0.0, out.Breakdown[types.CategoryTechnical])
}

func (s *IntegratorTestSuite) TestDecisionMapping() {
	integ := s.newIntegrator()

	cases := []struct {
		signals  map[types.SignalCategory]float64
		expected types.Decision
	}{
		{map[types.SignalCategory]float64{
			types.CategoryTechnical: 1, types.CategoryStrategy: 1,
			types.CategorySentiment: 1, types.CategoryML: 1,
		}, types.DecisionBuy},
		{map[types.SignalCategory]float64{
			types.CategoryTechnical: -1, types.CategoryStrategy: -1,
			types.CategorySentiment: -1, types.CategoryML: -1,
		}, types.DecisionSell},
		{map[types.SignalCategory]float64{
			types.CategoryTechnical: 0, types.CategoryStrategy: 0,
			types.CategorySentiment: 0, types.CategoryML: 0,
		}, types.DecisionHold},
	}

	for _, tc := range cases {
		out := integ.Integrate(time.Now(), tc.signals)
		s.Equal(tc.expected, out.Decision)
	}
}

func (s *IntegratorTestSuite) TestExactThresholdIsHold() {
	integ := s.newIntegrator()

	// Technical and strategy at 0.5 fuse to exactly the 0.3 threshold,
	// which is not strictly above it.
	out := integ.Integrate(time.Now(), map[types.SignalCategory]float64{
		types.CategoryTechnical: 0.5,
		types.CategoryStrategy:  0.5,
		types.CategorySentiment: 0,
		types.CategoryML:        0,
	})

	s.Equal(types.DecisionHold, out.Decision)
}

func (s *IntegratorTestSuite) TestOutputAlwaysBounded() {
	integ := s.newIntegrator()

	out := integ.Integrate(time.Now(), map[types.SignalCategory]float64{
		types.CategoryTechnical: 1,
		types.CategoryStrategy:  1,
		types.CategorySentiment: 1,
		types.CategoryML:        1,
	})

	s.LessOrEqual(out.Value, 1.0)
	s.GreaterOrEqual(out.Value, -1.0)
}

func (s *IntegratorTestSuite) TestSoloWeights() {
	for _, category := range types.AllCategories {
		weights := SoloWeights(category)
		s.Require().NoError(weights.Validate(), string(category))
		s.Equal(1.0, weights.forCategory(category))
	}

	err := SoloWeights("news").Validate()
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidWeights, errors.GetCode(err))
}
