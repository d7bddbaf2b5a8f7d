package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/tidemark-lab/tidemark/internal/indicator"
	"github.com/tidemark-lab/tidemark/internal/integrator"
	"github.com/tidemark-lab/tidemark/internal/strategy"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// BacktestEngineV1Config is the full configuration for one backtest run.
type BacktestEngineV1Config struct {
	InitialCapital      float64 `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest,minimum=0"`
	CommissionRate      float64 `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,description=Commission charged per fill as a fraction of notional"`
	SlippageRate        float64 `yaml:"slippage_rate" json:"slippage_rate" validate:"gte=0,lt=1" jsonschema:"title=Slippage Rate,description=Adverse price movement applied at execution as a fraction of close"`
	MaxPositionFraction float64 `yaml:"max_position_fraction" json:"max_position_fraction" validate:"gt=0,lte=1" jsonschema:"title=Max Position Fraction,description=Largest share of total value a single trade may target"`
	DecimalPrecision    int32   `yaml:"decimal_precision" json:"decimal_precision" validate:"gte=0,lte=18" jsonschema:"title=Decimal Precision,description=Decimal places used when rounding trade quantities"`

	Weights    integrator.Weights    `yaml:"weights" json:"weights" jsonschema:"title=Category Weights,description=Weight of each signal category in the fused signal"`
	Thresholds integrator.Thresholds `yaml:"thresholds" json:"thresholds" jsonschema:"title=Decision Thresholds,description=Fused signal levels that trigger BUY and SELL"`
	Indicators indicator.Params      `yaml:"indicators" json:"indicators" jsonschema:"title=Indicator Parameters"`
	Strategies strategy.Params       `yaml:"strategies" json:"strategies" jsonschema:"title=Strategy Parameters"`

	RiskFreeRate   float64 `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used in Sharpe calculations"`
	PeriodsPerYear float64 `yaml:"periods_per_year" json:"periods_per_year" validate:"gt=0" jsonschema:"title=Periods Per Year,description=Bar periods in one year used for annualization"`

	// MaxDrawdownAbort aborts the run early when the drawdown from the
	// running equity peak exceeds this fraction. 0 disables the cap.
	MaxDrawdownAbort float64 `yaml:"max_drawdown_abort" json:"max_drawdown_abort" validate:"gte=0,lte=1" jsonschema:"title=Max Drawdown Abort,description=Drawdown fraction that aborts the run early (0 disables)"`

	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the backtest window"`
	EndTime   optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the backtest window"`
}

// DefaultConfig returns the standard run configuration.
func DefaultConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:      3_000_000,
		CommissionRate:      0.001,
		SlippageRate:        0.0005,
		MaxPositionFraction: 0.3,
		DecimalPrecision:    6,
		Weights:             integrator.DefaultWeights(),
		Thresholds:          integrator.DefaultThresholds(),
		Indicators:          indicator.DefaultParams(),
		Strategies:          strategy.DefaultParams(),
		RiskFreeRate:        0,
		PeriodsPerYear:      525_600,
		MaxDrawdownAbort:    0,
		StartTime:           optional.None[time.Time](),
		EndTime:             optional.None[time.Time](),
	}
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Absent start/end times become None instead of zero times.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital      float64               `yaml:"initial_capital"`
		CommissionRate      float64               `yaml:"commission_rate"`
		SlippageRate        float64               `yaml:"slippage_rate"`
		MaxPositionFraction float64               `yaml:"max_position_fraction"`
		DecimalPrecision    int32                 `yaml:"decimal_precision"`
		Weights             integrator.Weights    `yaml:"weights"`
		Thresholds          integrator.Thresholds `yaml:"thresholds"`
		Indicators          indicator.Params      `yaml:"indicators"`
		Strategies          strategy.Params       `yaml:"strategies"`
		RiskFreeRate        float64               `yaml:"risk_free_rate"`
		PeriodsPerYear      float64               `yaml:"periods_per_year"`
		MaxDrawdownAbort    float64               `yaml:"max_drawdown_abort"`
		StartTime           *time.Time            `yaml:"start_time"`
		EndTime             *time.Time            `yaml:"end_time"`
	}

	// Seed from the receiver so keys absent in the document keep whatever
	// values the caller started from.
	config := Config{
		InitialCapital:      c.InitialCapital,
		CommissionRate:      c.CommissionRate,
		SlippageRate:        c.SlippageRate,
		MaxPositionFraction: c.MaxPositionFraction,
		DecimalPrecision:    c.DecimalPrecision,
		Weights:             c.Weights,
		Thresholds:          c.Thresholds,
		Indicators:          c.Indicators,
		Strategies:          c.Strategies,
		RiskFreeRate:        c.RiskFreeRate,
		PeriodsPerYear:      c.PeriodsPerYear,
		MaxDrawdownAbort:    c.MaxDrawdownAbort,
	}

	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.CommissionRate = config.CommissionRate
	c.SlippageRate = config.SlippageRate
	c.MaxPositionFraction = config.MaxPositionFraction
	c.DecimalPrecision = config.DecimalPrecision
	c.Weights = config.Weights
	c.Thresholds = config.Thresholds
	c.Indicators = config.Indicators
	c.Strategies = config.Strategies
	c.RiskFreeRate = config.RiskFreeRate
	c.PeriodsPerYear = config.PeriodsPerYear
	c.MaxDrawdownAbort = config.MaxDrawdownAbort

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks structural constraints plus the weight-sum and threshold
// ordering rules that struct tags cannot express.
func (c *BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config validation failed", err)
	}

	if err := c.Weights.Validate(); err != nil {
		return err
	}

	if err := c.Thresholds.Validate(); err != nil {
		return err
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "start_time must be before end_time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config.
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config.
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
