package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// TradeSide is the direction of a simulated fill.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// ExecutionResult is the outcome of applying one decision to the simulator.
// Infeasible trades are ordinary outcomes, not errors.
type ExecutionResult string

const (
	// ExecutionExecuted means a trade was filled and appended to the ledger.
	ExecutionExecuted ExecutionResult = "executed"
	// ExecutionHeld means the decision was HOLD; no trade was attempted.
	ExecutionHeld ExecutionResult = "held"
	// ExecutionSkippedInsufficientFunds means a BUY cost exceeded available cash.
	ExecutionSkippedInsufficientFunds ExecutionResult = "skipped_insufficient_funds"
	// ExecutionSkippedInsufficientPosition means a SELL had no position to reduce.
	ExecutionSkippedInsufficientPosition ExecutionResult = "skipped_insufficient_position"
	// ExecutionSkippedInvalidSignal means the sized quantity rounded to zero
	// or the signal was otherwise untradeable.
	ExecutionSkippedInvalidSignal ExecutionResult = "skipped_invalid_signal"
)

// Trade is one append-only ledger entry for a simulated fill.
type Trade struct {
	// ID is the unique identifier of the fill.
	ID string `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	// Symbol of the traded pair.
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	// Time is the bar timestamp the fill was simulated at.
	Time time.Time `yaml:"time" json:"time" csv:"time" validate:"required"`
	// Side is BUY or SELL.
	Side TradeSide `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	// RequestedSignal is the integrated signal value that sized the trade.
	RequestedSignal float64 `yaml:"requested_signal" json:"requested_signal" csv:"requested_signal" validate:"gte=-1,lte=1"`
	// FillPrice is the execution price after slippage.
	FillPrice float64 `yaml:"fill_price" json:"fill_price" csv:"fill_price" validate:"required,gt=0"`
	// Quantity is the filled quantity.
	Quantity float64 `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	// Commission is the commission paid on this fill.
	Commission float64 `yaml:"commission" json:"commission" csv:"commission" validate:"gte=0"`
}

// Validate validates the Trade struct.
func (t *Trade) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTrade, "invalid trade", err)
	}

	return nil
}
