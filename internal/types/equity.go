package types

import "time"

// EquityPoint is a snapshot of the simulated account after one processed bar.
// Exactly one point is emitted per processed bar in strict time order.
type EquityPoint struct {
	// Time is the bar timestamp.
	Time time.Time `yaml:"time" json:"time" csv:"time"`
	// Cash is the available cash after any trade on this bar.
	Cash float64 `yaml:"cash" json:"cash" csv:"cash"`
	// PositionQuantity is the held quantity after any trade on this bar.
	PositionQuantity float64 `yaml:"position_quantity" json:"position_quantity" csv:"position_quantity"`
	// MarkPrice is the bar close used to mark the position.
	MarkPrice float64 `yaml:"mark_price" json:"mark_price" csv:"mark_price"`
	// TotalValue is cash + quantity * mark price. Fully reconstructible from
	// the other fields; carried so consumers never recompute it differently.
	TotalValue float64 `yaml:"total_value" json:"total_value" csv:"total_value"`
}

// NewEquityPoint builds an equity point with TotalValue derived from its parts.
func NewEquityPoint(t time.Time, cash, quantity, markPrice float64) EquityPoint {
	return EquityPoint{
		Time:             t,
		Cash:             cash,
		PositionQuantity: quantity,
		MarkPrice:        markPrice,
		TotalValue:       cash + quantity*markPrice,
	}
}
