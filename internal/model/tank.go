package model

import "github.com/shopspring/decimal"

// TankDipEntry holds opening and closing readings for one storage tank.
// Volumes are liters. A closing volume above Capacity is a validation
// error; negative usage (closing above opening) is a flagged anomaly,
// not an error — water drain, calibration and delivery timing can all
// produce it legitimately.
type TankDipEntry struct {
	TankID    string          `json:"tankId"`
	ProductID string          `json:"productId"`
	Capacity  decimal.Decimal `json:"capacity"`

	OpeningVolume decimal.Decimal `json:"openingVolume"`
	OpeningDip    decimal.Decimal `json:"openingDip"`

	ClosingVolume *decimal.Decimal `json:"closingVolume,omitempty"`
	ClosingDip    *decimal.Decimal `json:"closingDip,omitempty"`

	Temperature float64 `json:"temperature,omitempty"`
	WaterLevel  float64 `json:"waterLevel,omitempty"`
	Density     float64 `json:"density,omitempty"`
}

// HasClosing reports whether both closing readings have been entered.
func (t TankDipEntry) HasClosing() bool {
	return t.ClosingVolume != nil && t.ClosingDip != nil
}
