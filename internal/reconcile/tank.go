// Package reconcile cross-checks the three independent end-of-shift data
// sources against each other: tank dips vs pump meters, and cashier
// collections vs meter-derived sales. Everything here is pure; findings
// come back as status values, not errors.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// Tank usage status.
const (
	TankNormal        = "normal"
	TankCheckRequired = "check_required"
)

// TankResult is the per-tank usage figure.
type TankResult struct {
	TankID string          `json:"tankId"`
	Usage  decimal.Decimal `json:"usage"`
	Status string          `json:"status"`
}

// Tank computes fuel consumed from one tank over the shift. Negative usage
// (closing above opening, e.g. mid-shift delivery) is flagged for review
// but reported as measured.
func Tank(e model.TankDipEntry) TankResult {
	res := TankResult{TankID: e.TankID, Status: TankNormal}
	if e.ClosingVolume == nil {
		return res
	}
	res.Usage = e.OpeningVolume.Sub(*e.ClosingVolume)
	if res.Usage.IsNegative() {
		res.Status = TankCheckRequired
	}
	return res
}

// TankThresholds bound the acceptable gap between dip-measured usage and
// meter-measured dispense. Exceeding either the absolute or the percentage
// bound marks the variance, which is informational and never blocks.
type TankThresholds struct {
	AbsLiters decimal.Decimal
	Pct       decimal.Decimal
}

// TankVariance compares one tank's dip usage against the liters dispensed
// by the pumps drawing from it.
type TankVariance struct {
	TankID     string          `json:"tankId"`
	Usage      decimal.Decimal `json:"usage"`
	Dispensed  decimal.Decimal `json:"dispensed"`
	Difference decimal.Decimal `json:"difference"`
	Exceeded   bool            `json:"exceeded"`
}

// TankAggregate computes per-tank variances between dip usage and pump
// dispense. dispensedByTank maps tankID to the summed liters from the
// pumps attributed to that tank.
func TankAggregate(tanks []model.TankDipEntry, dispensedByTank map[string]decimal.Decimal, th TankThresholds) []TankVariance {
	out := make([]TankVariance, 0, len(tanks))
	for _, t := range tanks {
		usage := Tank(t).Usage
		dispensed := dispensedByTank[t.TankID]
		diff := usage.Sub(dispensed)

		v := TankVariance{
			TankID:     t.TankID,
			Usage:      usage,
			Dispensed:  dispensed,
			Difference: diff,
		}

		abs := diff.Abs()
		if th.AbsLiters.IsPositive() && abs.GreaterThan(th.AbsLiters) {
			v.Exceeded = true
		}
		if th.Pct.IsPositive() && dispensed.IsPositive() {
			pct := abs.Div(dispensed).Mul(decimal.NewFromInt(100))
			if pct.GreaterThan(th.Pct) {
				v.Exceeded = true
			}
		}
		out = append(out, v)
	}
	return out
}
