// Package metermath derives dispensed liters and sales value from pump
// meter readings. Every pump carries three physically independent
// totalizers (electric, manual, cash); closing values are entered on one
// of them and the other two are back-filled so that the liters read from
// any channel agree.
//
// All functions are pure. Expected edge cases (zero unit price, closing
// below opening) are reported as anomalies, never as errors — the session
// layer decides whether to warn or block.
package metermath

import (
	"github.com/shopspring/decimal"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// Anomaly flags a derivation that produced a defensible but suspicious
// result.
type Anomaly string

const (
	// AnomalyNegativeDelta — closing was below opening; liters clamped to 0.
	AnomalyNegativeDelta Anomaly = "negative_delta"
	// AnomalyZeroUnitPrice — cash derivation with unit price 0; liters
	// forced to 0 because the conversion is undefined.
	AnomalyZeroUnitPrice Anomaly = "zero_unit_price"
)

// Result is the outcome of a derivation: the entry with all three closing
// channels populated, plus the agreed quantities.
type Result struct {
	Entry      model.PumpMeterEntry
	Liters     decimal.Decimal
	SalesValue decimal.Decimal
	Anomalies  []Anomaly
}

// HasAnomaly reports whether a was flagged on the result.
func (r Result) HasAnomaly(a Anomaly) bool {
	for _, x := range r.Anomalies {
		if x == a {
			return true
		}
	}
	return false
}

// DeriveFromMeterType records closing on the selected channel and
// back-fills the other two from the derived liters.
//
// Electric/manual selected: liters = max(0, closing − opening); the other
// volumetric channel closes at opening + liters and the cash channel at
// openingCash + liters × unitPrice.
//
// Cash selected: salesValue = max(0, closingCash − openingCash); liters =
// salesValue / unitPrice (0 when the price is 0), both volumetric channels
// close at opening + liters.
func DeriveFromMeterType(e model.PumpMeterEntry, mt model.MeterType, closing decimal.Decimal) Result {
	res := Result{Entry: e}

	switch mt {
	case model.MeterCash:
		sales := closing.Sub(e.Cash.Opening)
		if sales.IsNegative() {
			sales = decimal.Zero
			res.Anomalies = append(res.Anomalies, AnomalyNegativeDelta)
		}
		liters := decimal.Zero
		if e.UnitPrice.IsPositive() {
			liters = sales.Div(e.UnitPrice)
		} else if sales.IsPositive() {
			res.Anomalies = append(res.Anomalies, AnomalyZeroUnitPrice)
		}
		res.Liters = liters
		res.SalesValue = sales

		res.Entry.SetClosing(model.MeterCash, closing)
		res.Entry.SetClosing(model.MeterElectric, e.Electric.Opening.Add(liters))
		res.Entry.SetClosing(model.MeterManual, e.Manual.Opening.Add(liters))

	case model.MeterElectric, model.MeterManual:
		opening := e.Channel(mt).Opening
		liters := closing.Sub(opening)
		if liters.IsNegative() {
			liters = decimal.Zero
			res.Anomalies = append(res.Anomalies, AnomalyNegativeDelta)
		}
		res.Liters = liters
		res.SalesValue = liters.Mul(e.UnitPrice)

		res.Entry.SetClosing(mt, closing)
		other := model.MeterManual
		if mt == model.MeterManual {
			other = model.MeterElectric
		}
		res.Entry.SetClosing(other, e.Channel(other).Opening.Add(liters))
		res.Entry.SetClosing(model.MeterCash, e.Cash.Opening.Add(res.SalesValue))
	}

	return res
}

// Liters reads the dispensed liters for e on channel mt. Returns zero when
// no closing value is recorded on that channel.
func Liters(e model.PumpMeterEntry, mt model.MeterType) decimal.Decimal {
	c := e.Channel(mt)
	if !c.HasClosing() {
		return decimal.Zero
	}
	delta := c.Closing.Sub(c.Opening)
	if delta.IsNegative() {
		return decimal.Zero
	}
	if mt == model.MeterCash {
		if !e.UnitPrice.IsPositive() {
			return decimal.Zero
		}
		return delta.Div(e.UnitPrice)
	}
	return delta
}

// SalesValue reads the sales figure for e on channel mt: liters × unit
// price for the volumetric channels, the meter delta itself for cash.
func SalesValue(e model.PumpMeterEntry, mt model.MeterType) decimal.Decimal {
	if mt == model.MeterCash {
		c := e.Cash
		if !c.HasClosing() {
			return decimal.Zero
		}
		delta := c.Closing.Sub(c.Opening)
		if delta.IsNegative() {
			return decimal.Zero
		}
		return delta
	}
	return Liters(e, mt).Mul(e.UnitPrice)
}
