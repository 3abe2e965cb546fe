package model

import (
	"github.com/shopspring/decimal"
)

// MeterType identifies which of the three pump totalizers the cashier
// chose to read closing values from. The other two are back-filled so the
// channels stay consistent.
type MeterType string

const (
	MeterElectric MeterType = "electric"
	MeterManual   MeterType = "manual"
	MeterCash     MeterType = "cash"
)

// Valid reports whether mt is one of the three known channels.
func (mt MeterType) Valid() bool {
	switch mt {
	case MeterElectric, MeterManual, MeterCash:
		return true
	}
	return false
}

// MeterChannel is one opening/closing pair on a pump totalizer.
// Opening is supplied at shift open and never changes; Closing is nil
// until the user enters a value (or back-fill populates it).
type MeterChannel struct {
	Opening decimal.Decimal  `json:"opening"`
	Closing *decimal.Decimal `json:"closing,omitempty"`
}

// HasClosing reports whether a closing value has been recorded.
func (c MeterChannel) HasClosing() bool { return c.Closing != nil }

// PumpMeterEntry holds the three meter channels for one pump during a shift.
// Created when the session loads open-shift data, mutated only through the
// session's commit points, frozen on submit.
type PumpMeterEntry struct {
	PumpID    string          `json:"pumpId"`
	ProductID string          `json:"productId"`
	UnitPrice decimal.Decimal `json:"unitPrice"`

	Electric MeterChannel `json:"electric"`
	Manual   MeterChannel `json:"manual"`
	Cash     MeterChannel `json:"cash"`
}

// Channel returns the channel for mt. The zero value is returned for an
// unknown meter type; callers validate mt first.
func (e PumpMeterEntry) Channel(mt MeterType) MeterChannel {
	switch mt {
	case MeterElectric:
		return e.Electric
	case MeterManual:
		return e.Manual
	case MeterCash:
		return e.Cash
	}
	return MeterChannel{}
}

func (e *PumpMeterEntry) setChannel(mt MeterType, c MeterChannel) {
	switch mt {
	case MeterElectric:
		e.Electric = c
	case MeterManual:
		e.Manual = c
	case MeterCash:
		e.Cash = c
	}
}

// SetClosing records a closing value on the given channel.
func (e *PumpMeterEntry) SetClosing(mt MeterType, v decimal.Decimal) {
	c := e.Channel(mt)
	c.Closing = &v
	e.setChannel(mt, c)
}
