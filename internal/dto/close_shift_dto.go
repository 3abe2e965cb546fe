package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CloseShiftRequest is the payload of the one mutating external call.
// Nothing is written server-side until this succeeds.
type CloseShiftRequest struct {
	ShiftID             string                  `json:"shiftId"`
	StationID           string                  `json:"stationId"`
	PumpReadings        []ClosePumpReading      `json:"pumpReadings"`
	TankReadings        []CloseTankReading      `json:"tankReadings"`
	IslandCollections   []CloseIslandCollection `json:"islandCollections"`
	StationCollection   CloseStationCollection  `json:"stationCollection"`
	NonFuelSales        []CloseNonFuelSale      `json:"nonFuelSales,omitempty"`
	ReconciliationNotes string                  `json:"reconciliationNotes"`
}

type ClosePumpReading struct {
	PumpID        string          `json:"pumpId"`
	ElectricMeter decimal.Decimal `json:"electricMeter"`
	ManualMeter   decimal.Decimal `json:"manualMeter"`
	CashMeter     decimal.Decimal `json:"cashMeter"`
	MeterUsed     string          `json:"meterUsed"`
}

type CloseTankReading struct {
	TankID   string          `json:"tankId"`
	DipValue decimal.Decimal `json:"dipValue"`
	Volume   decimal.Decimal `json:"volume"`
}

type CloseIslandCollection struct {
	IslandID          string          `json:"islandId"`
	CashAmount        decimal.Decimal `json:"cashAmount"`
	MobileMoneyAmount decimal.Decimal `json:"mobileMoneyAmount"`
	CardAmount        decimal.Decimal `json:"cardAmount"`
	DebtAmount        decimal.Decimal `json:"debtAmount"`
	OtherAmount       decimal.Decimal `json:"otherAmount"`
}

type CloseStationCollection struct {
	CashAmount        decimal.Decimal `json:"cashAmount"`
	MobileMoneyAmount decimal.Decimal `json:"mobileMoneyAmount"`
	CardAmount        decimal.Decimal `json:"cardAmount"`
	DebtAmount        decimal.Decimal `json:"debtAmount"`
	OtherAmount       decimal.Decimal `json:"otherAmount"`
}

type CloseNonFuelSale struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// CloseShiftResponse acknowledges a successful close.
type CloseShiftResponse struct {
	ShiftID  string    `json:"shiftId"`
	ClosedAt time.Time `json:"closedAt"`
}
