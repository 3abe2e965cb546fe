package dto

import "github.com/shopspring/decimal"

// OpenShiftResponse is returned by the shift data source at session start.
// It supplies every opening value the closing workflow needs; validate tags
// are enforced at construction so a malformed upstream payload is rejected
// before it can seed a session.
type OpenShiftResponse struct {
	ShiftID       string             `json:"shiftId" validate:"required"`
	StationID     string             `json:"stationId" validate:"required"`
	PumpReadings  []OpenPumpReading  `json:"pumpReadings" validate:"required,min=1,dive"`
	TankReadings  []OpenTankReading  `json:"tankReadings" validate:"dive"`
	Assignments   []IslandAssignment `json:"islandAttendantAssignments" validate:"dive"`
	WalletBalance decimal.Decimal    `json:"walletBalance"`
}

// OpenPumpReading carries one pump's opening meters and pricing.
type OpenPumpReading struct {
	PumpID        string          `json:"pumpId" validate:"required"`
	ProductID     string          `json:"productId" validate:"required"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	ElectricMeter decimal.Decimal `json:"electricMeter"`
	ManualMeter   decimal.Decimal `json:"manualMeter"`
	CashMeter     decimal.Decimal `json:"cashMeter"`
}

// OpenTankReading carries one tank's opening volume and dip.
type OpenTankReading struct {
	TankID    string          `json:"tankId" validate:"required"`
	ProductID string          `json:"productId" validate:"required"`
	Capacity  decimal.Decimal `json:"capacity"`
	Volume    decimal.Decimal `json:"volume"`
	DipValue  decimal.Decimal `json:"dipValue"`
}

// IslandAssignment maps attendants to the island they worked.
type IslandAssignment struct {
	IslandID     string   `json:"islandId" validate:"required"`
	AttendantIDs []string `json:"attendantIds"`
}
