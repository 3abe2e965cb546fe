package model

import (
	"time"

	"github.com/google/uuid"
)

// Step names one state of the closing workflow. Kept as strings so draft
// snapshots stay readable and survive reordering of the step sequence.
type Step string

const (
	StepValidation   Step = "validation"
	StepPumpReadings Step = "pump_readings"
	StepTankDips     Step = "tank_dips"
	StepCollections  Step = "collections"
	StepNonFuel      Step = "non_fuel"
	StepReview       Step = "review"
)

// StepOrder is the forward sequence of the closing workflow.
var StepOrder = []Step{
	StepValidation,
	StepPumpReadings,
	StepTankDips,
	StepCollections,
	StepNonFuel,
	StepReview,
}

// DraftSnapshot is a point-in-time serialization of an in-progress closing
// session. A snapshot is only valid for resume when its ShiftID matches the
// shift being opened and its age is within the store's TTL.
type DraftSnapshot struct {
	SnapshotID uuid.UUID `json:"snapshotId"`
	Version    int       `json:"version"`

	StationID string    `json:"stationId"`
	ShiftID   string    `json:"shiftId"`
	MeterType MeterType `json:"meterType"`
	Step      Step      `json:"step"`

	Pumps   []PumpMeterEntry   `json:"pumps"`
	Tanks   []TankDipEntry     `json:"tanks"`
	Islands []IslandCollection `json:"islands"`
	Station StationCollection  `json:"station"`
	NonFuel []NonFuelEntry     `json:"nonFuel,omitempty"`

	Notes          string    `json:"notes,omitempty"`
	NonFuelSkipped bool      `json:"nonFuelSkipped,omitempty"`
	HasIssues      bool      `json:"hasIssues"`
	SavedAt        time.Time `json:"timestamp"`
}
