// Package session owns the shift-closing workflow: an explicit finite
// state machine over the end-of-shift working data. Forward transitions
// are gated by per-step completeness checks; backward transitions are
// always allowed and never discard entered data. All mutation goes through
// the commit-point methods, which is where meter derivation runs.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/apierror"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/metermath"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/reconcile"
)

// Tolerances are the reconciliation thresholds in effect for a session.
// They come from configuration, not literals (see config.Config).
type Tolerances struct {
	VariancePct   decimal.Decimal
	TankAbsLiters decimal.Decimal
	TankPct       decimal.Decimal
}

// Session is the working state of one shift close. A session belongs to
// exactly one (station, shift) pair for its whole life.
//
// Concurrency contract: all computation and reads run on the single
// driving goroutine; the only concurrent caller is the autosave worker,
// which calls Snapshot. Mutators and Snapshot share a mutex so a snapshot
// never observes a half-applied commit.
type Session struct {
	mu sync.Mutex

	StationID string
	ShiftID   string

	MeterType model.MeterType

	Pumps   []model.PumpMeterEntry
	Tanks   []model.TankDipEntry
	Islands []model.IslandCollection
	Station model.StationCollection
	NonFuel []model.NonFuelEntry

	// Topology maps islandID → pumpIDs. Fetched once at Start and kept
	// for the session's lifetime; mid-shift reassignments apply to the
	// next session.
	Topology map[string][]string

	// PreviousWalletBalance seeds the wallet projection in the report.
	PreviousWalletBalance decimal.Decimal

	Notes          string
	Tolerances     Tolerances
	nonFuelSkipped bool

	// pumpAnomalies records derivation warnings per pump. Warnings never
	// block; they feed the has-issues roll-up and the report.
	pumpAnomalies map[string][]metermath.Anomaly

	stepIdx int
}

// CurrentStep returns the step the workflow is on.
func (s *Session) CurrentStep() model.Step {
	return model.StepOrder[s.stepIdx]
}

// PumpAnomalies returns the derivation warnings recorded for a pump.
func (s *Session) PumpAnomalies(pumpID string) []metermath.Anomaly {
	return s.pumpAnomalies[pumpID]
}

// ── Commit points ─────────────────────────────────────────────────────────────

// SelectMeterType chooses which totalizer closing values are entered
// against, and re-derives every pump that already has a closing value so
// the quantities stay identical across the switch.
func (s *Session) SelectMeterType(mt model.MeterType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !mt.Valid() {
		return fmt.Errorf("unknown meter type %q", mt)
	}
	s.MeterType = mt
	for i, p := range s.Pumps {
		c := p.Channel(mt)
		if !c.HasClosing() {
			continue
		}
		s.applyDerivation(i, metermath.DeriveFromMeterType(p, mt, *c.Closing))
	}
	return nil
}

// SetPumpClosing records a closing reading on the selected meter channel
// and back-fills the other two.
func (s *Session) SetPumpClosing(pumpID string, closing decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.MeterType.Valid() {
		return fmt.Errorf("no meter type selected")
	}
	for i, p := range s.Pumps {
		if p.PumpID != pumpID {
			continue
		}
		s.applyDerivation(i, metermath.DeriveFromMeterType(p, s.MeterType, closing))
		return nil
	}
	return fmt.Errorf("unknown pump %q", pumpID)
}

func (s *Session) applyDerivation(i int, res metermath.Result) {
	s.Pumps[i] = res.Entry
	if s.pumpAnomalies == nil {
		s.pumpAnomalies = make(map[string][]metermath.Anomaly)
	}
	if len(res.Anomalies) == 0 {
		delete(s.pumpAnomalies, res.Entry.PumpID)
	} else {
		s.pumpAnomalies[res.Entry.PumpID] = res.Anomalies
	}
}

// SetTankClosing records a tank's closing volume and dip. A volume above
// the tank's capacity is rejected; negative usage is left to the
// reconciler to flag.
func (s *Session) SetTankClosing(tankID string, volume, dip decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.Tanks {
		if t.TankID != tankID {
			continue
		}
		if volume.GreaterThan(t.Capacity) {
			return fmt.Errorf("tank %s: closing volume %s exceeds capacity %s", tankID, volume, t.Capacity)
		}
		s.Tanks[i].ClosingVolume = &volume
		s.Tanks[i].ClosingDip = &dip
		return nil
	}
	return fmt.Errorf("unknown tank %q", tankID)
}

// SetIslandCollection commits the collection figures for one island.
func (s *Session) SetIslandCollection(ic model.IslandCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.Islands {
		if existing.IslandID != ic.IslandID {
			continue
		}
		ic.AttendantIDs = existing.AttendantIDs
		ic.Entered = true
		s.Islands[i] = ic
		return nil
	}
	return fmt.Errorf("unknown island %q", ic.IslandID)
}

// SetStationCollection commits the independent station-wide figures.
func (s *Session) SetStationCollection(sc model.StationCollection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc.Entered = true
	s.Station = sc
}

// AddNonFuelEntry appends a miscellaneous sale to the optional step.
func (s *Session) AddNonFuelEntry(e model.NonFuelEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NonFuel = append(s.NonFuel, e)
}

// SetNotes replaces the free-text reconciliation notes.
func (s *Session) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notes = notes
}

// SkipNonFuel marks the optional non-fuel step as intentionally skipped.
func (s *Session) SkipNonFuel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonFuelSkipped = true
}

// ── Transitions ───────────────────────────────────────────────────────────────

// Next advances to the following step if the current one is complete.
// On failure it returns the structured field list and does not advance.
func (s *Session) Next() *apierror.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if verr := s.validateStep(s.CurrentStep()); verr != nil {
		return verr
	}
	if s.stepIdx < len(model.StepOrder)-1 {
		s.stepIdx++
		// An explicitly skipped non-fuel step is passed through.
		if s.CurrentStep() == model.StepNonFuel && s.nonFuelSkipped {
			s.stepIdx++
		}
	}
	return nil
}

// Back moves one step backward. Always allowed; entered data is kept.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stepIdx > 0 {
		s.stepIdx--
	}
}

// validateStep runs the completeness predicate of one step.
func (s *Session) validateStep(step model.Step) *apierror.ValidationError {
	verr := apierror.NewValidation(string(step))

	switch step {
	case model.StepValidation:
		if !s.MeterType.Valid() {
			verr.Add("meterType", "a meter type must be selected")
		}
		if len(s.Pumps) == 0 {
			verr.Add("pumps", "no opening pump readings loaded")
		}

	case model.StepPumpReadings:
		for _, p := range s.Pumps {
			if !p.Channel(s.MeterType).HasClosing() {
				verr.Add("pump."+p.PumpID, fmt.Sprintf("missing %s closing reading", s.MeterType))
			}
		}

	case model.StepTankDips:
		for _, t := range s.Tanks {
			if !t.HasClosing() {
				verr.Add("tank."+t.TankID, "missing closing volume or dip")
			}
		}

	case model.StepCollections:
		for _, ic := range s.Islands {
			if !ic.Entered {
				verr.Add("island."+ic.IslandID, "collection not entered")
			}
		}
		if !s.Station.Entered {
			verr.Add("station", "station collection not entered")
		}

	case model.StepNonFuel:
		// Optional and skippable; an empty list is complete.

	case model.StepReview:
		// Review gathers everything; completeness was enforced on the way in.
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// ValidateAll re-runs every required step's predicate, as submit must.
func (s *Session) ValidateAll() *apierror.ValidationError {
	for _, step := range model.StepOrder {
		if verr := s.validateStep(step); verr != nil {
			return verr
		}
	}
	return nil
}

// ── Derived views ─────────────────────────────────────────────────────────────

// DispensedLiters returns each pump's derived liters under the selected
// meter type.
func (s *Session) DispensedLiters() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Pumps))
	for _, p := range s.Pumps {
		out[p.PumpID] = metermath.Liters(p, s.MeterType)
	}
	return out
}

// ExpectedSales attributes pump sales to islands under the session's
// topology snapshot.
func (s *Session) ExpectedSales() (map[string]decimal.Decimal, []reconcile.UnassignedPump) {
	return reconcile.ExpectedSalesByIsland(s.Pumps, s.Topology, s.MeterType)
}

// HasIssues reports whether anything in the session needs supervisor
// attention: derivation anomalies, tank variances beyond threshold, or
// island collections out of tolerance. Informational; it never blocks.
func (s *Session) HasIssues() bool {
	if len(s.pumpAnomalies) > 0 {
		return true
	}
	for _, t := range s.Tanks {
		if reconcile.Tank(t).Status == reconcile.TankCheckRequired {
			return true
		}
	}
	for _, v := range reconcile.TankAggregate(s.Tanks, s.DispensedByTank(), reconcile.TankThresholds{
		AbsLiters: s.Tolerances.TankAbsLiters,
		Pct:       s.Tolerances.TankPct,
	}) {
		if v.Exceeded {
			return true
		}
	}
	expected, _ := s.ExpectedSales()
	for _, ic := range s.Islands {
		if reconcile.Island(ic, expected[ic.IslandID], s.Tolerances.VariancePct).Status == reconcile.CollectionReview {
			return true
		}
	}
	return false
}

// DispensedByTank attributes pump dispense to tanks by product: a product
// served by a single tank gets the full figure; when several tanks share a
// product the figure is split in proportion to each tank's dip usage
// (equal split when no usage was measured yet).
func (s *Session) DispensedByTank() map[string]decimal.Decimal {
	litersByProduct := make(map[string]decimal.Decimal)
	for _, p := range s.Pumps {
		litersByProduct[p.ProductID] = litersByProduct[p.ProductID].Add(metermath.Liters(p, s.MeterType))
	}

	tanksByProduct := make(map[string][]model.TankDipEntry)
	for _, t := range s.Tanks {
		tanksByProduct[t.ProductID] = append(tanksByProduct[t.ProductID], t)
	}

	out := make(map[string]decimal.Decimal, len(s.Tanks))
	for product, tanks := range tanksByProduct {
		dispensed := litersByProduct[product]
		if len(tanks) == 1 {
			out[tanks[0].TankID] = dispensed
			continue
		}

		totalUsage := decimal.Zero
		for _, t := range tanks {
			if u := reconcile.Tank(t).Usage; u.IsPositive() {
				totalUsage = totalUsage.Add(u)
			}
		}
		for _, t := range tanks {
			if totalUsage.IsPositive() {
				u := reconcile.Tank(t).Usage
				if u.IsNegative() {
					u = decimal.Zero
				}
				out[t.TankID] = dispensed.Mul(u).Div(totalUsage)
			} else {
				out[t.TankID] = dispensed.Div(decimal.NewFromInt(int64(len(tanks))))
			}
		}
	}
	return out
}

// ── Snapshots ─────────────────────────────────────────────────────────────────

// Snapshot serializes the session's working state for the draft store.
// The slices are copied, not aliased: stores marshal the snapshot after
// this lock is released, and mutators overwrite slice elements in place.
func (s *Session) Snapshot() model.DraftSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.DraftSnapshot{
		SnapshotID:     uuid.New(),
		StationID:      s.StationID,
		ShiftID:        s.ShiftID,
		MeterType:      s.MeterType,
		Step:           s.CurrentStep(),
		Pumps:          clonePumps(s.Pumps),
		Tanks:          cloneTanks(s.Tanks),
		Islands:        cloneIslands(s.Islands),
		Station:        s.Station,
		NonFuel:        cloneNonFuel(s.NonFuel),
		Notes:          s.Notes,
		NonFuelSkipped: s.nonFuelSkipped,
		HasIssues:      s.HasIssues(),
	}
}

func clonePumps(in []model.PumpMeterEntry) []model.PumpMeterEntry {
	if in == nil {
		return nil
	}
	out := make([]model.PumpMeterEntry, len(in))
	copy(out, in)
	return out
}

func cloneTanks(in []model.TankDipEntry) []model.TankDipEntry {
	if in == nil {
		return nil
	}
	out := make([]model.TankDipEntry, len(in))
	copy(out, in)
	return out
}

func cloneIslands(in []model.IslandCollection) []model.IslandCollection {
	if in == nil {
		return nil
	}
	out := make([]model.IslandCollection, len(in))
	for i, ic := range in {
		ic.AttendantIDs = append([]string(nil), ic.AttendantIDs...)
		ic.Debts = append([]model.DebtRecord(nil), ic.Debts...)
		out[i] = ic
	}
	return out
}

func cloneNonFuel(in []model.NonFuelEntry) []model.NonFuelEntry {
	if in == nil {
		return nil
	}
	out := make([]model.NonFuelEntry, len(in))
	copy(out, in)
	return out
}

// restore rehydrates working state from a validated snapshot. Topology and
// tolerances are not part of the snapshot; the caller supplies fresh ones.
func (s *Session) restore(snap *model.DraftSnapshot) {
	s.MeterType = snap.MeterType
	s.Pumps = snap.Pumps
	s.Tanks = snap.Tanks
	s.Islands = snap.Islands
	s.Station = snap.Station
	s.NonFuel = snap.NonFuel
	s.Notes = snap.Notes
	s.nonFuelSkipped = snap.NonFuelSkipped

	s.stepIdx = 0
	for i, step := range model.StepOrder {
		if step == snap.Step {
			s.stepIdx = i
			break
		}
	}

	// Re-derive so anomaly flags survive the round trip.
	if s.MeterType.Valid() {
		_ = s.SelectMeterType(s.MeterType)
	}
}
