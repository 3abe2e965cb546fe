package session

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/draft"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/dto"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// ShiftDataSource supplies the opening readings of the currently open
// shift. Called exactly once per session start.
type ShiftDataSource interface {
	GetOpenShift(ctx context.Context, stationID string) (*dto.OpenShiftResponse, error)
}

// TopologySource supplies the island→pump mapping. Read-only, queried once
// per session.
type TopologySource interface {
	GetIslandPumpMapping(ctx context.Context, stationID string) (map[string][]string, error)
}

// ShiftSubmitter performs the single mutating external call.
type ShiftSubmitter interface {
	CloseShift(ctx context.Context, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error)
}

// Service drives session lifecycle: start (load + resume), draft
// persistence, and submit.
type Service interface {
	Start(ctx context.Context, stationID string) (*Session, error)
	SaveDraft(ctx context.Context, s *Session) error
	DiscardDraft(ctx context.Context, s *Session) error
	Submit(ctx context.Context, s *Session) (*dto.CloseShiftResponse, error)
}

type service struct {
	source    ShiftDataSource
	topo      TopologySource
	submitter ShiftSubmitter
	drafts    draft.Store
	tol       Tolerances
	validate  *validator.Validate
}

func NewService(source ShiftDataSource, topo TopologySource, submitter ShiftSubmitter, drafts draft.Store, tol Tolerances) Service {
	return &service{
		source:    source,
		topo:      topo,
		submitter: submitter,
		drafts:    drafts,
		tol:       tol,
		validate:  validator.New(),
	}
}

// Start loads the open shift and topology, sweeps stale drafts for the
// station, and either resumes from a valid draft or builds a fresh session.
func (svc *service) Start(ctx context.Context, stationID string) (*Session, error) {
	open, err := svc.source.GetOpenShift(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("load open shift: %w", err)
	}
	if err := svc.validate.Struct(open); err != nil {
		return nil, fmt.Errorf("open shift payload invalid: %w", err)
	}

	topology, err := svc.topo.GetIslandPumpMapping(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("load topology: %w", err)
	}

	s := newFromOpenShift(open, topology, svc.tol)

	// Clear out abandoned drafts of other shifts before looking for ours.
	if err := svc.drafts.Sweep(ctx, stationID, open.ShiftID); err != nil {
		log.Warn().Err(err).Str("station", stationID).Msg("session: draft sweep failed")
	}

	snap, err := svc.drafts.Load(ctx, draft.Key(stationID, open.ShiftID), open.ShiftID)
	if err != nil {
		// Draft persistence trouble degrades resume, never start.
		log.Warn().Err(err).Str("station", stationID).Msg("session: draft load failed, starting fresh")
	} else if snap != nil {
		s.restore(snap)
		log.Info().
			Str("station", stationID).
			Str("shift", open.ShiftID).
			Str("step", string(snap.Step)).
			Msg("session: resumed from draft")
	}
	return s, nil
}

func newFromOpenShift(open *dto.OpenShiftResponse, topology map[string][]string, tol Tolerances) *Session {
	s := &Session{
		StationID:             open.StationID,
		ShiftID:               open.ShiftID,
		Topology:              topology,
		PreviousWalletBalance: open.WalletBalance,
		Tolerances:            tol,
	}

	for _, r := range open.PumpReadings {
		s.Pumps = append(s.Pumps, model.PumpMeterEntry{
			PumpID:    r.PumpID,
			ProductID: r.ProductID,
			UnitPrice: r.UnitPrice,
			Electric:  model.MeterChannel{Opening: r.ElectricMeter},
			Manual:    model.MeterChannel{Opening: r.ManualMeter},
			Cash:      model.MeterChannel{Opening: r.CashMeter},
		})
	}
	for _, r := range open.TankReadings {
		s.Tanks = append(s.Tanks, model.TankDipEntry{
			TankID:        r.TankID,
			ProductID:     r.ProductID,
			Capacity:      r.Capacity,
			OpeningVolume: r.Volume,
			OpeningDip:    r.DipValue,
		})
	}

	// One collection entry per island: attendants from the assignments,
	// islands without an assignment still appear via the topology.
	attendants := make(map[string][]string)
	for _, a := range open.Assignments {
		attendants[a.IslandID] = a.AttendantIDs
	}
	seen := make(map[string]bool)
	for _, a := range open.Assignments {
		if seen[a.IslandID] {
			continue
		}
		seen[a.IslandID] = true
		s.Islands = append(s.Islands, model.IslandCollection{IslandID: a.IslandID, AttendantIDs: attendants[a.IslandID]})
	}
	for islandID := range topology {
		if !seen[islandID] {
			seen[islandID] = true
			s.Islands = append(s.Islands, model.IslandCollection{IslandID: islandID})
		}
	}
	return s
}

// SaveDraft snapshots the session. Callers use it opportunistically on
// material changes; the autosave worker calls it on a fixed interval.
func (svc *service) SaveDraft(ctx context.Context, s *Session) error {
	return svc.drafts.Save(ctx, draft.Key(s.StationID, s.ShiftID), s.Snapshot())
}

// DiscardDraft removes the persisted draft after an explicit user discard.
func (svc *service) DiscardDraft(ctx context.Context, s *Session) error {
	return svc.drafts.Invalidate(ctx, draft.Key(s.StationID, s.ShiftID))
}

// Submit re-validates every required step, sends the close payload, and
// purges the draft on success. On any failure the session stays editable.
func (svc *service) Submit(ctx context.Context, s *Session) (*dto.CloseShiftResponse, error) {
	if verr := s.ValidateAll(); verr != nil {
		return nil, verr
	}

	resp, err := svc.submitter.CloseShift(ctx, buildClosePayload(s))
	if err != nil {
		log.Warn().Err(err).
			Str("station", s.StationID).
			Str("shift", s.ShiftID).
			Msg("session: shift close rejected")
		return nil, err
	}

	if err := svc.drafts.Invalidate(ctx, draft.Key(s.StationID, s.ShiftID)); err != nil {
		// The shift is closed upstream; a lingering draft will be swept
		// at the next session start anyway.
		log.Warn().Err(err).Str("shift", s.ShiftID).Msg("session: draft purge after submit failed")
	}

	log.Info().
		Str("station", s.StationID).
		Str("shift", s.ShiftID).
		Time("closed_at", resp.ClosedAt).
		Msg("session: shift closed")
	return resp, nil
}

func buildClosePayload(s *Session) dto.CloseShiftRequest {
	req := dto.CloseShiftRequest{
		ShiftID:             s.ShiftID,
		StationID:           s.StationID,
		ReconciliationNotes: s.Notes,
	}

	for _, p := range s.Pumps {
		req.PumpReadings = append(req.PumpReadings, dto.ClosePumpReading{
			PumpID:        p.PumpID,
			ElectricMeter: closingOr(p.Electric),
			ManualMeter:   closingOr(p.Manual),
			CashMeter:     closingOr(p.Cash),
			MeterUsed:     string(s.MeterType),
		})
	}
	for _, t := range s.Tanks {
		r := dto.CloseTankReading{TankID: t.TankID}
		if t.ClosingDip != nil {
			r.DipValue = *t.ClosingDip
		}
		if t.ClosingVolume != nil {
			r.Volume = *t.ClosingVolume
		}
		req.TankReadings = append(req.TankReadings, r)
	}
	for _, ic := range s.Islands {
		req.IslandCollections = append(req.IslandCollections, dto.CloseIslandCollection{
			IslandID:          ic.IslandID,
			CashAmount:        ic.Cash,
			MobileMoneyAmount: ic.MobileMoney,
			CardAmount:        ic.Card,
			DebtAmount:        ic.TotalDebt(),
			OtherAmount:       ic.Other,
		})
	}
	req.StationCollection = dto.CloseStationCollection{
		CashAmount:        s.Station.Cash,
		MobileMoneyAmount: s.Station.MobileMoney,
		CardAmount:        s.Station.Card,
		DebtAmount:        s.Station.Debt,
		OtherAmount:       s.Station.Other,
	}
	for _, e := range s.NonFuel {
		req.NonFuelSales = append(req.NonFuelSales, dto.CloseNonFuelSale{
			Description: e.Description,
			Amount:      e.Amount,
		})
	}
	return req
}

func closingOr(c model.MeterChannel) decimal.Decimal {
	if c.Closing != nil {
		return *c.Closing
	}
	return c.Opening
}
