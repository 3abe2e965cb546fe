// Package report assembles the auditable station-level view a supervisor
// signs off before the irreversible close. Building a report never mutates
// the session.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/reconcile"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/session"
)

// IslandRow is one line of the per-island reconciliation table.
type IslandRow struct {
	IslandID       string          `json:"islandId"`
	Attendants     []string        `json:"attendants"`
	TotalSales     decimal.Decimal `json:"totalSales"`
	Receipts       decimal.Decimal `json:"receipts"`
	Expenses       decimal.Decimal `json:"expenses"`
	CashDrops      decimal.Decimal `json:"cashDrops"`
	TotalDebts     decimal.Decimal `json:"totalDebts"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
	Variance       decimal.Decimal `json:"variance"`
	VariancePct    decimal.Decimal `json:"variancePercentage"`
	Status         string          `json:"status"`
}

// DebtorTransaction is one credit sale in the debtor breakdown.
type DebtorTransaction struct {
	IslandID  string          `json:"islandId"`
	Reference string          `json:"reference,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// DebtorSummary groups every debt entry across all islands by debtor.
type DebtorSummary struct {
	DebtorName   string              `json:"debtorName"`
	Transactions []DebtorTransaction `json:"transactions"`
	Total        decimal.Decimal     `json:"total"`
}

// WalletProjection carries the station wallet forward. ActualCollection is
// bounded by what was physically deposited, not gross sales.
type WalletProjection struct {
	PreviousBalance  decimal.Decimal `json:"previousBalance"`
	Deposited        decimal.Decimal `json:"deposited"`
	ActualCollection decimal.Decimal `json:"actualCollection"`
	NewBalance       decimal.Decimal `json:"newBalance"`
}

// Report is the read-only roll-up of a closing session.
type Report struct {
	StationID   string          `json:"stationId"`
	ShiftID     string          `json:"shiftId"`
	MeterType   model.MeterType `json:"meterType"`
	GeneratedAt time.Time       `json:"generatedAt"`

	Islands []IslandRow `json:"islands"`
	Totals  IslandRow   `json:"totals"`

	// StationCrossCheck compares the independently entered station-wide
	// collection against the sum of the islands.
	StationCrossCheck reconcile.IslandResult `json:"stationCrossCheck"`

	Debtors         []DebtorSummary            `json:"debtors,omitempty"`
	TankVariances   []reconcile.TankVariance   `json:"tankVariances,omitempty"`
	UnassignedPumps []reconcile.UnassignedPump `json:"unassignedPumps,omitempty"`

	Wallet    WalletProjection `json:"wallet"`
	Notes     string           `json:"notes,omitempty"`
	HasIssues bool             `json:"hasIssues"`
}

// Build assembles the report from the session's current state, stamped
// with the current wall clock.
func Build(s *session.Session) *Report {
	return BuildAt(s, time.Now().UTC())
}

// BuildAt is Build with the generation time supplied by the caller.
func BuildAt(s *session.Session, at time.Time) *Report {
	r := &Report{
		StationID:   s.StationID,
		ShiftID:     s.ShiftID,
		MeterType:   s.MeterType,
		GeneratedAt: at,
		Notes:       s.Notes,
	}

	expected, unassigned := s.ExpectedSales()
	r.UnassignedPumps = unassigned

	deposited := decimal.Zero
	for _, ic := range s.Islands {
		res := reconcile.Island(ic, expected[ic.IslandID], s.Tolerances.VariancePct)
		row := IslandRow{
			IslandID:       ic.IslandID,
			Attendants:     ic.AttendantIDs,
			TotalSales:     res.ExpectedSales,
			Receipts:       ic.Receipts,
			Expenses:       ic.Expenses,
			CashDrops:      ic.CashDrops,
			TotalDebts:     ic.TotalDebt(),
			TotalCollected: res.TotalCollected,
			Variance:       res.Variance,
			VariancePct:    res.VariancePct,
			Status:         res.Status,
		}
		r.Islands = append(r.Islands, row)

		r.Totals.TotalSales = r.Totals.TotalSales.Add(row.TotalSales)
		r.Totals.Receipts = r.Totals.Receipts.Add(row.Receipts)
		r.Totals.Expenses = r.Totals.Expenses.Add(row.Expenses)
		r.Totals.CashDrops = r.Totals.CashDrops.Add(row.CashDrops)
		r.Totals.TotalDebts = r.Totals.TotalDebts.Add(row.TotalDebts)
		r.Totals.TotalCollected = r.Totals.TotalCollected.Add(row.TotalCollected)
		r.Totals.Variance = r.Totals.Variance.Add(row.Variance)

		deposited = deposited.Add(ic.Deposited())
	}
	r.Totals.IslandID = "TOTAL"
	if r.Totals.TotalSales.IsPositive() {
		r.Totals.VariancePct = r.Totals.Variance.Div(r.Totals.TotalSales).Mul(decimal.NewFromInt(100))
	}

	r.StationCrossCheck = reconcile.Station(s.Station, s.Islands, s.Tolerances.VariancePct)
	r.Debtors = debtorBreakdown(s.Islands)
	r.TankVariances = reconcile.TankAggregate(s.Tanks, s.DispensedByTank(), reconcile.TankThresholds{
		AbsLiters: s.Tolerances.TankAbsLiters,
		Pct:       s.Tolerances.TankPct,
	})

	actual := r.Totals.TotalCollected
	if deposited.LessThan(actual) {
		actual = deposited
	}
	r.Wallet = WalletProjection{
		PreviousBalance:  s.PreviousWalletBalance,
		Deposited:        deposited,
		ActualCollection: actual,
		NewBalance:       s.PreviousWalletBalance.Add(actual),
	}

	r.HasIssues = s.HasIssues()
	return r
}

func debtorBreakdown(islands []model.IslandCollection) []DebtorSummary {
	byName := make(map[string]*DebtorSummary)
	for _, ic := range islands {
		for _, d := range ic.Debts {
			sum, ok := byName[d.DebtorName]
			if !ok {
				sum = &DebtorSummary{DebtorName: d.DebtorName}
				byName[d.DebtorName] = sum
			}
			sum.Transactions = append(sum.Transactions, DebtorTransaction{
				IslandID:  ic.IslandID,
				Reference: d.Reference,
				Amount:    d.Amount,
			})
			sum.Total = sum.Total.Add(d.Amount)
		}
	}

	out := make([]DebtorSummary, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DebtorName < out[j].DebtorName })
	return out
}
