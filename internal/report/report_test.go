package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/reconcile"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/session"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// reportSession builds a two-island session at the review step: pump P1
// sold 30000 on island I1, pump P2 sold 15000 on island I2, one shared
// tank, collections entered to balance exactly.
func reportSession(t *testing.T) *session.Session {
	t.Helper()
	s := &session.Session{
		StationID: "ST1",
		ShiftID:   "S1",
		Pumps: []model.PumpMeterEntry{
			{
				PumpID: "P1", ProductID: "diesel", UnitPrice: dec("150"),
				Electric: model.MeterChannel{Opening: dec("1000")},
				Manual:   model.MeterChannel{Opening: dec("500")},
				Cash:     model.MeterChannel{Opening: dec("75000")},
			},
			{
				PumpID: "P2", ProductID: "diesel", UnitPrice: dec("150"),
				Electric: model.MeterChannel{Opening: dec("2000")},
				Manual:   model.MeterChannel{Opening: dec("800")},
				Cash:     model.MeterChannel{Opening: dec("90000")},
			},
		},
		Tanks: []model.TankDipEntry{
			{TankID: "T1", ProductID: "diesel", Capacity: dec("10000"), OpeningVolume: dec("5000"), OpeningDip: dec("1.50")},
		},
		Islands: []model.IslandCollection{
			{IslandID: "I1", AttendantIDs: []string{"A1"}},
			{IslandID: "I2", AttendantIDs: []string{"A2"}},
		},
		Topology:              map[string][]string{"I1": {"P1"}, "I2": {"P2"}},
		PreviousWalletBalance: dec("12000"),
		Tolerances: session.Tolerances{
			VariancePct:   dec("5"),
			TankAbsLiters: dec("100"),
			TankPct:       dec("2"),
		},
	}

	require.NoError(t, s.SelectMeterType(model.MeterElectric))
	require.NoError(t, s.SetPumpClosing("P1", dec("1200"))) // 200 L, 30000
	require.NoError(t, s.SetPumpClosing("P2", dec("2100"))) // 100 L, 15000
	require.NoError(t, s.SetTankClosing("T1", dec("4700"), dec("1.30")))
	require.NoError(t, s.SetIslandCollection(model.IslandCollection{
		IslandID:  "I1",
		Cash:      dec("29000"),
		CashDrops: dec("28000"),
		Debts:     []model.DebtRecord{{DebtorName: "Alpha Transport", Reference: "INV-101", Amount: dec("1000")}},
	}))
	require.NoError(t, s.SetIslandCollection(model.IslandCollection{
		IslandID:    "I2",
		Cash:        dec("14000"),
		MobileMoney: dec("500"),
		CashDrops:   dec("13000"),
		Debts: []model.DebtRecord{
			{DebtorName: "Alpha Transport", Reference: "INV-102", Amount: dec("300")},
			{DebtorName: "Beta Haulage", Amount: dec("200")},
		},
	}))
	s.SetStationCollection(model.StationCollection{
		Cash:        dec("43000"),
		MobileMoney: dec("500"),
		Debt:        dec("1500"),
	})
	return s
}

func TestBuildRowsAndTotals(t *testing.T) {
	s := reportSession(t)
	r := Build(s)

	require.Len(t, r.Islands, 2)
	i1 := r.Islands[0]
	assert.Equal(t, "I1", i1.IslandID)
	assert.True(t, i1.TotalSales.Equal(dec("30000")))
	assert.True(t, i1.TotalCollected.Equal(dec("30000")))
	assert.True(t, i1.Variance.IsZero())
	assert.Equal(t, reconcile.CollectionOK, i1.Status)

	assert.Equal(t, "TOTAL", r.Totals.IslandID)
	assert.True(t, r.Totals.TotalSales.Equal(dec("45000")))
	assert.True(t, r.Totals.TotalCollected.Equal(dec("45000")))
	assert.True(t, r.Totals.Variance.IsZero())
	assert.Empty(t, r.UnassignedPumps)
	assert.False(t, r.HasIssues)
}

func TestBuildStationCrossCheck(t *testing.T) {
	s := reportSession(t)
	r := Build(s)

	// Station entry (45000) matches the island sum exactly.
	assert.True(t, r.StationCrossCheck.Variance.IsZero())
	assert.Equal(t, reconcile.CollectionOK, r.StationCrossCheck.Status)

	// An understated station entry beyond tolerance flips to review.
	s.SetStationCollection(model.StationCollection{Cash: dec("40000")})
	r = Build(s)
	assert.True(t, r.StationCrossCheck.Variance.Equal(dec("-5000")))
	assert.Equal(t, reconcile.CollectionReview, r.StationCrossCheck.Status)
}

func TestBuildDebtorBreakdown(t *testing.T) {
	r := Build(reportSession(t))

	require.Len(t, r.Debtors, 2)
	alpha := r.Debtors[0]
	assert.Equal(t, "Alpha Transport", alpha.DebtorName)
	require.Len(t, alpha.Transactions, 2)
	assert.True(t, alpha.Total.Equal(dec("1300")))
	assert.Equal(t, "I1", alpha.Transactions[0].IslandID)

	beta := r.Debtors[1]
	assert.Equal(t, "Beta Haulage", beta.DebtorName)
	assert.True(t, beta.Total.Equal(dec("200")))
}

func TestBuildWalletProjection(t *testing.T) {
	r := Build(reportSession(t))

	// Deposited: I1 drops 28000 + I2 drops 13000 + I2 mobile 500.
	assert.True(t, r.Wallet.Deposited.Equal(dec("41500")))
	// Actual collection is capped at what was deposited.
	assert.True(t, r.Wallet.ActualCollection.Equal(dec("41500")))
	assert.True(t, r.Wallet.PreviousBalance.Equal(dec("12000")))
	assert.True(t, r.Wallet.NewBalance.Equal(dec("53500")))
}

func TestBuildShortfallFlagsIssues(t *testing.T) {
	s := reportSession(t)
	// Attendants on I2 turn in 10% short.
	require.NoError(t, s.SetIslandCollection(model.IslandCollection{
		IslandID:  "I2",
		Cash:      dec("13500"),
		CashDrops: dec("13000"),
	}))
	r := Build(s)

	i2 := r.Islands[1]
	assert.True(t, i2.Variance.Equal(dec("-1500")))
	assert.Equal(t, reconcile.CollectionReview, i2.Status)
	assert.True(t, r.HasIssues)
}

func TestBuildUnassignedPump(t *testing.T) {
	s := reportSession(t)
	delete(s.Topology, "I2")
	s.Islands = s.Islands[:1]

	r := Build(s)
	require.Len(t, r.UnassignedPumps, 1)
	assert.Equal(t, "P2", r.UnassignedPumps[0].PumpID)
	assert.True(t, r.UnassignedPumps[0].SalesValue.Equal(dec("15000")))
	assert.True(t, r.Totals.TotalSales.Equal(dec("30000")), "unassigned sales stay out of island totals")
}

func TestBuildAtStampsGivenTime(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	r := BuildAt(reportSession(t), at)
	assert.True(t, r.GeneratedAt.Equal(at))
}

func TestExportXLSX(t *testing.T) {
	s := reportSession(t)
	s.SetNotes("tandem delivery mid-shift")
	r := Build(s)

	b, err := ExportXLSX(r)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"summary", "islands", "debtors"}, f.GetSheetList())

	station, err := f.GetCellValue("summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "ST1", station)

	rows, err := f.GetRows("islands")
	require.NoError(t, err)
	// Header + two islands + totals row.
	require.Len(t, rows, 4)
	assert.Equal(t, "I1", rows[1][0])
	assert.Equal(t, "TOTAL", rows[3][0])

	debtor, err := f.GetCellValue("debtors", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Transport", debtor)
}
