package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

func island(cash, mobile, card, debt, other, expenses string) model.IslandCollection {
	ic := model.IslandCollection{
		IslandID:     "I1",
		AttendantIDs: []string{"A1", "A2"},
		Cash:         dec(cash),
		MobileMoney:  dec(mobile),
		Card:         dec(card),
		Other:        dec(other),
		Expenses:     dec(expenses),
		Entered:      true,
	}
	if d := dec(debt); d.IsPositive() {
		ic.Debts = []model.DebtRecord{{DebtorName: "Transport Co", Amount: d}}
	}
	return ic
}

func TestIslandShortfallWithinTolerance(t *testing.T) {
	// cash 20000 + mobile 5000 + card 3000 + debt 1000 = 29000 collected
	// against 30000 expected → -1000, ≈-3.33% → ok at 5%.
	res := Island(island("20000", "5000", "3000", "1000", "0", "0"), dec("30000"), dec("5"))

	assert.True(t, res.TotalCollected.Equal(dec("29000")))
	assert.True(t, res.Variance.Equal(dec("-1000")))
	assert.True(t, res.VariancePct.Round(2).Equal(dec("-3.33")))
	assert.Equal(t, CollectionOK, res.Status)
}

func TestIslandVarianceSign(t *testing.T) {
	over := Island(island("31000", "0", "0", "0", "0", "0"), dec("30000"), dec("5"))
	assert.True(t, over.Variance.IsPositive(), "overage must be positive")

	short := Island(island("29000", "0", "0", "0", "0", "0"), dec("30000"), dec("5"))
	assert.True(t, short.Variance.IsNegative(), "shortfall must be negative")
}

func TestIslandBeyondTolerance(t *testing.T) {
	// 27000 vs 30000 → -10% → review.
	res := Island(island("27000", "0", "0", "0", "0", "0"), dec("30000"), dec("5"))
	assert.Equal(t, CollectionReview, res.Status)
}

func TestIslandZeroExpected(t *testing.T) {
	res := Island(island("100", "0", "0", "0", "0", "0"), decimal.Zero, dec("5"))
	assert.True(t, res.VariancePct.IsZero())
	assert.Equal(t, CollectionOK, res.Status)
}

func TestExpensesReduceCollected(t *testing.T) {
	res := Island(island("20000", "0", "0", "0", "0", "500"), dec("19500"), dec("5"))
	assert.True(t, res.TotalCollected.Equal(dec("19500")))
	assert.True(t, res.Variance.IsZero())
}

func TestExpectedSalesByIsland(t *testing.T) {
	c1, c2, c3 := dec("1200"), dec("350"), dec("1050")
	pumps := []model.PumpMeterEntry{
		{PumpID: "P1", UnitPrice: dec("150"), Electric: model.MeterChannel{Opening: dec("1000"), Closing: &c1}},
		{PumpID: "P2", UnitPrice: dec("150"), Electric: model.MeterChannel{Opening: dec("300"), Closing: &c2}},
		{PumpID: "P3", UnitPrice: dec("150"), Electric: model.MeterChannel{Opening: dec("1000"), Closing: &c3}},
	}
	topology := map[string][]string{
		"I1": {"P1", "P2"},
		"I2": {},
	}

	expected, unassigned := ExpectedSalesByIsland(pumps, topology, model.MeterElectric)

	// P1: 200L, P2: 50L at 150/L → I1 expects 37500.
	assert.True(t, expected["I1"].Equal(dec("37500")))
	assert.True(t, expected["I2"].IsZero())

	// P3 is mapped nowhere → excluded and reported.
	require.Len(t, unassigned, 1)
	assert.Equal(t, "P3", unassigned[0].PumpID)
	assert.True(t, unassigned[0].SalesValue.Equal(dec("7500")))
}

func TestStationCrossCheck(t *testing.T) {
	islands := []model.IslandCollection{
		island("10000", "0", "0", "0", "0", "0"),
		island("15000", "0", "0", "0", "0", "0"),
	}
	sc := model.StationCollection{Cash: dec("25000"), Entered: true}

	res := Station(sc, islands, dec("5"))
	assert.True(t, res.Variance.IsZero())
	assert.Equal(t, CollectionOK, res.Status)

	sc.Cash = dec("20000")
	res = Station(sc, islands, dec("5"))
	assert.Equal(t, CollectionReview, res.Status)
	assert.True(t, res.Variance.Equal(dec("-5000")))
}
