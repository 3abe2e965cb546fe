package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/metermath"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/model"
)

// Island collection status.
const (
	CollectionOK     = "ok"
	CollectionReview = "review"
)

var hundred = decimal.NewFromInt(100)

// IslandResult compares what an island's attendants turned in against the
// sales its pumps metered.
type IslandResult struct {
	IslandID       string          `json:"islandId"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
	ExpectedSales  decimal.Decimal `json:"expectedSales"`
	Variance       decimal.Decimal `json:"variance"`
	VariancePct    decimal.Decimal `json:"variancePercentage"`
	Status         string          `json:"status"`
}

// Island reconciles one island collection against its expected sales.
// Variance is signed: positive is an overage, negative a shortfall. The
// status flips to review when |variance%| reaches tolerancePct.
func Island(ic model.IslandCollection, expected decimal.Decimal, tolerancePct decimal.Decimal) IslandResult {
	res := IslandResult{
		IslandID:       ic.IslandID,
		TotalCollected: ic.TotalCollected(),
		ExpectedSales:  expected,
	}
	res.Variance = res.TotalCollected.Sub(expected)
	if expected.IsPositive() {
		res.VariancePct = res.Variance.Div(expected).Mul(hundred)
	}

	if res.VariancePct.Abs().LessThan(tolerancePct) {
		res.Status = CollectionOK
	} else {
		res.Status = CollectionReview
	}
	return res
}

// UnassignedPump is a pump whose topology mapping resolves to no island.
// Its sales are excluded from every island total and surfaced separately.
type UnassignedPump struct {
	PumpID     string          `json:"pumpId"`
	SalesValue decimal.Decimal `json:"salesValue"`
}

// ExpectedSalesByIsland attributes each pump's derived sales to its island
// under the given topology (islandID → pumpIDs). Attribution is
// authoritative: a pump mapped nowhere contributes to no island.
func ExpectedSalesByIsland(pumps []model.PumpMeterEntry, topology map[string][]string, mt model.MeterType) (map[string]decimal.Decimal, []UnassignedPump) {
	islandByPump := make(map[string]string)
	for islandID, pumpIDs := range topology {
		for _, pumpID := range pumpIDs {
			islandByPump[pumpID] = islandID
		}
	}

	expected := make(map[string]decimal.Decimal, len(topology))
	for islandID := range topology {
		expected[islandID] = decimal.Zero
	}

	var unassigned []UnassignedPump
	for _, p := range pumps {
		sales := metermath.SalesValue(p, mt)
		islandID, ok := islandByPump[p.PumpID]
		if !ok {
			unassigned = append(unassigned, UnassignedPump{PumpID: p.PumpID, SalesValue: sales})
			continue
		}
		expected[islandID] = expected[islandID].Add(sales)
	}
	return expected, unassigned
}

// Station cross-checks the independently entered station-wide collection
// against the sum of the island collections.
func Station(sc model.StationCollection, islands []model.IslandCollection, tolerancePct decimal.Decimal) IslandResult {
	sum := decimal.Zero
	for _, ic := range islands {
		sum = sum.Add(ic.TotalCollected())
	}
	res := IslandResult{
		TotalCollected: sc.TotalCollected(),
		ExpectedSales:  sum,
	}
	res.Variance = res.TotalCollected.Sub(sum)
	if sum.IsPositive() {
		res.VariancePct = res.Variance.Div(sum).Mul(hundred)
	}
	if res.VariancePct.Abs().LessThan(tolerancePct) {
		res.Status = CollectionOK
	} else {
		res.Status = CollectionReview
	}
	return res
}
