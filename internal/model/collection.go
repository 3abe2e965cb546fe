package model

import "github.com/shopspring/decimal"

// DebtRecord is one credit sale attributed to a named debtor.
// Records are immutable once entered — corrections add inverse entries.
type DebtRecord struct {
	DebtorName string          `json:"debtorName"`
	Reference  string          `json:"reference,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// IslandCollection aggregates what the attendants of one island turned in
// at the end of the shift, broken down by payment method.
type IslandCollection struct {
	IslandID     string   `json:"islandId"`
	AttendantIDs []string `json:"attendantIds"`

	Cash        decimal.Decimal `json:"cashAmount"`
	MobileMoney decimal.Decimal `json:"mobileMoneyAmount"`
	Card        decimal.Decimal `json:"cardAmount"`
	Debts       []DebtRecord    `json:"debts,omitempty"`
	Other       decimal.Decimal `json:"otherAmount"`
	Receipts    decimal.Decimal `json:"receipts"`
	Expenses    decimal.Decimal `json:"expenses"`
	// CashDrops is cash physically deposited to the safe during the shift.
	CashDrops decimal.Decimal `json:"cashDrops"`

	// Entered marks that the cashier committed values for this island,
	// distinguishing "all zero" from "not filled in yet".
	Entered bool `json:"entered"`
}

// TotalDebt sums the per-debtor breakdown.
func (ic IslandCollection) TotalDebt() decimal.Decimal {
	total := decimal.Zero
	for _, d := range ic.Debts {
		total = total.Add(d.Amount)
	}
	return total
}

// TotalCollected = cash + mobile + card + debt + other + receipts − expenses.
func (ic IslandCollection) TotalCollected() decimal.Decimal {
	return ic.Cash.
		Add(ic.MobileMoney).
		Add(ic.Card).
		Add(ic.TotalDebt()).
		Add(ic.Other).
		Add(ic.Receipts).
		Sub(ic.Expenses)
}

// Deposited is the portion of the collection physically banked or settled:
// safe drops plus electronic instruments. Debts and undropped cash are not
// deposited.
func (ic IslandCollection) Deposited() decimal.Decimal {
	return ic.CashDrops.Add(ic.MobileMoney).Add(ic.Card).Add(ic.Other)
}

// StationCollection is the station-wide aggregate entered independently of
// the per-island figures, used as a cross-check.
type StationCollection struct {
	Cash        decimal.Decimal `json:"cashAmount"`
	MobileMoney decimal.Decimal `json:"mobileMoneyAmount"`
	Card        decimal.Decimal `json:"cardAmount"`
	Debt        decimal.Decimal `json:"debtAmount"`
	Other       decimal.Decimal `json:"otherAmount"`
	Receipts    decimal.Decimal `json:"receipts"`
	Expenses    decimal.Decimal `json:"expenses"`

	Entered bool `json:"entered"`
}

// TotalCollected mirrors IslandCollection.TotalCollected.
func (sc StationCollection) TotalCollected() decimal.Decimal {
	return sc.Cash.
		Add(sc.MobileMoney).
		Add(sc.Card).
		Add(sc.Debt).
		Add(sc.Other).
		Add(sc.Receipts).
		Sub(sc.Expenses)
}

// NonFuelEntry is a miscellaneous (shop/lubricant/service) sale recorded in
// the optional non-fuel step.
type NonFuelEntry struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}
