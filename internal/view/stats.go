package view

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"market-dashboard/internal/market"
)

// DefaultOptionSymbol is preselected when the symbol list carries it.
const DefaultOptionSymbol = "NIFTY"

// OILimits are the strike counts the options page offers.
var OILimits = []int{5, 10, 15, 20, 25, 30, 50}

func ValidOILimit(n int) bool {
	return slices.Contains(OILimits, n)
}

type BreadthStats struct {
	Advances       int     `json:"advances"`
	Declines       int     `json:"declines"`
	Total          int     `json:"total"`
	Ratio          float64 `json:"ratio"`
	AdvancePercent float64 `json:"advancePercent"`
	GaugeAngle     float64 `json:"gaugeAngle"`
}

// Breadth derives the advance/decline ratio and the gauge needle angle,
// which runs from -90 (all declines) to +90 (all advances).
func Breadth(b market.MarketBreadth) BreadthStats {
	adv, dec := max(b.Advances, 0), max(b.Declines, 0)
	total := adv + dec
	safeTotal := max(total, 1)
	advPct := float64(adv) / float64(safeTotal) * 100
	return BreadthStats{
		Advances:       adv,
		Declines:       dec,
		Total:          total,
		Ratio:          float64(adv) / float64(max(dec, 1)),
		AdvancePercent: advPct,
		GaugeAngle:     advPct*1.8 - 90,
	}
}

// PCR is total put open interest over total call open interest, 0 when
// there is no call interest.
func PCR(rows []market.OptionChainRow) float64 {
	var calls, puts float64
	for _, r := range rows {
		calls += r.CallTotalOI
		puts += r.PutTotalOI
	}
	if calls == 0 {
		return 0
	}
	return puts / calls
}

type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type ChainStats struct {
	Rows            []market.OptionChainRow `json:"rows"`
	TotalCallOI     float64                 `json:"totalCallOi"`
	TotalPutOI      float64                 `json:"totalPutOi"`
	NetCallOIChange float64                 `json:"netCallOiChange"`
	NetPutOIChange  float64                 `json:"netPutOiChange"`
	PCR             float64                 `json:"pcr"`
	ATMStrike       *float64                `json:"atmStrike"`
	BarSize         int                     `json:"barSize"`
	Donut           []Slice                 `json:"donut"`
	NetChange       []Slice                 `json:"netChange"`
}

// OptionChain sorts strikes ascending and totals the chain. PCR is rounded
// to two places.
func OptionChain(chain *market.OptionChain) ChainStats {
	var rows []market.OptionChainRow
	if chain != nil {
		rows = slices.Clone(chain.Strikes)
	}
	if rows == nil {
		rows = []market.OptionChainRow{}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].StrikePrice < rows[j].StrikePrice })

	st := ChainStats{Rows: rows, BarSize: BarSize(len(rows))}
	for _, r := range rows {
		st.TotalCallOI += r.CallTotalOI
		st.TotalPutOI += r.PutTotalOI
		st.NetCallOIChange += r.CallOIChange
		st.NetPutOIChange += r.PutOIChange
		if r.IsATM && st.ATMStrike == nil {
			strike := r.StrikePrice
			st.ATMStrike = &strike
		}
	}
	st.PCR = Round2(PCR(rows))
	st.Donut = []Slice{
		{Name: "Put OI", Value: st.TotalPutOI, Color: colorUp},
		{Name: "Call OI", Value: st.TotalCallOI, Color: colorDown},
	}
	st.NetChange = []Slice{
		{Name: "PE Chg", Value: st.NetPutOIChange, Color: colorUp},
		{Name: "CE Chg", Value: st.NetCallOIChange, Color: colorDown},
	}
	return st
}

// BarSize shrinks chart bars as the strike count grows.
func BarSize(rows int) int {
	switch {
	case rows <= 10:
		return 20
	case rows <= 20:
		return 12
	case rows <= 30:
		return 8
	}
	return 4
}

// DefaultSymbol picks NIFTY when offered, else the first symbol.
func DefaultSymbol(symbols []string) string {
	if slices.Contains(symbols, DefaultOptionSymbol) {
		return DefaultOptionSymbol
	}
	if len(symbols) > 0 {
		return symbols[0]
	}
	return ""
}

func DefaultExpiry(dates []string) string {
	if len(dates) > 0 {
		return dates[0]
	}
	return ""
}

func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
