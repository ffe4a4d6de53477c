package view

import (
	"slices"
	"sort"
	"strings"

	"market-dashboard/internal/market"
)

// MoversLimit caps each side of the gainers/losers split.
const MoversLimit = 5

const unknownIndexRank = 99

var indexRanks = map[string]int{
	"NIFTY 50":            1,
	"NIFTY":               1,
	"NIFTY BANK":          2,
	"BANK NIFTY":          2,
	"SENSEX":              3,
	"BSE SENSEX":          3,
	"NIFTY MID SELECT":    4,
	"NIFTY MIDCAP SELECT": 4,
	"NIFTY MIDCAP 100":    4,
	"INDIA VIX":           5,
	"VIX":                 5,
}

func IndexRank(symbol string) int {
	if r, ok := indexRanks[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return r
	}
	return unknownIndexRank
}

// RankIndices orders indices by display priority. Equal ranks keep their
// input order.
func RankIndices(in []market.IndexQuote) []market.IndexQuote {
	out := slices.Clone(in)
	sort.SliceStable(out, func(i, j int) bool {
		return IndexRank(out[i].Symbol) < IndexRank(out[j].Symbol)
	})
	return out
}

// SplitMovers returns up to MoversLimit gainers (largest first) and losers
// (most negative first). Unchanged stocks appear in neither list.
func SplitMovers(in []market.StockConstituent) (gainers, losers []market.StockConstituent) {
	gainers = make([]market.StockConstituent, 0, MoversLimit)
	losers = make([]market.StockConstituent, 0, MoversLimit)
	for _, s := range in {
		switch {
		case s.ChangePercent > 0:
			gainers = append(gainers, s)
		case s.ChangePercent < 0:
			losers = append(losers, s)
		}
	}
	sort.SliceStable(gainers, func(i, j int) bool { return gainers[i].ChangePercent > gainers[j].ChangePercent })
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].ChangePercent < losers[j].ChangePercent })
	if len(gainers) > MoversLimit {
		gainers = gainers[:MoversLimit]
	}
	if len(losers) > MoversLimit {
		losers = losers[:MoversLimit]
	}
	return gainers, losers
}

// DedupConstituents keeps one row per upper-cased symbol, in first-seen
// order. A row with a real price wins over placeholder rows; if every row
// is a placeholder the first one is kept.
func DedupConstituents(in []market.StockConstituent) []market.StockConstituent {
	out := make([]market.StockConstituent, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, s := range in {
		key := strings.ToUpper(strings.TrimSpace(s.Symbol))
		i, seen := pos[key]
		if !seen {
			pos[key] = len(out)
			out = append(out, s)
			continue
		}
		if market.IsPlaceholderPrice(out[i].LastPrice) && !market.IsPlaceholderPrice(s.LastPrice) {
			out[i] = s
		}
	}
	return out
}

// SortSectors returns a new slice ordered by change percent, strongest first.
func SortSectors(in []market.SectorPerformance) []market.SectorPerformance {
	out := slices.Clone(in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangePercent > out[j].ChangePercent })
	return out
}

// FilterBySector returns the deduplicated constituents of one sector,
// strongest first.
func FilterBySector(in []market.StockConstituent, sector string) []market.StockConstituent {
	if sector == "" {
		return []market.StockConstituent{}
	}
	out := make([]market.StockConstituent, 0)
	for _, s := range DedupConstituents(in) {
		if s.IndexName == sector {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangePercent > out[j].ChangePercent })
	return out
}

// FindSector returns the named sector, or the first one when name is empty
// or unknown.
func FindSector(sectors []market.SectorPerformance, name string) (market.SectorPerformance, bool) {
	for _, s := range sectors {
		if s.IndexName == name {
			return s, true
		}
	}
	if len(sectors) == 0 {
		return market.SectorPerformance{}, false
	}
	return sectors[0], true
}
