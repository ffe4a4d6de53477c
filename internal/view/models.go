package view

import (
	"fmt"

	"market-dashboard/internal/market"
)

type TickerItem struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"lastPrice"`
	Price         string  `json:"price"`
	Change        string  `json:"change"`
	ChangePercent string  `json:"changePercent"`
	Tone          string  `json:"tone"`
}

// TickerItems renders the header strip in display priority.
func TickerItems(in []market.IndexQuote) []TickerItem {
	ranked := RankIndices(in)
	out := make([]TickerItem, 0, len(ranked))
	for _, q := range ranked {
		out = append(out, TickerItem{
			Symbol:        q.Symbol,
			LastPrice:     q.LastPrice,
			Price:         INR(q.LastPrice),
			Change:        Signed(q.Change),
			ChangePercent: Percent(q.ChangePercent),
			Tone:          tone(q.Change),
		})
	}
	return out
}

type SectorBar struct {
	Name          string  `json:"name"`
	SymbolCode    string  `json:"symbolCode"`
	ChangePercent float64 `json:"changePercent"`
	Label         string  `json:"label"`
	NetChange     string  `json:"netChange"`
	Color         string  `json:"color"`
	Selected      bool    `json:"selected"`
}

// SectorBars renders the relative strength chart; sectors must already be
// sorted.
func SectorBars(sectors []market.SectorPerformance, selected string) []SectorBar {
	out := make([]SectorBar, 0, len(sectors))
	for _, s := range sectors {
		color := colorUp
		if s.ChangePercent < 0 {
			color = colorDown
		}
		out = append(out, SectorBar{
			Name:          s.IndexName,
			SymbolCode:    s.SymbolCode,
			ChangePercent: s.ChangePercent,
			Label:         Percent(s.ChangePercent),
			NetChange:     Signed(s.NetChange),
			Color:         color,
			Selected:      s.IndexName == selected,
		})
	}
	return out
}

type ConstituentRow struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"lastPrice"`
	Price         string  `json:"price"`
	Change        string  `json:"change"`
	ChangePercent string  `json:"changePercent"`
	Tone          string  `json:"tone"`
}

func ConstituentRows(in []market.StockConstituent) []ConstituentRow {
	out := make([]ConstituentRow, 0, len(in))
	for _, s := range in {
		out = append(out, ConstituentRow{
			Symbol:        s.Symbol,
			LastPrice:     s.LastPrice,
			Price:         Rupees(s.LastPrice),
			Change:        Signed(s.Change),
			ChangePercent: Percent(s.ChangePercent),
			Tone:          tone(s.ChangePercent),
		})
	}
	return out
}

type MoverCard struct {
	Rank          int    `json:"rank"`
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	ChangePercent string `json:"changePercent"`
	Tone          string `json:"tone"`
}

func MoverCards(in []market.StockConstituent) []MoverCard {
	out := make([]MoverCard, 0, len(in))
	for i, s := range in {
		out = append(out, MoverCard{
			Rank:          i + 1,
			Symbol:        s.Symbol,
			Price:         INR(s.LastPrice),
			ChangePercent: Percent(s.ChangePercent),
			Tone:          tone(s.ChangePercent),
		})
	}
	return out
}

type BreadthGauge struct {
	BreadthStats
	RatioLabel string `json:"ratioLabel"`
	Tone       string `json:"tone"`
}

func Gauge(b market.MarketBreadth) BreadthGauge {
	st := Breadth(b)
	t := ToneDown
	if st.Ratio > 1 {
		t = ToneUp
	}
	return BreadthGauge{
		BreadthStats: st,
		RatioLabel:   fmt.Sprintf("%sx", Fixed(st.Ratio)),
		Tone:         t,
	}
}
