package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-dashboard/internal/market"
)

func symbols[T any](in []T, f func(T) string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

func indexSymbol(q market.IndexQuote) string { return q.Symbol }
func stockSymbol(s market.StockConstituent) string { return s.Symbol }
func sectorName(s market.SectorPerformance) string { return s.IndexName }

func TestRankIndices(t *testing.T) {
	in := []market.IndexQuote{{Symbol: "INDIA VIX"}, {Symbol: "FOO"}, {Symbol: "NIFTY 50"}, {Symbol: "NIFTY BANK"}}
	got := RankIndices(in)
	assert.Equal(t, []string{"NIFTY 50", "NIFTY BANK", "INDIA VIX", "FOO"}, symbols(got, indexSymbol))
	// input untouched
	assert.Equal(t, "INDIA VIX", in[0].Symbol)
}

func TestRankIndicesKeepsUnknownOrder(t *testing.T) {
	in := []market.IndexQuote{{Symbol: "ZED"}, {Symbol: " sensex "}, {Symbol: "ALPHA"}, {Symbol: "MID"}, {Symbol: "vix"}}
	got := RankIndices(in)
	assert.Equal(t, []string{" sensex ", "vix", "ZED", "ALPHA", "MID"}, symbols(got, indexSymbol))
}

func TestIndexRank(t *testing.T) {
	assert.Equal(t, 1, IndexRank("nifty"))
	assert.Equal(t, 2, IndexRank("BANK NIFTY"))
	assert.Equal(t, 4, IndexRank("NIFTY MIDCAP 100"))
	assert.Equal(t, 99, IndexRank(""))
}

func TestSplitMovers(t *testing.T) {
	in := []market.StockConstituent{
		{Symbol: "A", ChangePercent: 1},
		{Symbol: "B", ChangePercent: -2},
		{Symbol: "C", ChangePercent: 0},
		{Symbol: "D", ChangePercent: 3},
		{Symbol: "E", ChangePercent: -0.5},
		{Symbol: "F", ChangePercent: 2},
		{Symbol: "G", ChangePercent: 4},
		{Symbol: "H", ChangePercent: 5},
		{Symbol: "I", ChangePercent: 6},
	}
	gainers, losers := SplitMovers(in)
	assert.Equal(t, []string{"I", "H", "G", "D", "F"}, symbols(gainers, stockSymbol))
	assert.Equal(t, []string{"B", "E"}, symbols(losers, stockSymbol))
	for _, s := range append(gainers, losers...) {
		assert.NotZero(t, s.ChangePercent)
	}
}

func TestSplitMoversEmpty(t *testing.T) {
	gainers, losers := SplitMovers(nil)
	assert.NotNil(t, gainers)
	assert.NotNil(t, losers)
	assert.Empty(t, gainers)
	assert.Empty(t, losers)
}

func TestDedupPrefersRealPrice(t *testing.T) {
	in := []market.StockConstituent{
		{Symbol: "ABC", LastPrice: 100000},
		{Symbol: "ABC", LastPrice: 542.1},
	}
	got := DedupConstituents(in)
	require.Len(t, got, 1)
	assert.Equal(t, 542.1, got[0].LastPrice)
}

func TestDedupKeepsFirstWhenAllPlaceholders(t *testing.T) {
	in := []market.StockConstituent{
		{Symbol: "abc", LastPrice: 100000, IndexName: "first"},
		{Symbol: "ABC", LastPrice: 100000, IndexName: "second"},
		{Symbol: "XYZ", LastPrice: 10},
		{Symbol: "xyz", LastPrice: 11},
	}
	got := DedupConstituents(in)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].IndexName)
	assert.Equal(t, 10.0, got[1].LastPrice)
}

func TestDedupIsIdempotent(t *testing.T) {
	in := []market.StockConstituent{
		{Symbol: "A", LastPrice: 100000},
		{Symbol: "b", LastPrice: 5},
		{Symbol: "a", LastPrice: 7},
		{Symbol: "B", LastPrice: 100000},
		{Symbol: "C", LastPrice: 1},
	}
	once := DedupConstituents(in)
	assert.Equal(t, once, DedupConstituents(once))
	assert.Equal(t, []string{"a", "b", "C"}, symbols(once, stockSymbol))
}

func TestSortSectorsReturnsFreshSlice(t *testing.T) {
	in := []market.SectorPerformance{{IndexName: "IT", ChangePercent: -1}, {IndexName: "BANK", ChangePercent: 2}, {IndexName: "AUTO", ChangePercent: 0.5}}
	got := SortSectors(in)
	assert.Equal(t, []string{"BANK", "AUTO", "IT"}, symbols(got, sectorName))
	assert.Equal(t, "IT", in[0].IndexName)
}

func TestFilterBySector(t *testing.T) {
	in := []market.StockConstituent{
		{Symbol: "A", IndexName: "IT", ChangePercent: 1},
		{Symbol: "B", IndexName: "BANK", ChangePercent: 3},
		{Symbol: "C", IndexName: "IT", ChangePercent: 2},
		{Symbol: "C", IndexName: "IT", ChangePercent: 2, LastPrice: 100000},
	}
	got := FilterBySector(in, "IT")
	assert.Equal(t, []string{"C", "A"}, symbols(got, stockSymbol))
	assert.Empty(t, FilterBySector(in, ""))
}

func TestFindSector(t *testing.T) {
	sectors := []market.SectorPerformance{{IndexName: "BANK"}, {IndexName: "IT"}}
	s, ok := FindSector(sectors, "IT")
	assert.True(t, ok)
	assert.Equal(t, "IT", s.IndexName)

	s, ok = FindSector(sectors, "")
	assert.True(t, ok)
	assert.Equal(t, "BANK", s.IndexName)

	_, ok = FindSector(nil, "IT")
	assert.False(t, ok)
}

func TestTableSortRequest(t *testing.T) {
	st := DefaultTableSort()
	st = st.Request(ColumnChangePercent)
	assert.Equal(t, TableSort{Column: ColumnChangePercent, Direction: Asc}, st)
	st = st.Request(ColumnChangePercent)
	assert.Equal(t, Desc, st.Direction)

	st = st.Request(ColumnSymbol)
	assert.Equal(t, TableSort{Column: ColumnSymbol, Direction: Desc}, st)
	st = st.Request(ColumnSymbol)
	assert.Equal(t, Asc, st.Direction)
	st = st.Request(ColumnLastPrice)
	assert.Equal(t, Desc, st.Direction)
}

func TestSortTable(t *testing.T) {
	rows := []market.StockConstituent{
		{Symbol: "beta", LastPrice: 9, Change: 1},
		{Symbol: "Alpha", LastPrice: 100, Change: -1},
		{Symbol: "gamma", LastPrice: 20, Change: 1},
	}
	byPrice := SortTable(rows, TableSort{Column: ColumnLastPrice, Direction: Desc})
	assert.Equal(t, []string{"Alpha", "gamma", "beta"}, symbols(byPrice, stockSymbol))

	bySymbol := SortTable(rows, TableSort{Column: ColumnSymbol, Direction: Asc})
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, symbols(bySymbol, stockSymbol))

	// ties keep input order
	byChange := SortTable(rows, TableSort{Column: ColumnChange, Direction: Desc})
	assert.Equal(t, []string{"beta", "gamma", "Alpha"}, symbols(byChange, stockSymbol))
	assert.Equal(t, "beta", rows[0].Symbol)
}

func TestParseColumnAndDirection(t *testing.T) {
	c, err := ParseColumn("changePer")
	require.NoError(t, err)
	assert.Equal(t, ColumnChangePercent, c)
	_, err = ParseColumn("volume")
	assert.Error(t, err)

	d, err := ParseDirection("ASC")
	require.NoError(t, err)
	assert.Equal(t, Asc, d)
	_, err = ParseDirection("up")
	assert.Error(t, err)
}

func TestBreadth(t *testing.T) {
	st := Breadth(market.MarketBreadth{Advances: 30, Declines: 20})
	assert.InDelta(t, 1.5, st.Ratio, 1e-9)
	assert.InDelta(t, 18.0, st.GaugeAngle, 1e-9)
	assert.InDelta(t, 60.0, st.AdvancePercent, 1e-9)
	assert.Equal(t, 50, st.Total)
}

func TestBreadthZeroes(t *testing.T) {
	st := Breadth(market.MarketBreadth{})
	assert.Equal(t, 0.0, st.Ratio)
	assert.Equal(t, -90.0, st.GaugeAngle)

	st = Breadth(market.MarketBreadth{Advances: 12})
	assert.Equal(t, 12.0, st.Ratio)
	assert.Equal(t, 90.0, st.GaugeAngle)
}

func TestPCR(t *testing.T) {
	rows := []market.OptionChainRow{{CallTotalOI: 100, PutTotalOI: 80}, {CallTotalOI: 100, PutTotalOI: 170}}
	assert.InDelta(t, 1.25, PCR(rows), 1e-9)
	assert.Equal(t, 0.0, PCR([]market.OptionChainRow{{PutTotalOI: 50}}))
	assert.Equal(t, 0.0, PCR(nil))
}

func TestOptionChainStats(t *testing.T) {
	chain := &market.OptionChain{Strikes: []market.OptionChainRow{
		{StrikePrice: 22600, CallTotalOI: 300, PutTotalOI: 100, CallOIChange: 50, PutOIChange: -10},
		{StrikePrice: 22500, CallTotalOI: 0, PutTotalOI: 200, CallOIChange: -5, PutOIChange: 40, IsATM: true},
	}}
	st := OptionChain(chain)
	require.Len(t, st.Rows, 2)
	assert.Equal(t, 22500.0, st.Rows[0].StrikePrice)
	assert.Equal(t, 22600.0, chain.Strikes[0].StrikePrice)
	assert.Equal(t, 300.0, st.TotalCallOI)
	assert.Equal(t, 300.0, st.TotalPutOI)
	assert.Equal(t, 45.0, st.NetCallOIChange)
	assert.Equal(t, 30.0, st.NetPutOIChange)
	assert.Equal(t, 1.0, st.PCR)
	require.NotNil(t, st.ATMStrike)
	assert.Equal(t, 22500.0, *st.ATMStrike)
	assert.Equal(t, 20, st.BarSize)
	assert.Equal(t, "Put OI", st.Donut[0].Name)
}

func TestOptionChainNil(t *testing.T) {
	st := OptionChain(nil)
	assert.NotNil(t, st.Rows)
	assert.Nil(t, st.ATMStrike)
	assert.Equal(t, 0.0, st.PCR)
}

func TestPCRRounding(t *testing.T) {
	st := OptionChain(&market.OptionChain{Strikes: []market.OptionChainRow{{CallTotalOI: 3, PutTotalOI: 2}}})
	assert.Equal(t, 0.67, st.PCR)
}

func TestBarSize(t *testing.T) {
	assert.Equal(t, 20, BarSize(0))
	assert.Equal(t, 20, BarSize(10))
	assert.Equal(t, 12, BarSize(11))
	assert.Equal(t, 8, BarSize(30))
	assert.Equal(t, 4, BarSize(31))
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "NIFTY", DefaultSymbol([]string{"BANKNIFTY", "NIFTY"}))
	assert.Equal(t, "BANKNIFTY", DefaultSymbol([]string{"BANKNIFTY", "FINNIFTY"}))
	assert.Equal(t, "", DefaultSymbol(nil))
	assert.Equal(t, "27-Jun-2024", DefaultExpiry([]string{"27-Jun-2024", "04-Jul-2024"}))
	assert.Equal(t, "", DefaultExpiry(nil))
	assert.True(t, ValidOILimit(25))
	assert.False(t, ValidOILimit(12))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "+1.23", Signed(1.234))
	assert.Equal(t, "-0.50", Signed(-0.5))
	assert.Equal(t, "0.00", Signed(0))
	assert.Equal(t, "+0.54%", Percent(0.54))
	assert.Equal(t, "22,450.50", INR(22450.5))
	assert.Equal(t, "12,34,567.80", INR(1234567.8))
	assert.Equal(t, "1,23,456.00", INR(123456))
	assert.Equal(t, "-12,345.00", INR(-12345))
	assert.Equal(t, "999.00", INR(999))
	assert.Equal(t, "₹542.10", Rupees(542.1))
}

func TestViewModels(t *testing.T) {
	items := TickerItems([]market.IndexQuote{{Symbol: "VIX", Change: -1}, {Symbol: "NIFTY", LastPrice: 22000, Change: 10, ChangePercent: 0.05}})
	require.Len(t, items, 2)
	assert.Equal(t, "NIFTY", items[0].Symbol)
	assert.Equal(t, ToneUp, items[0].Tone)
	assert.Equal(t, ToneDown, items[1].Tone)

	bars := SectorBars([]market.SectorPerformance{{IndexName: "BANK", ChangePercent: 1}, {IndexName: "IT", ChangePercent: -1}}, "IT")
	assert.False(t, bars[0].Selected)
	assert.True(t, bars[1].Selected)
	assert.Equal(t, colorDown, bars[1].Color)

	cards := MoverCards([]market.StockConstituent{{Symbol: "A", ChangePercent: 2}})
	assert.Equal(t, 1, cards[0].Rank)
	assert.Equal(t, "+2.00%", cards[0].ChangePercent)

	g := Gauge(market.MarketBreadth{Advances: 30, Declines: 20})
	assert.Equal(t, "1.50x", g.RatioLabel)
	assert.Equal(t, ToneUp, g.Tone)
}
