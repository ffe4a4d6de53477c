package market

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestDecodeIndicesAliases(t *testing.T) {
	v := decodeJSON(t, `[
		{"tradingSymbol":"NIFTY 50","lastPrice":22450.5,"change":120.25,"changePer":0.54},
		{"ticker":"INDIA VIX","ltp":"13.20","netChange":"-0.4","pChange":"-2.9%"}
	]`)
	got, err := DecodeIndices(v)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, IndexQuote{Symbol: "NIFTY 50", LastPrice: 22450.5, Change: 120.25, ChangePercent: 0.54}, got[0])
	assert.Equal(t, IndexQuote{Symbol: "INDIA VIX", LastPrice: 13.2, Change: -0.4, ChangePercent: -2.9}, got[1])
}

func TestDecodeStocksCoercesNumbers(t *testing.T) {
	v := decodeJSON(t, `[{"symbol":" ABC ","ltp":"1,542.10","change":"12","changePercent":0.8,"indexName":"NIFTY IT"}]`)
	got, err := DecodeStocks(v)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ABC", got[0].Symbol)
	assert.InDelta(t, 1542.10, got[0].LastPrice, 1e-9)
	assert.Equal(t, 12.0, got[0].Change)
	assert.Equal(t, "NIFTY IT", got[0].IndexName)
}

func TestDecodeStocksRejectsGarbage(t *testing.T) {
	_, err := DecodeStocks(decodeJSON(t, `[{"symbol":"ABC","lastPrice":"n/a"}]`))
	assert.Error(t, err)

	_, err = DecodeStocks(decodeJSON(t, `{"symbol":"ABC"}`))
	assert.Error(t, err)

	_, err = DecodeStocks(decodeJSON(t, `["ABC"]`))
	assert.Error(t, err)
}

func TestDecodeNullListIsEmpty(t *testing.T) {
	got, err := DecodeSectors(nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodeSectors(t *testing.T) {
	v := decodeJSON(t, `[{"indexName":"NIFTY IT","changePer":1.2,"change":410.5,"symbolCode":"CNXIT"}]`)
	got, err := DecodeSectors(v)
	require.NoError(t, err)
	assert.Equal(t, []SectorPerformance{{IndexName: "NIFTY IT", ChangePercent: 1.2, NetChange: 410.5, SymbolCode: "CNXIT"}}, got)
}

func TestDecodeBreadth(t *testing.T) {
	b, err := DecodeBreadth(decodeJSON(t, `{"advances":30,"declines":"20"}`))
	require.NoError(t, err)
	assert.Equal(t, MarketBreadth{Advances: 30, Declines: 20, Total: 50}, b)

	b, err = DecodeBreadth(decodeJSON(t, `{"advances":30,"declines":20,"total":55}`))
	require.NoError(t, err)
	assert.Equal(t, 55, b.Total)

	_, err = DecodeBreadth(decodeJSON(t, `[1,2]`))
	assert.Error(t, err)
}

func TestDecodeOptionChain(t *testing.T) {
	v := decodeJSON(t, `{"strikes":[
		{"strikePrice":22500,"ceOiChange":-1200,"peOiChange":3400,"ceTotalOi":150000,"peTotalOi":210000,"atm":true},
		{"strikePrice":"22600","ceOiChange":0,"peOiChange":10,"ceTotalOi":90000,"peTotalOi":40000,"atm":false}
	]}`)
	got, err := DecodeOptionChain(v)
	require.NoError(t, err)
	require.Len(t, got.Strikes, 2)
	assert.Equal(t, OptionChainRow{StrikePrice: 22500, CallOIChange: -1200, PutOIChange: 3400, CallTotalOI: 150000, PutTotalOI: 210000, IsATM: true}, got.Strikes[0])
	assert.Equal(t, 22600.0, got.Strikes[1].StrikePrice)

	bare, err := DecodeOptionChain(decodeJSON(t, `[{"strikePrice":100}]`))
	require.NoError(t, err)
	assert.Len(t, bare.Strikes, 1)
}

func TestDecodeExpiries(t *testing.T) {
	got, err := DecodeExpiries(decodeJSON(t, `{"expiryDates":["27-Jun-2024","04-Jul-2024"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"27-Jun-2024", "04-Jul-2024"}, got.ExpiryDates)

	got, err = DecodeExpiries(decodeJSON(t, `["27-Jun-2024"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"27-Jun-2024"}, got.ExpiryDates)

	got, err = DecodeExpiries(decodeJSON(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.ExpiryDates)
}

func TestDecodeSymbols(t *testing.T) {
	v := decodeJSON(t, `[{"symbol":"NIFTY"},{"symbol":" "},"BANKNIFTY",{"symbol":"NIFTY"},{"name":"FINNIFTY"},{"other":1}]`)
	got, err := DecodeSymbols(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"BANKNIFTY", "FINNIFTY", "NIFTY"}, got)

	_, err = DecodeSymbols(decodeJSON(t, `{"symbol":"NIFTY"}`))
	assert.Error(t, err)
}

func TestIsPlaceholderPrice(t *testing.T) {
	assert.True(t, IsPlaceholderPrice(100000))
	assert.False(t, IsPlaceholderPrice(100000.5))
	assert.False(t, IsPlaceholderPrice(542.1))
}
