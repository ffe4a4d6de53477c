package market

type IndexQuote struct {
	Symbol        string  `json:"symbol" mapstructure:"symbol"`
	LastPrice     float64 `json:"lastPrice" mapstructure:"lastPrice"`
	Change        float64 `json:"change" mapstructure:"change"`
	ChangePercent float64 `json:"changePercent" mapstructure:"changePercent"`
}

type SectorPerformance struct {
	IndexName     string  `json:"indexName" mapstructure:"indexName"`
	ChangePercent float64 `json:"changePercent" mapstructure:"changePercent"`
	NetChange     float64 `json:"netChange" mapstructure:"netChange"`
	SymbolCode    string  `json:"symbolCode" mapstructure:"symbolCode"`
}

// StockConstituent is one stock row of a sector; top movers share the shape.
type StockConstituent struct {
	Symbol        string  `json:"symbol" mapstructure:"symbol"`
	LastPrice     float64 `json:"lastPrice" mapstructure:"lastPrice"`
	Change        float64 `json:"change" mapstructure:"change"`
	ChangePercent float64 `json:"changePercent" mapstructure:"changePercent"`
	IndexName     string  `json:"indexName" mapstructure:"indexName"`
}

type MarketBreadth struct {
	Advances int `json:"advances" mapstructure:"advances"`
	Declines int `json:"declines" mapstructure:"declines"`
	Total    int `json:"total" mapstructure:"total"`
}

type OptionChainRow struct {
	StrikePrice  float64 `json:"strikePrice" mapstructure:"strikePrice"`
	CallOIChange float64 `json:"callOiChange" mapstructure:"callOiChange"`
	PutOIChange  float64 `json:"putOiChange" mapstructure:"putOiChange"`
	CallTotalOI  float64 `json:"callTotalOi" mapstructure:"callTotalOi"`
	PutTotalOI   float64 `json:"putTotalOi" mapstructure:"putTotalOi"`
	IsATM        bool    `json:"isAtTheMoney" mapstructure:"isAtTheMoney"`
}

type OptionChain struct {
	Strikes []OptionChainRow `json:"strikes"`
}

type OptionExpiries struct {
	ExpiryDates []string `json:"expiryDates" mapstructure:"expiryDates"`
}

// placeholderPrice is what the backend reports for a stock it has no quote for.
const placeholderPrice = 100000

// IsPlaceholderPrice reports whether p is the backend's "no quote" marker
// rather than a traded price.
func IsPlaceholderPrice(p float64) bool {
	return p == placeholderPrice
}
