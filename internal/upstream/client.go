package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"market-dashboard/internal/market"
)

const (
	DefaultBaseURL  = "http://localhost:8000/api/v1/dashboard"
	DefaultExchange = "NFO"
	DefaultOILimit  = 10
)

var errEnvelopeFailed = errors.New("envelope reported failure")

// Result is the uniform outcome of every upstream call. On failure Data
// holds the endpoint's empty default, never a partial payload.
type Result[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"Content-Type":    "application/json",
			"Accept":          "application/json",
			"Accept-Encoding": "gzip, br",
		})
	client.OnAfterResponse(decompress)
	return &Client{http: client}
}

func (c *Client) Indices(ctx context.Context) Result[[]market.IndexQuote] {
	return get(ctx, c, "indices", "/indices/prices", nil, []market.IndexQuote{}, market.DecodeIndices)
}

func (c *Client) SectorPerformance(ctx context.Context) Result[[]market.SectorPerformance] {
	return get(ctx, c, "sector_performance", "/sectors/performance", nil, []market.SectorPerformance{}, market.DecodeSectors)
}

func (c *Client) SectorConstituents(ctx context.Context) Result[[]market.StockConstituent] {
	return get(ctx, c, "sector_constituents", "/sectors/stocks", nil, []market.StockConstituent{}, market.DecodeStocks)
}

func (c *Client) TopMovers(ctx context.Context) Result[[]market.StockConstituent] {
	return get(ctx, c, "top_movers", "/sectors/top-movers", nil, []market.StockConstituent{}, market.DecodeStocks)
}

func (c *Client) MarketBreadth(ctx context.Context) Result[market.MarketBreadth] {
	return get(ctx, c, "market_breadth", "/market-breadth", nil, market.MarketBreadth{}, market.DecodeBreadth)
}

func (c *Client) OptionSymbols(ctx context.Context) Result[[]string] {
	return get(ctx, c, "option_symbols", "/options/symbols", nil, []string{}, market.DecodeSymbols)
}

func (c *Client) OptionExpiries(ctx context.Context, symbol, exchange string) Result[market.OptionExpiries] {
	empty := market.OptionExpiries{ExpiryDates: []string{}}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		log.Error().Str("op", "option_expiries").Msg("upstream request skipped: symbol is empty")
		return Result[market.OptionExpiries]{Data: empty}
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	params := map[string]string{"symbol": symbol, "exchange": exchange}
	return get(ctx, c, "option_expiries", "/options/expiries", params, empty, market.DecodeExpiries)
}

// OpenInterest fetches the strike-wise chain. The empty default is nil.
func (c *Client) OpenInterest(ctx context.Context, symbol, expiry string, limit int) Result[*market.OptionChain] {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || expiry == "" {
		log.Error().Str("op", "open_interest").Str("symbol", symbol).Str("expiry", expiry).
			Msg("upstream request skipped: symbol and expiry are required")
		return Result[*market.OptionChain]{}
	}
	if limit <= 0 {
		limit = DefaultOILimit
	}
	params := map[string]string{"symbol": symbol, "expiry": expiry, "limit": strconv.Itoa(limit)}
	return get(ctx, c, "open_interest", "/options/open-interest", params, (*market.OptionChain)(nil), func(v any) (*market.OptionChain, error) {
		chain, err := market.DecodeOptionChain(v)
		if err != nil {
			return nil, err
		}
		return &chain, nil
	})
}

func get[T any](ctx context.Context, c *Client, op, path string, params map[string]string, empty T, decode func(any) (T, error)) Result[T] {
	start := time.Now()
	data, err := fetch(ctx, c, path, params, decode)
	if err != nil {
		log.Error().Err(err).Str("op", op).Str("path", path).Dur("elapsed", time.Since(start)).
			Msg("upstream request failed")
		return Result[T]{Success: false, Data: empty}
	}
	log.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Msg("upstream request ok")
	return Result[T]{Success: true, Data: data}
}

func fetch[T any](ctx context.Context, c *Client, path string, params map[string]string, decode func(any) (T, error)) (T, error) {
	var zero T
	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return zero, fmt.Errorf("request: %w", err)
	}
	if !resp.IsSuccess() {
		return zero, fmt.Errorf("status %d", resp.StatusCode())
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return zero, fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Success {
		if env.Message != "" {
			return zero, fmt.Errorf("%w: %s", errEnvelopeFailed, env.Message)
		}
		return zero, errEnvelopeFailed
	}
	var raw any
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return zero, fmt.Errorf("decode data: %w", err)
		}
	}
	out, err := decode(raw)
	if err != nil {
		return zero, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}
