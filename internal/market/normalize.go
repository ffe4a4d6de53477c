package market

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// aliases maps a canonical field to the wire names it may arrive under,
// in order of preference.
type aliases map[string][]string

var (
	indexAliases = aliases{
		"symbol":        {"tradingSymbol", "symbol", "ticker", "name"},
		"lastPrice":     {"lastPrice", "ltp", "price", "last"},
		"change":        {"change", "netChange"},
		"changePercent": {"changePer", "changePercent", "pChange", "change_pct"},
	}
	sectorAliases = aliases{
		"indexName":     {"indexName", "sector", "name"},
		"changePercent": {"changePer", "changePercent", "pChange", "change_pct"},
		"netChange":     {"change", "netChange"},
		"symbolCode":    {"symbolCode", "symbol", "code"},
	}
	stockAliases = aliases{
		"symbol":        {"symbol", "tradingSymbol", "ticker"},
		"lastPrice":     {"lastPrice", "ltp", "price", "last"},
		"change":        {"change", "netChange"},
		"changePercent": {"changePer", "changePercent", "pChange", "change_pct"},
		"indexName":     {"indexName", "sector", "index"},
	}
	breadthAliases = aliases{
		"advances": {"advances", "advance", "adv"},
		"declines": {"declines", "decline", "dec"},
		"total":    {"total"},
	}
	strikeAliases = aliases{
		"strikePrice":  {"strikePrice", "strike"},
		"callOiChange": {"ceOiChange", "callOiChange"},
		"putOiChange":  {"peOiChange", "putOiChange"},
		"callTotalOi":  {"ceTotalOi", "callTotalOi", "ceOi"},
		"putTotalOi":   {"peTotalOi", "putTotalOi", "peOi"},
		"isAtTheMoney": {"atm", "isAtTheMoney", "isATM"},
	}
	expiryAliases = aliases{
		"expiryDates": {"expiryDates", "expiries", "dates"},
	}
	symbolAliases = []string{"symbol", "tradingSymbol", "name"}
)

func DecodeIndices(v any) ([]IndexQuote, error) {
	return decodeList[IndexQuote](v, indexAliases)
}

func DecodeSectors(v any) ([]SectorPerformance, error) {
	return decodeList[SectorPerformance](v, sectorAliases)
}

func DecodeStocks(v any) ([]StockConstituent, error) {
	out, err := decodeList[StockConstituent](v, stockAliases)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Symbol = strings.TrimSpace(out[i].Symbol)
	}
	return out, nil
}

func DecodeBreadth(v any) (MarketBreadth, error) {
	var b MarketBreadth
	m, ok := v.(map[string]any)
	if !ok {
		return b, fmt.Errorf("breadth: expected object, got %T", v)
	}
	if err := decodeRecord(m, breadthAliases, &b); err != nil {
		return MarketBreadth{}, fmt.Errorf("breadth: %w", err)
	}
	if b.Total == 0 {
		b.Total = b.Advances + b.Declines
	}
	return b, nil
}

// DecodeOptionChain accepts either {strikes:[...]} or a bare list of strikes.
func DecodeOptionChain(v any) (OptionChain, error) {
	if m, ok := v.(map[string]any); ok {
		v = m["strikes"]
	}
	rows, err := decodeList[OptionChainRow](v, strikeAliases)
	if err != nil {
		return OptionChain{}, err
	}
	return OptionChain{Strikes: rows}, nil
}

// DecodeExpiries accepts either {expiryDates:[...]} or a bare list of dates.
func DecodeExpiries(v any) (OptionExpiries, error) {
	out := OptionExpiries{ExpiryDates: []string{}}
	switch t := v.(type) {
	case nil:
		return out, nil
	case []any:
		v = map[string]any{"expiryDates": t}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return out, fmt.Errorf("expiries: expected object, got %T", v)
	}
	if err := decodeRecord(m, expiryAliases, &out); err != nil {
		return OptionExpiries{ExpiryDates: []string{}}, fmt.Errorf("expiries: %w", err)
	}
	if out.ExpiryDates == nil {
		out.ExpiryDates = []string{}
	}
	return out, nil
}

// DecodeSymbols accepts a list of strings or of {symbol} objects and returns
// the trimmed, non-blank, sorted, unique symbols.
func DecodeSymbols(v any) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("symbols: expected list, got %T", v)
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		var sym string
		switch t := item.(type) {
		case string:
			sym = t
		case map[string]any:
			for _, key := range symbolAliases {
				if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
					sym = s
					break
				}
			}
		}
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

func decodeList[T any](v any, al aliases) ([]T, error) {
	if v == nil {
		return []T{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d: expected object, got %T", i, item)
		}
		var rec T
		if err := decodeRecord(m, al, &rec); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord(raw map[string]any, al aliases, out any) error {
	canonical := make(map[string]any, len(al))
	for field, names := range al {
		for _, name := range names {
			if val, ok := raw[name]; ok && val != nil {
				canonical[field] = val
				break
			}
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       numericStringHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(canonical)
}

// numericStringHook parses display-formatted numbers such as "1,234.50" or
// "-0.8%" before they reach a numeric field.
func numericStringHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64, reflect.Int32:
	default:
		return data, nil
	}
	s := strings.NewReplacer(",", "", "%", "", "₹", "").Replace(strings.TrimSpace(data.(string)))
	if s == "" || s == "-" {
		return 0.0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", data)
	}
	return f, nil
}
