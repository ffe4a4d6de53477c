package view

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"market-dashboard/internal/market"
)

type Column string

const (
	ColumnSymbol        Column = "symbol"
	ColumnLastPrice     Column = "lastPrice"
	ColumnChange        Column = "change"
	ColumnChangePercent Column = "changePercent"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// TableSort is the constituent table's sort state.
type TableSort struct {
	Column    Column    `json:"column"`
	Direction Direction `json:"direction"`
}

func DefaultTableSort() TableSort {
	return TableSort{Column: ColumnChangePercent, Direction: Desc}
}

// ParseColumn accepts the canonical names plus the "changePer" wire alias.
func ParseColumn(s string) (Column, error) {
	switch strings.TrimSpace(s) {
	case "symbol":
		return ColumnSymbol, nil
	case "lastPrice", "price":
		return ColumnLastPrice, nil
	case "change":
		return ColumnChange, nil
	case "changePercent", "changePer":
		return ColumnChangePercent, nil
	}
	return "", fmt.Errorf("unknown sort column %q", s)
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Request is a header click: a new column sorts descending, the current
// column flips direction.
func (t TableSort) Request(col Column) TableSort {
	if t.Column == col {
		if t.Direction == Desc {
			return TableSort{Column: col, Direction: Asc}
		}
		return TableSort{Column: col, Direction: Desc}
	}
	return TableSort{Column: col, Direction: Desc}
}

// SortTable returns a sorted copy. Numeric columns compare as numbers,
// the symbol column case-insensitively.
func SortTable(rows []market.StockConstituent, t TableSort) []market.StockConstituent {
	out := slices.Clone(rows)
	compare := func(a, b market.StockConstituent) int {
		switch t.Column {
		case ColumnSymbol:
			return strings.Compare(strings.ToLower(a.Symbol), strings.ToLower(b.Symbol))
		case ColumnLastPrice:
			return compareFloat(a.LastPrice, b.LastPrice)
		case ColumnChange:
			return compareFloat(a.Change, b.Change)
		default:
			return compareFloat(a.ChangePercent, b.ChangePercent)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if t.Direction == Asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
