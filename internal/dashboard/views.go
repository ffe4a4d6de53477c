package dashboard

import (
	"errors"
	"time"

	"market-dashboard/internal/briefagent"
	"market-dashboard/internal/market"
	"market-dashboard/internal/session"
	"market-dashboard/internal/view"
)

const (
	TabGainers = "gainers"
	TabLosers  = "losers"

	TabOIChange = "change"
	TabOITotal  = "total"
)

var ErrUnknownTab = errors.New("unknown tab")

type HeaderView struct {
	Status    session.Status    `json:"status"`
	Live      bool              `json:"live"`
	Items     []view.TickerItem `json:"items"`
	Loading   bool              `json:"loading"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
}

type SectorsView struct {
	Sectors   []view.SectorBar `json:"sectors"`
	Selected  string           `json:"selected"`
	Focus     *view.SectorBar  `json:"focus,omitempty"`
	Live      bool             `json:"live"`
	Polling   bool             `json:"polling"`
	Loading   bool             `json:"loading"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
}

type ConstituentsView struct {
	Sector  string                `json:"sector"`
	Sort    view.TableSort        `json:"sort"`
	Rows    []view.ConstituentRow `json:"rows"`
	Loading bool                  `json:"loading"`
}

type OverviewView struct {
	Tab     string            `json:"tab"`
	Movers  []view.MoverCard  `json:"movers"`
	Breadth view.BreadthGauge `json:"breadth"`
	Loading bool              `json:"loading"`
}

type OptionsView struct {
	Selection Selection       `json:"selection"`
	Symbols   []string        `json:"symbols"`
	Expiries  []string        `json:"expiries"`
	Limits    []int           `json:"limits"`
	Tab       string          `json:"tab"`
	Stats     view.ChainStats `json:"stats"`
	Loading   bool            `json:"loading"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

func stamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Service) HeaderView() HeaderView {
	indices, ok := s.Header.indices.Get()
	return HeaderView{
		Status:    s.Status(),
		Live:      s.live.Enabled(),
		Items:     view.TickerItems(indices),
		Loading:   !ok,
		UpdatedAt: stamp(s.Header.indices.UpdatedAt()),
	}
}

// SectorsView renders the relative strength chart. An empty or unknown
// selection falls back to the strongest sector.
func (s *Service) SectorsView(selected string) SectorsView {
	sectors, ok := s.Sectors.sectors.Get()
	out := SectorsView{
		Live:      s.live.Enabled(),
		Polling:   s.gate(),
		Loading:   !ok,
		UpdatedAt: stamp(s.Sectors.sectors.UpdatedAt()),
	}
	if focus, found := view.FindSector(sectors, selected); found {
		out.Selected = focus.IndexName
	}
	out.Sectors = view.SectorBars(sectors, out.Selected)
	for i := range out.Sectors {
		if out.Sectors[i].Selected {
			f := out.Sectors[i]
			out.Focus = &f
			break
		}
	}
	return out
}

// ConstituentsView renders one sector's table. click, when set, is applied
// to the current sort as a header click.
func (s *Service) ConstituentsView(sector string, sort view.TableSort, click *view.Column) ConstituentsView {
	if sort.Column == "" {
		sort = view.DefaultTableSort()
	}
	if click != nil {
		sort = sort.Request(*click)
	}
	stocks, ok := s.Sectors.stocks.Get()
	if sector == "" {
		sectors, _ := s.Sectors.sectors.Get()
		if first, found := view.FindSector(sectors, ""); found {
			sector = first.IndexName
		}
	}
	rows := view.SortTable(view.FilterBySector(stocks, sector), sort)
	return ConstituentsView{
		Sector:  sector,
		Sort:    sort,
		Rows:    view.ConstituentRows(rows),
		Loading: !ok,
	}
}

func (s *Service) OverviewView(tab string) (OverviewView, error) {
	if tab == "" {
		tab = TabGainers
	}
	if tab != TabGainers && tab != TabLosers {
		return OverviewView{}, ErrUnknownTab
	}
	movers, moversOK := s.Overview.moversData.Get()
	breadth, breadthOK := s.Overview.breadthData.Get()
	gainers, losers := view.SplitMovers(movers)
	cards := gainers
	if tab == TabLosers {
		cards = losers
	}
	return OverviewView{
		Tab:     tab,
		Movers:  view.MoverCards(cards),
		Breadth: view.Gauge(breadth),
		Loading: !moversOK || !breadthOK,
	}, nil
}

func (s *Service) OptionsView(tab string) (OptionsView, error) {
	if tab == "" {
		tab = TabOIChange
	}
	if tab != TabOIChange && tab != TabOITotal {
		return OptionsView{}, ErrUnknownTab
	}
	chain, ok, updated := s.Options.Chain()
	return OptionsView{
		Selection: s.Options.Selection(),
		Symbols:   s.Options.Symbols(),
		Expiries:  s.Options.Expiries(),
		Limits:    view.OILimits,
		Tab:       tab,
		Stats:     view.OptionChain(chain),
		Loading:   !ok,
		UpdatedAt: stamp(updated),
	}, nil
}

// BriefInput collects the current snapshot for the market brief.
func (s *Service) BriefInput() briefagent.Input {
	breadth, _ := s.Overview.breadthData.Get()
	movers, _ := s.Overview.moversData.Get()
	sectors, _ := s.Sectors.sectors.Get()
	chain, _, _ := s.Options.Chain()

	st := view.Breadth(breadth)
	gainers, losers := view.SplitMovers(movers)
	in := briefagent.Input{
		Phase:        s.Phase().String(),
		Advances:     st.Advances,
		Declines:     st.Declines,
		BreadthRatio: view.Round2(st.Ratio),
		PCR:          view.OptionChain(chain).PCR,
		PCRSymbol:    s.Options.Selection().Symbol,
		Gainers:      briefMovers(gainers),
		Losers:       briefMovers(losers),
	}
	if len(sectors) > 0 {
		in.TopSector = sectors[0].IndexName
		in.BottomSector = sectors[len(sectors)-1].IndexName
	}
	return in
}

func briefMovers(in []market.StockConstituent) []briefagent.Mover {
	out := make([]briefagent.Mover, 0, len(in))
	for _, s := range in {
		out = append(out, briefagent.Mover{Symbol: s.Symbol, ChangePercent: s.ChangePercent})
	}
	return out
}
