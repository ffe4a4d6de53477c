package dashboard

import (
	"context"
	"sync"
	"time"

	"market-dashboard/internal/market"
	"market-dashboard/internal/poller"
	"market-dashboard/internal/view"
)

// load runs one sequenced fetch into slot. Failed fetches leave the slot
// untouched so the last good value keeps rendering.
func load[T, V any](ctx context.Context, slot *poller.Slot[V], fetch func(context.Context) (T, bool), apply func(T) V) {
	seq := slot.Begin()
	data, ok := fetch(ctx)
	if !ok || ctx.Err() != nil {
		return
	}
	slot.Apply(seq, apply(data))
}

func identity[T any](v T) T { return v }

// HeaderPage polls index quotes for the ticker strip.
type HeaderPage struct {
	src     Source
	poller  *poller.Poller
	indices poller.Slot[[]market.IndexQuote]
}

func newHeaderPage(src Source, every time.Duration, gate func() bool) *HeaderPage {
	p := &HeaderPage{src: src}
	p.poller = &poller.Poller{Name: "indices", Interval: every, Gate: gate, Fetch: p.fetch}
	return p
}

func (p *HeaderPage) fetch(ctx context.Context) {
	load(ctx, &p.indices, func(ctx context.Context) ([]market.IndexQuote, bool) {
		r := p.src.Indices(ctx)
		return r.Data, r.Success
	}, view.RankIndices)
}

func (p *HeaderPage) mount(ctx context.Context) { p.poller.Start(ctx) }
func (p *HeaderPage) unmount() { p.poller.Stop() }

// SectorsPage polls sector performance and constituents together.
type SectorsPage struct {
	src     Source
	poller  *poller.Poller
	sectors poller.Slot[[]market.SectorPerformance]
	stocks  poller.Slot[[]market.StockConstituent]
}

func newSectorsPage(src Source, every time.Duration, gate func() bool) *SectorsPage {
	p := &SectorsPage{src: src}
	p.poller = &poller.Poller{Name: "sectors", Interval: every, Gate: gate, Fetch: p.fetch}
	return p
}

func (p *SectorsPage) fetch(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		load(ctx, &p.sectors, func(ctx context.Context) ([]market.SectorPerformance, bool) {
			r := p.src.SectorPerformance(ctx)
			return r.Data, r.Success
		}, view.SortSectors)
	}()
	go func() {
		defer wg.Done()
		load(ctx, &p.stocks, func(ctx context.Context) ([]market.StockConstituent, bool) {
			r := p.src.SectorConstituents(ctx)
			return r.Data, r.Success
		}, view.DedupConstituents)
	}()
	wg.Wait()
}

func (p *SectorsPage) mount(ctx context.Context) { p.poller.Start(ctx) }
func (p *SectorsPage) unmount() { p.poller.Stop() }

// OverviewPage polls top movers and market breadth on separate cadences.
type OverviewPage struct {
	src     Source
	movers  *poller.Poller
	breadth *poller.Poller

	moversData  poller.Slot[[]market.StockConstituent]
	breadthData poller.Slot[market.MarketBreadth]
}

func newOverviewPage(src Source, moversEvery, breadthEvery time.Duration, gate func() bool) *OverviewPage {
	p := &OverviewPage{src: src}
	p.movers = &poller.Poller{Name: "top_movers", Interval: moversEvery, Gate: gate, Fetch: p.fetchMovers}
	p.breadth = &poller.Poller{Name: "market_breadth", Interval: breadthEvery, Gate: gate, Fetch: p.fetchBreadth}
	return p
}

func (p *OverviewPage) fetchMovers(ctx context.Context) {
	load(ctx, &p.moversData, func(ctx context.Context) ([]market.StockConstituent, bool) {
		r := p.src.TopMovers(ctx)
		return r.Data, r.Success
	}, identity[[]market.StockConstituent])
}

func (p *OverviewPage) fetchBreadth(ctx context.Context) {
	load(ctx, &p.breadthData, func(ctx context.Context) (market.MarketBreadth, bool) {
		r := p.src.MarketBreadth(ctx)
		return r.Data, r.Success
	}, identity[market.MarketBreadth])
}

func (p *OverviewPage) mount(ctx context.Context) {
	p.movers.Start(ctx)
	p.breadth.Start(ctx)
}

func (p *OverviewPage) unmount() {
	p.movers.Stop()
	p.breadth.Stop()
}
