package dashboard

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"market-dashboard/internal/market"
	"market-dashboard/internal/poller"
	"market-dashboard/internal/view"
)

var (
	ErrInvalidLimit  = errors.New("limit must be one of 5, 10, 15, 20, 25, 30, 50")
	ErrUnknownSymbol = errors.New("unknown option symbol")
	ErrUnknownExpiry = errors.New("expiry not listed for symbol")
)

// Selection is what the options chain is fetched for.
type Selection struct {
	Symbol string `json:"symbol"`
	Expiry string `json:"expiry"`
	Limit  int    `json:"limit"`
}

func (s Selection) complete() bool {
	return s.Symbol != "" && s.Expiry != ""
}

// OptionsPage loads the symbol list and expiries once on mount, then polls
// the open interest chain for the current selection.
type OptionsPage struct {
	src      Source
	exchange string
	expiries *cache.Cache

	// reconfig serializes the mount bootstrap and Select.
	reconfig sync.Mutex

	mu      sync.RWMutex
	base    context.Context
	sel     Selection
	symbols []string
	dates   []string

	poller *poller.Poller
	chain  poller.Slot[*market.OptionChain]
	boot   sync.WaitGroup
}

func newOptionsPage(src Source, cfg Config, expiries *cache.Cache, gate func() bool) *OptionsPage {
	p := &OptionsPage{
		src:      src,
		exchange: cfg.OptionsExchange,
		expiries: expiries,
		sel:      Selection{Limit: cfg.OptionsLimit},
		symbols:  []string{},
		dates:    []string{},
	}
	p.poller = &poller.Poller{Name: "open_interest", Interval: cfg.OptionsInterval, Gate: gate, Fetch: p.fetchChain}
	return p
}

func (p *OptionsPage) mount(ctx context.Context) {
	p.mu.Lock()
	p.base = ctx
	p.mu.Unlock()

	p.boot.Add(1)
	go func() {
		defer p.boot.Done()
		p.bootstrap(ctx)
	}()
}

func (p *OptionsPage) unmount() {
	p.boot.Wait()
	p.poller.Stop()
}

func (p *OptionsPage) chainPoller() *poller.Poller {
	return p.poller
}

func (p *OptionsPage) bootstrap(ctx context.Context) {
	p.reconfig.Lock()
	defer p.reconfig.Unlock()

	res := p.src.OptionSymbols(ctx)
	symbols := res.Data
	p.mu.Lock()
	if res.Success {
		p.symbols = symbols
	}
	sel := p.sel
	if sel.Symbol == "" {
		sel.Symbol = view.DefaultSymbol(p.symbols)
	}
	p.mu.Unlock()

	dates := p.Expiries()
	if sel.Symbol != "" && sel.Expiry == "" {
		dates = p.expiriesFor(ctx, sel.Symbol)
		sel.Expiry = view.DefaultExpiry(dates)
	}
	if ctx.Err() != nil {
		return
	}
	p.apply(sel, dates)
}

// Select changes the symbol, expiry or strike limit. Zero fields keep the
// current value. A new symbol reloads its expiries and picks the first one
// unless an expiry is given. Any change restarts the chain poller, which
// fetches once immediately.
func (p *OptionsPage) Select(ctx context.Context, req Selection) (Selection, error) {
	p.reconfig.Lock()
	defer p.reconfig.Unlock()

	cur := p.Selection()
	next := cur
	dates := p.Expiries()

	if req.Limit != 0 {
		if !view.ValidOILimit(req.Limit) {
			return cur, ErrInvalidLimit
		}
		next.Limit = req.Limit
	}

	if sym := strings.ToUpper(strings.TrimSpace(req.Symbol)); sym != "" && sym != cur.Symbol {
		if known := p.Symbols(); len(known) > 0 && !slices.Contains(known, sym) {
			return cur, ErrUnknownSymbol
		}
		next.Symbol = sym
		dates = p.expiriesFor(ctx, sym)
		next.Expiry = view.DefaultExpiry(dates)
	}

	if exp := strings.TrimSpace(req.Expiry); exp != "" {
		if !slices.Contains(dates, exp) {
			return cur, ErrUnknownExpiry
		}
		next.Expiry = exp
	}

	if next == cur {
		return cur, nil
	}
	p.apply(next, dates)
	return next, nil
}

// apply commits a selection together with the expiry list it was validated
// against.
func (p *OptionsPage) apply(sel Selection, dates []string) {
	p.mu.Lock()
	p.sel = sel
	p.dates = dates
	base := p.base
	p.mu.Unlock()

	p.chain.Reset()
	p.poller.Stop()
	if base == nil || base.Err() != nil {
		return
	}
	log.Info().Str("symbol", sel.Symbol).Str("expiry", sel.Expiry).Int("limit", sel.Limit).Msg("options selection applied")
	p.poller.Start(base)
}

// expiriesFor returns the expiry dates for symbol without touching the
// current selection. Successful lookups are cached per symbol and exchange.
func (p *OptionsPage) expiriesFor(ctx context.Context, symbol string) []string {
	key := symbol + "|" + p.exchange
	if cached, ok := p.expiries.Get(key); ok {
		return cached.([]string)
	}
	res := p.src.OptionExpiries(ctx, symbol, p.exchange)
	dates := res.Data.ExpiryDates
	if dates == nil {
		dates = []string{}
	}
	if res.Success {
		p.expiries.Set(key, dates, cache.DefaultExpiration)
	}
	return dates
}

func (p *OptionsPage) fetchChain(ctx context.Context) {
	sel := p.Selection()
	if !sel.complete() {
		return
	}
	load(ctx, &p.chain, func(ctx context.Context) (*market.OptionChain, bool) {
		r := p.src.OpenInterest(ctx, sel.Symbol, sel.Expiry, sel.Limit)
		return r.Data, r.Success
	}, identity[*market.OptionChain])
}

func (p *OptionsPage) Selection() Selection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sel
}

func (p *OptionsPage) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.symbols)
}

func (p *OptionsPage) Expiries() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.dates)
}

// Chain returns the last chain applied for the current selection.
func (p *OptionsPage) Chain() (*market.OptionChain, bool, time.Time) {
	c, ok := p.chain.Get()
	return c, ok, p.chain.UpdatedAt()
}
