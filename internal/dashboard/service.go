package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"market-dashboard/internal/live"
	"market-dashboard/internal/market"
	"market-dashboard/internal/poller"
	"market-dashboard/internal/session"
	"market-dashboard/internal/upstream"
)

// Source is the upstream data API. *upstream.Client implements it.
type Source interface {
	Indices(ctx context.Context) upstream.Result[[]market.IndexQuote]
	SectorPerformance(ctx context.Context) upstream.Result[[]market.SectorPerformance]
	SectorConstituents(ctx context.Context) upstream.Result[[]market.StockConstituent]
	TopMovers(ctx context.Context) upstream.Result[[]market.StockConstituent]
	MarketBreadth(ctx context.Context) upstream.Result[market.MarketBreadth]
	OptionSymbols(ctx context.Context) upstream.Result[[]string]
	OptionExpiries(ctx context.Context, symbol, exchange string) upstream.Result[market.OptionExpiries]
	OpenInterest(ctx context.Context, symbol, expiry string, limit int) upstream.Result[*market.OptionChain]
}

type Config struct {
	IndicesInterval     time.Duration
	SectorsInterval     time.Duration
	TopMoversInterval   time.Duration
	BreadthInterval     time.Duration
	OptionsInterval     time.Duration
	StatusCheckInterval time.Duration
	OptionsExchange     string
	OptionsLimit        int
	ExpiryCacheTTL      time.Duration
}

func (c Config) withDefaults() Config {
	def := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	def(&c.IndicesInterval, 5*time.Second)
	def(&c.SectorsInterval, 15*time.Second)
	def(&c.TopMoversInterval, 10*time.Second)
	def(&c.BreadthInterval, 15*time.Second)
	def(&c.OptionsInterval, 60*time.Second)
	def(&c.StatusCheckInterval, 60*time.Second)
	def(&c.ExpiryCacheTTL, 5*time.Minute)
	if c.OptionsExchange == "" {
		c.OptionsExchange = upstream.DefaultExchange
	}
	if c.OptionsLimit <= 0 {
		c.OptionsLimit = upstream.DefaultOILimit
	}
	return c
}

// Service mounts the dashboard pages and keeps their pollers in step with
// the live switch and the market phase.
type Service struct {
	cfg   Config
	src   Source
	live  *live.Store
	clock *session.Evaluator

	Header   *HeaderPage
	Sectors  *SectorsPage
	Overview *OverviewPage
	Options  *OptionsPage

	phaseMu sync.RWMutex
	phase   session.Phase

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewService(src Source, ls *live.Store, clock *session.Evaluator, cfg Config) *Service {
	cfg = cfg.withDefaults()
	s := &Service{
		cfg:   cfg,
		src:   src,
		live:  ls,
		clock: clock,
		phase: clock.Phase(),
	}
	s.Header = newHeaderPage(src, cfg.IndicesInterval, s.gate)
	s.Sectors = newSectorsPage(src, cfg.SectorsInterval, s.gate)
	s.Overview = newOverviewPage(src, cfg.TopMoversInterval, cfg.BreadthInterval, s.gate)
	s.Options = newOptionsPage(src, cfg, cache.New(cfg.ExpiryCacheTTL, 2*cfg.ExpiryCacheTTL), s.gate)
	return s
}

// Start enforces the current phase, mounts every page and starts the
// phase watcher. It returns immediately; fetches run in the background.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.refreshPhase(ctx)

	s.Header.mount(ctx)
	s.Sectors.mount(ctx)
	s.Overview.mount(ctx)
	s.Options.mount(ctx)

	liveCh, unsubscribe := s.live.Subscribe()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.watch(ctx, liveCh)
	}()
	log.Info().Str("phase", s.Phase().String()).Bool("live", s.live.Enabled()).Msg("dashboard started")
}

// Close unmounts every page and waits for all background work to end.
func (s *Service) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.started = false
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.Options.unmount()
	s.Overview.unmount()
	s.Sectors.unmount()
	s.Header.unmount()
	log.Info().Msg("dashboard stopped")
}

func (s *Service) Phase() session.Phase {
	s.phaseMu.RLock()
	defer s.phaseMu.RUnlock()
	return s.phase
}

func (s *Service) Status() session.Status {
	return session.StatusFor(s.Phase())
}

func (s *Service) Live() *live.Store {
	return s.live
}

func (s *Service) Clock() *session.Evaluator {
	return s.clock
}

// gate is shared by every poller: fetch on the ticker only while live and
// the market is open.
func (s *Service) gate() bool {
	return s.live.Enabled() && s.Phase() == session.Open
}

func (s *Service) watch(ctx context.Context, liveCh <-chan bool) {
	ticker := time.NewTicker(s.cfg.StatusCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshPhase(ctx)
		case v := <-liveCh:
			log.Debug().Bool("live", v).Msg("live switch changed")
			s.notifyAll()
		}
	}
}

// refreshPhase recomputes the phase from the clock, forces live mode off
// while closed and wakes the pollers when the phase moved.
func (s *Service) refreshPhase(ctx context.Context) {
	p := s.clock.Phase()
	s.phaseMu.Lock()
	prev := s.phase
	s.phase = p
	s.phaseMu.Unlock()

	s.live.Enforce(ctx, p)
	if p != prev {
		log.Info().Str("from", prev.String()).Str("to", p.String()).Msg("market phase changed")
		s.notifyAll()
	}
}

// RefreshPhase runs one status check immediately.
func (s *Service) RefreshPhase(ctx context.Context) session.Phase {
	s.refreshPhase(ctx)
	return s.Phase()
}

func (s *Service) notifyAll() {
	for _, p := range s.pollers() {
		p.Notify()
	}
}

func (s *Service) pollers() []*poller.Poller {
	out := []*poller.Poller{s.Header.poller, s.Sectors.poller, s.Overview.movers, s.Overview.breadth}
	return append(out, s.Options.chainPoller())
}
