package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"market-dashboard/internal/session"
	"market-dashboard/internal/store"
)

// PreferenceKey is the persisted key holding the live flag as a JSON boolean.
const PreferenceKey = "isLive"

type Persister interface {
	LoadPreference(ctx context.Context, key string) (string, error)
	SavePreference(ctx context.Context, key, value string) error
}

// Store owns the live/pause switch. Writers are Toggle/Set (user) and
// Enforce (market close); every change is persisted and published.
type Store struct {
	persist Persister

	// writeMu orders writers so saves land in the same order as changes.
	writeMu sync.Mutex

	mu     sync.RWMutex
	live   bool
	nextID int
	subs   map[int]chan bool
}

func New(ctx context.Context, p Persister) *Store {
	s := &Store{
		persist: p,
		live:    true,
		subs:    make(map[int]chan bool),
	}
	if p == nil {
		return s
	}
	raw, err := p.LoadPreference(ctx, PreferenceKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Msg("live preference load failed, defaulting to live")
		}
		return s
	}
	var v bool
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Warn().Str("raw", raw).Msg("live preference unparsable, defaulting to live")
		return s
	}
	s.live = v
	return s
}

func (s *Store) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func (s *Store) Toggle(ctx context.Context) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	v := !s.live
	subs := s.applyLocked(v)
	s.mu.Unlock()

	s.publish(ctx, v, subs)
	return v
}

func (s *Store) Set(ctx context.Context, v bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.live == v {
		s.mu.Unlock()
		return
	}
	subs := s.applyLocked(v)
	s.mu.Unlock()

	s.publish(ctx, v, subs)
}

func (s *Store) applyLocked(v bool) []chan bool {
	s.live = v
	subs := make([]chan bool, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	return subs
}

func (s *Store) publish(ctx context.Context, v bool, subs []chan bool) {
	s.save(ctx, v)
	for _, ch := range subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// drop the unread value so the subscriber sees the newest one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Enforce switches live mode off when the market is closed. It never turns
// live mode back on; reopening requires a user toggle.
func (s *Store) Enforce(ctx context.Context, phase session.Phase) bool {
	if phase != session.Closed || !s.Enabled() {
		return false
	}
	log.Info().Msg("market closed, live mode forced off")
	s.Set(ctx, false)
	return true
}

// Subscribe returns a channel carrying the latest live value after each change.
// The channel has a buffer of one and only ever holds the newest value.
func (s *Store) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) save(ctx context.Context, v bool) {
	if s.persist == nil {
		return
	}
	raw, _ := json.Marshal(v)
	if err := s.persist.SavePreference(ctx, PreferenceKey, string(raw)); err != nil {
		log.Error().Err(err).Bool("live", v).Msg("live preference save failed")
	}
}
