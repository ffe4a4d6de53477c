package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	Enabled   bool
	PerSecond float64
	Burst     int
}

// AccessLog writes one line per request after the handler chain ran.
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		status := c.Response.StatusCode()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		} else if status >= http.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// limiterSet hands out one token bucket per client IP. Idle buckets expire.
type limiterSet struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	buckets *cache.Cache
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.PerSecond) * 3
	}
	return &limiterSet{cfg: cfg, buckets: cache.New(10*time.Minute, 20*time.Minute)}
}

func (l *limiterSet) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(ip); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(ip, lim)
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.PerSecond), l.cfg.Burst)
	l.buckets.SetDefault(ip, lim)
	return lim
}

// RateLimit rejects requests beyond the per-IP budget with 429.
func RateLimit(cfg RateLimitConfig) app.HandlerFunc {
	if !cfg.Enabled {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	set := newLimiterSet(cfg)
	return func(ctx context.Context, c *app.RequestContext) {
		if !set.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Success: false, Error: "rate limit exceeded"})
			return
		}
		c.Next(ctx)
	}
}
