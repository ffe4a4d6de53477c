package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"market-dashboard/internal/api"
	"market-dashboard/internal/briefagent"
	"market-dashboard/internal/config"
	"market-dashboard/internal/dashboard"
	"market-dashboard/internal/live"
	"market-dashboard/internal/logging"
	"market-dashboard/internal/session"
	"market-dashboard/internal/store"
	"market-dashboard/internal/upstream"
)

type preferenceStore interface {
	live.Persister
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	cfg, err := config.Load("configs/app.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store error")
	}

	hours, err := session.NewHours(cfg.Market.Timezone, cfg.Market.PreOpenAt, cfg.Market.OpenAt, cfg.Market.CloseAt)
	if err != nil {
		log.Fatal().Err(err).Msg("market hours error")
	}

	ls := live.New(ctx, st)
	client := upstream.New(cfg.Upstream.BaseURL, time.Duration(cfg.Upstream.TimeoutMs)*time.Millisecond)
	sec := func(v int) time.Duration { return time.Duration(v) * time.Second }
	svc := dashboard.NewService(client, ls, session.NewEvaluator(hours, time.Now), dashboard.Config{
		IndicesInterval:     sec(cfg.Polling.IndicesSec),
		SectorsInterval:     sec(cfg.Polling.SectorsSec),
		TopMoversInterval:   sec(cfg.Polling.TopMoversSec),
		BreadthInterval:     sec(cfg.Polling.BreadthSec),
		OptionsInterval:     sec(cfg.Polling.OptionsSec),
		StatusCheckInterval: sec(cfg.Market.StatusCheckSec),
		OptionsExchange:     cfg.Polling.OptionsExchange,
		OptionsLimit:        cfg.Polling.OptionsLimit,
	})
	svc.Start(ctx)

	agent := briefagent.New(briefagent.Config{
		Enabled:    cfg.BriefAgent.Enabled,
		Model:      cfg.BriefAgent.Model,
		APIKey:     cfg.BriefAgent.APIKey,
		BaseURL:    cfg.BriefAgent.BaseURL,
		ByAzure:    cfg.BriefAgent.ByAzure,
		APIVersion: cfg.BriefAgent.APIVersion,
		TimeoutMs:  cfg.BriefAgent.TimeoutMs,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(server.WithHostPorts(addr))
	api.RegisterRoutes(h, svc, agent, api.RateLimitConfig{
		Enabled:   cfg.RateLimit.Enabled,
		PerSecond: cfg.RateLimit.PerSecond,
		Burst:     cfg.RateLimit.Burst,
	})

	h.OnShutdown = append(h.OnShutdown, func(context.Context) {
		cancel()
		svc.Close()
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("store close error")
		}
		log.Info().Msg("dashboard stopped")
	})

	log.Info().
		Str("addr", addr).
		Str("upstream", cfg.Upstream.BaseURL).
		Str("store", cfg.Store.Driver).
		Str("phase", svc.Phase().String()).
		Bool("live", ls.Enabled()).
		Bool("brief_llm", agent.Enabled()).
		Msg("server starting")
	h.Spin()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (preferenceStore, error) {
	if cfg.Driver == "redis" {
		return store.OpenRedis(ctx, cfg.Redis.URL, cfg.Redis.KeyPrefix)
	}
	return store.Open(cfg.Sqlite.Path)
}
