package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/rs/zerolog/log"

	"market-dashboard/internal/briefagent"
	"market-dashboard/internal/dashboard"
	"market-dashboard/internal/session"
	"market-dashboard/internal/view"
)

// Response is the envelope of every /api/v1 answer.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SetLiveRequest struct {
	Live *bool `json:"live"`
}

type SelectionRequest struct {
	Symbol string `json:"symbol"`
	Expiry string `json:"expiry"`
	Limit  int    `json:"limit"`
}

func ok(c *app.RequestContext, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func fail(c *app.RequestContext, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

func RegisterRoutes(h *server.Hertz, svc *dashboard.Service, agent *briefagent.Agent, rl RateLimitConfig) {
	h.Use(AccessLog())

	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(200, map[string]bool{"ok": true})
	})

	v1 := h.Group("/api/v1", RateLimit(rl))

	v1.GET("/status", func(_ context.Context, c *app.RequestContext) {
		hours := svc.Clock().Hours()
		ok(c, map[string]any{
			"status": svc.Status(),
			"live":   svc.Live().Enabled(),
			"now":    svc.Clock().Now().Format("2006-01-02T15:04:05Z07:00"),
			"hours": map[string]string{
				"pre_open": clock(hours.PreOpenAt),
				"open":     clock(hours.OpenAt),
				"close":    clock(hours.CloseAt),
			},
		})
	})

	v1.POST("/status/refresh", func(ctx context.Context, c *app.RequestContext) {
		phase := svc.RefreshPhase(ctx)
		ok(c, map[string]any{
			"status": session.StatusFor(phase),
			"live":   svc.Live().Enabled(),
		})
	})

	v1.GET("/live", func(_ context.Context, c *app.RequestContext) {
		ok(c, map[string]bool{"live": svc.Live().Enabled()})
	})

	v1.POST("/live/toggle", func(ctx context.Context, c *app.RequestContext) {
		v := svc.Live().Toggle(ctx)
		log.Info().Bool("live", v).Msg("live toggled")
		ok(c, map[string]bool{"live": v})
	})

	v1.PUT("/live", func(ctx context.Context, c *app.RequestContext) {
		var req SetLiveRequest
		if err := c.BindJSON(&req); err != nil || req.Live == nil {
			fail(c, http.StatusBadRequest, "body must be {\"live\": true|false}")
			return
		}
		svc.Live().Set(ctx, *req.Live)
		ok(c, map[string]bool{"live": svc.Live().Enabled()})
	})

	v1.GET("/views/header", func(_ context.Context, c *app.RequestContext) {
		ok(c, svc.HeaderView())
	})

	v1.GET("/views/sectors", func(_ context.Context, c *app.RequestContext) {
		ok(c, svc.SectorsView(strings.TrimSpace(c.Query("sector"))))
	})

	v1.GET("/views/constituents", func(_ context.Context, c *app.RequestContext) {
		ts, click, err := parseTableSort(c.Query("sort"), c.Query("dir"), c.Query("click"))
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		ok(c, svc.ConstituentsView(strings.TrimSpace(c.Query("sector")), ts, click))
	})

	v1.GET("/views/overview", func(_ context.Context, c *app.RequestContext) {
		out, err := svc.OverviewView(strings.ToLower(c.Query("tab")))
		if err != nil {
			fail(c, http.StatusBadRequest, "tab must be gainers or losers")
			return
		}
		ok(c, out)
	})

	v1.GET("/views/options", func(_ context.Context, c *app.RequestContext) {
		out, err := svc.OptionsView(strings.ToLower(c.Query("tab")))
		if err != nil {
			fail(c, http.StatusBadRequest, "tab must be change or total")
			return
		}
		ok(c, out)
	})

	v1.GET("/options/symbols", func(_ context.Context, c *app.RequestContext) {
		ok(c, map[string]any{
			"symbols":  svc.Options.Symbols(),
			"selected": svc.Options.Selection().Symbol,
		})
	})

	v1.GET("/options/expiries", func(_ context.Context, c *app.RequestContext) {
		sel := svc.Options.Selection()
		ok(c, map[string]any{
			"symbol":      sel.Symbol,
			"expiryDates": svc.Options.Expiries(),
			"selected":    sel.Expiry,
		})
	})

	v1.PUT("/options/selection", func(ctx context.Context, c *app.RequestContext) {
		var req SelectionRequest
		if err := c.BindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid json body")
			return
		}
		sel, err := svc.Options.Select(ctx, dashboard.Selection{Symbol: req.Symbol, Expiry: req.Expiry, Limit: req.Limit})
		if err != nil {
			if errors.Is(err, dashboard.ErrInvalidLimit) || errors.Is(err, dashboard.ErrUnknownSymbol) || errors.Is(err, dashboard.ErrUnknownExpiry) {
				fail(c, http.StatusBadRequest, err.Error())
				return
			}
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		ok(c, sel)
	})

	v1.GET("/views/brief", func(ctx context.Context, c *app.RequestContext) {
		brief, err := agent.Evaluate(ctx, svc.BriefInput())
		resp := Response{Success: true, Data: brief}
		if err != nil {
			resp.Error = "llm unavailable, rule based brief returned"
		}
		c.JSON(http.StatusOK, resp)
	})

	v1.POST("/brief/ping", func(ctx context.Context, c *app.RequestContext) {
		res, err := agent.Ping(ctx)
		resp := Response{Success: true, Data: res}
		if err != nil {
			resp.Error = err.Error()
		}
		c.JSON(http.StatusOK, resp)
	})
}

// parseTableSort reads the current sort state and an optional header click.
func parseTableSort(rawSort, rawDir, rawClick string) (view.TableSort, *view.Column, error) {
	ts := view.DefaultTableSort()
	if rawSort != "" {
		col, err := view.ParseColumn(rawSort)
		if err != nil {
			return ts, nil, err
		}
		ts.Column = col
	}
	if rawDir != "" {
		dir, err := view.ParseDirection(rawDir)
		if err != nil {
			return ts, nil, err
		}
		ts.Direction = dir
	}
	if rawClick == "" {
		return ts, nil, nil
	}
	col, err := view.ParseColumn(rawClick)
	if err != nil {
		return ts, nil, err
	}
	return ts, &col, nil
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
