package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-insights/components/insights"
	"github.com/goliatone/go-insights/components/insights/gorouter"
	"github.com/goliatone/go-insights/components/insights/httpapi"
	"github.com/goliatone/go-insights/pkg/activity"
	"github.com/goliatone/go-insights/pkg/layoutstore"
)

type serveCmd struct {
	Addr        string        `default:":9876" env:"INSIGHTS_ADDR" help:"Listen address."`
	BasePath    string        `name:"base-path" default:"/insights" help:"Route prefix."`
	LayoutStore string        `name:"layout-store" default:"memory" enum:"memory,redis,sqlite" env:"INSIGHTS_LAYOUT_STORE" help:"Layout persistence backend."`
	RedisAddr   string        `name:"redis-addr" default:"localhost:6379" env:"INSIGHTS_REDIS_ADDR" help:"Redis address for the redis layout store."`
	SQLitePath  string        `name:"sqlite-path" default:"insights.db" type:"path" env:"INSIGHTS_SQLITE_PATH" help:"Database file for the sqlite layout store."`
	Manifest    string        `type:"existingfile" help:"Placement manifest overriding the embedded defaults."`
	IdleTimeout time.Duration `name:"idle-timeout" default:"30m" help:"Evict sessions idle for this long."`
	EvictEvery  time.Duration `name:"evict-every" default:"1m" help:"Session eviction interval."`
	ChartCache  time.Duration `name:"chart-cache" default:"5m" help:"Rendered chart cache TTL."`
	ChartTheme  string        `name:"chart-theme" help:"go-echarts theme name."`
	AssetsHost  string        `name:"assets-host" help:"Host serving the ECharts runtime."`
	NoActivity  bool          `name:"no-activity" help:"Disable navigation activity logging."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *globals) error {
	tel, log, err := g.telemetry()
	if err != nil {
		return err
	}
	gateway, err := g.gateway()
	if err != nil {
		return err
	}
	layouts, closeStore, err := cmd.openLayoutStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	defaults := insights.DefaultPlacements()
	if cmd.Manifest != "" {
		doc, err := insights.ReadPlacementManifest(cmd.Manifest)
		if err != nil {
			return err
		}
		defaults = doc.Map()
	}

	broadcaster := insights.NewBroadcaster()
	charts := insights.NewChartCache(cmd.ChartCache)
	emitter := activity.NewEmitter(activity.Hooks{tel}, activity.Config{Enabled: !cmd.NoActivity})
	hub := insights.NewHub(insights.HubOptions{
		Controller: insights.Options{
			Gateway:   gateway,
			Layouts:   layouts,
			Defaults:  defaults,
			Telemetry: tel,
			Events:    broadcaster,
			Activity:  emitter,
			Renderer: insights.NewEChartsRenderer(
				insights.WithRenderCache(charts),
				insights.WithChartTheme(cmd.ChartTheme),
				insights.WithChartAssetsHost(cmd.AssetsHost),
			),
		},
		IdleTimeout: cmd.IdleTimeout,
	})
	go hub.Run(ctx, cmd.EvictEvery)
	go purgeCharts(ctx, charts, cmd.EvictEvery, log)

	templates, err := insights.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("insightsd: templates: %w", err)
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		Hub:       hub,
		API:       httpapi.NewCommandExecutor(hub, tel),
		Reader:    httpapi.NewQueryReader(hub),
		Broadcast: broadcaster,
		Renderer:  templates,
		BasePath:  cmd.BasePath,
	}); err != nil {
		return fmt.Errorf("insightsd: register routes: %w", err)
	}

	log.WithFields(logrus.Fields{
		"addr":         cmd.Addr,
		"base_path":    cmd.BasePath,
		"layout_store": cmd.LayoutStore,
	}).Info("insights server ready")
	return server.Serve(cmd.Addr)
}

func (cmd *serveCmd) openLayoutStore(ctx context.Context) (insights.LayoutStore, func(), error) {
	switch cmd.LayoutStore {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cmd.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("insightsd: redis ping: %w", err)
		}
		store, err := layoutstore.NewRedisStore(client, "")
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil
	case "sqlite":
		store, err := layoutstore.OpenSQLite(ctx, cmd.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return insights.NewInMemoryLayoutStore(), func() {}, nil
	}
}

func purgeCharts(ctx context.Context, cache *insights.ChartCache, every time.Duration, log logrus.FieldLogger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cache.Purge(); n > 0 {
				log.WithField("purged", n).Debug("chart cache purged")
			}
		}
	}
}
