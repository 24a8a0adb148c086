package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-insights/components/insights"
	"github.com/goliatone/go-insights/pkg/backend"
	"github.com/goliatone/go-insights/pkg/telemetry"
)

type globals struct {
	BackendURL string        `name:"backend-url" env:"INSIGHTS_BACKEND_URL" required:"" help:"Base URL of the reporting backend."`
	APIKey     string        `name:"api-key" env:"INSIGHTS_API_KEY" help:"Bearer token sent to the backend."`
	Timeout    time.Duration `default:"10s" env:"INSIGHTS_TIMEOUT" help:"Per-request backend timeout."`
	LogLevel   string        `name:"log-level" default:"info" env:"INSIGHTS_LOG_LEVEL" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	LogFormat  string        `name:"log-format" default:"text" env:"INSIGHTS_LOG_FORMAT" enum:"text,json" help:"Log output format."`
}

type cli struct {
	globals

	Serve  serveCmd  `cmd:"" help:"Serve the dashboard over HTTP."`
	Export exportCmd `cmd:"" help:"Run an analysis and export its table to CSV or XLSX."`
	TUI    tuiCmd    `cmd:"" name:"tui" help:"Browse analyses in the terminal."`
	Layout layoutCmd `cmd:"" help:"Manage placement manifests."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app cli
	kctx := kong.Parse(&app,
		kong.Name("insightsd"),
		kong.Description("Reporting dashboard server and tools."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&app.globals)
	kctx.FatalIfErrorf(err)
}

func (g *globals) logger() (*logrus.Logger, logrus.Level, error) {
	level, err := logrus.ParseLevel(strings.TrimSpace(g.LogLevel))
	if err != nil {
		return nil, 0, fmt.Errorf("insightsd: %w", err)
	}
	log := logrus.New()
	log.SetLevel(level)
	if g.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, level, nil
}

func (g *globals) telemetry() (*telemetry.Logger, *logrus.Logger, error) {
	log, level, err := g.logger()
	if err != nil {
		return nil, nil, err
	}
	return telemetry.NewLogger(log, level), log, nil
}

func (g *globals) gateway() (insights.Gateway, error) {
	return backend.NewHTTPGateway(backend.HTTPConfig{
		BaseURL: g.BackendURL,
		APIKey:  g.APIKey,
		Timeout: g.Timeout,
	})
}
