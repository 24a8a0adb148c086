package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-insights/components/insights"
)

type exportCmd struct {
	Analysis string            `arg:"" help:"Analysis name (e.g. sellers, contas_a_receber)."`
	Param    map[string]string `short:"p" help:"Analysis filters as field=value (year, month, city, start_date, ...)."`
	Tab      string            `help:"Pane of a tabbed analysis (e.g. preditiva)."`
	Full     bool              `help:"Export every row instead of the first page."`
	Format   string            `default:"csv" enum:"csv,xlsx" help:"Output format."`
	Out      string            `short:"o" type:"path" help:"Output file (defaults to <analysis>_export.<format>)."`
}

func (cmd *exportCmd) Run(ctx context.Context, g *globals) error {
	tel, _, err := g.telemetry()
	if err != nil {
		return err
	}
	gateway, err := g.gateway()
	if err != nil {
		return err
	}
	params, err := parseParams(cmd.Param)
	if err != nil {
		return err
	}
	controller := insights.NewController(insights.Options{Gateway: gateway, Telemetry: tel})
	defer controller.Close()

	if _, err := controller.RunAnalysisTab(ctx, cmd.Analysis, cmd.Tab, params); err != nil {
		return err
	}
	if cmd.Full {
		if _, err := controller.FullView(ctx, cmd.Analysis); err != nil {
			return err
		}
	}
	view := controller.Snapshot()
	if view.Analysis != nil && view.Analysis.Error != "" {
		return fmt.Errorf("insightsd: %s: %s", cmd.Analysis, view.Analysis.Error)
	}
	table, err := controller.ExportTable("analysis")
	if err != nil {
		return err
	}

	path := cmd.Out
	if path == "" {
		path = insights.ExportFilename(table.Name, cmd.Format)
	}
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("insightsd: create %s: %w", path, err)
	}
	defer f.Close()
	if cmd.Format == "xlsx" {
		err = insights.WriteXLSX(f, table)
	} else {
		err = insights.WriteCSV(f, table)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Exported %d rows to %s\n", len(table.Rows), path)
	return nil
}

func parseParams(raw map[string]string) (map[insights.FilterField]string, error) {
	params := make(map[insights.FilterField]string, len(raw))
	for key, value := range raw {
		field, err := insights.ParseFilterField(key)
		if err != nil {
			return nil, err
		}
		params[field] = strings.TrimSpace(value)
	}
	return params, nil
}
