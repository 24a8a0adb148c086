package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-insights/components/insights"
)

type layoutCmd struct {
	Init  layoutInitCmd  `cmd:"" help:"Write the embedded default placements to a manifest file."`
	Set   layoutSetCmd   `cmd:"" help:"Add or replace one widget placement in a manifest."`
	Check layoutCheckCmd `cmd:"" help:"Validate a manifest against the layout schema."`
}

type layoutInitCmd struct {
	Path      string `arg:"" type:"path" help:"Manifest file to create."`
	Overwrite bool   `help:"Replace an existing file."`
}

func (cmd *layoutInitCmd) Run() error {
	if _, err := os.Stat(cmd.Path); err == nil && !cmd.Overwrite {
		return fmt.Errorf("insightsd: manifest %s already exists (use --overwrite to replace)", cmd.Path)
	}
	doc, err := insights.DefaultManifest()
	if err != nil {
		return err
	}
	if err := writeManifest(cmd.Path, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Wrote %d placements to %s\n", len(doc.Placements), cmd.Path)
	return nil
}

type layoutSetCmd struct {
	Path string `arg:"" type:"path" help:"Manifest file to update (created from the defaults when missing)."`
	ID   string `required:"" help:"Widget id (normalized to camelCase, e.g. main-chart-1 becomes mainChart1)."`
	X    int    `help:"Grid column."`
	Y    int    `help:"Grid row."`
	W    int    `default:"6" help:"Width in grid columns."`
	H    int    `default:"5" help:"Height in grid rows."`
}

func (cmd *layoutSetCmd) Run() error {
	doc, err := loadOrInitManifest(cmd.Path)
	if err != nil {
		return err
	}
	placement := insights.ClampPlacements([]insights.WidgetPlacement{{
		ID: strcase.ToCamel(strings.TrimSpace(cmd.ID)),
		X:  cmd.X,
		Y:  cmd.Y,
		W:  cmd.W,
		H:  cmd.H,
	}})[0]
	if placement.ID == "" {
		return errors.New("insightsd: widget id is required")
	}

	replaced := false
	for idx := range doc.Placements {
		if doc.Placements[idx].ID == placement.ID {
			doc.Placements[idx] = placement
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Placements = append(doc.Placements, placement)
	}
	sort.SliceStable(doc.Placements, func(i, j int) bool {
		a, b := doc.Placements[i], doc.Placements[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	if err := insights.NewSchemaLayoutValidator().ValidateLayout(doc.Placements); err != nil {
		return err
	}
	if err := writeManifest(cmd.Path, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Set %s in %s\n", placement.ID, cmd.Path)
	return nil
}

type layoutCheckCmd struct {
	Path string `arg:"" type:"existingfile" help:"Manifest file to validate."`
}

func (cmd *layoutCheckCmd) Run() error {
	doc, err := insights.ReadPlacementManifest(cmd.Path)
	if err != nil {
		return err
	}
	if err := insights.NewSchemaLayoutValidator().ValidateLayout(doc.Placements); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %s: %d placements\n", cmd.Path, len(doc.Placements))
	return nil
}

func loadOrInitManifest(path string) (*insights.PlacementManifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return insights.DefaultManifest()
		}
		return nil, fmt.Errorf("insightsd: stat manifest: %w", err)
	}
	return insights.ReadPlacementManifest(path)
}

func writeManifest(path string, doc *insights.PlacementManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("insightsd: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("insightsd: create manifest %s: %w", path, err)
	}
	defer file.Close()
	return insights.WritePlacementManifest(file, doc)
}
