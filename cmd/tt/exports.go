package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vanderheijden86/techtree/pkg/config"
	"github.com/vanderheijden86/techtree/pkg/export"
)

func (f cliFlags) hasExports() bool {
	return f.exportSVG != "" || f.exportPNG != "" || f.exportHTML != "" || f.exportDB != ""
}

// applyWizard turns wizard answers into the matching export flag.
func (f *cliFlags) applyWizard(w export.WizardConfig) {
	switch w.Format {
	case export.FormatSVG:
		f.exportSVG = w.OutputPath
	case export.FormatPNG:
		f.exportPNG = w.OutputPath
	case export.FormatHTML:
		f.exportHTML = w.OutputPath
	case export.FormatSQLite:
		f.exportDB = w.OutputPath
		f.withDetails = w.WithDetails
	}
	f.title = w.Title
}

// runExports resolves the graph once and writes every requested file.
func runExports(f cliFlags, cfg config.Config, src *sources, category string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
	load := src.graph.Resolve(ctx, category)
	cancel()
	if load.Fallback {
		fmt.Fprintf(os.Stderr, "Warning: backend unavailable (%v); exporting the demo graph\n", load.Cause)
	}
	origin := string(load.Origin)

	if f.exportSVG != "" {
		if err := export.SaveGraphSnapshot(export.GraphSnapshotOptions{
			Path: f.exportSVG, Format: "svg", Title: f.title,
			Category: category, Origin: origin, Dataset: load.Dataset,
		}); err != nil {
			return fmt.Errorf("export svg: %w", err)
		}
		fmt.Printf("Wrote %s\n", f.exportSVG)
	}
	if f.exportPNG != "" {
		if err := export.SaveGraphSnapshot(export.GraphSnapshotOptions{
			Path: f.exportPNG, Format: "png", Title: f.title,
			Category: category, Origin: origin, Dataset: load.Dataset,
		}); err != nil {
			return fmt.Errorf("export png: %w", err)
		}
		fmt.Printf("Wrote %s\n", f.exportPNG)
	}
	if f.exportHTML != "" {
		path := f.exportHTML
		if err := export.SaveInteractiveGraph(export.InteractiveGraphOptions{
			Path: path, Title: f.title,
			Category: category, Origin: origin, Dataset: load.Dataset,
		}); err != nil {
			return fmt.Errorf("export html: %w", err)
		}
		if filepath.Ext(path) == "" {
			path += ".html"
		}
		fmt.Printf("Wrote %s\n", path)
	}
	if f.exportDB != "" {
		exp := export.NewSQLiteExporter(load.Dataset, src.details)
		exp.Category = category
		exp.Origin = origin
		exp.Config.Concurrency = cfg.Export.Concurrency
		exp.Config.WithDetails = cfg.Export.WithDetails || f.withDetails

		// Detail fetches are bounded per request, not by the graph timeout.
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer dcancel()
		res, err := exp.Export(dctx, f.exportDB)
		if err != nil {
			return fmt.Errorf("export sqlite: %w", err)
		}
		fmt.Printf("Wrote %s (%d nodes, %d edges, %d details, %d synthesized) in %s\n",
			res.Path, res.Nodes, res.Edges, res.Details, res.Synthesized, res.Duration.Round(time.Millisecond))
	}
	return nil
}
