package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/api"
	"github.com/vanderheijden86/techtree/pkg/config"
	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/export"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/ui"
	"github.com/vanderheijden86/techtree/pkg/version"
	"github.com/vanderheijden86/techtree/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

type cliFlags struct {
	api          string
	site         string
	category     string
	graphFile    string
	offlineDB    string
	exportSVG    string
	exportPNG    string
	exportHTML   string
	exportDB     string
	title        string
	withDetails  bool
	exportWizard bool
	print        bool
	pickCategory bool
	metricsAddr  string
	configPath   string
	cpuProfile   string
}

func main() {
	var f cliFlags
	flag.StringVar(&f.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.StringVar(&f.api, "api", "", "Backend base URL (overrides "+config.EnvAPIURL+")")
	flag.StringVar(&f.site, "site", "", "Web site URL used for detail links (overrides "+config.EnvSiteURL+")")
	flag.StringVar(&f.category, "category", "", "Category to show first (empty shows all)")
	flag.StringVar(&f.graphFile, "graph-file", "", "Read the graph from a JSON file and reload it on change")
	flag.StringVar(&f.offlineDB, "offline-db", "", "Read graph and details from a SQLite snapshot")
	flag.StringVar(&f.exportSVG, "export-svg", "", "Write an SVG snapshot and exit")
	flag.StringVar(&f.exportPNG, "export-png", "", "Write a PNG snapshot and exit")
	flag.StringVar(&f.exportHTML, "export-html", "", "Write an interactive HTML graph and exit")
	flag.StringVar(&f.exportDB, "export-sqlite", "", "Write a SQLite snapshot and exit")
	flag.BoolVar(&f.withDetails, "with-details", false, "Include certification details in --export-sqlite")
	flag.BoolVar(&f.exportWizard, "export-wizard", false, "Choose an export interactively and exit")
	flag.BoolVar(&f.print, "print", false, "Print the graph once, sized to the terminal, and exit")
	flag.BoolVar(&f.pickCategory, "pick-category", false, "Choose the category before the viewer starts")
	flag.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	flag.StringVar(&f.configPath, "config", "", "Config file (default "+config.ConfigPath()+")")
	flag.StringVar(&f.title, "title", "", "Title for image and HTML exports")
	flag.Parse()

	if *help {
		fmt.Println("Usage: tt [options]")
		fmt.Println("\nA terminal viewer for the certification tech tree.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("tt %s\n", version.Version)
		os.Exit(0)
	}

	os.Exit(run(f))
}

// run returns the exit code; main exits only after its defers have run.
func run(f cliFlags) int {
	defer debug.Close()
	defer func() {
		if debug.Enabled() && metrics.Enabled() {
			debug.Log("timings:\n%s", metrics.Summary())
		}
	}()

	// CPU profiling support
	if f.cpuProfile != "" {
		pf, err := os.Create(f.cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer pf.Close()
		if err := pprof.StartCPUProfile(pf); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using defaults\n", err)
	}

	if f.metricsAddr != "" {
		srv := metrics.NewServer(f.metricsAddr)
		errCh := srv.Start()
		go func() {
			if err := <-errCh; err != nil {
				debug.Log("metrics: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	src, err := buildSources(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer src.Close()

	category := cfg.View.DefaultCategory
	if f.pickCategory {
		picked, err := export.PickCategory(src.categoryList, category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		category = picked
	}

	if f.exportWizard {
		answers, err := export.NewWizard().Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		f.applyWizard(answers)
	}

	if f.hasExports() {
		if err := runExports(f, cfg, src, category); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if f.print {
		if err := printGraph(cfg, src, category); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	m := ui.NewModel(ui.Options{
		Graph:        src.graph,
		Details:      src.details,
		Categories:   src.categories,
		CategoryList: src.categoryList,
		Category:     category,
		SiteURL:      cfg.API.SiteURL,
		MinZoom:      cfg.View.MinZoom,
		MaxZoom:      cfg.View.MaxZoom,
		FitPadding:   cfg.View.FitPadding,
		Minimap:      cfg.View.Minimap,
		Timeout:      cfg.API.Timeout,
		Watcher:      src.watcher,
	})
	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running tech tree viewer: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig resolves flags over environment over file over defaults.
func loadConfig(f cliFlags) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	cfg.ApplyEnv(os.Getenv)

	if f.api != "" {
		cfg.API.URL = f.api
	}
	if f.site != "" {
		cfg.API.SiteURL = f.site
	}
	if f.category != "" {
		cfg.View.DefaultCategory = f.category
	}
	if f.graphFile != "" {
		cfg.Data.GraphFile = f.graphFile
	}
	if f.offlineDB != "" {
		cfg.Data.OfflineDB = f.offlineDB
	}
	if f.withDetails {
		cfg.Export.WithDetails = true
	}
	cfg.Normalize()
	return cfg, err
}

// sources bundles what the viewer and the exporters read from.
type sources struct {
	graph        datasource.FallbackGraphSource
	details      datasource.FallbackDetailSource
	categories   datasource.CategorySource
	categoryList []datasource.Category
	watcher      *watcher.Watcher
	closers      []func() error
}

func (s *sources) Close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	for _, c := range s.closers {
		if err := c(); err != nil {
			debug.Log("close: %v", err)
		}
	}
}

// buildSources picks the graph source: an offline snapshot, a watched JSON
// file, or the live backend. Each is wrapped with the demo and synthesized
// fallbacks.
func buildSources(cfg config.Config) (*sources, error) {
	static := datasource.StaticCategorySource{Categories: categoriesFromConfig(cfg.Categories)}
	s := &sources{
		categoryList: static.LoadCategories(context.Background()),
		categories:   static,
	}

	switch {
	case cfg.Data.OfflineDB != "":
		db, err := datasource.OpenSQLite(cfg.Data.OfflineDB)
		if err != nil {
			return nil, fmt.Errorf("open offline snapshot: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		s.graph = datasource.WithDemoFallback(db)
		s.details = datasource.WithSynthesizedFallback(db)

	case cfg.Data.GraphFile != "":
		s.graph = datasource.WithDemoFallback(datasource.FileGraphSource{Path: cfg.Data.GraphFile})
		s.details = datasource.WithSynthesizedFallback(nil)
		w, err := watcher.New(cfg.Data.GraphFile)
		if err != nil {
			return nil, fmt.Errorf("watch graph file: %w", err)
		}
		if err := w.Start(context.Background()); err != nil {
			debug.Log("watcher: %v; live reload disabled", err)
		} else {
			s.watcher = w
		}

	default:
		client := api.NewClient(cfg.API.URL, api.WithTimeout(cfg.API.Timeout))
		s.graph = datasource.WithDemoFallback(datasource.LiveGraphSource{Client: client})
		s.details = datasource.WithSynthesizedFallback(datasource.LiveDetailSource{Client: client})
		if len(cfg.Categories) == 0 {
			s.categories = datasource.LiveCategorySource{Client: client, Static: static}
		}
	}
	return s, nil
}

func categoriesFromConfig(in []config.Category) []datasource.Category {
	if len(in) == 0 {
		return nil
	}
	out := make([]datasource.Category, 0, len(in))
	for _, c := range in {
		out = append(out, datasource.Category{Label: c.Label, Value: c.Value})
	}
	return out
}

func printGraph(cfg config.Config, src *sources, category string) error {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width, height = 100, 30
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
	defer cancel()
	load := src.graph.Resolve(ctx, category)
	return ui.PrintGraph(os.Stdout, load, ui.PrintOptions{
		Width:      width,
		Height:     height - 1,
		Category:   category,
		MinZoom:    cfg.View.MinZoom,
		MaxZoom:    cfg.View.MaxZoom,
		FitPadding: cfg.View.FitPadding,
	})
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TT_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TT_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
