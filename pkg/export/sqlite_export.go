// Package export writes the tech tree to files: static SVG/PNG snapshots,
// an interactive HTML chart, and SQLite snapshots that tt can open offline.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/graph"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
	"github.com/vanderheijden86/techtree/pkg/version"

	_ "modernc.org/sqlite"
)

// DetailResolver resolves a certification record for a node. Implementations
// substitute a synthesized record on failure.
type DetailResolver interface {
	Resolve(ctx context.Context, node model.Node) datasource.DetailLoad
}

// SQLiteExportConfig tunes the exporter.
type SQLiteExportConfig struct {
	// Concurrency caps in-flight detail requests.
	Concurrency int
	// WithDetails fetches a certification record for every node.
	WithDetails bool
	// PageSize is applied before the final VACUUM.
	PageSize int
}

// DefaultSQLiteExportConfig returns the defaults used by tt.
func DefaultSQLiteExportConfig() SQLiteExportConfig {
	return SQLiteExportConfig{Concurrency: 8, WithDetails: true, PageSize: 4096}
}

// SQLiteExportResult summarizes a finished export.
type SQLiteExportResult struct {
	Path        string
	Nodes       int
	Edges       int
	Details     int
	Synthesized int
	Duration    time.Duration
}

// SQLiteExporter writes a dataset, and optionally the detail record of every
// node, to a SQLite snapshot readable by datasource.OpenSQLite.
type SQLiteExporter struct {
	Dataset  model.GraphDataset
	Category string
	Origin   string
	Details  DetailResolver
	Config   SQLiteExportConfig

	now func() time.Time
}

// NewSQLiteExporter creates an exporter. details may be nil when the
// snapshot should only carry the graph.
func NewSQLiteExporter(ds model.GraphDataset, details DetailResolver) *SQLiteExporter {
	return &SQLiteExporter{
		Dataset: ds,
		Details: details,
		Config:  DefaultSQLiteExportConfig(),
		now:     time.Now,
	}
}

// Export replaces any file at path with a fresh snapshot.
func (e *SQLiteExporter) Export(ctx context.Context, path string) (SQLiteExportResult, error) {
	start := time.Now()
	defer metrics.Timer(metrics.SQLiteExport)()

	res := SQLiteExportResult{Path: path}
	ds, dropped := graph.Sanitize(e.Dataset)
	for _, d := range dropped {
		debug.Log("export: sqlite skips edge %s: %s", d.Edge.ID, d.Reason)
	}
	if ds.IsEmpty() {
		return res, ErrNothingToExport
	}

	var loads []datasource.DetailLoad
	if e.Config.WithDetails && e.Details != nil {
		var err error
		if loads, err = e.fetchDetails(ctx, ds.Nodes); err != nil {
			return res, fmt.Errorf("fetch details: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return res, fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return res, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := datasource.CreateSchema(db); err != nil {
		return res, fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := datasource.InsertDataset(ctx, tx, ds); err != nil {
		return res, fmt.Errorf("insert dataset: %w", err)
	}
	for i, load := range loads {
		if err := datasource.InsertDetail(ctx, tx, ds.Nodes[i].ID, load.Detail, load.Fallback); err != nil {
			return res, fmt.Errorf("insert detail for %s: %w", ds.Nodes[i].ID, err)
		}
		res.Details++
		if load.Fallback {
			res.Synthesized++
		}
	}

	now := e.now
	if now == nil {
		now = time.Now
	}
	meta := map[string]string{
		"exported_at": now().UTC().Format(time.RFC3339),
		"category":    e.Category,
		"origin":      e.Origin,
		"node_count":  strconv.Itoa(len(ds.Nodes)),
		"edge_count":  strconv.Itoa(len(ds.Edges)),
		"tt_version":  version.Version,
	}
	for k, v := range meta {
		if err := datasource.SetMeta(ctx, tx, k, v); err != nil {
			return res, fmt.Errorf("write meta %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}

	if err := optimizeDatabase(db, e.Config.PageSize); err != nil {
		return res, fmt.Errorf("optimize: %w", err)
	}

	res.Nodes, res.Edges = len(ds.Nodes), len(ds.Edges)
	res.Duration = time.Since(start)
	debug.Log("export: wrote %s (%d nodes, %d edges, %d details, %d synthesized) in %s",
		path, res.Nodes, res.Edges, res.Details, res.Synthesized, res.Duration)
	return res, nil
}

// fetchDetails resolves every node concurrently. Results keep node order.
func (e *SQLiteExporter) fetchDetails(ctx context.Context, nodes []model.Node) ([]datasource.DetailLoad, error) {
	limit := e.Config.Concurrency
	if limit <= 0 {
		limit = DefaultSQLiteExportConfig().Concurrency
	}
	results := make([]datasource.DetailLoad, len(nodes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, n := range nodes {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = e.Details.Resolve(ctx, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// optimizeDatabase compacts the file. Pragma failures are not fatal.
func optimizeDatabase(db *sql.DB, pageSize int) error {
	if pageSize <= 0 {
		pageSize = 4096
	}
	for _, stmt := range []string{
		`PRAGMA journal_mode=DELETE`,
		fmt.Sprintf(`PRAGMA page_size=%d`, pageSize),
		`ANALYZE`,
		`PRAGMA optimize`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			debug.Log("export: %s: %v", stmt, err)
		}
	}
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}
