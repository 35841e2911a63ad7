package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// ErrNoDetail is returned by the offline source for nodes exported without details.
var ErrNoDetail = errors.New("no stored detail for node")

// SQLiteGraphSource reads graphs and stored details from a snapshot written
// by the SQLite exporter. It serves as both GraphSource and DetailSource.
type SQLiteGraphSource struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens a snapshot read-only.
func OpenSQLite(path string) (*SQLiteGraphSource, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open snapshot: %w", err)
	}

	var version string
	err = db.QueryRow(`SELECT value FROM snapshot_meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if v, _ := strconv.Atoi(version); v != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("snapshot %s has schema version %s, want %d", path, version, SchemaVersion)
	}

	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("sqlite: %s failed: %v", pragma, err)
		}
	}
	return &SQLiteGraphSource{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteGraphSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the snapshot file path.
func (s *SQLiteGraphSource) Path() string { return s.path }

// Origin implements originer.
func (*SQLiteGraphSource) Origin() Origin { return OriginOffline }

// LoadGraph implements GraphSource. A category keeps its nodes and the edges
// between them.
func (s *SQLiteGraphSource) LoadGraph(ctx context.Context, category string) (model.GraphDataset, error) {
	nodeQuery := `
		SELECT id, label, level, category, issuer, x, y, type, background, border
		FROM nodes`
	var args []any
	if category != "" {
		nodeQuery += ` WHERE category = ?`
		args = append(args, category)
	}
	nodeQuery += ` ORDER BY ord`

	rows, err := s.db.QueryContext(ctx, nodeQuery, args...)
	if err != nil {
		return model.GraphDataset{}, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var ds model.GraphDataset
	keep := make(map[string]bool)
	for rows.Next() {
		var n model.Node
		var level, bg, border string
		if err := rows.Scan(&n.ID, &n.Data.Label, &level, &n.Data.Category, &n.Data.Issuer,
			&n.Position.X, &n.Position.Y, &n.Type, &bg, &border); err != nil {
			return model.GraphDataset{}, fmt.Errorf("scan node: %w", err)
		}
		n.Data.Level = model.Level(level)
		if bg != "" || border != "" {
			n.Style = &model.NodeStyle{Background: bg, Border: border}
		}
		keep[n.ID] = true
		ds.Nodes = append(ds.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return model.GraphDataset{}, fmt.Errorf("iterate nodes: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT id, source, target, type, animated FROM edges ORDER BY ord`)
	if err != nil {
		return model.GraphDataset{}, fmt.Errorf("query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e model.Edge
		if err := edgeRows.Scan(&e.ID, &e.Source, &e.Target, &e.Type, &e.Animated); err != nil {
			return model.GraphDataset{}, fmt.Errorf("scan edge: %w", err)
		}
		if category != "" && !(keep[e.Source] && keep[e.Target]) {
			continue
		}
		ds.Edges = append(ds.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return model.GraphDataset{}, fmt.Errorf("iterate edges: %w", err)
	}
	return ds, nil
}

// LoadDetail implements DetailSource from the certifications table.
func (s *SQLiteGraphSource) LoadDetail(ctx context.Context, node model.Node) (model.CertificationDetail, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT detail_json FROM certifications WHERE node_id = ?`, node.ID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CertificationDetail{}, fmt.Errorf("node %s: %w", node.ID, ErrNoDetail)
	}
	if err != nil {
		return model.CertificationDetail{}, fmt.Errorf("query detail: %w", err)
	}
	var d model.CertificationDetail
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return model.CertificationDetail{}, fmt.Errorf("decode stored detail for %s: %w", node.ID, err)
	}
	return d, nil
}

// Meta returns a snapshot_meta value, or "" when the key is absent.
func (s *SQLiteGraphSource) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query meta %s: %w", key, err)
	}
	return v, nil
}
