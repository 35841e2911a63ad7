package datasource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// SchemaVersion is stored in snapshot_meta so readers can reject files they
// do not understand.
const SchemaVersion = 1

// CreateSchema creates the offline snapshot tables. It is idempotent.
func CreateSchema(db *sql.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"nodes", `
			CREATE TABLE IF NOT EXISTS nodes (
				id TEXT PRIMARY KEY,
				label TEXT NOT NULL,
				level TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL DEFAULT '',
				issuer TEXT NOT NULL DEFAULT '',
				x REAL NOT NULL,
				y REAL NOT NULL,
				type TEXT NOT NULL DEFAULT 'default',
				background TEXT NOT NULL DEFAULT '',
				border TEXT NOT NULL DEFAULT '',
				ord INTEGER NOT NULL
			)`},
		{"edges", `
			CREATE TABLE IF NOT EXISTS edges (
				id TEXT PRIMARY KEY,
				source TEXT NOT NULL,
				target TEXT NOT NULL,
				type TEXT NOT NULL DEFAULT '',
				animated INTEGER NOT NULL DEFAULT 0,
				ord INTEGER NOT NULL
			)`},
		{"certifications", `
			CREATE TABLE IF NOT EXISTS certifications (
				node_id TEXT PRIMARY KEY,
				cert_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				level TEXT NOT NULL DEFAULT '',
				synthesized INTEGER NOT NULL DEFAULT 0,
				detail_json TEXT NOT NULL
			)`},
		{"snapshot_meta", `
			CREATE TABLE IF NOT EXISTS snapshot_meta (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`},
		{"idx_nodes_category", `CREATE INDEX IF NOT EXISTS idx_nodes_category ON nodes(category)`},
		{"idx_edges_endpoints", `CREATE INDEX IF NOT EXISTS idx_edges_endpoints ON edges(source, target)`},
	}
	for _, s := range stmts {
		if _, err := db.Exec(s.sql); err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	_, err := db.Exec(
		`INSERT OR REPLACE INTO snapshot_meta(key, value) VALUES ('schema_version', ?)`,
		fmt.Sprint(SchemaVersion),
	)
	if err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertDataset writes nodes and edges in dataset order.
func InsertDataset(ctx context.Context, db execer, ds model.GraphDataset) error {
	for i, n := range ds.Nodes {
		var bg, border string
		if n.Style != nil {
			bg, border = n.Style.Background, n.Style.Border
		}
		typ := n.Type
		if typ == "" {
			typ = "default"
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO nodes (id, label, level, category, issuer, x, y, type, background, border, ord)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.Data.Label, string(n.Data.Level), n.Data.Category, n.Data.Issuer,
			n.Position.X, n.Position.Y, typ, bg, border, i)
		if err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range ds.Edges {
		_, err := db.ExecContext(ctx, `
			INSERT INTO edges (id, source, target, type, animated, ord)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Source, e.Target, e.Type, e.Animated, i)
		if err != nil {
			return fmt.Errorf("insert edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// InsertDetail stores the detail record shown for nodeID.
func InsertDetail(ctx context.Context, db execer, nodeID string, d model.CertificationDetail, synthesized bool) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode detail for %s: %w", nodeID, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT OR REPLACE INTO certifications (node_id, cert_id, name, level, synthesized, detail_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nodeID, d.ID, d.Name, string(d.Level), synthesized, string(raw))
	if err != nil {
		return fmt.Errorf("insert detail for %s: %w", nodeID, err)
	}
	return nil
}

// SetMeta records a snapshot_meta entry.
func SetMeta(ctx context.Context, db execer, key, value string) error {
	if _, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshot_meta(key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
