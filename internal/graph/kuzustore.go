//go:build cgo

package graph

import (
	"context"
	"fmt"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store using KuzuDB as the graph backend. It requires
// CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path, so a loaded graph can be queried across sessions.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ddlStatements defines the Cypher DDL executed by InitSchema. A single
// Scope node table covers functions, classes, and variables; edge targets
// with no declaration (builtins, imported names) become "external" scopes.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Scope(
		id STRING,
		label STRING,
		full_name STRING,
		type STRING,
		grp STRING,
		line INT64,
		is_method BOOLEAN,
		seq INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS ImportRec(
		seq INT64,
		module STRING,
		name STRING,
		alias STRING,
		type STRING,
		line INT64,
		PRIMARY KEY(seq)
	)`,
	`CREATE REL TABLE IF NOT EXISTS Relates(
		FROM Scope TO Scope,
		kind STRING,
		label STRING,
		line INT64,
		seq INT64
	)`,
}

// InitSchema creates the node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// LoadGraph clears the store and inserts the graph's nodes, placeholder
// scopes for dangling edge endpoints, then all edges and import records.
func (s *KuzuStore) LoadGraph(ctx context.Context, g *Graph) error {
	for _, table := range []string{"Relates", "Scope", "ImportRec"} {
		if table == "Relates" {
			if err := s.exec("MATCH ()-[r:Relates]->() DELETE r", nil); err != nil {
				return err
			}
			continue
		}
		if err := s.exec(fmt.Sprintf("MATCH (n:%s) DELETE n", table), nil); err != nil {
			return err
		}
	}

	known := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		known[n.ID] = true
		isMethod := n.IsMethod != nil && *n.IsMethod
		if err := s.exec(
			`CREATE (n:Scope {id: $id, label: $label, full_name: $fn, type: $type, grp: $grp, line: $line, is_method: $im, seq: $seq})`,
			map[string]any{
				"id":    n.ID,
				"label": n.Label,
				"fn":    n.FullName,
				"type":  n.Type,
				"grp":   string(n.Group),
				"line":  int64(n.Line),
				"im":    isMethod,
				"seq":   int64(i),
			},
		); err != nil {
			return err
		}
	}

	// Placeholder scopes so edges to undeclared names still resolve.
	placeholderSeq := int64(len(g.Nodes))
	for _, e := range g.Links {
		for _, id := range []string{e.Source, e.Target} {
			if known[id] {
				continue
			}
			known[id] = true
			if err := s.exec(
				`CREATE (n:Scope {id: $id, label: $id, full_name: $id, type: $type, grp: $grp, line: $line, is_method: $im, seq: $seq})`,
				map[string]any{
					"id":   id,
					"type": "external",
					"grp":  "external",
					"line": int64(0),
					"im":   false,
					"seq":  placeholderSeq,
				},
			); err != nil {
				return err
			}
			placeholderSeq++
		}
	}

	for i, e := range g.Links {
		if err := s.exec(
			`MATCH (a:Scope {id: $src}), (b:Scope {id: $dst})
			 CREATE (a)-[:Relates {kind: $kind, label: $label, line: $line, seq: $seq}]->(b)`,
			map[string]any{
				"src":   e.Source,
				"dst":   e.Target,
				"kind":  string(e.Type),
				"label": e.Label,
				"line":  int64(e.Line),
				"seq":   int64(i),
			},
		); err != nil {
			return err
		}
	}

	for i, imp := range g.Imports {
		if err := s.exec(
			`CREATE (n:ImportRec {seq: $seq, module: $module, name: $name, alias: $alias, type: $type, line: $line})`,
			map[string]any{
				"seq":    int64(i),
				"module": imp.Module,
				"name":   imp.Name,
				"alias":  imp.Alias,
				"type":   imp.Type,
				"line":   int64(imp.Line),
			},
		); err != nil {
			return err
		}
	}

	return nil
}

// Nodes returns the loaded (non-placeholder) nodes in load order.
func (s *KuzuStore) Nodes(_ context.Context) ([]Node, error) {
	rows, err := s.query(
		`MATCH (n:Scope) WHERE n.type <> 'external'
		 RETURN n.id, n.label, n.full_name, n.type, n.grp, n.line, n.is_method
		 ORDER BY n.seq`,
		nil,
	)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		node := Node{
			ID:       toString(row[0]),
			Label:    toString(row[1]),
			FullName: toString(row[2]),
			Type:     toString(row[3]),
			Group:    NodeGroup(toString(row[4])),
			Line:     toInt(row[5]),
		}
		if node.Group == GroupFunction {
			isMethod := toBool(row[6])
			node.IsMethod = &isMethod
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Edges returns the loaded edges in load order.
func (s *KuzuStore) Edges(_ context.Context) ([]Edge, error) {
	rows, err := s.query(
		`MATCH (a:Scope)-[r:Relates]->(b:Scope)
		 RETURN a.id, b.id, r.kind, r.label, r.line
		 ORDER BY r.seq`,
		nil,
	)
	if err != nil {
		return nil, err
	}

	edges := make([]Edge, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		edges = append(edges, Edge{
			Source: toString(row[0]),
			Target: toString(row[1]),
			Type:   EdgeKind(toString(row[2])),
			Label:  toString(row[3]),
			Line:   toInt(row[4]),
		})
	}
	return edges, nil
}

// Neighbors returns target IDs reachable from id along edges of the given
// kind; an empty kind matches every kind.
func (s *KuzuStore) Neighbors(_ context.Context, id string, kind EdgeKind) ([]string, error) {
	cypher := `MATCH (a:Scope {id: $id})-[r:Relates]->(b:Scope) RETURN b.id ORDER BY r.seq`
	params := map[string]any{"id": id}
	if kind != "" {
		cypher = `MATCH (a:Scope {id: $id})-[r:Relates]->(b:Scope)
		          WHERE r.kind = $kind RETURN b.id ORDER BY r.seq`
		params["kind"] = string(kind)
	}

	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, row := range rows {
		if len(row) > 0 {
			out = append(out, toString(row[0]))
		}
	}
	return out, nil
}

// Stats returns node/edge/import counts for the loaded graph, excluding
// placeholder scopes.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	nodes, err := s.scalar(`MATCH (n:Scope) WHERE n.type <> 'external' RETURN count(n)`)
	if err != nil {
		return nil, err
	}
	edges, err := s.scalar(`MATCH ()-[r:Relates]->() RETURN count(r)`)
	if err != nil {
		return nil, err
	}
	imports, err := s.scalar(`MATCH (n:ImportRec) RETURN count(n)`)
	if err != nil {
		return nil, err
	}
	return &Stats{NodeCount: nodes, EdgeCount: edges, ImportCount: imports}, nil
}

// --- Cypher plumbing ---

func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	if len(params) == 0 {
		res, err := s.conn.Query(cypher)
		if err != nil {
			return fmt.Errorf("kuzu: query: %w", err)
		}
		res.Close()
		return nil
	}

	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) scalar(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
