package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"cab-route-estimator/internal/graph"
	"cab-route-estimator/internal/models"
)

// GraphRepository persists the seeded road graph. Edges are stored exactly
// as directed rows; an undirected road is two rows.
type GraphRepository struct {
	store *Store
}

// Replace swaps the stored graph for the given nodes and edges in one
// transaction. Used by the seeding command.
func (r *GraphRepository) Replace(ctx context.Context, nodes []models.Node, edges []models.Edge) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_edges`); err != nil {
		return fmt.Errorf("failed to clear edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_nodes`); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}

	nodeQuery := `INSERT INTO graph_nodes (id, lat, lng, name) VALUES (?, ?, ?, ?)`
	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx, nodeQuery, n.ID, n.Lat, n.Lng, n.Name); err != nil {
			return fmt.Errorf("failed to insert node %d: %w", n.ID, err)
		}
	}

	edgeQuery := `INSERT INTO graph_edges (from_node, to_node, distance_km, travel_time_min)
	              VALUES (?, ?, ?, ?)`
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx, edgeQuery, e.FromNode, e.ToNode, e.DistanceKm, e.TravelTimeMin); err != nil {
			return fmt.Errorf("failed to insert edge %d->%d: %w", e.FromNode, e.ToNode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads the stored graph into memory. Returns an empty graph when
// nothing has been seeded.
func (r *GraphRepository) Load(ctx context.Context) (*graph.Graph, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	g := graph.New()

	nodeRows, err := r.store.db.QueryContext(ctx, `SELECT id, lat, lng, name FROM graph_nodes`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer nodeRows.Close()

	for nodeRows.Next() {
		var n models.Node
		var name sql.NullString
		if err := nodeRows.Scan(&n.ID, &n.Lat, &n.Lng, &name); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if name.Valid {
			n.Name = name.String
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	if err := nodeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	edgeRows, err := r.store.db.QueryContext(ctx,
		`SELECT from_node, to_node, distance_km, travel_time_min FROM graph_edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e models.Edge
		if err := edgeRows.Scan(&e.FromNode, &e.ToNode, &e.DistanceKm, &e.TravelTimeMin); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		if err := g.AddEdge(e, false); err != nil {
			return nil, err
		}
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return g, nil
}
