package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/platform/neo4jdb"
)

// ValueNode is a canonical value as projected into neo4j.
type ValueNode struct {
	ID          uuid.UUID
	Title       string
	Description string
	Policies    []string
	PageRank    *float64
	Component   int
}

// WiserEdge is one aggregated consensus edge, source -> wiser.
type WiserEdge struct {
	FromID          uuid.UUID
	ToID            uuid.UUID
	Contexts        []string
	WiserLikelihood float64
	Entropy         float64
	MarkedWiser     int
	Impressions     int
}

// UpsertMoralGraph mirrors a deliberation's values and consensus edges.
// Edges not touched by this sync are removed so the projection tracks the
// latest summary.
func UpsertMoralGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, deliberationID uuid.UUID, values []ValueNode, edges []WiserEdge) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if deliberationID == uuid.Nil {
		return fmt.Errorf("neo4j moral graph sync: missing deliberationID")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	did := deliberationID.String()

	nodes := make([]map[string]any, 0, len(values))
	for _, v := range values {
		if v.ID == uuid.Nil {
			continue
		}
		n := map[string]any{
			"id":              v.ID.String(),
			"deliberation_id": did,
			"title":           v.Title,
			"description":     v.Description,
			"policies_text":   strings.Join(v.Policies, "\n"),
			"component":       int64(v.Component),
			"synced_at":       now,
		}
		if v.PageRank != nil {
			n["pagerank"] = *v.PageRank
		}
		nodes = append(nodes, n)
	}

	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.FromID == uuid.Nil || e.ToID == uuid.Nil || e.FromID == e.ToID {
			continue
		}
		rels = append(rels, map[string]any{
			"from_id":          e.FromID.String(),
			"to_id":            e.ToID.String(),
			"contexts":         e.Contexts,
			"wiser_likelihood": e.WiserLikelihood,
			"entropy":          e.Entropy,
			"marked_wiser":     int64(e.MarkedWiser),
			"impressions":      int64(e.Impressions),
			"synced_at":        now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Create schema helpers (best-effort; may fail for restricted users).
	for _, stmt := range []string{
		`CREATE CONSTRAINT value_id_unique IF NOT EXISTS FOR (v:Value) REQUIRE v.id IS UNIQUE`,
		`CREATE INDEX value_deliberation_idx IF NOT EXISTS FOR (v:Value) ON (v.deliberation_id)`,
	} {
		if res, err := session.Run(ctx, stmt, nil); err != nil {
			if log != nil {
				log.Warn("neo4j schema init failed (continuing)", "error", err)
			}
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (v:Value {id: n.id})
SET v += n
`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:Value {id: r.from_id})
MATCH (b:Value {id: r.to_id})
MERGE (a)-[e:WISER_THAN]->(b)
SET e.contexts = r.contexts,
    e.wiser_likelihood = r.wiser_likelihood,
    e.entropy = r.entropy,
    e.marked_wiser = r.marked_wiser,
    e.impressions = r.impressions,
    e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		res, err := tx.Run(ctx, `
MATCH (a:Value {deliberation_id: $did})-[e:WISER_THAN]->(:Value)
WHERE e.synced_at <> $now
DELETE e
`, map[string]any{"did": did, "now": now})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}
