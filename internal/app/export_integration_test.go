package app

import (
	"context"
	"os"
	"testing"
	"time"

	"czagent/internal/graph"
	"czagent/internal/inventory"
	"czagent/internal/loader"
)

// 需要本地 Neo4j，设置 CZAGENT_NEO4J_URI 后运行，例如 bolt://localhost:7687。
func TestExportToNeo4j(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	uri := os.Getenv("CZAGENT_NEO4J_URI")
	if uri == "" {
		t.Skip("CZAGENT_NEO4J_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := Config{}
	cfg.Neo4j.URI = uri
	cfg.Neo4j.Username = envOr("CZAGENT_NEO4J_USER", "neo4j")
	cfg.Neo4j.Password = envOr("CZAGENT_NEO4J_PASSWORD", "password")
	cfg.Neo4j.Database = envOr("CZAGENT_NEO4J_DATABASE", "neo4j")
	cfg.ApplyDefaults()

	client, err := loader.NewClient(ctx, loader.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		t.Skipf("neo4j not available: %v", err)
	}
	if err := client.RunWrite(ctx, "MATCH (n) WHERE n.asset_key IS NOT NULL DETACH DELETE n", nil); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	_ = client.Close(ctx)

	store := inventory.New(inventory.WithReferenceTime(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)))
	svc, err := NewService(ctx, cfg, store, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close(ctx)

	if err := svc.Init(ctx); err != nil {
		t.Fatalf("init export failed: %v", err)
	}
	if err := svc.Validate(ctx); err != nil {
		t.Fatalf("validate after init failed: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(time.Second) }
	if err := svc.Sync(ctx); err != nil {
		t.Fatalf("sync export failed: %v", err)
	}
	if err := svc.Validate(ctx); err != nil {
		t.Fatalf("validate after sync failed: %v", err)
	}

	uplinks, err := svc.graphClient.RunRead(ctx, "MATCH (:Switch)-[r:UPLINK]->(:Switch) RETURN count(r) AS total", nil)
	if err != nil {
		t.Fatalf("count uplinks: %v", err)
	}
	if got := uplinks[0]["total"].(int64); got != 48 {
		t.Fatalf("expect 48 uplinks, got %d", got)
	}

	var reader graph.Reader = svc.graphClient
	down, err := reader.RunRead(ctx, "MATCH (s:Switch {role: 'aggregation', room: 'room-01'}) RETURN min(s.oob_down_servers) AS total", nil)
	if err != nil {
		t.Fatalf("read oob counts: %v", err)
	}
	if got, _ := down[0]["total"].(int64); got < 10 {
		t.Fatalf("room-01 aggregation switches should see the rack-A02 outage, got %d", got)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
