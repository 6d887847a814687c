// Demo wiring the ClickHouse dialect end to end: provision a database,
// map a table with coerced columns, insert a row and read it back.
//
// Requires a reachable ClickHouse instance, e.g.:
//
//	docker run -p 9000:9000 clickhouse/clickhouse-server
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/doug-martin/goqu/v9"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
	"github.com/columnarkit/clickhouse-dialect-go/dialect/clickhouseengine"
	"github.com/columnarkit/clickhouse-dialect-go/dialect/oteladapters"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	addr := os.Getenv("CLICKHOUSE_ADDR")
	if addr == "" {
		addr = "localhost:9000"
	}

	cfg := clickhouseengine.Config{
		Addr:     strings.Split(addr, ","),
		Database: "dialect_demo",
		Username: "default",
	}

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	executor, err := clickhouseengine.NewAdminExecutor(
		clickhouseengine.WithAdminContextualLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create admin executor: %v", err)
	}

	outcome, err := executor.ProvisionStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Printf("Provisioned database %q: %s", cfg.Database, outcome)

	conn, err := clickhouse.Open(cfg.ClientOptions())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if execErr := conn.Exec(ctx,
		"CREATE TABLE IF NOT EXISTS readings"+
			" (`id` FixedString(36), `payload` String, `temperature` Float64)"+
			" ENGINE = MergeTree ORDER BY `id`"); execErr != nil {
		log.Fatalf("Failed to create table: %v", execErr)
	}

	schema := clickhouseengine.Schema{
		Table: "readings",
		Columns: []clickhouseengine.Column{
			{Name: "id", Type: dialect.BinaryIDType()},
			{Name: "payload", Type: dialect.MapType()},
			{Name: "temperature", Type: dialect.OtherType(dialect.ColumnType{})},
		},
	}

	adapter, err := clickhouseengine.NewAdapterFromConn(conn, schema,
		clickhouseengine.WithContextualLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create adapter: %v", err)
	}

	row := map[string]any{
		"payload":     map[string]any{"unit": "celsius", "window": 5},
		"temperature": 21.5,
	}
	if insertErr := adapter.InsertRow(ctx, row); insertErr != nil {
		log.Fatalf("Failed to insert row: %v", insertErr)
	}

	rows, err := adapter.QueryRows(ctx, goqu.Ex{"temperature": 21.5})
	if err != nil {
		log.Fatalf("Failed to query rows: %v", err)
	}

	for _, loaded := range rows {
		log.Printf("Loaded row: id=%v payload=%v temperature=%v",
			loaded["id"], loaded["payload"], loaded["temperature"])
	}

	outcome, err = executor.DeprovisionStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Printf("Deprovisioned database %q: %s", cfg.Database, outcome)
}
