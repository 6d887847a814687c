// Package clickhouseengine provides the ClickHouse implementation of the dialect layer.
//
// This package implements row mapping through compiled coercion chains and
// administrative storage management against ClickHouse, supporting multiple
// database adapters (native clickhouse-go, sql.DB, sqlx).
//
// Key features:
//   - Multiple database adapter support (native driver, SQL, SQLX)
//   - Per-column loader/dumper chains compiled once at schema-compile time
//   - Deadline-bounded, failure-isolated administrative command execution
//   - Stable CommandOutcome classification of driver errors
//   - Configurable logging and metrics through functional options
//
// Usage examples:
//
//	// Row mapping
//	conn, _ := clickhouse.Open(cfg.ClientOptions())
//	adapter, _ := clickhouseengine.NewAdapterFromConn(conn, schema)
//	err := adapter.InsertRow(ctx, row)
//
//	// Storage management
//	executor, _ := clickhouseengine.NewAdminExecutor(
//		clickhouseengine.WithAdminLogger(logger),
//	)
//	outcome, err := executor.ProvisionStorage(ctx, clickhouseengine.Config{
//		Addr:     []string{"localhost:9000"},
//		Database: "app_repo",
//	})
//	if outcome.Kind == dialect.OutcomeAlreadyInDesiredState {
//		// safe to continue, the database was already there
//	}
package clickhouseengine
