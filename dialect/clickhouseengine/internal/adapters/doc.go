// Package adapters provide database adapter implementations for the ClickHouse engine.
//
// This package implements the adapter pattern to support multiple ClickHouse connection
// flavors: the native clickhouse-go driver.Conn, sql.DB, and sqlx.DB. All adapters
// provide equivalent functionality through a common DBAdapter interface, allowing the
// engine to work seamlessly with any supported connection type.
//
// The adapters handle the specifics of each connection flavor while presenting a
// unified interface for query execution and result handling.
package adapters
