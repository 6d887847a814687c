package adapters

import (
	"context"

	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseAdapter implements DBAdapter for the native clickhouse-go driver.Conn.
type ClickHouseAdapter struct {
	conn chdriver.Conn
}

// NewClickHouseAdapter creates a new native driver adapter.
func NewClickHouseAdapter(conn chdriver.Conn) *ClickHouseAdapter {
	return &ClickHouseAdapter{conn: conn}
}

// Query executes a query using the native connection and returns wrapped rows.
func (a *ClickHouseAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := a.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return &chRows{rows: rows}, nil
}

// Exec executes a query using the native connection and returns wrapped result.
func (a *ClickHouseAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	if err := a.conn.Exec(ctx, query); err != nil {
		return nil, err
	}

	return chResult{}, nil
}

// chRows wraps the native driver rows to implement the DBRows interface.
type chRows struct {
	rows chdriver.Rows
}

// Next advances to the next row.
func (r *chRows) Next() bool {
	return r.rows.Next()
}

// Scan copies row values into provided destinations.
func (r *chRows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

// Close closes the rows iterator.
func (r *chRows) Close() error {
	return r.rows.Close()
}

// chResult implements the DBResult interface for the native driver, which
// does not report row counts for INSERT statements.
type chResult struct{}

// RowsAffected always reports zero; ClickHouse does not return the count.
func (chResult) RowsAffected() (int64, error) {
	return 0, nil
}
