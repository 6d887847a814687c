package clickhouseengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
	"github.com/columnarkit/clickhouse-dialect-go/dialect/clickhouseengine/internal/adapters"
)

const (
	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgDBExecFailed     = "database execution failed during row insert"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgDumpValueFailed  = "failed to dump column value"
	logMsgLoadValueFailed  = "failed to load column value"
	logMsgRowInserted      = "row inserted"
	logMsgQueryCompleted   = "query completed"
	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "adapter operation: "
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrColumn          = "column"
	logAttrTable           = "table"
	logAttrRowCount        = "row_count"
	logAttrDurationMS      = "duration_ms"
	logActionQuery         = "query"
	logActionInsert        = "insert"
	metricRowDuration      = "row_operation_duration"
)

type (
	sqlQueryString = string
	queryDuration  = time.Duration
)

// Column declares one mapped column: its name and the logical type the
// mapping stack wants to persist in it.
type Column struct {
	Name string
	Type dialect.ColumnType
}

// Schema declares the mapped table and its columns.
type Schema struct {
	Table   string
	Columns []Column
}

// compiledColumn carries the chains resolved once at schema-compile time;
// per-row calls only apply them.
type compiledColumn struct {
	name       string
	columnType dialect.ColumnType
	load       dialect.LoaderChain
	dump       dialect.DumperChain
}

// Adapter maps rows between the mapping stack and ClickHouse. It leverages
// a database adapter, per-column coercion chains compiled from the schema,
// and supports customizable logging and metrics.
type Adapter struct {
	db               adapters.DBAdapter
	schema           Schema
	columns          []compiledColumn
	base             dialect.BaseResolver
	logger           dialect.Logger
	contextualLogger dialect.ContextualLogger
	metricsCollector dialect.MetricsCollector
}

// NewAdapterFromConn creates a new Adapter using a native clickhouse-go
// connection with optional configuration.
func NewAdapterFromConn(conn chdriver.Conn, schema Schema, options ...Option) (Adapter, error) {
	if conn == nil {
		return Adapter{}, dialect.ErrNilDatabaseConnection
	}

	return newAdapter(adapters.NewClickHouseAdapter(conn), schema, options...)
}

// NewAdapterFromSQLDB creates a new Adapter using a sql.DB with optional
// configuration, typically obtained from clickhouse.OpenDB.
func NewAdapterFromSQLDB(db *sql.DB, schema Schema, options ...Option) (Adapter, error) {
	if db == nil {
		return Adapter{}, dialect.ErrNilDatabaseConnection
	}

	return newAdapter(adapters.NewSQLAdapter(db), schema, options...)
}

// NewAdapterFromSQLX creates a new Adapter using a sqlx.DB with optional
// configuration.
func NewAdapterFromSQLX(db *sqlx.DB, schema Schema, options ...Option) (Adapter, error) {
	if db == nil {
		return Adapter{}, dialect.ErrNilDatabaseConnection
	}

	return newAdapter(adapters.NewSQLXAdapter(db), schema, options...)
}

func newAdapter(db adapters.DBAdapter, schema Schema, options ...Option) (Adapter, error) {
	if schema.Table == "" {
		return Adapter{}, dialect.ErrEmptyTableName
	}

	adapter := Adapter{
		db:     db,
		schema: schema,
		base:   dialect.PassthroughResolver{},
	}

	for _, option := range options {
		if err := option(&adapter); err != nil {
			return Adapter{}, err
		}
	}

	if err := adapter.compileSchema(); err != nil {
		return Adapter{}, err
	}

	return adapter, nil
}

// compileSchema resolves both chains for every column once; InsertRow and
// QueryRows reuse them per row.
func (a *Adapter) compileSchema() error {
	a.columns = make([]compiledColumn, 0, len(a.schema.Columns))

	for _, column := range a.schema.Columns {
		load, loadErr := dialect.ResolveLoaderChain(column.Type, a.base)
		if loadErr != nil {
			return loadErr
		}

		dump, dumpErr := dialect.ResolveDumperChain(column.Type, a.base)
		if dumpErr != nil {
			return dumpErr
		}

		a.columns = append(a.columns, compiledColumn{
			name:       column.Name,
			columnType: column.Type,
			load:       load,
			dump:       dump,
		})
	}

	return nil
}

// InsertRow dumps the row's values through the compiled dumper chains and
// appends the result to the mapped table. Identifier columns absent from
// the row receive a generated surrogate key where the column type supports
// generation.
func (a Adapter) InsertRow(ctx context.Context, row map[string]any) error {
	record := goqu.Record{}

	for _, column := range a.columns {
		value, present := row[column.name]
		if !present {
			generated, ok := dialect.GenerateIdentifier(column.columnType)
			if !ok {
				continue
			}
			value = generated
		}

		stored, dumpErr := column.dump.Apply(value)
		if dumpErr != nil {
			dumpErr = a.bindColumnName(column.name, dumpErr)
			a.logError(ctx, logMsgDumpValueFailed, logAttrError, dumpErr.Error(), logAttrColumn, column.name)

			return dumpErr
		}

		record[column.name] = stored
	}

	sqlQuery, buildErr := a.buildInsertQuery(record)
	if buildErr != nil {
		a.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error(), logAttrTable, a.schema.Table)
		return buildErr
	}

	start := time.Now()
	_, execErr := a.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	a.logQueryWithDuration(ctx, sqlQuery, logActionInsert, duration)

	if execErr != nil {
		a.logError(ctx, logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		return errors.Join(dialect.ErrInsertingRowFailed, execErr)
	}

	a.logOperation(ctx, logMsgRowInserted, logAttrTable, a.schema.Table, logAttrDurationMS, durationToMilliseconds(duration))
	a.recordDuration(logActionInsert, duration)

	return nil
}

// QueryRows retrieves rows matching the given expressions and loads every
// column through its compiled loader chain.
func (a Adapter) QueryRows(ctx context.Context, where ...goqu.Expression) ([]map[string]any, error) {
	sqlQuery, buildErr := a.buildSelectQuery(where)
	if buildErr != nil {
		a.logError(ctx, logMsgBuildQueryFailed, logAttrError, buildErr.Error(), logAttrTable, a.schema.Table)
		return nil, buildErr
	}

	start := time.Now()
	rows, queryErr := a.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	a.logQueryWithDuration(ctx, sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		a.logError(ctx, logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, errors.Join(dialect.ErrQueryingRowsFailed, queryErr)
	}
	defer a.closeRows(rows)

	result, scanErr := a.processQueryResults(ctx, rows)
	if scanErr != nil {
		return nil, scanErr
	}

	a.logOperation(ctx, logMsgQueryCompleted, logAttrRowCount, len(result), logAttrDurationMS, durationToMilliseconds(duration))
	a.recordDuration(logActionQuery, duration)

	return result, nil
}

func (a Adapter) buildInsertQuery(record goqu.Record) (sqlQueryString, error) {
	insertStmt := goqu.Dialect(dialect.DialectName).
		Insert(a.schema.Table).
		Rows(record)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(dialect.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (a Adapter) buildSelectQuery(where []goqu.Expression) (sqlQueryString, error) {
	columnNames := make([]any, len(a.columns))
	for i, column := range a.columns {
		columnNames[i] = column.name
	}

	selectStmt := goqu.Dialect(dialect.DialectName).
		From(a.schema.Table).
		Select(columnNames...)

	if len(where) > 0 {
		selectStmt = selectStmt.Where(where...)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(dialect.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// processQueryResults scans database rows and converts them to loaded row maps.
func (a Adapter) processQueryResults(ctx context.Context, rows adapters.DBRows) ([]map[string]any, error) {
	result := make([]map[string]any, 0)

	for rows.Next() {
		destinations := a.scanDestinations()

		if scanErr := rows.Scan(destinations...); scanErr != nil {
			a.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
			return nil, errors.Join(dialect.ErrScanningDBRowFailed, scanErr)
		}

		row := make(map[string]any, len(a.columns))

		for i, column := range a.columns {
			loaded, loadErr := column.load.Apply(dereference(destinations[i]))
			if loadErr != nil {
				loadErr = a.bindColumnName(column.name, loadErr)
				a.logError(ctx, logMsgLoadValueFailed, logAttrError, loadErr.Error(), logAttrColumn, column.name)

				return nil, loadErr
			}

			row[column.name] = loaded
		}

		result = append(result, row)
	}

	return result, nil
}

// scanDestinations allocates typed scan targets: coerced columns are stored
// as text, anything else scans as an opaque value.
func (a Adapter) scanDestinations() []any {
	destinations := make([]any, len(a.columns))

	for i, column := range a.columns {
		if column.columnType.Kind() == dialect.KindOther {
			destinations[i] = new(any)
		} else {
			destinations[i] = new(string)
		}
	}

	return destinations
}

func dereference(destination any) any {
	switch typed := destination.(type) {
	case *string:
		return *typed
	case *any:
		return *typed
	default:
		return destination
	}
}

// bindColumnName names the offending column on validation failures; the
// coercion steps themselves do not know which column they serve.
func (a Adapter) bindColumnName(column string, err error) error {
	var validationErr *dialect.ValidationError
	if errors.As(err, &validationErr) && validationErr.Column == "" {
		validationErr.Column = column
	}

	return err
}

// closeRows safely closes database rows and logs any errors.
func (a Adapter) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if a.logger != nil {
			a.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (a Adapter) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration queryDuration) {
	if a.contextualLogger != nil {
		a.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if a.logger != nil {
		a.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (a Adapter) logOperation(ctx context.Context, action string, args ...any) {
	if a.contextualLogger != nil {
		a.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if a.logger != nil {
		a.logger.Info(logMsgOperation+action, args...)
	}
}

func (a Adapter) logError(ctx context.Context, msg string, args ...any) {
	if a.contextualLogger != nil {
		a.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if a.logger != nil {
		a.logger.Error(msg, args...)
	}
}

func (a Adapter) recordDuration(action string, duration time.Duration) {
	if a.metricsCollector != nil {
		a.metricsCollector.RecordDuration(metricRowDuration, duration, map[string]string{"action": action})
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
