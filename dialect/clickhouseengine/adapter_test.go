package clickhouseengine

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
	"github.com/columnarkit/clickhouse-dialect-go/dialect/clickhouseengine/internal/adapters"
)

// fakeDB is a DBAdapter test double that records executed SQL and serves
// scripted result rows.
type fakeDB struct {
	execSQL  []string
	querySQL []string
	rows     [][]any
	execErr  error
	queryErr error
}

func (db *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	db.execSQL = append(db.execSQL, query)
	if db.execErr != nil {
		return nil, db.execErr
	}

	return fakeResult{}, nil
}

func (db *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	db.querySQL = append(db.querySQL, query)
	if db.queryErr != nil {
		return nil, db.queryErr
	}

	return &fakeRows{rows: db.rows}, nil
}

type fakeResult struct{}

func (fakeResult) RowsAffected() (int64, error) { return 0, nil }

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]

	for i, destination := range dest {
		switch typed := destination.(type) {
		case *string:
			text, ok := row[i].(string)
			if !ok {
				return errors.New("scan destination type mismatch")
			}
			*typed = text
		case *any:
			*typed = row[i]
		default:
			return errors.New("unsupported scan destination")
		}
	}

	return nil
}

func (r *fakeRows) Close() error { return nil }

func readingsSchema() Schema {
	return Schema{
		Table: "readings",
		Columns: []Column{
			{Name: "id", Type: dialect.BinaryIDType()},
			{Name: "payload", Type: dialect.MapType()},
			{Name: "temperature", Type: dialect.OtherType(dialect.ColumnType{})},
		},
	}
}

func Test_NewAdapter_EmptyTableName(t *testing.T) {
	_, err := newAdapter(&fakeDB{}, Schema{})

	assert.ErrorIs(t, err, dialect.ErrEmptyTableName)
}

func Test_NewAdapter_NilDocumentMapper_FailsAtCompileTime(t *testing.T) {
	schema := Schema{
		Table:   "readings",
		Columns: []Column{{Name: "doc", Type: dialect.EmbeddedDocumentType(nil)}},
	}

	_, err := newAdapter(&fakeDB{}, schema)

	assert.ErrorIs(t, err, dialect.ErrNilDocumentMapper,
		"an unusable schema must be rejected at construction, not per row")
}

func Test_InsertRow_MapColumnIsStoredAsJSONText(t *testing.T) {
	db := &fakeDB{}
	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	insertErr := adapter.InsertRow(context.Background(), map[string]any{
		"id":          "a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00",
		"payload":     map[string]any{"unit": "celsius"},
		"temperature": 21.5,
	})
	require.NoError(t, insertErr)

	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], `'{"unit":"celsius"}'`, "the map must travel as a JSON text literal")
	assert.Contains(t, db.execSQL[0], "INSERT INTO `readings`")
	assert.NotContains(t, db.execSQL[0], "RETURNING")
}

func Test_InsertRow_GeneratesIdentifierForAbsentIDColumn(t *testing.T) {
	db := &fakeDB{}
	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	insertErr := adapter.InsertRow(context.Background(), map[string]any{
		"payload":     map[string]any{},
		"temperature": 21.5,
	})
	require.NoError(t, insertErr)

	require.Len(t, db.execSQL, 1)

	matches := regexp.MustCompile(`'([0-9a-f-]{36})'`).FindStringSubmatch(db.execSQL[0])
	require.Len(t, matches, 2, "a generated identifier must appear in the insert statement")

	_, parseErr := uuid.Parse(matches[1])
	assert.NoError(t, parseErr)
}

func Test_InsertRow_CanonicalizesProvidedIdentifier(t *testing.T) {
	db := &fakeDB{}
	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	insertErr := adapter.InsertRow(context.Background(), map[string]any{
		"id":          "A3F6B0A2-4F7E-44F5-9D35-0C6F0C1A9F00",
		"payload":     map[string]any{},
		"temperature": 1,
	})
	require.NoError(t, insertErr)

	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "'a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00'")
}

func Test_InsertRow_ValidationFailureNamesTheColumn(t *testing.T) {
	db := &fakeDB{}
	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	insertErr := adapter.InsertRow(context.Background(), map[string]any{
		"id":          "{a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00}",
		"payload":     map[string]any{},
		"temperature": 1,
	})

	var validationErr *dialect.ValidationError
	require.ErrorAs(t, insertErr, &validationErr)
	assert.Equal(t, "id", validationErr.Column)
	assert.Empty(t, db.execSQL, "nothing may reach the database on a validation failure")
}

func Test_InsertRow_ExecFailureIsWrapped(t *testing.T) {
	db := &fakeDB{execErr: errors.New("connection refused")}
	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	insertErr := adapter.InsertRow(context.Background(), map[string]any{
		"id":          "a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00",
		"payload":     map[string]any{},
		"temperature": 1,
	})

	assert.ErrorIs(t, insertErr, dialect.ErrInsertingRowFailed)
}

func Test_QueryRows_LoadsStoredTextBackIntoStructuredValues(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00", `{"unit":"celsius","window":5}`, 21.5},
	}}

	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	result, queryErr := adapter.QueryRows(context.Background())
	require.NoError(t, queryErr)
	require.Len(t, result, 1)

	assert.Equal(t, "a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00", result[0]["id"])
	assert.Equal(t, map[string]any{"unit": "celsius", "window": float64(5)}, result[0]["payload"])
	assert.Equal(t, 21.5, result[0]["temperature"], "unmanaged columns pass through untouched")
}

func Test_QueryRows_SelectsDeclaredColumnsWithWhereClause(t *testing.T) {
	db := &fakeDB{}
	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	_, queryErr := adapter.QueryRows(context.Background(), goqu.Ex{"id": "abc"})
	require.NoError(t, queryErr)

	require.Len(t, db.querySQL, 1)
	assert.Equal(t,
		"SELECT `id`, `payload`, `temperature` FROM `readings` WHERE (`id` = 'abc')",
		db.querySQL[0])
}

func Test_QueryRows_MalformedStoredTextIsADecodeError(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00", `{"unit": oops`, 21.5},
	}}

	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	_, queryErr := adapter.QueryRows(context.Background())

	var decodeErr *dialect.DecodeError
	require.ErrorAs(t, queryErr, &decodeErr)
	assert.Equal(t, `{"unit": oops`, decodeErr.Text, "the offending text must be preserved for diagnostics")
}

func Test_QueryRows_QueryFailureIsWrapped(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("connection refused")}
	adapter, err := newAdapter(db, readingsSchema())
	require.NoError(t, err)

	_, queryErr := adapter.QueryRows(context.Background())

	assert.ErrorIs(t, queryErr, dialect.ErrQueryingRowsFailed)
}

func Test_Adapter_EmbeddedDocumentRoundTrip(t *testing.T) {
	type sensorInfo struct {
		Vendor string `json:"vendor"`
		Model  string `json:"model"`
	}

	schema := Schema{
		Table: "sensors",
		Columns: []Column{
			{Name: "id", Type: dialect.UUIDType()},
			{Name: "info", Type: dialect.EmbeddedDocumentType(dialect.StructMapper(sensorInfo{}))},
		},
	}

	db := &fakeDB{}
	adapter, err := newAdapter(db, schema)
	require.NoError(t, err)

	insertErr := adapter.InsertRow(context.Background(), map[string]any{
		"id":   "a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00",
		"info": sensorInfo{Vendor: "acme", Model: "th-200"},
	})
	require.NoError(t, insertErr)
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], `"vendor":"acme"`)

	db.rows = [][]any{{"a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00", `{"vendor":"acme","model":"th-200"}`}}

	result, queryErr := adapter.QueryRows(context.Background())
	require.NoError(t, queryErr)
	require.Len(t, result, 1)
	assert.Equal(t, sensorInfo{Vendor: "acme", Model: "th-200"}, result[0]["info"])
}
