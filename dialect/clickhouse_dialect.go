package dialect

import (
	"github.com/doug-martin/goqu/v9"
)

// DialectName is the goqu dialect registered by this package for ClickHouse
// SQL generation.
const DialectName = "clickhouse"

// DialectOptions returns the goqu dialect options for ClickHouse. Everything
// not listed here is inherited from the conventional dialect defaults; only
// the divergences are applied.
func DialectOptions() *goqu.SQLDialectOptions {
	opts := goqu.DefaultDialectOptions()

	opts.QuoteRune = '`'
	opts.SupportsReturn = false
	opts.SupportsOrderByOnUpdate = false
	opts.SupportsLimitOnUpdate = false
	opts.SupportsOrderByOnDelete = false
	opts.SupportsLimitOnDelete = false
	opts.SupportsConflictUpdateWhere = false
	opts.SupportsInsertIgnoreSyntax = false
	opts.SupportsConflictTarget = false
	opts.SupportsWithCTE = true
	opts.SupportsWithCTERecursive = false
	opts.SupportsDistinctOn = false
	opts.TimeFormat = "2006-01-02 15:04:05"

	return opts
}

func init() {
	goqu.RegisterDialect(DialectName, DialectOptions())
}

// ColumnDDL returns the physical ClickHouse column type for a logical column
// type: map and document columns hold JSON text in a variable-length text
// column, identifier columns hold the canonical form in fixed-length text.
func ColumnDDL(columnType ColumnType) string {
	switch columnType.Kind() {
	case KindMap, KindParameterizedMap, KindEmbeddedDocument:
		return "String"
	case KindBinaryID, KindUUID:
		return "FixedString(36)"
	default:
		return ""
	}
}
