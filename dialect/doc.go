// Package dialect provides the core abstractions for mapping a goqu-based
// relational mapping stack onto ClickHouse.
//
// ClickHouse diverges from the mainstream relational databases such a stack
// is designed around: there is no RETURNING clause, no enforced uniqueness
// or foreign-key constraints, map and document values are persisted as JSON
// text, and UUID identifiers are persisted as 36-character text. This
// package defines the types that bridge those divergences:
//
//   - ColumnType: the logical column types the mapping stack wants to persist
//   - LoaderChain / DumperChain: ordered conversion steps between the stored
//     representation and the in-memory value
//   - CommandOutcome: the stable result vocabulary for administrative commands
//   - common error definitions shared by the engine implementations
//
// It also registers a "clickhouse" goqu dialect so that ordinary CRUD SQL
// generation can be delegated to goqu.
//
// Common usage pattern:
//
//	load, err := dialect.ResolveLoaderChain(dialect.MapType(), dialect.PassthroughResolver{})
//	if err != nil {
//		// handle error
//	}
//
//	value, err := load.Apply(rawDriverValue)
//	if err != nil {
//		// stored text was corrupted
//	}
package dialect
