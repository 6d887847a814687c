package dialect

import (
	"errors"
	"fmt"
)

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTableName = errors.New("empty tableName supplied")
var ErrMissingDatabase = errors.New("missing required :database option")
var ErrEmptyChain = errors.New("empty coercion chain")
var ErrNilDocumentMapper = errors.New("nil document mapper supplied")
var ErrResolvingChainFailed = errors.New("resolving coercion chain failed")

var ErrBuildingQueryFailed = errors.New("building sql query failed")
var ErrQueryingRowsFailed = errors.New("querying rows failed")
var ErrInsertingRowFailed = errors.New("inserting row failed")
var ErrScanningDBRowFailed = errors.New("scanning database row failed")

var errDocumentNotAnObject = errors.New("decoded document is not an object")

// DecodeError reports stored interchange text that is not well-formed JSON.
// It indicates corrupted storage and is not a recoverable condition.
type DecodeError struct {
	Text string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed stored interchange text %q: %s", e.Text, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError reports a value that failed identifier canonicalization
// while dumping. The column name is bound by the schema glue once known.
type ValidationError struct {
	Column string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("value %v is not a canonical identifier", e.Value)
	}

	return fmt.Sprintf("value %v for column %q is not a canonical identifier", e.Value, e.Column)
}
