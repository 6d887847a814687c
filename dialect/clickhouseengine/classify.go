package clickhouseengine

import (
	"context"
	"errors"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
)

// ClickHouse server exception codes recognized by the executor. This mapping
// is the single point of driver-version sensitivity.
const (
	codeTableAlreadyExists    = 57
	codeUnknownTable          = 60
	codeUnknownDatabase       = 81
	codeDatabaseAlreadyExists = 82
)

// classifyExecError translates the driver's opaque error into the stable
// CommandOutcome vocabulary. A duplicate-object error while creating and a
// missing-object error while dropping both mean the server is already in
// the desired state; two concurrent creates racing at the server must
// resolve this way for the loser, not as a driver error.
func classifyExecError(sqlText string, err error) dialect.CommandOutcome {
	if err == nil {
		return dialect.SuccessOutcome(0)
	}

	var exception *clickhouse.Exception
	if errors.As(err, &exception) {
		switch exception.Code {
		case codeDatabaseAlreadyExists, codeTableAlreadyExists:
			if isCreateCommand(sqlText) {
				return dialect.AlreadyInDesiredStateOutcome()
			}
		case codeUnknownDatabase, codeUnknownTable:
			if isDropCommand(sqlText) {
				return dialect.AlreadyInDesiredStateOutcome()
			}
		}

		return dialect.DriverErrorOutcome(exception.Message)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dialect.TimeoutOutcome()
	}

	return dialect.DriverErrorOutcome(err.Error())
}

func isCreateCommand(sqlText string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlText)), "CREATE")
}

func isDropCommand(sqlText string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlText)), "DROP")
}
