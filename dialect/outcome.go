package dialect

import "fmt"

// OutcomeKind is the tag discriminating CommandOutcome variants.
type OutcomeKind int

const (
	// OutcomeSuccess means the command was executed by the server.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeAlreadyInDesiredState means the command was a no-op: the object
	// to create already existed, or the object to drop was already gone.
	OutcomeAlreadyInDesiredState
	// OutcomeDriverError means the server rejected the command.
	OutcomeDriverError
	// OutcomeTimeout means the deadline elapsed before completion; the
	// command's server-side effect is indeterminate.
	OutcomeTimeout
	// OutcomeUnexpectedTermination means the execution unit died for an
	// unrecognized reason; the server-side effect is indeterminate.
	OutcomeUnexpectedTermination
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyInDesiredState:
		return "already_in_desired_state"
	case OutcomeDriverError:
		return "driver_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUnexpectedTermination:
		return "unexpected_termination"
	default:
		return "unknown"
	}
}

// CommandOutcome is the only contract an administrative command returns
// across the executor boundary. Callers must not depend on richer
// driver-specific detail.
type CommandOutcome struct {
	Kind         OutcomeKind
	RowsAffected int64
	Message      string
}

// SuccessOutcome is a factory method for a successful command.
func SuccessOutcome(rowsAffected int64) CommandOutcome {
	return CommandOutcome{Kind: OutcomeSuccess, RowsAffected: rowsAffected}
}

// AlreadyInDesiredStateOutcome is a factory method for the idempotent no-op.
func AlreadyInDesiredStateOutcome() CommandOutcome {
	return CommandOutcome{Kind: OutcomeAlreadyInDesiredState}
}

// DriverErrorOutcome is a factory method carrying the server's message verbatim.
func DriverErrorOutcome(message string) CommandOutcome {
	return CommandOutcome{Kind: OutcomeDriverError, Message: message}
}

// TimeoutOutcome is a factory method for an elapsed deadline.
func TimeoutOutcome() CommandOutcome {
	return CommandOutcome{Kind: OutcomeTimeout}
}

// UnexpectedTerminationOutcome is a factory method carrying a formatted
// description of the termination reason.
func UnexpectedTerminationOutcome(reason string) CommandOutcome {
	return CommandOutcome{Kind: OutcomeUnexpectedTermination, Message: reason}
}

// Indeterminate reports whether the command's ultimate server-side effect is
// unknown. Retry logic must treat indeterminate outcomes more cautiously
// than confirmed errors.
func (o CommandOutcome) Indeterminate() bool {
	return o.Kind == OutcomeTimeout || o.Kind == OutcomeUnexpectedTermination
}

func (o CommandOutcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return fmt.Sprintf("success (%d rows affected)", o.RowsAffected)
	case OutcomeAlreadyInDesiredState:
		return "already in desired state"
	case OutcomeDriverError:
		return "driver error: " + o.Message
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUnexpectedTermination:
		return "unexpected termination: " + o.Message
	default:
		return fmt.Sprintf("unknown outcome kind %d", o.Kind)
	}
}
