package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
)

func Test_CommandOutcome_Indeterminate(t *testing.T) {
	tests := []struct {
		name          string
		outcome       dialect.CommandOutcome
		indeterminate bool
	}{
		{name: "success is determinate", outcome: dialect.SuccessOutcome(1)},
		{name: "already in desired state is determinate", outcome: dialect.AlreadyInDesiredStateOutcome()},
		{name: "driver error is determinate", outcome: dialect.DriverErrorOutcome("rejected")},
		{name: "timeout is indeterminate", outcome: dialect.TimeoutOutcome(), indeterminate: true},
		{name: "unexpected termination is indeterminate", outcome: dialect.UnexpectedTerminationOutcome("crashed"), indeterminate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.indeterminate, tt.outcome.Indeterminate())
		})
	}
}

func Test_CommandOutcome_DriverErrorCarriesMessageVerbatim(t *testing.T) {
	outcome := dialect.DriverErrorOutcome("Code: 62. DB::Exception: Syntax error")

	assert.Equal(t, dialect.OutcomeDriverError, outcome.Kind)
	assert.Equal(t, "Code: 62. DB::Exception: Syntax error", outcome.Message)
	assert.Contains(t, outcome.String(), "Syntax error")
}
