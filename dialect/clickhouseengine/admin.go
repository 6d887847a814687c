package clickhouseengine

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
)

const (
	logMsgAdminConnOpenFailed  = "failed to open dedicated admin connection"
	logMsgAdminConnCloseFailed = "failed to close dedicated admin connection"
	logMsgAdminCommandFinished = "admin command finished"
	logMsgAdminCommandTimedOut = "admin command timed out, execution abandoned"
	logAttrOutcome             = "outcome"
	logAttrSQL                 = "sql"
	metricAdminCommandDuration = "admin_command_duration"
	metricAdminCommandOutcomes = "admin_command_outcomes"
)

// AdminCommand is a transient value object describing one administrative
// SQL command: created per storage-management call, destroyed after it.
type AdminCommand struct {
	SQL      string
	Database string // overrides the connection's target database when set
	Timeout  time.Duration
	Options  *clickhouse.Options
}

// adminConn is the minimal surface the executor needs from a dedicated
// connection; production connections wrap the native driver.
type adminConn interface {
	Exec(ctx context.Context, sqlText string) error
	Close() error
}

type connOpener func(options *clickhouse.Options) (adminConn, error)

type driverAdminConn struct {
	conn chdriver.Conn
}

func (c driverAdminConn) Exec(ctx context.Context, sqlText string) error {
	return c.conn.Exec(ctx, sqlText)
}

func (c driverAdminConn) Close() error {
	return c.conn.Close()
}

func openDriverConn(options *clickhouse.Options) (adminConn, error) {
	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, err
	}

	return driverAdminConn{conn: conn}, nil
}

// AdminExecutor runs administrative SQL commands against the control
// database, each on a dedicated non-pooled connection and an isolated
// goroutine, bounded by a deadline. There is no transaction and no retry
// around a command; each call is a single independent unit whose outcome
// is always returned as a value.
type AdminExecutor struct {
	open             connOpener
	logger           dialect.Logger
	contextualLogger dialect.ContextualLogger
	metricsCollector dialect.MetricsCollector
	tracingCollector dialect.TracingCollector
}

// AdminOption defines a functional option for configuring AdminExecutor.
type AdminOption func(*AdminExecutor) error

// WithAdminLogger sets the logger for the AdminExecutor.
func WithAdminLogger(logger dialect.Logger) AdminOption {
	return func(e *AdminExecutor) error {
		e.logger = logger
		return nil
	}
}

// WithAdminContextualLogger sets the contextual logger for the AdminExecutor.
func WithAdminContextualLogger(logger dialect.ContextualLogger) AdminOption {
	return func(e *AdminExecutor) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithAdminMetrics sets the metrics collector for the AdminExecutor.
func WithAdminMetrics(collector dialect.MetricsCollector) AdminOption {
	return func(e *AdminExecutor) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithAdminTracing sets the tracing collector for the AdminExecutor.
func WithAdminTracing(collector dialect.TracingCollector) AdminOption {
	return func(e *AdminExecutor) error {
		e.tracingCollector = collector
		return nil
	}
}

// NewAdminExecutor creates a new AdminExecutor with optional configuration.
func NewAdminExecutor(options ...AdminOption) (*AdminExecutor, error) {
	executor := &AdminExecutor{open: openDriverConn}

	for _, option := range options {
		if err := option(executor); err != nil {
			return nil, err
		}
	}

	return executor, nil
}

// ProvisionStorage creates the logical database named in the config on the
// control database. Creating an already existing database returns
// AlreadyInDesiredState, so provisioning can be retried freely. Only
// misconfiguration (missing database) is returned as an error, before any
// connection is attempted.
func (e *AdminExecutor) ProvisionStorage(ctx context.Context, config Config) (dialect.CommandOutcome, error) {
	config = config.normalize()
	if err := config.validate(); err != nil {
		return dialect.CommandOutcome{}, err
	}

	command := AdminCommand{
		SQL:     fmt.Sprintf("CREATE DATABASE `%s`", config.Database),
		Timeout: config.Timeout,
		Options: config.adminOptions(),
	}

	return e.Execute(ctx, command), nil
}

// DeprovisionStorage drops the logical database named in the config on the
// control database. Dropping a never-created database returns
// AlreadyInDesiredState.
func (e *AdminExecutor) DeprovisionStorage(ctx context.Context, config Config) (dialect.CommandOutcome, error) {
	config = config.normalize()
	if err := config.validate(); err != nil {
		return dialect.CommandOutcome{}, err
	}

	command := AdminCommand{
		SQL:     fmt.Sprintf("DROP DATABASE `%s`", config.Database),
		Timeout: config.Timeout,
		Options: config.adminOptions(),
	}

	return e.Execute(ctx, command), nil
}

// Execute runs exactly one administrative command on a dedicated connection
// and an isolated goroutine, waits up to the command's timeout and maps the
// result into the CommandOutcome vocabulary. On deadline expiry the
// execution is cancelled and abandoned: control returns promptly and the
// abandoned goroutine closes the connection best-effort.
func (e *AdminExecutor) Execute(ctx context.Context, command AdminCommand) dialect.CommandOutcome {
	options := command.Options
	if options == nil {
		return dialect.DriverErrorOutcome("no driver connection options supplied")
	}

	if command.Database != "" {
		options.Auth.Database = command.Database
	}

	timeout := command.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	var span dialect.SpanContext
	if e.tracingCollector != nil {
		ctx, span = e.tracingCollector.StartSpan(ctx, "admincommand.execute", map[string]string{logAttrSQL: command.SQL})
	}

	conn, openErr := e.open(options)
	if openErr != nil {
		e.logError(ctx, logMsgAdminConnOpenFailed, logAttrError, openErr.Error())
		e.finishSpan(span, dialect.DriverErrorOutcome(openErr.Error()))

		return dialect.DriverErrorOutcome(openErr.Error())
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan dialect.CommandOutcome, 1)
	go e.runIsolated(runCtx, conn, command.SQL, outcomes)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	start := time.Now()

	select {
	case outcome := <-outcomes:
		e.recordOutcome(ctx, command.SQL, outcome, time.Since(start))
		e.finishSpan(span, outcome)

		return outcome

	case <-timer.C:
		cancel()
		outcome := dialect.TimeoutOutcome()
		e.logError(ctx, logMsgAdminCommandTimedOut, logAttrSQL, command.SQL)
		e.recordOutcome(ctx, command.SQL, outcome, time.Since(start))
		e.finishSpan(span, outcome)

		return outcome
	}
}

func (e *AdminExecutor) finishSpan(span dialect.SpanContext, outcome dialect.CommandOutcome) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	e.tracingCollector.FinishSpan(span, outcome.Kind.String(), map[string]string{logAttrOutcome: outcome.String()})
}

// runIsolated executes the command so that a crash of the execution unit
// cannot propagate into and terminate the caller.
func (e *AdminExecutor) runIsolated(
	ctx context.Context,
	conn adminConn,
	sqlText string,
	outcomes chan<- dialect.CommandOutcome,
) {

	defer func() {
		if reason := recover(); reason != nil {
			e.closeConn(conn)
			outcomes <- dialect.UnexpectedTerminationOutcome(fmt.Sprintf("%v", reason))
		}
	}()

	execErr := conn.Exec(ctx, sqlText)
	e.closeConn(conn)

	outcomes <- classifyExecError(sqlText, execErr)
}

func (e *AdminExecutor) closeConn(conn adminConn) {
	if closeErr := conn.Close(); closeErr != nil {
		if e.logger != nil {
			e.logger.Warn(logMsgAdminConnCloseFailed, logAttrError, closeErr.Error())
		}
	}
}

func (e *AdminExecutor) logError(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}

func (e *AdminExecutor) recordOutcome(
	ctx context.Context,
	sqlText string,
	outcome dialect.CommandOutcome,
	duration time.Duration,
) {

	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, logMsgAdminCommandFinished, logAttrOutcome, outcome.String(), logAttrSQL, sqlText)
	} else if e.logger != nil {
		e.logger.Info(logMsgAdminCommandFinished, logAttrOutcome, outcome.String(), logAttrSQL, sqlText)
	}

	if e.metricsCollector != nil {
		labels := map[string]string{logAttrOutcome: outcome.Kind.String()}
		e.metricsCollector.RecordDuration(metricAdminCommandDuration, duration, labels)
		e.metricsCollector.IncrementCounter(metricAdminCommandOutcomes, labels)
	}
}
