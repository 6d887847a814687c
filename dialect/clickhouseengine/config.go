package clickhouseengine

import (
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
)

const (
	// Administrative commands that create or drop a logical database cannot
	// run inside that same database; they run against the control database.
	controlDatabase = "system"

	defaultEncoding    = "UTF8"
	defaultTimeout     = 15 * time.Second
	defaultDialTimeout = 10 * time.Second
)

// Config describes a ClickHouse repository. Unknown driver options go into
// Settings and are passed through opaquely.
type Config struct {
	Addr     []string
	Database string
	Username string
	Password string

	// Encoding is accepted for configuration compatibility; ClickHouse text
	// columns are always UTF-8, so it is validated but never sent.
	Encoding string

	// Timeout bounds each administrative command.
	Timeout time.Duration

	DialTimeout time.Duration
	Settings    clickhouse.Settings

	// Debugf receives driver debug output for pooled connections. It is
	// stripped for one-off administrative connections.
	Debugf func(format string, v ...any)
}

func (c Config) normalize() Config {
	if c.Encoding == "" {
		c.Encoding = defaultEncoding
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}

	return c
}

func (c Config) validate() error {
	if c.Database == "" {
		return dialect.ErrMissingDatabase
	}

	return nil
}

// ClientOptions builds the driver options for ordinary pooled traffic.
func (c Config) ClientOptions() *clickhouse.Options {
	c = c.normalize()

	return &clickhouse.Options{
		Addr: c.Addr,
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		Settings:    c.copySettings(),
		DialTimeout: c.DialTimeout,
		Debug:       c.Debugf != nil,
		Debugf:      c.Debugf,
	}
}

// adminOptions builds the driver options for a one-off administrative
// connection: the database is forced to the control database, pooling is
// collapsed to a single dedicated connection, the logging handle is
// stripped, and a failed dial surfaces immediately instead of retrying.
func (c Config) adminOptions() *clickhouse.Options {
	return &clickhouse.Options{
		Addr: c.Addr,
		Auth: clickhouse.Auth{
			Database: controlDatabase,
			Username: c.Username,
			Password: c.Password,
		},
		Settings:        c.copySettings(),
		DialTimeout:     c.DialTimeout,
		MaxOpenConns:    1,
		MaxIdleConns:    0,
		ConnMaxLifetime: 0,
	}
}

// copySettings keeps the one-off connection from sharing mutable state with
// the caller's config.
func (c Config) copySettings() clickhouse.Settings {
	if c.Settings == nil {
		return nil
	}

	settings := make(clickhouse.Settings, len(c.Settings))
	for key, value := range c.Settings {
		settings[key] = value
	}

	return settings
}
