// Package config loads the importer's environment configuration.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is the complete set of environment-driven settings for the
// blockimporter CLI. Populate it with Load.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	BlocksPath  string `envconfig:"BLOCKS_PATH" required:"true"`
	Verbose     bool   `envconfig:"VERBOSE" default:"false"`

	InsertConcurrency      int `envconfig:"INSERT_CONCURRENCY" default:"8"`
	ChannelCapacity        int `envconfig:"CHANNEL_CAPACITY" default:"100"`
	MetricsIntervalSeconds int `envconfig:"METRICS_INTERVAL_SECONDS" default:"10"`
	HashWorkers            int `envconfig:"HASH_WORKERS" default:"0"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process environment")
	}
	return cfg, nil
}

// String returns a representation with the database URL's password masked,
// safe to write to the log at startup.
func (c Config) String() string {
	return fmt.Sprintf("{DatabaseURL:%s BlocksPath:%v Verbose:%v InsertConcurrency:%d "+
		"ChannelCapacity:%d MetricsIntervalSeconds:%d HashWorkers:%d}",
		maskPassword(c.DatabaseURL), c.BlocksPath, c.Verbose, c.InsertConcurrency,
		c.ChannelCapacity, c.MetricsIntervalSeconds, c.HashWorkers)
}

// maskPassword replaces a DSN's password component with asterisks. If the
// URL doesn't parse as one, it's returned unchanged rather than guessed at.
func maskPassword(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return dsn
	}

	// url.UserPassword would percent-encode the asterisks, so the mask is
	// spliced in after the username instead.
	u.User = url.User(u.User.Username())
	return strings.Replace(u.String(), "@", ":****@", 1)
}
