// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the service settings.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBDriver string `env:"DBDRIVER" envDefault:"mysql"`
	DBHost   string `env:"DBHOST" envDefault:"localhost"`
	DBUser   string `env:"DBUSER"`
	DBPwd    string `env:"DBPWD"`
	DBName   string `env:"DBNAME" envDefault:"test"`
	DBFile   string `env:"DBFILE" envDefault:"addressbook.db"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DSN returns the data source name for the configured driver. The mysql
// driver connects to a server; the sqlite driver opens an embedded,
// device-local database file.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBFile
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", c.DBUser, c.DBPwd, c.DBHost, c.DBName)
}
