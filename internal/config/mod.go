// Package config loads the settings of the ballot application.
//
// The settings are read from a YAML file and each of them can be overridden
// by the flag of the same name, or by the environment variable prefixed with
// BALLOT_ when the flag is not set:
//
//	database: /var/lib/ballot/ballot.db
//	listen: 127.0.0.1:8080
//	loglevel: debug
package config

import (
	"os"
	"strings"

	"go.dedis.ch/ballot/cli"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

const (
	// FileFlag is the name of the flag with the path to the YAML file.
	FileFlag = "config"

	// DatabaseFlag is the name of the flag with the path to the database.
	DatabaseFlag = "db"

	// ListenFlag is the name of the flag with the address of the HTTP proxy.
	ListenFlag = "listen"

	// LogLevelFlag is the name of the flag with the logging level.
	LogLevelFlag = "loglevel"
)

// EnvPrefix is the prefix of the environment variables of the flags.
const EnvPrefix = "BALLOT_"

const (
	defaultDatabase = "ballot.db"
	defaultListen   = "127.0.0.1:8080"
)

// Config is the set of settings of the application.
type Config struct {
	// Database is the path to the database file of the ledger.
	Database string `yaml:"database"`

	// Listen is the address of the HTTP read proxy.
	Listen string `yaml:"listen"`

	// LogLevel is the logging level. The LLVL environment variable is used
	// when it is empty.
	LogLevel string `yaml:"loglevel"`
}

// Default returns the default settings.
func Default() Config {
	return Config{
		Database: defaultDatabase,
		Listen:   defaultListen,
	}
}

// Load returns the settings of the file at the path, on top of the default
// ones. An empty path returns the default settings.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, xerrors.Errorf("failed to read config: %v", err)
	}

	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, xerrors.Errorf("failed to parse config: %v", err)
	}

	return cfg, nil
}

// FromFlags loads the file of the config flag, if any, and overrides the
// settings with the flags that are set.
func FromFlags(flags cli.Flags) (Config, error) {
	cfg, err := Load(flags.Path(FileFlag))
	if err != nil {
		return cfg, err
	}

	override(&cfg.Database, flags.Path(DatabaseFlag))
	override(&cfg.Listen, flags.String(ListenFlag))
	override(&cfg.LogLevel, flags.String(LogLevelFlag))

	return cfg, nil
}

// Flags returns the definition of the flags read by FromFlags.
func Flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:    FileFlag,
			EnvVars: envVars(FileFlag),
			Usage:   "path to the YAML configuration file",
		},
		cli.StringFlag{
			Name:    DatabaseFlag,
			EnvVars: envVars(DatabaseFlag),
			Usage:   "path to the database file, overrides the configuration",
		},
		cli.StringFlag{
			Name:    ListenFlag,
			EnvVars: envVars(ListenFlag),
			Usage:   "address of the HTTP proxy, overrides the configuration",
		},
		cli.StringFlag{
			Name:    LogLevelFlag,
			EnvVars: envVars(LogLevelFlag),
			Usage:   "logging level [error|warn|info|debug|trace|none]",
		},
	}
}

func envVars(name string) []string {
	return []string{EnvPrefix + strings.ToUpper(name)}
}

func override(field *string, value string) {
	if value != "" {
		*field = value
	}
}
